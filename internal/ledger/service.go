// Package ledger is the inventory engine: it appends entries and issues,
// computes balances and expiry reports, and admits issues against stock.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/blood-inventory-ledger/internal/domain/inventory"
	"github.com/blood-inventory-ledger/internal/domain/journal"
	"github.com/blood-inventory-ledger/internal/domain/outbox"
	"github.com/blood-inventory-ledger/internal/domain/shared"
	"github.com/blood-inventory-ledger/internal/domain/store"
	"github.com/google/uuid"
)

// Store is a unit of work that can also hand out repositories for reads
// outside of one
type Store interface {
	store.UnitOfWork
	Repositories() store.Repositories
}

type Service struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

type Option func(*Service)

// WithClock replaces time.Now, for tests
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(logger *slog.Logger, st Store, opts ...Option) *Service {
	s := &Service{
		store:  st,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now returns the engine's clock in UTC
func (s *Service) Now() time.Time {
	return s.now().UTC()
}

// EntryPage is one page of an entry listing with the unpaged total
type EntryPage struct {
	Entries []*inventory.Entry
	Total   int64
	Page    inventory.Page
}

type IssuePage struct {
	Issues []*inventory.Issue
	Total  int64
	Page   inventory.Page
}

// RecordEntry validates and appends a received batch
func (s *Service) RecordEntry(ctx context.Context, org inventory.Organization, in inventory.EntryInput) (*inventory.Entry, error) {
	entry, err := inventory.NewEntry(org, in)
	if err != nil {
		return nil, err
	}

	movement := journal.NewReceivedMovement(entry, shared.CorrelationIDFromContext(ctx))
	err = s.store.Do(ctx, func(repos store.Repositories) error {
		if err := repos.Entries.Create(ctx, entry); err != nil {
			return err
		}
		return appendMovement(ctx, repos, movement)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Inventory entry recorded",
		"entry_id", entry.ID.String(),
		"organization_id", org.ID.String(),
		"blood_group", string(entry.BloodGroup),
		"component_type", string(entry.ComponentType),
		"units", entry.Units,
	)
	return entry, nil
}

func (s *Service) ListEntries(ctx context.Context, org inventory.Organization, filter inventory.EntryFilter) (*EntryPage, error) {
	if err := org.Validate(); err != nil {
		return nil, err
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	filter.Page = filter.Page.Normalize()

	repos := s.store.Repositories()
	entries, err := repos.Entries.List(ctx, org, filter)
	if err != nil {
		return nil, err
	}
	total, err := repos.Entries.Count(ctx, org, filter)
	if err != nil {
		return nil, err
	}
	return &EntryPage{Entries: entries, Total: total, Page: filter.Page}, nil
}

// RecordIssue appends an issue without checking stock. Callers must have
// admitted the quantity already; TryIssue is the guarded path.
func (s *Service) RecordIssue(ctx context.Context, org inventory.Organization, in inventory.IssueInput) (*inventory.Issue, error) {
	issue, err := inventory.NewIssue(org, in)
	if err != nil {
		return nil, err
	}

	err = s.store.Do(ctx, func(repos store.Repositories) error {
		return appendIssue(ctx, repos, issue)
	})
	if err != nil {
		return nil, err
	}
	return issue, nil
}

func (s *Service) ListIssues(ctx context.Context, org inventory.Organization, filter inventory.IssueFilter) (*IssuePage, error) {
	if err := org.Validate(); err != nil {
		return nil, err
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	filter.Page = filter.Page.Normalize()

	repos := s.store.Repositories()
	issues, err := repos.Issues.List(ctx, org, filter)
	if err != nil {
		return nil, err
	}
	total, err := repos.Issues.Count(ctx, org, filter)
	if err != nil {
		return nil, err
	}
	return &IssuePage{Issues: issues, Total: total, Page: filter.Page}, nil
}

// ComputeBalance returns usable minus issued units of one tuple at asOf,
// never below zero. A zero asOf means now.
func (s *Service) ComputeBalance(ctx context.Context, org inventory.Organization, key inventory.StockKey, asOf time.Time) (int64, error) {
	if err := org.Validate(); err != nil {
		return 0, err
	}
	if err := key.Validate(); err != nil {
		return 0, err
	}
	if asOf.IsZero() {
		asOf = s.Now()
	}
	return availableUnits(ctx, s.store.Repositories(), org, key, asOf)
}

// Totals aggregates both ledgers of org at asOf
func (s *Service) Totals(ctx context.Context, org inventory.Organization, asOf time.Time) (inventory.StockTotals, error) {
	if err := org.Validate(); err != nil {
		return inventory.StockTotals{}, err
	}
	if asOf.IsZero() {
		asOf = s.Now()
	}

	repos := s.store.Repositories()
	usable, err := repos.Entries.UsableTotals(ctx, org, asOf)
	if err != nil {
		return inventory.StockTotals{}, err
	}
	expired, err := repos.Entries.ExpiredTotals(ctx, org, asOf)
	if err != nil {
		return inventory.StockTotals{}, err
	}
	issued, err := repos.Issues.IssuedTotals(ctx, org)
	if err != nil {
		return inventory.StockTotals{}, err
	}
	return inventory.StockTotals{AsOf: asOf, Usable: usable, Expired: expired, Issued: issued}, nil
}

// SummarizeByOrganization returns one line per tuple seen in either ledger,
// labeled with the summary thresholds
func (s *Service) SummarizeByOrganization(ctx context.Context, org inventory.Organization) ([]inventory.StockLine, error) {
	totals, err := s.Totals(ctx, org, time.Time{})
	if err != nil {
		return nil, err
	}
	return inventory.Summarize(totals, inventory.SummaryThresholds), nil
}

// ClassifyExpiry reports expired stock at asOf and stock expiring within
// windowDays of it. A zero asOf means now.
func (s *Service) ClassifyExpiry(ctx context.Context, org inventory.Organization, asOf time.Time, windowDays int) (*inventory.ExpiryReport, error) {
	if windowDays < 0 {
		return nil, inventory.NewValidationError("window_days", "must not be negative")
	}
	totals, err := s.Totals(ctx, org, asOf)
	if err != nil {
		return nil, err
	}
	return s.classify(ctx, org, totals, windowDays)
}

func (s *Service) classify(ctx context.Context, org inventory.Organization, totals inventory.StockTotals, windowDays int) (*inventory.ExpiryReport, error) {
	from, to := inventory.ExpiringWindow(totals.AsOf, windowDays)
	expiring, err := s.store.Repositories().Entries.ExpiringTotals(ctx, org, from, to)
	if err != nil {
		return nil, err
	}
	return inventory.ClassifyExpiry(totals, expiring, windowDays), nil
}

// TryIssue admits and appends an issue only if the tuple holds enough
// usable stock. Stock is evaluated at the later of now and the issue date.
// Admissions for the same tuple are serialized by the store's guard.
func (s *Service) TryIssue(ctx context.Context, org inventory.Organization, in inventory.IssueInput) (*inventory.Issue, error) {
	issue, err := inventory.NewIssue(org, in)
	if err != nil {
		return nil, err
	}

	cutoff := s.Now()
	if issue.IssuedDate.After(cutoff) {
		cutoff = issue.IssuedDate
	}

	err = s.store.DoLocked(ctx, org, issue.Key(), func(repos store.Repositories) error {
		// a redelivered request must read as already admitted even once the
		// stock it consumed no longer covers it
		if in.ID != uuid.Nil {
			exists, err := repos.Issues.Exists(ctx, issue.ID)
			if err != nil {
				return err
			}
			if exists {
				return &inventory.DuplicateRecordError{ID: issue.ID}
			}
		}
		available, err := availableUnits(ctx, repos, org, issue.Key(), cutoff)
		if err != nil {
			return err
		}
		if issue.Units > available {
			return &inventory.InsufficientStockError{Available: available, Requested: issue.Units}
		}
		return appendIssue(ctx, repos, issue)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Inventory issue admitted",
		"issue_id", issue.ID.String(),
		"organization_id", org.ID.String(),
		"blood_group", string(issue.BloodGroup),
		"component_type", string(issue.ComponentType),
		"units", issue.Units,
	)
	return issue, nil
}

func availableUnits(ctx context.Context, repos store.Repositories, org inventory.Organization, key inventory.StockKey, asOf time.Time) (int64, error) {
	usable, err := repos.Entries.UsableUnits(ctx, org, key, asOf)
	if err != nil {
		return 0, err
	}
	issued, err := repos.Issues.IssuedUnits(ctx, org, key)
	if err != nil {
		return 0, err
	}
	return inventory.Balance(usable, issued), nil
}

func appendIssue(ctx context.Context, repos store.Repositories, issue *inventory.Issue) error {
	if err := repos.Issues.Create(ctx, issue); err != nil {
		return err
	}
	return appendMovement(ctx, repos, journal.NewIssuedMovement(issue, shared.CorrelationIDFromContext(ctx)))
}

func appendMovement(ctx context.Context, repos store.Repositories, movement *journal.Movement) error {
	msg, err := outbox.NewMessage(movement)
	if err != nil {
		return fmt.Errorf("failed to encode movement: %w", err)
	}
	return repos.Outbox.Create(ctx, msg)
}
