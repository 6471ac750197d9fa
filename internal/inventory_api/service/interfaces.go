package service

import (
	"context"
	"time"

	"github.com/blood-inventory-ledger/internal/domain/admission"
	"github.com/blood-inventory-ledger/internal/domain/inventory"
	"github.com/blood-inventory-ledger/internal/domain/journal"
	"github.com/blood-inventory-ledger/internal/domain/shared"
	"github.com/blood-inventory-ledger/internal/ledger"
	"github.com/google/uuid"
)

// InventoryService is the synchronous ledger surface. *ledger.Service
// satisfies it.
type InventoryService interface {
	RecordEntry(ctx context.Context, org inventory.Organization, in inventory.EntryInput) (*inventory.Entry, error)
	ListEntries(ctx context.Context, org inventory.Organization, filter inventory.EntryFilter) (*ledger.EntryPage, error)

	// TryIssue returns *inventory.InsufficientStockError when the tuple
	// cannot cover the issue
	TryIssue(ctx context.Context, org inventory.Organization, in inventory.IssueInput) (*inventory.Issue, error)
	ListIssues(ctx context.Context, org inventory.Organization, filter inventory.IssueFilter) (*ledger.IssuePage, error)

	ComputeBalance(ctx context.Context, org inventory.Organization, key inventory.StockKey, asOf time.Time) (int64, error)
	SummarizeByOrganization(ctx context.Context, org inventory.Organization) ([]inventory.StockLine, error)
	ClassifyExpiry(ctx context.Context, org inventory.Organization, asOf time.Time, windowDays int) (*inventory.ExpiryReport, error)
	Dashboard(ctx context.Context, org inventory.Organization, windowDays int) (*ledger.Dashboard, error)
}

// AnalyticsService builds the trend and distribution views
type AnalyticsService interface {
	// GetAnalytics covers the last days days and the configured number of
	// months. days <= 0 selects the configured default.
	GetAnalytics(ctx context.Context, org inventory.Organization, days int) (*Analytics, error)
}

// IssuanceService hands issuance requests to the processor
type IssuanceService interface {
	// SubmitRequest publishes the request. When its idempotency key already
	// has a decision, that decision is returned and nothing is published.
	SubmitRequest(ctx context.Context, req *shared.IssuanceRequest) (*admission.Decision, error)

	// GetDecision returns nil if the processor has not recorded the request
	// for org yet
	GetDecision(ctx context.Context, org inventory.Organization, requestID uuid.UUID) (*admission.Decision, error)

	// ListDecisions returns one page of decisions and the total count
	ListDecisions(ctx context.Context, org inventory.Organization, page inventory.Page) ([]*admission.Decision, int64, error)
}

// JournalService reads the movement journal of an organization
type JournalService interface {
	ListMovements(ctx context.Context, org inventory.Organization, page inventory.Page) ([]*journal.Movement, int64, error)

	// GetMovement returns nil when org has no movement with eventID
	GetMovement(ctx context.Context, org inventory.Organization, eventID uuid.UUID) (*MovementView, error)
}
