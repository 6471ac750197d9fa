package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

// Page selects a slice of a most-recent-first listing
type Page struct {
	Page    int
	PerPage int
}

// Normalize applies defaults and bounds
func (p Page) Normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PerPage < 1 {
		p.PerPage = DefaultPerPage
	}
	if p.PerPage > MaxPerPage {
		p.PerPage = MaxPerPage
	}
	return p
}

func (p Page) Limit() int  { return p.Normalize().PerPage }
func (p Page) Offset() int { n := p.Normalize(); return (n.Page - 1) * n.PerPage }

// EntryFilter narrows an entry listing. Zero fields match everything.
type EntryFilter struct {
	BloodGroup    BloodGroup
	ComponentType ComponentType
	SourceType    SourceType
	Page
}

func (f EntryFilter) Validate() error {
	if f.BloodGroup != "" && !f.BloodGroup.Valid() {
		return NewValidationError("blood_group", "unrecognized filter value")
	}
	if f.ComponentType != "" && !f.ComponentType.Valid() {
		return NewValidationError("component_type", "unrecognized filter value")
	}
	if f.SourceType != "" && !f.SourceType.Valid() {
		return NewValidationError("source_type", "unrecognized filter value")
	}
	return nil
}

// Matches reports whether e passes the filter
func (f EntryFilter) Matches(e *Entry) bool {
	return (f.BloodGroup == "" || e.BloodGroup == f.BloodGroup) &&
		(f.ComponentType == "" || e.ComponentType == f.ComponentType) &&
		(f.SourceType == "" || e.SourceType == f.SourceType)
}

// IssueFilter narrows an issue listing. Zero fields match everything.
type IssueFilter struct {
	BloodGroup    BloodGroup
	ComponentType ComponentType
	IssuedToType  RecipientType
	Page
}

func (f IssueFilter) Validate() error {
	if f.BloodGroup != "" && !f.BloodGroup.Valid() {
		return NewValidationError("blood_group", "unrecognized filter value")
	}
	if f.ComponentType != "" && !f.ComponentType.Valid() {
		return NewValidationError("component_type", "unrecognized filter value")
	}
	if f.IssuedToType != "" && !f.IssuedToType.Valid() {
		return NewValidationError("issued_to_type", "unrecognized filter value")
	}
	return nil
}

func (f IssueFilter) Matches(i *Issue) bool {
	return (f.BloodGroup == "" || i.BloodGroup == f.BloodGroup) &&
		(f.ComponentType == "" || i.ComponentType == f.ComponentType) &&
		(f.IssuedToType == "" || i.IssuedToType == f.IssuedToType)
}

// EntryRepository is the append-only store of received units. Rows are
// never updated or deleted.
type EntryRepository interface {
	Create(ctx context.Context, entry *Entry) error
	List(ctx context.Context, org Organization, filter EntryFilter) ([]*Entry, error)
	Count(ctx context.Context, org Organization, filter EntryFilter) (int64, error)

	// UsableUnits sums units of the key with no expiry or expiry >= asOf
	UsableUnits(ctx context.Context, org Organization, key StockKey, asOf time.Time) (int64, error)
	UsableTotals(ctx context.Context, org Organization, asOf time.Time) ([]StockUnits, error)
	ExpiredTotals(ctx context.Context, org Organization, asOf time.Time) ([]StockUnits, error)
	// ExpiringTotals sums units with from <= expiry <= to
	ExpiringTotals(ctx context.Context, org Organization, from, to time.Time) ([]StockUnits, error)
}

// IssueRepository is the append-only store of dispatched units
type IssueRepository interface {
	Create(ctx context.Context, issue *Issue) error
	List(ctx context.Context, org Organization, filter IssueFilter) ([]*Issue, error)
	Count(ctx context.Context, org Organization, filter IssueFilter) (int64, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)

	IssuedUnits(ctx context.Context, org Organization, key StockKey) (int64, error)
	IssuedTotals(ctx context.Context, org Organization) ([]StockUnits, error)
}
