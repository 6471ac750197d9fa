package store

import (
	"context"

	"github.com/blood-inventory-ledger/internal/domain/inventory"
	"github.com/blood-inventory-ledger/internal/domain/outbox"
)

// Repositories are bound to one unit of work
type Repositories struct {
	Entries inventory.EntryRepository
	Issues  inventory.IssueRepository
	Outbox  outbox.Repository
}

// UnitOfWork runs ledger writes atomically. Nothing fn writes is visible
// unless fn returns nil.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(repos Repositories) error) error

	// DoLocked is Do with the admission guard for one tuple held for the
	// whole of fn. Guarded units of work for the same tuple never overlap;
	// failing to take the guard yields *inventory.ConcurrencyConflictError.
	DoLocked(ctx context.Context, org inventory.Organization, key inventory.StockKey, fn func(repos Repositories) error) error
}
