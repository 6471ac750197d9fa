package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/blood-inventory-ledger/internal/domain/inventory"
	"github.com/blood-inventory-ledger/internal/domain/store"
	"github.com/blood-inventory-ledger/internal/platform/persistence"
	"github.com/jackc/pgx/v5"
)

// UnitOfWork runs ledger writes in one PostgreSQL transaction. The
// admission guard is a transaction scoped advisory lock keyed by the
// organization and stock tuple, so it is released on commit or rollback.
type UnitOfWork struct {
	db          persistence.TxBeginner
	logger      *slog.Logger
	lockTimeout time.Duration

	entries *EntryRepository
	issues  *IssueRepository
	outbox  *OutboxRepository
}

var _ store.UnitOfWork = (*UnitOfWork)(nil)

// NewUnitOfWork takes anything that both begins transactions and runs
// queries, normally the pgx pool
func NewUnitOfWork(logger *slog.Logger, db interface {
	persistence.TxBeginner
	persistence.Querier
}, lockTimeout time.Duration) *UnitOfWork {
	return &UnitOfWork{
		db:          db,
		logger:      logger,
		lockTimeout: lockTimeout,
		entries:     NewEntryRepository(logger, db),
		issues:      NewIssueRepository(logger, db),
		outbox:      NewOutboxRepository(logger, db),
	}
}

// Repositories returns pool bound repositories for reads outside a unit of work
func (u *UnitOfWork) Repositories() store.Repositories {
	return store.Repositories{
		Entries: u.entries,
		Issues:  u.issues,
		Outbox:  u.outbox,
	}
}

func (u *UnitOfWork) Do(ctx context.Context, fn func(repos store.Repositories) error) error {
	return u.run(ctx, "", nil, fn)
}

func (u *UnitOfWork) DoLocked(ctx context.Context, org inventory.Organization, key inventory.StockKey, fn func(repos store.Repositories) error) error {
	lockKey := org.LockKey(key)
	return u.run(ctx, lockKey, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT set_config('lock_timeout', $1, true)`, lockTimeoutSetting(u.lockTimeout)); err != nil {
			return fmt.Errorf("failed to set lock timeout: %w", err)
		}
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, lockKey); err != nil {
			if isContention(err) {
				u.logger.Warn("Admission guard busy", "lock_key", lockKey, "error", err)
				return &inventory.ConcurrencyConflictError{Key: lockKey}
			}
			return fmt.Errorf("failed to acquire admission guard: %w", err)
		}
		return nil
	}, fn)
}

func (u *UnitOfWork) run(ctx context.Context, lockKey string, prepare func(tx pgx.Tx) error, fn func(repos store.Repositories) error) error {
	tx, err := u.db.Begin(ctx)
	if err != nil {
		u.logger.Error("Failed to begin transaction", "error", err)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	// No-op once committed
	defer func() { _ = tx.Rollback(ctx) }()

	if prepare != nil {
		if err := prepare(tx); err != nil {
			return err
		}
	}

	repos := store.Repositories{
		Entries: u.entries.WithTx(tx),
		Issues:  u.issues.WithTx(tx),
		Outbox:  u.outbox.WithTx(tx),
	}
	if err := fn(repos); err != nil {
		return mapContention(err, lockKey)
	}

	if err := tx.Commit(ctx); err != nil {
		if isContention(err) {
			return &inventory.ConcurrencyConflictError{Key: lockKey}
		}
		u.logger.Error("Failed to commit transaction", "error", err)
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// mapContention turns a serialization failure surfacing from a repository
// into the domain conflict error, leaving every other error untouched
func mapContention(err error, lockKey string) error {
	var conflict *inventory.ConcurrencyConflictError
	if errors.As(err, &conflict) || !isContention(err) {
		return err
	}
	return &inventory.ConcurrencyConflictError{Key: lockKey}
}

// lockTimeoutSetting renders d in milliseconds, the unit lock_timeout
// assumes when none is given
func lockTimeoutSetting(d time.Duration) string {
	if d <= 0 {
		return "0"
	}
	ms := d.Milliseconds()
	if ms == 0 {
		ms = 1
	}
	return fmt.Sprintf("%d", ms)
}
