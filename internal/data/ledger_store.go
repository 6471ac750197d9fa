// Package data selects the ledger store a process runs against
package data

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/blood-inventory-ledger/internal/config"
	"github.com/blood-inventory-ledger/internal/data/memory"
	"github.com/blood-inventory-ledger/internal/data/postgres"
	"github.com/blood-inventory-ledger/internal/domain/outbox"
	"github.com/blood-inventory-ledger/internal/ledger"
	"github.com/blood-inventory-ledger/internal/platform/persistence"
)

// LedgerStore is the opened ledger store with the outbox it writes to
type LedgerStore struct {
	Store  ledger.Store
	Outbox outbox.Repository
	close  func()
}

// Close releases the connection pool, if any
func (s *LedgerStore) Close() {
	if s.close != nil {
		s.close()
	}
}

// OpenLedgerStore connects to PostgreSQL and migrates it, or builds an
// in-memory store, depending on LEDGER_STORE
func OpenLedgerStore(ctx context.Context, logger *slog.Logger, cfg *config.Config) (*LedgerStore, error) {
	if !cfg.UsesPostgres() {
		logger.Warn("Using in-memory ledger store, data is lost on restart")
		st := memory.NewStore()
		return &LedgerStore{Store: st, Outbox: st.Repositories().Outbox}, nil
	}

	if cfg.Postgres.MigrationsPath != "" {
		if err := persistence.RunMigrations(cfg.Postgres.URL, cfg.Postgres.MigrationsPath); err != nil {
			return nil, fmt.Errorf("failed to migrate ledger schema: %w", err)
		}
		logger.Info("Ledger schema migrated", "path", cfg.Postgres.MigrationsPath)
	}

	db, err := persistence.NewPostgresDB(ctx, logger, &cfg.Postgres)
	if err != nil {
		return nil, err
	}

	uow := postgres.NewUnitOfWork(logger, db.Pool(), cfg.Ledger.LockTimeout)
	return &LedgerStore{Store: uow, Outbox: uow.Repositories().Outbox, close: db.Close}, nil
}
