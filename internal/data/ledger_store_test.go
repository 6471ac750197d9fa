package data

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/blood-inventory-ledger/internal/config"
	"github.com/blood-inventory-ledger/internal/data/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenLedgerStore_Memory(t *testing.T) {
	cfg := &config.Config{Ledger: config.LedgerConfig{Store: config.LedgerStoreMemory}}

	ls, err := OpenLedgerStore(context.Background(), slog.New(slog.NewJSONHandler(io.Discard, nil)), cfg)
	require.NoError(t, err)
	defer ls.Close()

	assert.IsType(t, &memory.Store{}, ls.Store)
	assert.NotNil(t, ls.Outbox)
}

func TestOpenLedgerStore_PostgresNeedsURL(t *testing.T) {
	cfg := &config.Config{
		Ledger:   config.LedgerConfig{Store: config.LedgerStorePostgres},
		Postgres: config.PostgresConfig{MigrationsPath: "migrations/postgres"},
	}

	_, err := OpenLedgerStore(context.Background(), slog.New(slog.NewJSONHandler(io.Discard, nil)), cfg)
	assert.Error(t, err)
}
