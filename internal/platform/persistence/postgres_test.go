package persistence

import (
	"log/slog"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresDB_Pool(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	var nilPool *pgxpool.Pool
	db := &PostgresDB{
		pool:   nilPool,
		logger: logger,
	}
	assert.Equal(t, nilPool, db.Pool())
}

func TestMockPoolSatisfiesInterfaces(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	var _ Querier = mock
	var _ TxBeginner = mock
}
