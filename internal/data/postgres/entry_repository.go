package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/blood-inventory-ledger/internal/domain/inventory"
	"github.com/blood-inventory-ledger/internal/platform/persistence"
	"github.com/jackc/pgx/v5"
)

const entryColumns = `id, organization_id, organization_role, blood_group, component_type, units,
		source_type, source_name, source_ref_id, collection_date, received_date, expiry_date,
		storage_location, notes, created_by, created_at`

// EntryRepository implements inventory.EntryRepository for PostgreSQL
type EntryRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

func NewEntryRepository(logger *slog.Logger, querier persistence.Querier) *EntryRepository {
	return &EntryRepository{
		querier: querier,
		logger:  logger,
	}
}

// WithTx binds the repository to a transaction
func (r *EntryRepository) WithTx(tx pgx.Tx) *EntryRepository {
	return &EntryRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create appends an entry. A reused id yields *inventory.DuplicateRecordError.
func (r *EntryRepository) Create(ctx context.Context, e *inventory.Entry) error {
	query := `
		INSERT INTO inventory_entries (` + entryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err := r.querier.Exec(ctx, query,
		e.ID,
		e.OrganizationID,
		e.OrganizationRole,
		e.BloodGroup,
		e.ComponentType,
		e.Units,
		e.SourceType,
		e.SourceName,
		e.SourceRefID,
		e.CollectionDate,
		e.ReceivedDate,
		e.ExpiryDate,
		e.StorageLocation,
		e.Notes,
		e.CreatedBy,
		e.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return &inventory.DuplicateRecordError{ID: e.ID}
		}
		r.logger.Error("Failed to create inventory entry",
			"entry_id", e.ID.String(),
			"organization_id", e.OrganizationID.String(),
			"error", err,
		)
		return fmt.Errorf("failed to create inventory entry: %w", err)
	}

	return nil
}

// List returns the organization's entries newest first
func (r *EntryRepository) List(ctx context.Context, org inventory.Organization, filter inventory.EntryFilter) ([]*inventory.Entry, error) {
	where, args := entryWhere(org, filter)
	args = append(args, filter.Limit(), filter.Offset())
	query := fmt.Sprintf(`
		SELECT %s
		FROM inventory_entries
		WHERE %s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d OFFSET $%d
	`, entryColumns, where, len(args)-1, len(args))

	rows, err := r.querier.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list inventory entries", "organization_id", org.ID.String(), "error", err)
		return nil, fmt.Errorf("failed to list inventory entries: %w", err)
	}
	defer rows.Close()

	entries := make([]*inventory.Entry, 0)
	for rows.Next() {
		var e inventory.Entry
		err := rows.Scan(
			&e.ID,
			&e.OrganizationID,
			&e.OrganizationRole,
			&e.BloodGroup,
			&e.ComponentType,
			&e.Units,
			&e.SourceType,
			&e.SourceName,
			&e.SourceRefID,
			&e.CollectionDate,
			&e.ReceivedDate,
			&e.ExpiryDate,
			&e.StorageLocation,
			&e.Notes,
			&e.CreatedBy,
			&e.CreatedAt,
		)
		if err != nil {
			r.logger.Error("Failed to scan inventory entry", "error", err)
			return nil, fmt.Errorf("failed to scan inventory entry: %w", err)
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over inventory entries: %w", err)
	}

	return entries, nil
}

func (r *EntryRepository) Count(ctx context.Context, org inventory.Organization, filter inventory.EntryFilter) (int64, error) {
	where, args := entryWhere(org, filter)
	query := `SELECT COUNT(*) FROM inventory_entries WHERE ` + where

	var count int64
	if err := r.querier.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		r.logger.Error("Failed to count inventory entries", "organization_id", org.ID.String(), "error", err)
		return 0, fmt.Errorf("failed to count inventory entries: %w", err)
	}
	return count, nil
}

// UsableUnits sums the key's units that have no expiry or expire at or after asOf
func (r *EntryRepository) UsableUnits(ctx context.Context, org inventory.Organization, key inventory.StockKey, asOf time.Time) (int64, error) {
	query := `
		SELECT COALESCE(SUM(units), 0)::BIGINT
		FROM inventory_entries
		WHERE organization_id = $1 AND organization_role = $2
		  AND blood_group = $3 AND component_type = $4
		  AND (expiry_date IS NULL OR expiry_date >= $5)
	`

	var units int64
	err := r.querier.QueryRow(ctx, query, org.ID, org.Role, key.BloodGroup, key.ComponentType, asOf).Scan(&units)
	if err != nil {
		r.logger.Error("Failed to sum usable units",
			"organization_id", org.ID.String(),
			"blood_group", string(key.BloodGroup),
			"component_type", string(key.ComponentType),
			"error", err,
		)
		return 0, fmt.Errorf("failed to sum usable units: %w", err)
	}
	return units, nil
}

func (r *EntryRepository) UsableTotals(ctx context.Context, org inventory.Organization, asOf time.Time) ([]inventory.StockUnits, error) {
	return r.totals(ctx, "usable", `(expiry_date IS NULL OR expiry_date >= $3)`, org, asOf)
}

func (r *EntryRepository) ExpiredTotals(ctx context.Context, org inventory.Organization, asOf time.Time) ([]inventory.StockUnits, error) {
	return r.totals(ctx, "expired", `expiry_date < $3`, org, asOf)
}

func (r *EntryRepository) ExpiringTotals(ctx context.Context, org inventory.Organization, from, to time.Time) ([]inventory.StockUnits, error) {
	return r.totals(ctx, "expiring", `expiry_date >= $3 AND expiry_date <= $4`, org, from, to)
}

func (r *EntryRepository) totals(ctx context.Context, label, cond string, org inventory.Organization, bounds ...interface{}) ([]inventory.StockUnits, error) {
	query := `
		SELECT blood_group, component_type, COALESCE(SUM(units), 0)::BIGINT
		FROM inventory_entries
		WHERE organization_id = $1 AND organization_role = $2 AND ` + cond + `
		GROUP BY blood_group, component_type
	`

	args := append([]interface{}{org.ID, org.Role}, bounds...)
	totals, err := scanStockUnits(r.querier.Query(ctx, query, args...))
	if err != nil {
		r.logger.Error("Failed to aggregate inventory entries", "kind", label, "organization_id", org.ID.String(), "error", err)
		return nil, fmt.Errorf("failed to aggregate %s entries: %w", label, err)
	}
	return totals, nil
}

func entryWhere(org inventory.Organization, f inventory.EntryFilter) (string, []interface{}) {
	b := newWhere(org)
	if f.BloodGroup != "" {
		b.eq("blood_group", f.BloodGroup)
	}
	if f.ComponentType != "" {
		b.eq("component_type", f.ComponentType)
	}
	if f.SourceType != "" {
		b.eq("source_type", f.SourceType)
	}
	return b.sql(), b.args
}

// whereBuilder numbers placeholders in the order conditions are added
type whereBuilder struct {
	conds []string
	args  []interface{}
}

func newWhere(org inventory.Organization) *whereBuilder {
	b := &whereBuilder{}
	b.eq("organization_id", org.ID)
	b.eq("organization_role", org.Role)
	return b
}

func (b *whereBuilder) eq(column string, value interface{}) {
	b.args = append(b.args, value)
	b.conds = append(b.conds, fmt.Sprintf("%s = $%d", column, len(b.args)))
}

func (b *whereBuilder) sql() string {
	return strings.Join(b.conds, " AND ")
}

func scanStockUnits(rows pgx.Rows, err error) ([]inventory.StockUnits, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]inventory.StockUnits, 0)
	for rows.Next() {
		var u inventory.StockUnits
		if err := rows.Scan(&u.BloodGroup, &u.ComponentType, &u.Units); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	inventory.SortUnits(out)
	return out, nil
}
