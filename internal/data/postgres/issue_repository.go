package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/blood-inventory-ledger/internal/domain/inventory"
	"github.com/blood-inventory-ledger/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const issueColumns = `id, organization_id, organization_role, blood_group, component_type, units,
		issued_to_type, issued_to_name, issued_to_ref_id, issued_date, request_ref_id,
		notes, created_by, created_at`

// IssueRepository implements inventory.IssueRepository for PostgreSQL
type IssueRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

func NewIssueRepository(logger *slog.Logger, querier persistence.Querier) *IssueRepository {
	return &IssueRepository{
		querier: querier,
		logger:  logger,
	}
}

func (r *IssueRepository) WithTx(tx pgx.Tx) *IssueRepository {
	return &IssueRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create appends an issue. A reused id yields *inventory.DuplicateRecordError,
// which the processor relies on to recognise an already admitted request.
func (r *IssueRepository) Create(ctx context.Context, i *inventory.Issue) error {
	query := `
		INSERT INTO inventory_issues (` + issueColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.querier.Exec(ctx, query,
		i.ID,
		i.OrganizationID,
		i.OrganizationRole,
		i.BloodGroup,
		i.ComponentType,
		i.Units,
		i.IssuedToType,
		i.IssuedToName,
		i.IssuedToRefID,
		i.IssuedDate,
		i.RequestRefID,
		i.Notes,
		i.CreatedBy,
		i.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return &inventory.DuplicateRecordError{ID: i.ID}
		}
		r.logger.Error("Failed to create inventory issue",
			"issue_id", i.ID.String(),
			"organization_id", i.OrganizationID.String(),
			"error", err,
		)
		return fmt.Errorf("failed to create inventory issue: %w", err)
	}

	return nil
}

func (r *IssueRepository) List(ctx context.Context, org inventory.Organization, filter inventory.IssueFilter) ([]*inventory.Issue, error) {
	where, args := issueWhere(org, filter)
	args = append(args, filter.Limit(), filter.Offset())
	query := fmt.Sprintf(`
		SELECT %s
		FROM inventory_issues
		WHERE %s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d OFFSET $%d
	`, issueColumns, where, len(args)-1, len(args))

	rows, err := r.querier.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list inventory issues", "organization_id", org.ID.String(), "error", err)
		return nil, fmt.Errorf("failed to list inventory issues: %w", err)
	}
	defer rows.Close()

	issues := make([]*inventory.Issue, 0)
	for rows.Next() {
		var i inventory.Issue
		err := rows.Scan(
			&i.ID,
			&i.OrganizationID,
			&i.OrganizationRole,
			&i.BloodGroup,
			&i.ComponentType,
			&i.Units,
			&i.IssuedToType,
			&i.IssuedToName,
			&i.IssuedToRefID,
			&i.IssuedDate,
			&i.RequestRefID,
			&i.Notes,
			&i.CreatedBy,
			&i.CreatedAt,
		)
		if err != nil {
			r.logger.Error("Failed to scan inventory issue", "error", err)
			return nil, fmt.Errorf("failed to scan inventory issue: %w", err)
		}
		issues = append(issues, &i)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over inventory issues: %w", err)
	}

	return issues, nil
}

func (r *IssueRepository) Count(ctx context.Context, org inventory.Organization, filter inventory.IssueFilter) (int64, error) {
	where, args := issueWhere(org, filter)
	query := `SELECT COUNT(*) FROM inventory_issues WHERE ` + where

	var count int64
	if err := r.querier.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		r.logger.Error("Failed to count inventory issues", "organization_id", org.ID.String(), "error", err)
		return 0, fmt.Errorf("failed to count inventory issues: %w", err)
	}
	return count, nil
}

func (r *IssueRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.querier.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM inventory_issues WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		r.logger.Error("Failed to look up inventory issue", "issue_id", id.String(), "error", err)
		return false, fmt.Errorf("failed to look up inventory issue: %w", err)
	}
	return exists, nil
}

// IssuedUnits sums every issue of the key regardless of date
func (r *IssueRepository) IssuedUnits(ctx context.Context, org inventory.Organization, key inventory.StockKey) (int64, error) {
	query := `
		SELECT COALESCE(SUM(units), 0)::BIGINT
		FROM inventory_issues
		WHERE organization_id = $1 AND organization_role = $2
		  AND blood_group = $3 AND component_type = $4
	`

	var units int64
	err := r.querier.QueryRow(ctx, query, org.ID, org.Role, key.BloodGroup, key.ComponentType).Scan(&units)
	if err != nil {
		r.logger.Error("Failed to sum issued units",
			"organization_id", org.ID.String(),
			"blood_group", string(key.BloodGroup),
			"component_type", string(key.ComponentType),
			"error", err,
		)
		return 0, fmt.Errorf("failed to sum issued units: %w", err)
	}
	return units, nil
}

func (r *IssueRepository) IssuedTotals(ctx context.Context, org inventory.Organization) ([]inventory.StockUnits, error) {
	query := `
		SELECT blood_group, component_type, COALESCE(SUM(units), 0)::BIGINT
		FROM inventory_issues
		WHERE organization_id = $1 AND organization_role = $2
		GROUP BY blood_group, component_type
	`

	totals, err := scanStockUnits(r.querier.Query(ctx, query, org.ID, org.Role))
	if err != nil {
		r.logger.Error("Failed to aggregate inventory issues", "organization_id", org.ID.String(), "error", err)
		return nil, fmt.Errorf("failed to aggregate issues: %w", err)
	}
	return totals, nil
}

func issueWhere(org inventory.Organization, f inventory.IssueFilter) (string, []interface{}) {
	b := newWhere(org)
	if f.BloodGroup != "" {
		b.eq("blood_group", f.BloodGroup)
	}
	if f.ComponentType != "" {
		b.eq("component_type", f.ComponentType)
	}
	if f.IssuedToType != "" {
		b.eq("issued_to_type", f.IssuedToType)
	}
	return b.sql(), b.args
}
