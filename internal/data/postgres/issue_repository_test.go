package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/blood-inventory-ledger/internal/domain/inventory"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testIssue(org inventory.Organization) *inventory.Issue {
	now := time.Date(2024, 1, 12, 14, 30, 0, 0, time.UTC)
	return &inventory.Issue{
		ID:               uuid.New(),
		OrganizationID:   org.ID,
		OrganizationRole: org.Role,
		BloodGroup:       inventory.BloodGroupOPos,
		ComponentType:    inventory.ComponentWholeBlood,
		Units:            4,
		IssuedToType:     inventory.RecipientPatient,
		IssuedToName:     "Ward 3",
		IssuedToRefID:    "patient-9",
		IssuedDate:       now,
		RequestRefID:     "req-77",
		CreatedBy:        "user-2",
		CreatedAt:        now,
	}
}

func issueArgs(i *inventory.Issue) []interface{} {
	return []interface{}{
		i.ID, i.OrganizationID, i.OrganizationRole, i.BloodGroup, i.ComponentType, i.Units,
		i.IssuedToType, i.IssuedToName, i.IssuedToRefID, i.IssuedDate, i.RequestRefID,
		i.Notes, i.CreatedBy, i.CreatedAt,
	}
}

func TestIssueRepository_Create(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewIssueRepository(newTestLogger(), mock)
	i := testIssue(testOrg())
	query := regexp.QuoteMeta("INSERT INTO inventory_issues")

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec(query).WithArgs(issueArgs(i)...).WillReturnResult(pgxmock.NewResult("INSERT", 1))

		assert.NoError(t, repo.Create(ctx, i))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate id", func(t *testing.T) {
		mock.ExpectExec(query).WithArgs(issueArgs(i)...).WillReturnError(&pgconn.PgError{Code: "23505"})

		err := repo.Create(ctx, i)
		assert.ErrorIs(t, err, inventory.ErrDuplicateRecord)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failure", func(t *testing.T) {
		mock.ExpectExec(query).WithArgs(issueArgs(i)...).WillReturnError(errors.New("db error"))

		err := repo.Create(ctx, i)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create inventory issue")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestIssueRepository_List(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewIssueRepository(newTestLogger(), mock)
	org := testOrg()
	i := testIssue(org)
	columns := []string{
		"id", "organization_id", "organization_role", "blood_group", "component_type", "units",
		"issued_to_type", "issued_to_name", "issued_to_ref_id", "issued_date", "request_ref_id",
		"notes", "created_by", "created_at",
	}

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("WHERE organization_id = $1 AND organization_role = $2 AND issued_to_type = $3")).
			WithArgs(org.ID, org.Role, inventory.RecipientPatient, inventory.DefaultPerPage, 0).
			WillReturnRows(pgxmock.NewRows(columns).AddRow(issueArgs(i)...))

		issues, err := repo.List(ctx, org, inventory.IssueFilter{IssuedToType: inventory.RecipientPatient})
		require.NoError(t, err)
		require.Len(t, issues, 1)
		assert.Equal(t, i.ID, issues[0].ID)
		assert.Equal(t, "req-77", issues[0].RequestRefID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("db error", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("FROM inventory_issues")).
			WithArgs(org.ID, org.Role, inventory.DefaultPerPage, 0).
			WillReturnError(errors.New("db error"))

		issues, err := repo.List(ctx, org, inventory.IssueFilter{})
		assert.Error(t, err)
		assert.Nil(t, issues)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestIssueRepository_Exists(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewIssueRepository(newTestLogger(), mock)
	id := uuid.New()
	query := regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM inventory_issues WHERE id = $1)")

	t.Run("found", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs(id).WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

		exists, err := repo.Exists(ctx, id)
		require.NoError(t, err)
		assert.True(t, exists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("db error", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs(id).WillReturnError(errors.New("db error"))

		_, err := repo.Exists(ctx, id)
		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestIssueRepository_IssuedUnits(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewIssueRepository(newTestLogger(), mock)
	org := testOrg()
	key := inventory.StockKey{BloodGroup: inventory.BloodGroupOPos, ComponentType: inventory.ComponentWholeBlood}
	query := regexp.QuoteMeta("FROM inventory_issues")

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery(query).
			WithArgs(org.ID, org.Role, key.BloodGroup, key.ComponentType).
			WillReturnRows(pgxmock.NewRows([]string{"sum"}).AddRow(int64(8)))

		units, err := repo.IssuedUnits(ctx, org, key)
		require.NoError(t, err)
		assert.Equal(t, int64(8), units)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("db error", func(t *testing.T) {
		mock.ExpectQuery(query).
			WithArgs(org.ID, org.Role, key.BloodGroup, key.ComponentType).
			WillReturnError(errors.New("db error"))

		_, err := repo.IssuedUnits(ctx, org, key)
		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestIssueRepository_IssuedTotals(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewIssueRepository(newTestLogger(), mock)
	org := testOrg()

	mock.ExpectQuery(regexp.QuoteMeta("GROUP BY blood_group, component_type")).
		WithArgs(org.ID, org.Role).
		WillReturnRows(pgxmock.NewRows([]string{"blood_group", "component_type", "sum"}).
			AddRow(inventory.BloodGroupOPos, inventory.ComponentPlatelets, int64(2)).
			AddRow(inventory.BloodGroupOPos, inventory.ComponentWholeBlood, int64(5)))

	totals, err := repo.IssuedTotals(ctx, org)
	require.NoError(t, err)
	require.Len(t, totals, 2)
	assert.Equal(t, inventory.ComponentWholeBlood, totals[0].ComponentType)
	assert.Equal(t, inventory.ComponentPlatelets, totals[1].ComponentType)
	assert.NoError(t, mock.ExpectationsWereMet())
}
