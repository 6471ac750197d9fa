package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/blood-inventory-ledger/internal/domain/inventory"
	"github.com/blood-inventory-ledger/internal/domain/journal"
	"github.com/blood-inventory-ledger/internal/domain/outbox"
	"github.com/blood-inventory-ledger/internal/domain/shared"
	"github.com/blood-inventory-ledger/internal/domain/store"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	d0        = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	oPosWhole = inventory.StockKey{BloodGroup: inventory.BloodGroupOPos, ComponentType: inventory.ComponentWholeBlood}
)

func testOrg() inventory.Organization {
	return inventory.Organization{ID: uuid.New(), Role: inventory.RoleBloodBank}
}

func testEntry(org inventory.Organization, units int64, expiry time.Time) *inventory.Entry {
	return &inventory.Entry{
		ID:               uuid.New(),
		OrganizationID:   org.ID,
		OrganizationRole: org.Role,
		BloodGroup:       oPosWhole.BloodGroup,
		ComponentType:    oPosWhole.ComponentType,
		Units:            units,
		SourceType:       inventory.SourceDonation,
		ReceivedDate:     d0,
		ExpiryDate:       &expiry,
		CreatedAt:        d0,
	}
}

func testIssue(org inventory.Organization, units int64) *inventory.Issue {
	return &inventory.Issue{
		ID:               uuid.New(),
		OrganizationID:   org.ID,
		OrganizationRole: org.Role,
		BloodGroup:       oPosWhole.BloodGroup,
		ComponentType:    oPosWhole.ComponentType,
		Units:            units,
		IssuedToType:     inventory.RecipientPatient,
		IssuedDate:       d0,
		CreatedAt:        d0,
	}
}

func usable(t *testing.T, s *Store, org inventory.Organization) int64 {
	t.Helper()
	n, err := s.Repositories().Entries.UsableUnits(context.Background(), org, oPosWhole, d0.AddDate(0, 0, 1))
	require.NoError(t, err)
	return n
}

func TestStore_ReadsReturnCopies(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	org := testOrg()
	repos := s.Repositories()

	e := testEntry(org, 6, d0.AddDate(0, 0, 10))
	require.NoError(t, repos.Entries.Create(ctx, e))

	// the caller's pointer is not the stored row
	*e.ExpiryDate = d0.AddDate(0, 0, -1)
	e.Units = 100
	assert.Equal(t, int64(6), usable(t, s, org))

	listed, err := repos.Entries.List(ctx, org, inventory.EntryFilter{})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	*listed[0].ExpiryDate = d0.AddDate(0, 0, -1)
	listed[0].Units = 0
	assert.Equal(t, int64(6), usable(t, s, org))

	i := testIssue(org, 2)
	require.NoError(t, repos.Issues.Create(ctx, i))
	i.Units = 50
	issued, err := repos.Issues.IssuedUnits(ctx, org, oPosWhole)
	require.NoError(t, err)
	assert.Equal(t, int64(2), issued)
}

func TestStore_DoRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	org := testOrg()
	boom := errors.New("boom")

	err := s.Do(ctx, func(repos store.Repositories) error {
		e := testEntry(org, 4, d0.AddDate(0, 0, 10))
		if err := repos.Entries.Create(ctx, e); err != nil {
			return err
		}
		msg, err := outbox.NewMessage(journal.NewReceivedMovement(e, ""))
		if err != nil {
			return err
		}
		if err := repos.Outbox.Create(ctx, msg); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	assert.Equal(t, int64(0), usable(t, s, org))
	pending, err := s.Repositories().Outbox.GetPending(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestStore_DuplicateIDRejectsWholeUnit(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	org := testOrg()

	first := testIssue(org, 1)
	require.NoError(t, s.Repositories().Issues.Create(ctx, first))

	err := s.Do(ctx, func(repos store.Repositories) error {
		if err := repos.Entries.Create(ctx, testEntry(org, 5, d0.AddDate(0, 0, 10))); err != nil {
			return err
		}
		return repos.Issues.Create(ctx, testIssue(org, 1))
	})
	require.NoError(t, err)

	err = s.Do(ctx, func(repos store.Repositories) error {
		if err := repos.Entries.Create(ctx, testEntry(org, 7, d0.AddDate(0, 0, 10))); err != nil {
			return err
		}
		dup := testIssue(org, 1)
		dup.ID = first.ID
		return repos.Issues.Create(ctx, dup)
	})
	var dupErr *inventory.DuplicateRecordError
	require.ErrorAs(t, err, &dupErr)
	assert.Equal(t, first.ID, dupErr.ID)
	assert.ErrorIs(t, err, inventory.ErrDuplicateRecord)

	// the 7 unit entry of the failed unit was not kept
	assert.Equal(t, int64(5), usable(t, s, org))
}

func TestStore_PendingWritesVisibleOnlyInsideUnit(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	org := testOrg()
	issue := testIssue(org, 3)

	err := s.Do(ctx, func(repos store.Repositories) error {
		require.NoError(t, repos.Entries.Create(ctx, testEntry(org, 4, d0.AddDate(0, 0, 10))))
		require.NoError(t, repos.Issues.Create(ctx, issue))

		n, err := repos.Entries.Count(ctx, org, inventory.EntryFilter{})
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
		exists, err := repos.Issues.Exists(ctx, issue.ID)
		require.NoError(t, err)
		assert.True(t, exists)

		outside, err := s.Repositories().Entries.Count(ctx, org, inventory.EntryFilter{})
		require.NoError(t, err)
		assert.Equal(t, int64(0), outside)
		exists, err = s.Repositories().Issues.Exists(ctx, issue.ID)
		require.NoError(t, err)
		assert.False(t, exists)
		return nil
	})
	require.NoError(t, err)

	exists, err := s.Repositories().Issues.Exists(ctx, issue.ID)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, int64(4), usable(t, s, org))
}

func TestStore_DoHonoursCanceledContext(t *testing.T) {
	s := NewStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := s.DoLocked(ctx, testOrg(), oPosWhole, func(store.Repositories) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestStore_OrganizationsArePartitioned(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	bank := testOrg()
	hospital := inventory.Organization{ID: bank.ID, Role: inventory.RoleHospital}

	require.NoError(t, s.Repositories().Entries.Create(ctx, testEntry(bank, 3, d0.AddDate(0, 0, 10))))

	assert.Equal(t, int64(3), usable(t, s, bank))
	assert.Equal(t, int64(0), usable(t, s, hospital))
}

func TestOutboxRepository(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	repo := s.Repositories().Outbox
	org := testOrg()

	first, err := outbox.NewMessage(journal.NewReceivedMovement(testEntry(org, 2, d0.AddDate(0, 0, 10)), "corr-1"))
	require.NoError(t, err)
	second, err := outbox.NewMessage(journal.NewIssuedMovement(testIssue(org, 1), "corr-2"))
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))
	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, int64(2), second.ID)

	pending, err := repo.GetPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, first.EventID, pending[0].EventID)

	// mutating a read copy leaves the stored payload alone
	pending[0].Payload[0] = 'x'
	got, err := repo.GetByEventID(ctx, first.EventID)
	require.NoError(t, err)
	movement, err := got.GetMovement()
	require.NoError(t, err)
	assert.Equal(t, shared.MovementKindReceived, movement.Kind)

	require.NoError(t, repo.IncrementAttempts(ctx, first.ID))
	require.NoError(t, repo.UpdateStatus(ctx, first.ID, shared.OutboxStatusProcessed))
	pending, err = repo.GetPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, second.EventID, pending[0].EventID)

	got, err = repo.GetByEventID(ctx, first.EventID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Attempts)
	assert.NotNil(t, got.LastAttemptAt)

	_, err = repo.GetByEventID(ctx, uuid.New())
	var notFound outbox.ErrMessageNotFound
	assert.ErrorAs(t, err, &notFound)
	assert.Error(t, repo.UpdateStatus(ctx, 99, shared.OutboxStatusFailedToPublish))
}
