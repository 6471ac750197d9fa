package outbox

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/blood-inventory-ledger/internal/domain/inventory"
	"github.com/blood-inventory-ledger/internal/domain/journal"
	"github.com/blood-inventory-ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMovement() *journal.Movement {
	return &journal.Movement{
		EventID:          uuid.New(),
		Kind:             shared.MovementKindIssued,
		OrganizationID:   uuid.New(),
		OrganizationRole: inventory.RoleBloodBank,
		BloodGroup:       inventory.BloodGroupOPos,
		ComponentType:    inventory.ComponentWholeBlood,
		Units:            4,
		IssuedToType:     inventory.RecipientPatient,
		OccurredAt:       time.Now().Truncate(time.Millisecond),
		RecordedAt:       time.Now().Truncate(time.Millisecond),
	}
}

func TestNewMessage(t *testing.T) {
	t.Run("SuccessfulCreation", func(t *testing.T) {
		movement := newTestMovement()

		beforeCreation := time.Now()
		msg, err := NewMessage(movement)
		afterCreation := time.Now()

		require.NoError(t, err)
		require.NotNil(t, msg)

		assert.Equal(t, movement.EventID, msg.EventID)
		assert.Equal(t, movement.OrganizationID, msg.OrganizationID)
		assert.Equal(t, shared.MovementKindIssued, msg.Kind)
		assert.Equal(t, shared.OutboxStatusPending, msg.Status)
		assert.Equal(t, 0, msg.Attempts)
		assert.Nil(t, msg.LastAttemptAt)
		assert.WithinDuration(t, beforeCreation, msg.CreatedAt, afterCreation.Sub(beforeCreation)+time.Millisecond)

		var decoded journal.Movement
		err = json.Unmarshal(msg.Payload, &decoded)
		require.NoError(t, err)
		assert.Equal(t, movement.EventID, decoded.EventID)
		assert.Equal(t, movement.Units, decoded.Units)
	})
}

func TestMessage_IncrementAttempts(t *testing.T) {
	initialTime := time.Now().Add(-time.Hour)
	msg := &Message{
		Attempts:      1,
		LastAttemptAt: &initialTime,
	}

	msg.IncrementAttempts()

	assert.Equal(t, 2, msg.Attempts)
	require.NotNil(t, msg.LastAttemptAt)
	assert.True(t, msg.LastAttemptAt.After(initialTime))
}

func TestMessage_StatusTransitions(t *testing.T) {
	t.Run("MarkAsProcessed", func(t *testing.T) {
		msg := &Message{Status: shared.OutboxStatusPending}
		msg.MarkAsProcessed()

		assert.Equal(t, shared.OutboxStatusProcessed, msg.Status)
		assert.NotNil(t, msg.LastAttemptAt)
	})

	t.Run("MarkAsFailed", func(t *testing.T) {
		msg := &Message{Status: shared.OutboxStatusPending}
		msg.MarkAsFailed()

		assert.Equal(t, shared.OutboxStatusFailedToPublish, msg.Status)
		assert.NotNil(t, msg.LastAttemptAt)
	})
}

func TestMessage_GetMovement(t *testing.T) {
	t.Run("SuccessfulGetMovement", func(t *testing.T) {
		original := newTestMovement()
		payload, err := json.Marshal(original)
		require.NoError(t, err)

		msg := &Message{Payload: payload}
		decoded, err := msg.GetMovement()

		require.NoError(t, err)
		require.NotNil(t, decoded)
		assert.Equal(t, original.EventID, decoded.EventID)
		assert.Equal(t, original.Kind, decoded.Kind)
		assert.Equal(t, original.BloodGroup, decoded.BloodGroup)
		assert.Equal(t, original.ComponentType, decoded.ComponentType)
		assert.True(t, original.OccurredAt.Equal(decoded.OccurredAt), "OccurredAt should match")
	})

	t.Run("InvalidPayload", func(t *testing.T) {
		msg := &Message{Payload: json.RawMessage(`{"units":`)}
		_, err := msg.GetMovement()
		assert.Error(t, err)
	})
}
