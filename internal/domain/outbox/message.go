package outbox

import (
	"encoding/json"
	"time"

	"github.com/blood-inventory-ledger/internal/domain/journal"
	"github.com/blood-inventory-ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// Message stores a ledger movement for reliable projection and publishing
type Message struct {
	ID             int64               `json:"id"`
	EventID        uuid.UUID           `json:"event_id"`
	OrganizationID uuid.UUID           `json:"organization_id"`
	Kind           shared.MovementKind `json:"kind"`
	Payload        json.RawMessage     `json:"payload"`
	Status         shared.OutboxStatus `json:"status"`
	Attempts       int                 `json:"attempts"`
	CreatedAt      time.Time           `json:"created_at"`
	LastAttemptAt  *time.Time          `json:"last_attempt_at,omitempty"`
}

func NewMessage(movement *journal.Movement) (*Message, error) {
	payload, err := json.Marshal(movement)
	if err != nil {
		return nil, err
	}

	return &Message{
		EventID:        movement.EventID,
		OrganizationID: movement.OrganizationID,
		Kind:           movement.Kind,
		Payload:        payload,
		Status:         shared.OutboxStatusPending,
		Attempts:       0,
		CreatedAt:      time.Now().UTC(),
	}, nil
}

// Clone returns a copy that shares no memory with m
func (m *Message) Clone() *Message {
	cp := *m
	cp.Payload = append(json.RawMessage(nil), m.Payload...)
	if m.LastAttemptAt != nil {
		t := *m.LastAttemptAt
		cp.LastAttemptAt = &t
	}
	return &cp
}

func (m *Message) IncrementAttempts() {
	m.Attempts++
	now := time.Now().UTC()
	m.LastAttemptAt = &now
}

func (m *Message) MarkAsProcessed() {
	m.Status = shared.OutboxStatusProcessed
	now := time.Now().UTC()
	m.LastAttemptAt = &now
}

func (m *Message) MarkAsFailed() {
	m.Status = shared.OutboxStatusFailedToPublish
	now := time.Now().UTC()
	m.LastAttemptAt = &now
}

// GetMovement extracts the journal movement from the payload
func (m *Message) GetMovement() (*journal.Movement, error) {
	var movement journal.Movement
	if err := json.Unmarshal(m.Payload, &movement); err != nil {
		return nil, err
	}
	return &movement, nil
}
