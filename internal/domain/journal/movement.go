package journal

import (
	"time"

	"github.com/blood-inventory-ledger/internal/domain/inventory"
	"github.com/blood-inventory-ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// Movement is the read-side projection of one ledger row. The journal is
// fed from the outbox and is only used for reporting.
type Movement struct {
	EventID          uuid.UUID                  `json:"event_id" bson:"event_id"`
	Kind             shared.MovementKind        `json:"kind" bson:"kind"`
	OrganizationID   uuid.UUID                  `json:"organization_id" bson:"organization_id"`
	OrganizationRole inventory.OrganizationRole `json:"organization_role" bson:"organization_role"`
	BloodGroup       inventory.BloodGroup       `json:"blood_group" bson:"blood_group"`
	ComponentType    inventory.ComponentType    `json:"component_type" bson:"component_type"`
	Units            int64                      `json:"units" bson:"units"`
	SourceType       inventory.SourceType       `json:"source_type,omitempty" bson:"source_type,omitempty"`
	IssuedToType     inventory.RecipientType    `json:"issued_to_type,omitempty" bson:"issued_to_type,omitempty"`
	ExpiryDate       *time.Time                 `json:"expiry_date,omitempty" bson:"expiry_date,omitempty"`
	RequestRefID     string                     `json:"request_ref_id,omitempty" bson:"request_ref_id,omitempty"`
	CorrelationID    string                     `json:"correlation_id,omitempty" bson:"correlation_id,omitempty"`
	OccurredAt       time.Time                  `json:"occurred_at" bson:"occurred_at"` // received or issued date
	RecordedAt       time.Time                  `json:"recorded_at" bson:"recorded_at"`
}

// NewReceivedMovement projects an entry; the event id is the entry id
func NewReceivedMovement(e *inventory.Entry, correlationID string) *Movement {
	return &Movement{
		EventID:          e.ID,
		Kind:             shared.MovementKindReceived,
		OrganizationID:   e.OrganizationID,
		OrganizationRole: e.OrganizationRole,
		BloodGroup:       e.BloodGroup,
		ComponentType:    e.ComponentType,
		Units:            e.Units,
		SourceType:       e.SourceType,
		ExpiryDate:       e.ExpiryDate,
		CorrelationID:    correlationID,
		OccurredAt:       e.ReceivedDate,
		RecordedAt:       e.CreatedAt,
	}
}

// NewIssuedMovement projects an issue; the event id is the issue id
func NewIssuedMovement(i *inventory.Issue, correlationID string) *Movement {
	return &Movement{
		EventID:          i.ID,
		Kind:             shared.MovementKindIssued,
		OrganizationID:   i.OrganizationID,
		OrganizationRole: i.OrganizationRole,
		BloodGroup:       i.BloodGroup,
		ComponentType:    i.ComponentType,
		Units:            i.Units,
		IssuedToType:     i.IssuedToType,
		RequestRefID:     i.RequestRefID,
		CorrelationID:    correlationID,
		OccurredAt:       i.IssuedDate,
		RecordedAt:       i.CreatedAt,
	}
}
