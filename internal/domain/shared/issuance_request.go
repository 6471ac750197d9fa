package shared

import (
	"errors"
	"time"

	"github.com/blood-inventory-ledger/internal/domain/inventory"
	"github.com/google/uuid"
)

var (
	ErrMissingRequestID    = errors.New("issuance request id is required")
	ErrMissingOrganization = errors.New("issuance request organization is required")
)

// IssuanceRequest is the Kafka message handed over by the blood-request
// workflow. It asks the processor to admit and record an issue.
type IssuanceRequest struct {
	RequestID        uuid.UUID                  `json:"request_id"`
	OrganizationID   uuid.UUID                  `json:"organization_id"`
	OrganizationRole inventory.OrganizationRole `json:"organization_role"`
	BloodGroup       inventory.BloodGroup       `json:"blood_group"`
	ComponentType    inventory.ComponentType    `json:"component_type"`
	Units            int64                      `json:"units"`
	IssuedToType     inventory.RecipientType    `json:"issued_to_type"`
	IssuedToName     string                     `json:"issued_to_name,omitempty"`
	IssuedToRefID    string                     `json:"issued_to_ref_id,omitempty"`
	IssuedDate       time.Time                  `json:"issued_date"`
	RequestRefID     string                     `json:"request_ref_id,omitempty"`
	Notes            string                     `json:"notes,omitempty"`
	RequestedBy      string                     `json:"requested_by,omitempty"`
	IdempotencyKey   string                     `json:"idempotency_key,omitempty"`
	CorrelationID    string                     `json:"correlation_id"`
	Timestamp        time.Time                  `json:"timestamp"`
}

func (r *IssuanceRequest) Organization() inventory.Organization {
	return inventory.Organization{ID: r.OrganizationID, Role: r.OrganizationRole}
}

// IssueInput converts the request into ledger input. The issue takes the
// request id so a redelivered request cannot append a second issue.
func (r *IssuanceRequest) IssueInput() inventory.IssueInput {
	issued := r.IssuedDate
	return inventory.IssueInput{
		ID:            r.RequestID,
		BloodGroup:    r.BloodGroup,
		ComponentType: r.ComponentType,
		Units:         r.Units,
		IssuedToType:  r.IssuedToType,
		IssuedToName:  r.IssuedToName,
		IssuedToRefID: r.IssuedToRefID,
		IssuedDate:    &issued,
		RequestRefID:  r.RequestRefID,
		Notes:         r.Notes,
		CreatedBy:     r.RequestedBy,
	}
}
