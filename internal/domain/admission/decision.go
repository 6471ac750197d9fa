package admission

import (
	"time"

	"github.com/blood-inventory-ledger/internal/domain/inventory"
	"github.com/blood-inventory-ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// Decision tracks an issuance request through Requested -> Admitted | Rejected
type Decision struct {
	RequestID        uuid.UUID                  `json:"request_id" bson:"request_id"`
	OrganizationID   uuid.UUID                  `json:"organization_id" bson:"organization_id"`
	OrganizationRole inventory.OrganizationRole `json:"organization_role" bson:"organization_role"`
	BloodGroup       inventory.BloodGroup       `json:"blood_group" bson:"blood_group"`
	ComponentType    inventory.ComponentType    `json:"component_type" bson:"component_type"`
	Units            int64                      `json:"units" bson:"units"`
	RequestRefID     string                     `json:"request_ref_id,omitempty" bson:"request_ref_id,omitempty"`
	IdempotencyKey   string                     `json:"idempotency_key,omitempty" bson:"idempotency_key,omitempty"`
	CorrelationID    string                     `json:"correlation_id,omitempty" bson:"correlation_id,omitempty"`
	Status           shared.DecisionStatus      `json:"status" bson:"status"`
	Reason           shared.RejectionReason     `json:"reason,omitempty" bson:"reason,omitempty"`
	Message          string                     `json:"message,omitempty" bson:"message,omitempty"`
	Available        *int64                     `json:"available,omitempty" bson:"available,omitempty"`
	IssueID          *uuid.UUID                 `json:"issue_id,omitempty" bson:"issue_id,omitempty"`
	DuplicateOf      *uuid.UUID                 `json:"duplicate_of,omitempty" bson:"duplicate_of,omitempty"`
	CreatedAt        time.Time                  `json:"created_at" bson:"created_at"`
	DecidedAt        *time.Time                 `json:"decided_at,omitempty" bson:"decided_at,omitempty"`
}

// NewDecision starts a decision in the requested state
func NewDecision(req *shared.IssuanceRequest) *Decision {
	created := req.Timestamp
	if created.IsZero() {
		created = time.Now().UTC()
	}
	return &Decision{
		RequestID:        req.RequestID,
		OrganizationID:   req.OrganizationID,
		OrganizationRole: req.OrganizationRole,
		BloodGroup:       req.BloodGroup,
		ComponentType:    req.ComponentType,
		Units:            req.Units,
		RequestRefID:     req.RequestRefID,
		IdempotencyKey:   req.IdempotencyKey,
		CorrelationID:    req.CorrelationID,
		Status:           shared.DecisionStatusRequested,
		CreatedAt:        created,
	}
}

// Admit moves the decision to admitted with the appended issue
func (d *Decision) Admit(issueID uuid.UUID) {
	now := time.Now().UTC()
	d.Status = shared.DecisionStatusAdmitted
	d.IssueID = &issueID
	d.Reason = ""
	d.Message = ""
	d.DecidedAt = &now
}

// Reject moves the decision to rejected. available is only set for stock
// rejections.
func (d *Decision) Reject(reason shared.RejectionReason, message string, available *int64) {
	now := time.Now().UTC()
	d.Status = shared.DecisionStatusRejected
	d.Reason = reason
	d.Message = message
	d.Available = available
	d.DecidedAt = &now
}

// Mirror copies the outcome of prior, the request that first used the same
// idempotency key, and points back at it
func (d *Decision) Mirror(prior *Decision) {
	origin := prior.RequestID
	if prior.DuplicateOf != nil {
		origin = *prior.DuplicateOf
	}
	d.Status = prior.Status
	d.Reason = prior.Reason
	d.Message = prior.Message
	d.Available = prior.Available
	d.IssueID = prior.IssueID
	d.DecidedAt = prior.DecidedAt
	d.DuplicateOf = &origin
}
