package admission

import (
	"context"

	"github.com/blood-inventory-ledger/internal/domain/inventory"
	"github.com/google/uuid"
)

// Repository manages admission decisions
type Repository interface {
	// Save inserts the decision or replaces the stored one for its request id
	Save(ctx context.Context, decision *Decision) error
	GetByRequestID(ctx context.Context, requestID uuid.UUID) (*Decision, error)
	// GetByIdempotencyKey returns nil, nil when no decision carries the key
	GetByIdempotencyKey(ctx context.Context, org inventory.Organization, key string) (*Decision, error)
	ListByOrganization(ctx context.Context, org inventory.Organization, limit, offset int) ([]*Decision, error)
	CountByOrganization(ctx context.Context, org inventory.Organization) (int64, error)
}

// ErrDecisionNotFound indicates no decision exists for the request
type ErrDecisionNotFound struct {
	RequestID uuid.UUID
}

func (e ErrDecisionNotFound) Error() string {
	return "admission decision not found: " + e.RequestID.String()
}

// Is matches any ErrDecisionNotFound when the target has no request id
func (e ErrDecisionNotFound) Is(target error) bool {
	t, ok := target.(ErrDecisionNotFound)
	if !ok {
		return false
	}
	if t.RequestID == uuid.Nil {
		return true
	}
	return e.RequestID == t.RequestID
}
