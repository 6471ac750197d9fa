package journal

import (
	"context"
	"time"

	"github.com/blood-inventory-ledger/internal/domain/inventory"
	"github.com/google/uuid"
)

// Repository manages the movement journal
type Repository interface {
	Record(ctx context.Context, movement *Movement) error
	GetByEventID(ctx context.Context, eventID uuid.UUID) (*Movement, error)
	ListByOrganization(ctx context.Context, org inventory.Organization, limit, offset int) ([]*Movement, error)
	CountByOrganization(ctx context.Context, org inventory.Organization) (int64, error)
	Trend(ctx context.Context, org inventory.Organization, from, to time.Time, g Granularity) ([]TrendPoint, error)
}

// ErrMovementNotFound indicates missing journal movement
type ErrMovementNotFound struct {
	EventID uuid.UUID
}

func (e ErrMovementNotFound) Error() string {
	return "journal movement not found: " + e.EventID.String()
}

// Is matches any ErrMovementNotFound when the target has no event id
func (e ErrMovementNotFound) Is(target error) bool {
	t, ok := target.(ErrMovementNotFound)
	if !ok {
		return false
	}
	if t.EventID == uuid.Nil {
		return true
	}
	return e.EventID == t.EventID
}

// ErrDuplicateMovement indicates the event was already projected
type ErrDuplicateMovement struct {
	EventID uuid.UUID
}

func (e ErrDuplicateMovement) Error() string {
	return "duplicate journal movement: " + e.EventID.String()
}

func (e ErrDuplicateMovement) Is(target error) bool {
	t, ok := target.(ErrDuplicateMovement)
	if !ok {
		return false
	}
	if t.EventID == uuid.Nil {
		return true
	}
	return e.EventID == t.EventID
}
