package inventory

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Common errors
var (
	ErrValidation          = errors.New("validation failed")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrConcurrencyConflict = errors.New("concurrent admission conflict")
	ErrDuplicateRecord     = errors.New("ledger record already exists")
)

// ValidationError reports a malformed or missing field. It is always
// returned before anything is written.
type ValidationError struct {
	Field  string
	Reason string
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	return e.Field + " " + e.Reason
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// InsufficientStockError indicates an issuance larger than the available
// balance of its tuple. Available is the balance computed at admission.
type InsufficientStockError struct {
	Available int64
	Requested int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("Insufficient stock. Available: %d units", e.Available)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// ConcurrencyConflictError indicates the admission guard for a tuple could
// not be acquired. Callers should retry the whole admission.
type ConcurrencyConflictError struct {
	Key string
}

func (e *ConcurrencyConflictError) Error() string {
	return "concurrent admission in progress for stock: " + e.Key
}

func (e *ConcurrencyConflictError) Is(target error) bool {
	return target == ErrConcurrencyConflict
}

// DuplicateRecordError indicates an entry or issue id that is already in
// the ledger
type DuplicateRecordError struct {
	ID uuid.UUID
}

func (e *DuplicateRecordError) Error() string {
	return "ledger record already exists: " + e.ID.String()
}

func (e *DuplicateRecordError) Is(target error) bool {
	return target == ErrDuplicateRecord
}
