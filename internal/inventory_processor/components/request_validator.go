package components

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/blood-inventory-ledger/internal/domain/admission"
	"github.com/blood-inventory-ledger/internal/domain/inventory"
	"github.com/blood-inventory-ledger/internal/domain/shared"
	"github.com/blood-inventory-ledger/internal/inventory_processor/service"
	"github.com/google/uuid"
)

type RequestValidatorImpl struct {
	decisions admission.Repository
	logger    *slog.Logger
}

func NewRequestValidator(decisions admission.Repository, logger *slog.Logger) service.RequestValidator {
	return &RequestValidatorImpl{
		decisions: decisions,
		logger:    logger,
	}
}

// Validate applies the same field rules the ledger applies to an issue
func (v *RequestValidatorImpl) Validate(ctx context.Context, request *shared.IssuanceRequest) error {
	if request.RequestID == uuid.Nil {
		return shared.ErrMissingRequestID
	}
	if request.OrganizationID == uuid.Nil {
		return fmt.Errorf("%w: %w", shared.ErrMissingOrganization, inventory.NewValidationError("organization_id", "is required"))
	}
	if _, err := inventory.NewIssue(request.Organization(), request.IssueInput()); err != nil {
		return err
	}
	return nil
}

// CheckIdempotency returns the terminal decision that already settles the
// request, either under its own id or under another request carrying the
// same idempotency key. It returns nil when the request must be admitted.
func (v *RequestValidatorImpl) CheckIdempotency(ctx context.Context, request *shared.IssuanceRequest) (*admission.Decision, error) {
	logger := v.logger.With("request_id", request.RequestID.String())

	existing, err := v.decisions.GetByRequestID(ctx, request.RequestID)
	if err != nil && !errors.Is(err, admission.ErrDecisionNotFound{}) {
		return nil, fmt.Errorf("idempotency check failed for request %s: %w", request.RequestID, err)
	}
	if existing != nil && existing.Status.Terminal() {
		logger.Info("Issuance request already decided", "status", string(existing.Status))
		return existing, nil
	}

	if request.IdempotencyKey == "" {
		return nil, nil
	}
	byKey, err := v.decisions.GetByIdempotencyKey(ctx, request.Organization(), request.IdempotencyKey)
	if err != nil {
		return nil, fmt.Errorf("idempotency key lookup failed for request %s: %w", request.RequestID, err)
	}
	if byKey != nil && byKey.RequestID != request.RequestID && byKey.Status.Terminal() {
		logger.Info("Idempotency key already decided by another request",
			"idempotency_key", request.IdempotencyKey,
			"decided_request_id", byKey.RequestID.String(),
		)
		return byKey, nil
	}
	return nil, nil
}
