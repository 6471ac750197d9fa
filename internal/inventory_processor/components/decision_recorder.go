package components

import (
	"context"
	"log/slog"

	"github.com/blood-inventory-ledger/internal/domain/admission"
	"github.com/blood-inventory-ledger/internal/domain/shared"
	"github.com/blood-inventory-ledger/internal/inventory_processor/service"
	"github.com/google/uuid"
)

type DecisionRecorderImpl struct {
	decisions admission.Repository
	logger    *slog.Logger
}

func NewDecisionRecorder(decisions admission.Repository, logger *slog.Logger) service.DecisionRecorder {
	return &DecisionRecorderImpl{
		decisions: decisions,
		logger:    logger,
	}
}

func (r *DecisionRecorderImpl) RecordRequested(ctx context.Context, request *shared.IssuanceRequest) error {
	return r.save(ctx, admission.NewDecision(request))
}

func (r *DecisionRecorderImpl) RecordAdmitted(ctx context.Context, request *shared.IssuanceRequest, issueID uuid.UUID) error {
	d := admission.NewDecision(request)
	d.Admit(issueID)
	return r.save(ctx, d)
}

func (r *DecisionRecorderImpl) RecordRejected(ctx context.Context, request *shared.IssuanceRequest, reason shared.RejectionReason, message string, available *int64) error {
	d := admission.NewDecision(request)
	d.Reject(reason, message, available)
	return r.save(ctx, d)
}

// RecordDuplicate gives request the outcome already decided for prior
func (r *DecisionRecorderImpl) RecordDuplicate(ctx context.Context, request *shared.IssuanceRequest, prior *admission.Decision) error {
	d := admission.NewDecision(request)
	d.Mirror(prior)
	return r.save(ctx, d)
}

func (r *DecisionRecorderImpl) save(ctx context.Context, d *admission.Decision) error {
	if err := r.decisions.Save(ctx, d); err != nil {
		r.logger.Error("Failed to save admission decision",
			"request_id", d.RequestID.String(),
			"status", string(d.Status),
			"error", err,
		)
		return err
	}
	r.logger.Debug("Admission decision saved", "request_id", d.RequestID.String(), "status", string(d.Status))
	return nil
}
