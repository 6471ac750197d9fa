package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/blood-inventory-ledger/internal/domain/admission"
	"github.com/blood-inventory-ledger/internal/domain/inventory"
	"github.com/blood-inventory-ledger/internal/domain/shared"
	"github.com/blood-inventory-ledger/internal/platform/messaging/producers"
	"github.com/google/uuid"
)

// IssuanceServiceImpl implements the IssuanceService interface
type IssuanceServiceImpl struct {
	decisions admission.Repository
	producer  producers.MessagePublisher
	logger    *slog.Logger
}

func NewIssuanceService(logger *slog.Logger, decisions admission.Repository, producer producers.MessagePublisher) IssuanceService {
	return &IssuanceServiceImpl{
		decisions: decisions,
		producer:  producer,
		logger:    logger,
	}
}

// SubmitRequest validates the request up front so malformed requests are
// refused synchronously instead of ending up as rejected decisions
func (s *IssuanceServiceImpl) SubmitRequest(ctx context.Context, req *shared.IssuanceRequest) (*admission.Decision, error) {
	if _, err := inventory.NewIssue(req.Organization(), req.IssueInput()); err != nil {
		return nil, err
	}

	if req.IdempotencyKey != "" {
		existing, err := s.decisions.GetByIdempotencyKey(ctx, req.Organization(), req.IdempotencyKey)
		if err != nil {
			s.logger.Error("Failed to check for existing decision with idempotency key",
				"idempotency_key", req.IdempotencyKey,
				"error", err,
			)
			return nil, err
		}
		if existing != nil {
			s.logger.Info("Found existing decision with idempotency key",
				"idempotency_key", req.IdempotencyKey,
				"request_id", existing.RequestID.String(),
				"status", string(existing.Status),
			)
			return existing, nil
		}
	}

	if err := s.producer.Publish(ctx, req.RequestID.String(), req); err != nil {
		s.logger.Error("Failed to publish issuance request",
			"request_id", req.RequestID.String(),
			"organization_id", req.OrganizationID.String(),
			"error", err,
		)
		return nil, err
	}

	s.logger.Info("Issuance request published",
		"request_id", req.RequestID.String(),
		"organization_id", req.OrganizationID.String(),
		"blood_group", string(req.BloodGroup),
		"component_type", string(req.ComponentType),
		"units", req.Units,
	)
	return nil, nil
}

func (s *IssuanceServiceImpl) GetDecision(ctx context.Context, org inventory.Organization, requestID uuid.UUID) (*admission.Decision, error) {
	decision, err := s.decisions.GetByRequestID(ctx, requestID)
	if err != nil {
		if errors.Is(err, admission.ErrDecisionNotFound{}) {
			return nil, nil
		}
		s.logger.Error("Failed to get decision", "request_id", requestID.String(), "error", err)
		return nil, err
	}
	// another organization's request is indistinguishable from an unknown one
	if decision.OrganizationID != org.ID || decision.OrganizationRole != org.Role {
		return nil, nil
	}
	return decision, nil
}

func (s *IssuanceServiceImpl) ListDecisions(ctx context.Context, org inventory.Organization, page inventory.Page) ([]*admission.Decision, int64, error) {
	page = page.Normalize()
	decisions, err := s.decisions.ListByOrganization(ctx, org, page.Limit(), page.Offset())
	if err != nil {
		return nil, 0, err
	}
	total, err := s.decisions.CountByOrganization(ctx, org)
	if err != nil {
		return nil, 0, err
	}
	return decisions, total, nil
}
