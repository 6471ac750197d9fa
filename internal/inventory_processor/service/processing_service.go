package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/blood-inventory-ledger/internal/domain/inventory"
	"github.com/blood-inventory-ledger/internal/domain/shared"
)

const (
	defaultConflictRetries = 3
	defaultConflictBackoff = 50 * time.Millisecond
)

type ProcessingServiceImpl struct {
	validator       RequestValidator
	admitter        StockAdmitter
	recorder        DecisionRecorder
	logger          *slog.Logger
	conflictRetries int
	conflictBackoff time.Duration
}

func NewProcessingService(
	validator RequestValidator,
	admitter StockAdmitter,
	recorder DecisionRecorder,
	logger *slog.Logger,
) ProcessingService {
	return &ProcessingServiceImpl{
		validator:       validator,
		admitter:        admitter,
		recorder:        recorder,
		logger:          logger,
		conflictRetries: defaultConflictRetries,
		conflictBackoff: defaultConflictBackoff,
	}
}

// ProcessIssuanceRequest decides one request. Returning nil lets the
// consumer commit the offset; business rejections are recorded and
// acknowledged, infrastructure failures are returned for redelivery.
func (s *ProcessingServiceImpl) ProcessIssuanceRequest(ctx context.Context, request *shared.IssuanceRequest) error {
	logger := s.logger.With("request_id", request.RequestID.String())
	if request.CorrelationID != "" {
		logger = logger.With("correlation_id", request.CorrelationID)
		ctx = shared.WithCorrelationID(ctx, request.CorrelationID)
	}

	logger.Info("Processing issuance request",
		"organization_id", request.OrganizationID.String(),
		"blood_group", string(request.BloodGroup),
		"component_type", string(request.ComponentType),
		"units", request.Units,
	)

	if err := s.validator.Validate(ctx, request); err != nil {
		logger.Warn("Issuance request failed validation", "error", err)
		if errors.Is(err, shared.ErrMissingRequestID) {
			// nothing to key a decision on
			return nil
		}
		return s.reject(ctx, logger, request, shared.RejectionReasonValidationFailed, err.Error(), nil)
	}

	prior, err := s.validator.CheckIdempotency(ctx, request)
	if err != nil {
		return err
	}
	if prior != nil {
		if prior.RequestID == request.RequestID {
			return nil
		}
		logger.Info("Recording outcome of earlier request with the same idempotency key",
			"decided_request_id", prior.RequestID.String(),
			"status", string(prior.Status),
		)
		if err := s.recorder.RecordDuplicate(ctx, request, prior); err != nil {
			logger.Error("Failed to record duplicate decision", "error", err)
			return err
		}
		return nil
	}

	if err := s.recorder.RecordRequested(ctx, request); err != nil {
		return fmt.Errorf("failed to record issuance request %s: %w", request.RequestID, err)
	}

	issue, err := s.admitWithRetry(ctx, logger, request)
	if err != nil {
		var insufficient *inventory.InsufficientStockError
		switch {
		case errors.As(err, &insufficient):
			available := insufficient.Available
			return s.reject(ctx, logger, request, shared.RejectionReasonInsufficientStock, err.Error(), &available)
		case errors.Is(err, inventory.ErrValidation):
			return s.reject(ctx, logger, request, shared.RejectionReasonValidationFailed, err.Error(), nil)
		case errors.Is(err, inventory.ErrDuplicateRecord):
			// an earlier delivery appended the issue but never recorded the decision
			logger.Info("Issue already in ledger, recording admission")
			return s.admit(ctx, logger, request)
		}
		logger.Error("Issuance admission failed", "error", err)
		return err
	}

	logger.Info("Issuance request admitted", "issue_id", issue.ID.String())
	return s.admit(ctx, logger, request)
}

func (s *ProcessingServiceImpl) admitWithRetry(ctx context.Context, logger *slog.Logger, request *shared.IssuanceRequest) (*inventory.Issue, error) {
	var lastErr error
	for attempt := 1; attempt <= s.conflictRetries; attempt++ {
		issue, err := s.admitter.Admit(ctx, request)
		if err == nil || !errors.Is(err, inventory.ErrConcurrencyConflict) {
			return issue, err
		}
		lastErr = err
		logger.Warn("Admission guard busy, retrying", "attempt", attempt, "error", err)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt) * s.conflictBackoff):
		}
	}
	return nil, lastErr
}

func (s *ProcessingServiceImpl) admit(ctx context.Context, logger *slog.Logger, request *shared.IssuanceRequest) error {
	if err := s.recorder.RecordAdmitted(ctx, request, request.RequestID); err != nil {
		logger.Error("Failed to record admission", "error", err)
		return err
	}
	return nil
}

func (s *ProcessingServiceImpl) reject(ctx context.Context, logger *slog.Logger, request *shared.IssuanceRequest, reason shared.RejectionReason, message string, available *int64) error {
	logger.Info("Issuance request rejected", "reason", string(reason), "message", message)
	if err := s.recorder.RecordRejected(ctx, request, reason, message, available); err != nil {
		logger.Error("Failed to record rejection", "reason", string(reason), "error", err)
		return err
	}
	return nil
}
