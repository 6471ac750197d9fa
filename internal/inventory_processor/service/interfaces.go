package service

import (
	"context"

	"github.com/blood-inventory-ledger/internal/domain/admission"
	"github.com/blood-inventory-ledger/internal/domain/inventory"
	"github.com/blood-inventory-ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// ProcessingService admits issuance requests consumed from Kafka
type ProcessingService interface {
	ProcessIssuanceRequest(ctx context.Context, request *shared.IssuanceRequest) error
}

// RequestValidator checks a request before any stock is touched
type RequestValidator interface {
	Validate(ctx context.Context, request *shared.IssuanceRequest) error
	// CheckIdempotency returns the terminal decision that already settles
	// the request, or nil
	CheckIdempotency(ctx context.Context, request *shared.IssuanceRequest) (*admission.Decision, error)
}

// StockAdmitter runs the guarded admission for one request
type StockAdmitter interface {
	Admit(ctx context.Context, request *shared.IssuanceRequest) (*inventory.Issue, error)
}

// DecisionRecorder persists the admission outcome of a request
type DecisionRecorder interface {
	RecordRequested(ctx context.Context, request *shared.IssuanceRequest) error
	RecordAdmitted(ctx context.Context, request *shared.IssuanceRequest, issueID uuid.UUID) error
	RecordRejected(ctx context.Context, request *shared.IssuanceRequest, reason shared.RejectionReason, message string, available *int64) error
	RecordDuplicate(ctx context.Context, request *shared.IssuanceRequest, prior *admission.Decision) error
}
