package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/blood-inventory-ledger/internal/domain/shared"
	"github.com/blood-inventory-ledger/internal/inventory_processor/service"
	"github.com/blood-inventory-ledger/internal/platform/messaging/producers"
)

// IssuanceRequestHandler decodes issuance requests from Kafka and hands
// them to the processing service
type IssuanceRequestHandler struct {
	processingService service.ProcessingService
	dlq               producers.DeadLetterPublisher
	logger            *slog.Logger
}

func NewIssuanceRequestHandler(
	logger *slog.Logger,
	processingService service.ProcessingService,
	dlq producers.DeadLetterPublisher,
) *IssuanceRequestHandler {
	return &IssuanceRequestHandler{
		processingService: processingService,
		dlq:               dlq,
		logger:            logger,
	}
}

// HandleMessage returns nil when the offset may be committed
func (h *IssuanceRequestHandler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	var request shared.IssuanceRequest
	if err := json.Unmarshal(value, &request); err != nil {
		h.logger.Error("Failed to unmarshal issuance request", "error", err, "message_key", string(key))
		return h.deadLetter(ctx, key, value, fmt.Sprintf("unmarshal failed: %s", err), err)
	}

	if request.CorrelationID == "" {
		request.CorrelationID = shared.CorrelationIDFromContext(ctx)
	}
	logger := h.logger.With("request_id", request.RequestID.String())
	if request.CorrelationID != "" {
		logger = logger.With("correlation_id", request.CorrelationID)
	}

	if err := h.processingService.ProcessIssuanceRequest(ctx, &request); err != nil {
		logger.Error("Failed to process issuance request", "error", err)
		return fmt.Errorf("processing issuance request %s failed: %w", request.RequestID, err)
	}

	logger.Debug("Issuance request handled")
	return nil
}

// deadLetter parks a message that can never be processed. If the DLQ is
// unavailable the original error is returned so the offset stays put.
func (h *IssuanceRequestHandler) deadLetter(ctx context.Context, key, value []byte, reason string, cause error) error {
	if h.dlq == nil {
		return fmt.Errorf("failed to decode message: %w", cause)
	}
	if err := h.dlq.PublishToDLQ(ctx, string(key), value, reason); err != nil {
		h.logger.Error("Failed to publish message to DLQ",
			"dlq_error", err,
			"original_error", cause,
			"message_key", string(key),
		)
		return fmt.Errorf("failed to decode message: %w", cause)
	}
	return nil
}
