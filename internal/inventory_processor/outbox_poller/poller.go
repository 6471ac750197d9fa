package outbox_poller

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/blood-inventory-ledger/internal/config"
	"github.com/blood-inventory-ledger/internal/domain/outbox"
	"github.com/blood-inventory-ledger/internal/domain/shared"
)

// Poller relays pending outbox messages in creation order
type Poller struct {
	outboxRepo       outbox.Repository
	publisher        MovementPublisher
	logger           *slog.Logger
	pollInterval     time.Duration
	batchSize        int
	maxRetryAttempts int
}

func NewPoller(
	cfg *config.OutboxConfig,
	outboxRepo outbox.Repository,
	publisher MovementPublisher,
	logger *slog.Logger,
) *Poller {
	return &Poller{
		outboxRepo:       outboxRepo,
		publisher:        publisher,
		logger:           logger,
		pollInterval:     cfg.PollingInterval,
		batchSize:        cfg.BatchSize,
		maxRetryAttempts: cfg.MaxRetryAttempts,
	}
}

// Start polls until ctx is canceled
func (p *Poller) Start(ctx context.Context) {
	p.logger.Info("Starting outbox poller",
		"poll_interval", p.pollInterval.String(),
		"batch_size", p.batchSize,
		"max_retry_attempts", p.maxRetryAttempts,
	)
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Outbox poller stopping")
			return
		case <-ticker.C:
			if err := p.ProcessPending(ctx); err != nil {
				p.logger.Error("Outbox batch failed", "error", err)
			}
		}
	}
}

// ProcessPending relays one batch. Per-message failures are counted
// against the message and do not fail the batch.
func (p *Poller) ProcessPending(ctx context.Context) error {
	messages, err := p.outboxRepo.GetPending(ctx, p.batchSize)
	if err != nil {
		return fmt.Errorf("failed to get pending outbox messages: %w", err)
	}
	if len(messages) == 0 {
		return nil
	}
	p.logger.Debug("Fetched pending outbox messages", "count", len(messages))

	for _, msg := range messages {
		if err := p.publisher.PublishMovement(ctx, msg); err != nil {
			p.recordFailure(ctx, msg, err)
		}
	}
	return nil
}

func (p *Poller) recordFailure(ctx context.Context, msg *outbox.Message, cause error) {
	logger := p.logger.With("outbox_id", msg.ID, "event_id", msg.EventID.String())
	logger.Error("Failed to relay outbox message", "attempts", msg.Attempts, "error", cause)

	if err := p.outboxRepo.IncrementAttempts(ctx, msg.ID); err != nil {
		logger.Error("Failed to increment outbox attempts", "error", err)
		return
	}
	if msg.Attempts+1 < p.maxRetryAttempts {
		return
	}

	logger.Warn("Max relay attempts reached, marking outbox message FAILED_TO_PUBLISH", "attempts", msg.Attempts+1)
	if err := p.outboxRepo.UpdateStatus(ctx, msg.ID, shared.OutboxStatusFailedToPublish); err != nil {
		logger.Error("Failed to mark outbox message FAILED_TO_PUBLISH", "error", err)
	}
}
