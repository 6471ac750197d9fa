package outbox_poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/blood-inventory-ledger/internal/domain/journal"
	"github.com/blood-inventory-ledger/internal/domain/outbox"
	"github.com/blood-inventory-ledger/internal/domain/shared"
	"github.com/blood-inventory-ledger/internal/platform/messaging/producers"
)

// MovementPublisher relays one outbox message to the read side
type MovementPublisher interface {
	PublishMovement(ctx context.Context, message *outbox.Message) error
}

// JournalPublisher projects movements into the journal and announces them
// on the movement topic. Both steps tolerate replays, so a message that
// failed halfway can simply be published again.
type JournalPublisher struct {
	outboxRepo  outbox.Repository
	journalRepo journal.Repository
	events      producers.MessagePublisher // optional
	logger      *slog.Logger
}

func NewJournalPublisher(
	outboxRepo outbox.Repository,
	journalRepo journal.Repository,
	events producers.MessagePublisher,
	logger *slog.Logger,
) *JournalPublisher {
	return &JournalPublisher{
		outboxRepo:  outboxRepo,
		journalRepo: journalRepo,
		events:      events,
		logger:      logger,
	}
}

func (p *JournalPublisher) PublishMovement(ctx context.Context, message *outbox.Message) error {
	movement, err := message.GetMovement()
	if err != nil {
		p.logger.Error("Failed to decode movement from outbox payload", "outbox_id", message.ID, "error", err)
		if updateErr := p.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusFailedToPublish); updateErr != nil {
			p.logger.Error("Failed to mark undecodable outbox message", "outbox_id", message.ID, "error", updateErr)
		}
		return fmt.Errorf("decode payload for outbox %d failed: %w", message.ID, err)
	}

	logger := p.logger.With("outbox_id", message.ID, "event_id", movement.EventID.String())
	if movement.CorrelationID != "" {
		logger = logger.With("correlation_id", movement.CorrelationID)
		ctx = shared.WithCorrelationID(ctx, movement.CorrelationID)
	}

	if err := p.journalRepo.Record(ctx, movement); err != nil {
		if !errors.Is(err, journal.ErrDuplicateMovement{}) {
			return fmt.Errorf("failed to record movement %s: %w", movement.EventID, err)
		}
		logger.Debug("Movement already in journal")
	}

	if p.events != nil {
		if err := p.events.Publish(ctx, movement.OrganizationID.String(), movement); err != nil {
			return fmt.Errorf("failed to publish movement %s: %w", movement.EventID, err)
		}
	}

	if err := p.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusProcessed); err != nil {
		return fmt.Errorf("movement %s relayed but outbox %d not marked processed: %w", movement.EventID, message.ID, err)
	}

	logger.Info("Movement relayed", "kind", string(movement.Kind))
	return nil
}
