package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/blood-inventory-ledger/internal/domain/inventory"
	"github.com/blood-inventory-ledger/internal/domain/journal"
	"github.com/blood-inventory-ledger/internal/domain/outbox"
	"github.com/google/uuid"
)

// MovementView is a ledger movement plus whether the journal has it yet.
// Movements still waiting in the outbox are read from there.
type MovementView struct {
	*journal.Movement
	Projected bool `json:"projected"`
}

// OutboxReader is the part of outbox.Repository the journal lookups use
type OutboxReader interface {
	GetByEventID(ctx context.Context, eventID uuid.UUID) (*outbox.Message, error)
}

// JournalServiceImpl implements the JournalService interface
type JournalServiceImpl struct {
	journal journal.Repository
	outbox  OutboxReader
	logger  *slog.Logger
}

func NewJournalService(logger *slog.Logger, journalRepo journal.Repository, outboxRepo OutboxReader) JournalService {
	return &JournalServiceImpl{
		journal: journalRepo,
		outbox:  outboxRepo,
		logger:  logger,
	}
}

func (s *JournalServiceImpl) ListMovements(ctx context.Context, org inventory.Organization, page inventory.Page) ([]*journal.Movement, int64, error) {
	if err := org.Validate(); err != nil {
		return nil, 0, err
	}
	page = page.Normalize()
	movements, err := s.journal.ListByOrganization(ctx, org, page.Limit(), page.Offset())
	if err != nil {
		return nil, 0, err
	}
	total, err := s.journal.CountByOrganization(ctx, org)
	if err != nil {
		return nil, 0, err
	}
	return movements, total, nil
}

func (s *JournalServiceImpl) GetMovement(ctx context.Context, org inventory.Organization, eventID uuid.UUID) (*MovementView, error) {
	movement, err := s.journal.GetByEventID(ctx, eventID)
	if err == nil {
		return ownedView(org, movement, true), nil
	}
	if !errors.Is(err, journal.ErrMovementNotFound{}) {
		s.logger.Error("Failed to get movement", "event_id", eventID.String(), "error", err)
		return nil, err
	}

	// written by the ledger but not relayed by the outbox poller yet
	msg, err := s.outbox.GetByEventID(ctx, eventID)
	if err != nil {
		var notFound outbox.ErrMessageNotFound
		if errors.As(err, &notFound) {
			return nil, nil
		}
		s.logger.Error("Failed to get outbox message", "event_id", eventID.String(), "error", err)
		return nil, err
	}
	movement, err = msg.GetMovement()
	if err != nil {
		s.logger.Error("Failed to decode outbox movement", "event_id", eventID.String(), "error", err)
		return nil, err
	}
	return ownedView(org, movement, false), nil
}

// ownedView hides movements of other organizations behind a not-found
func ownedView(org inventory.Organization, m *journal.Movement, projected bool) *MovementView {
	if m.OrganizationID != org.ID || m.OrganizationRole != org.Role {
		return nil
	}
	return &MovementView{Movement: m, Projected: projected}
}
