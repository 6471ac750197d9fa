package memory

import (
	"context"
	"time"

	"github.com/blood-inventory-ledger/internal/domain/outbox"
	"github.com/blood-inventory-ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// OutboxRepository implements outbox.Repository over a Store
type OutboxRepository struct {
	store *Store
	tx    *pendingWrites
}

func (r *OutboxRepository) Create(ctx context.Context, message *outbox.Message) error {
	cp := message.Clone()
	if r.tx != nil {
		r.tx.messages = append(r.tx.messages, cp)
		return nil
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.appendMessageLocked(cp)
	message.ID = cp.ID
	return nil
}

// GetPending returns copies of pending messages oldest first
func (r *OutboxRepository) GetPending(ctx context.Context, limit int) ([]*outbox.Message, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var out []*outbox.Message
	for _, m := range r.store.messages {
		if len(out) >= limit {
			break
		}
		if m.Status == shared.OutboxStatusPending {
			out = append(out, m.Clone())
		}
	}
	return out, nil
}

func (r *OutboxRepository) UpdateStatus(ctx context.Context, id int64, status shared.OutboxStatus) error {
	return r.update(id, func(m *outbox.Message) {
		m.Status = status
	})
}

func (r *OutboxRepository) IncrementAttempts(ctx context.Context, id int64) error {
	return r.update(id, func(m *outbox.Message) {
		m.Attempts++
	})
}

func (r *OutboxRepository) GetByEventID(ctx context.Context, eventID uuid.UUID) (*outbox.Message, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, m := range r.store.messages {
		if m.EventID == eventID {
			return m.Clone(), nil
		}
	}
	return nil, outbox.ErrMessageNotFound{ID: 0}
}

func (r *OutboxRepository) update(id int64, fn func(m *outbox.Message)) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, m := range r.store.messages {
		if m.ID == id {
			fn(m)
			now := time.Now().UTC()
			m.LastAttemptAt = &now
			return nil
		}
	}
	return outbox.ErrMessageNotFound{ID: id}
}
