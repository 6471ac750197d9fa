// Package memory keeps the inventory ledger in process memory. It backs
// tests and single-process development runs.
package memory

import (
	"context"
	"sync"

	"github.com/blood-inventory-ledger/internal/domain/inventory"
	"github.com/blood-inventory-ledger/internal/domain/outbox"
	"github.com/blood-inventory-ledger/internal/domain/store"
	"github.com/google/uuid"
)

// Store is an append-only in-memory ledger. Reads hand out copies so
// stored rows can never be changed by callers.
type Store struct {
	mu           sync.RWMutex
	entries      []*inventory.Entry
	issues       []*inventory.Issue
	ids          map[uuid.UUID]struct{}
	messages     []*outbox.Message
	nextOutboxID int64

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

func NewStore() *Store {
	return &Store{
		ids:   make(map[uuid.UUID]struct{}),
		locks: make(map[string]*sync.Mutex),
	}
}

var _ store.UnitOfWork = (*Store)(nil)

// Repositories returns repositories writing straight to the store
func (s *Store) Repositories() store.Repositories {
	return s.repositories(nil)
}

func (s *Store) repositories(tx *pendingWrites) store.Repositories {
	return store.Repositories{
		Entries: &EntryRepository{store: s, tx: tx},
		Issues:  &IssueRepository{store: s, tx: tx},
		Outbox:  &OutboxRepository{store: s, tx: tx},
	}
}

// pendingWrites buffers the rows of one unit of work until commit
type pendingWrites struct {
	entries  []*inventory.Entry
	issues   []*inventory.Issue
	messages []*outbox.Message
}

// Do runs fn and commits its writes only when it returns nil
func (s *Store) Do(ctx context.Context, fn func(repos store.Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tx := &pendingWrites{}
	if err := fn(s.repositories(tx)); err != nil {
		return err
	}
	return s.commit(tx)
}

// DoLocked holds the tuple's mutex for the whole unit of work
func (s *Store) DoLocked(ctx context.Context, org inventory.Organization, key inventory.StockKey, fn func(repos store.Repositories) error) error {
	lock := s.lockFor(org.LockKey(key))
	lock.Lock()
	defer lock.Unlock()

	return s.Do(ctx, fn)
}

func (s *Store) lockFor(key string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()

	l, ok := s.locks[key]
	if !ok {
		l = &sync.Mutex{}
		s.locks[key] = l
	}
	return l
}

func (s *Store) commit(tx *pendingWrites) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Check every id first so a failed commit writes nothing
	seen := make(map[uuid.UUID]struct{}, len(tx.entries)+len(tx.issues))
	for _, e := range tx.entries {
		if err := s.checkIDLocked(e.ID, seen); err != nil {
			return err
		}
	}
	for _, i := range tx.issues {
		if err := s.checkIDLocked(i.ID, seen); err != nil {
			return err
		}
	}

	for _, e := range tx.entries {
		s.entries = append(s.entries, e)
		s.ids[e.ID] = struct{}{}
	}
	for _, i := range tx.issues {
		s.issues = append(s.issues, i)
		s.ids[i.ID] = struct{}{}
	}
	for _, m := range tx.messages {
		s.appendMessageLocked(m)
	}
	return nil
}

func (s *Store) checkIDLocked(id uuid.UUID, seen map[uuid.UUID]struct{}) error {
	if _, ok := s.ids[id]; ok {
		return &inventory.DuplicateRecordError{ID: id}
	}
	if _, ok := seen[id]; ok {
		return &inventory.DuplicateRecordError{ID: id}
	}
	seen[id] = struct{}{}
	return nil
}

func (s *Store) appendMessageLocked(m *outbox.Message) {
	s.nextOutboxID++
	m.ID = s.nextOutboxID
	s.messages = append(s.messages, m)
}

// entriesFor returns copies of the organization's committed entries plus
// the ones pending in tx
func (s *Store) entriesFor(org inventory.Organization, tx *pendingWrites) []*inventory.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*inventory.Entry
	collect := func(list []*inventory.Entry) {
		for _, e := range list {
			if e.OrganizationID == org.ID && e.OrganizationRole == org.Role {
				out = append(out, e.Clone())
			}
		}
	}
	collect(s.entries)
	if tx != nil {
		collect(tx.entries)
	}
	return out
}

func (s *Store) issuesFor(org inventory.Organization, tx *pendingWrites) []*inventory.Issue {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*inventory.Issue
	collect := func(list []*inventory.Issue) {
		for _, i := range list {
			if i.OrganizationID == org.ID && i.OrganizationRole == org.Role {
				out = append(out, i.Clone())
			}
		}
	}
	collect(s.issues)
	if tx != nil {
		collect(tx.issues)
	}
	return out
}

func (s *Store) issueExists(id uuid.UUID, tx *pendingWrites) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, i := range s.issues {
		if i.ID == id {
			return true
		}
	}
	if tx != nil {
		for _, i := range tx.issues {
			if i.ID == id {
				return true
			}
		}
	}
	return false
}
