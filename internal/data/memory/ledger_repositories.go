package memory

import (
	"context"
	"sort"
	"time"

	"github.com/blood-inventory-ledger/internal/domain/inventory"
	"github.com/google/uuid"
)

// EntryRepository implements inventory.EntryRepository over a Store
type EntryRepository struct {
	store *Store
	tx    *pendingWrites
}

func (r *EntryRepository) Create(ctx context.Context, entry *inventory.Entry) error {
	cp := entry.Clone()
	if r.tx != nil {
		r.tx.entries = append(r.tx.entries, cp)
		return nil
	}
	return r.store.commit(&pendingWrites{entries: []*inventory.Entry{cp}})
}

func (r *EntryRepository) List(ctx context.Context, org inventory.Organization, filter inventory.EntryFilter) ([]*inventory.Entry, error) {
	var matched []*inventory.Entry
	for _, e := range r.store.entriesFor(org, r.tx) {
		if filter.Matches(e) {
			matched = append(matched, e)
		}
	}
	newestFirst(matched, func(e *inventory.Entry) time.Time { return e.CreatedAt })
	return paginate(matched, filter.Page), nil
}

func (r *EntryRepository) Count(ctx context.Context, org inventory.Organization, filter inventory.EntryFilter) (int64, error) {
	var n int64
	for _, e := range r.store.entriesFor(org, r.tx) {
		if filter.Matches(e) {
			n++
		}
	}
	return n, nil
}

func (r *EntryRepository) UsableUnits(ctx context.Context, org inventory.Organization, key inventory.StockKey, asOf time.Time) (int64, error) {
	var n int64
	for _, e := range r.store.entriesFor(org, r.tx) {
		if e.Key() == key && e.UsableAt(asOf) {
			n += e.Units
		}
	}
	return n, nil
}

func (r *EntryRepository) UsableTotals(ctx context.Context, org inventory.Organization, asOf time.Time) ([]inventory.StockUnits, error) {
	return inventory.Aggregate(r.store.entriesFor(org, r.tx), nil, asOf).Usable, nil
}

func (r *EntryRepository) ExpiredTotals(ctx context.Context, org inventory.Organization, asOf time.Time) ([]inventory.StockUnits, error) {
	return inventory.Aggregate(r.store.entriesFor(org, r.tx), nil, asOf).Expired, nil
}

func (r *EntryRepository) ExpiringTotals(ctx context.Context, org inventory.Organization, from, to time.Time) ([]inventory.StockUnits, error) {
	return inventory.ExpiringWithin(r.store.entriesFor(org, r.tx), from, to), nil
}

// IssueRepository implements inventory.IssueRepository over a Store
type IssueRepository struct {
	store *Store
	tx    *pendingWrites
}

func (r *IssueRepository) Create(ctx context.Context, issue *inventory.Issue) error {
	cp := issue.Clone()
	if r.tx != nil {
		r.tx.issues = append(r.tx.issues, cp)
		return nil
	}
	return r.store.commit(&pendingWrites{issues: []*inventory.Issue{cp}})
}

func (r *IssueRepository) List(ctx context.Context, org inventory.Organization, filter inventory.IssueFilter) ([]*inventory.Issue, error) {
	var matched []*inventory.Issue
	for _, i := range r.store.issuesFor(org, r.tx) {
		if filter.Matches(i) {
			matched = append(matched, i)
		}
	}
	newestFirst(matched, func(i *inventory.Issue) time.Time { return i.CreatedAt })
	return paginate(matched, filter.Page), nil
}

func (r *IssueRepository) Count(ctx context.Context, org inventory.Organization, filter inventory.IssueFilter) (int64, error) {
	var n int64
	for _, i := range r.store.issuesFor(org, r.tx) {
		if filter.Matches(i) {
			n++
		}
	}
	return n, nil
}

// Exists looks across every organization, as ids are unique ledger-wide
func (r *IssueRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.store.issueExists(id, r.tx), nil
}

func (r *IssueRepository) IssuedUnits(ctx context.Context, org inventory.Organization, key inventory.StockKey) (int64, error) {
	var n int64
	for _, i := range r.store.issuesFor(org, r.tx) {
		if i.Key() == key {
			n += i.Units
		}
	}
	return n, nil
}

func (r *IssueRepository) IssuedTotals(ctx context.Context, org inventory.Organization) ([]inventory.StockUnits, error) {
	return inventory.Aggregate(nil, r.store.issuesFor(org, r.tx), time.Time{}).Issued, nil
}

// newestFirst sorts by creation time descending; rows created at the same
// instant keep reverse insertion order.
func newestFirst[T any](rows []T, createdAt func(T) time.Time) {
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return createdAt(rows[i]).After(createdAt(rows[j]))
	})
}

func paginate[T any](rows []T, page inventory.Page) []T {
	offset, limit := page.Offset(), page.Limit()
	if offset >= len(rows) {
		return []T{}
	}
	end := offset + limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[offset:end]
}
