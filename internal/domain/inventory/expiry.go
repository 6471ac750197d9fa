package inventory

import (
	"sort"
	"time"
)

// DefaultExpiryWindowDays is the expiring-soon lookahead used for alerts
const DefaultExpiryWindowDays = 7

const day = 24 * time.Hour

var shelfLife = map[ComponentType]time.Duration{
	ComponentWholeBlood: 35 * day,
	ComponentRBC:        42 * day,
	ComponentPlatelets:  5 * day,
	ComponentPlasma:     365 * day,
}

// ShelfLife returns how long a component keeps after collection
func ShelfLife(c ComponentType) (time.Duration, bool) {
	d, ok := shelfLife[c]
	return d, ok
}

// SuggestExpiry proposes an expiry date from the collection date, falling
// back to the received date. Stored entries keep whatever expiry the
// caller sent; this is only a form helper.
func SuggestExpiry(c ComponentType, collectionDate, receivedDate *time.Time) *time.Time {
	life, ok := ShelfLife(c)
	if !ok {
		return nil
	}
	base := collectionDate
	if base == nil || base.IsZero() {
		base = receivedDate
	}
	if base == nil || base.IsZero() {
		return nil
	}
	exp := base.Add(life)
	return &exp
}

// ExpiringWindow returns the inclusive [asOf, asOf+days] interval
func ExpiringWindow(asOf time.Time, days int) (time.Time, time.Time) {
	if days < 0 {
		days = 0
	}
	return asOf, asOf.Add(time.Duration(days) * day)
}

// ExpiredUnits reports expired stock for one key. GrossUnits is the sum of
// expired entry units; Units is what is still on the shelf once issues not
// covered by usable stock are charged against it.
type ExpiredUnits struct {
	StockKey
	Units      int64 `json:"units"`
	GrossUnits int64 `json:"gross_units"`
}

// ExpiryReport partitions an organization's entries by freshness
type ExpiryReport struct {
	AsOf         time.Time      `json:"as_of"`
	WindowDays   int            `json:"window_days"`
	Expired      []ExpiredUnits `json:"expired"`
	ExpiringSoon []StockUnits   `json:"expiring_soon"`
}

// TotalExpired sums the on-shelf expired units
func (r *ExpiryReport) TotalExpired() int64 {
	var n int64
	for _, e := range r.Expired {
		n += e.Units
	}
	return n
}

// TotalExpiringSoon sums the expiring-soon units
func (r *ExpiryReport) TotalExpiringSoon() int64 {
	var n int64
	for _, e := range r.ExpiringSoon {
		n += e.Units
	}
	return n
}

// ClassifyExpiry builds the report from totals at asOf and the gross
// expiring-soon totals for the window.
func ClassifyExpiry(t StockTotals, expiring []StockUnits, windowDays int) *ExpiryReport {
	report := &ExpiryReport{
		AsOf:         t.AsOf,
		WindowDays:   windowDays,
		Expired:      make([]ExpiredUnits, 0, len(t.Expired)),
		ExpiringSoon: make([]StockUnits, 0, len(expiring)),
	}
	for _, e := range t.Expired {
		uncovered := unitsOf(t.Issued, e.StockKey) - unitsOf(t.Usable, e.StockKey)
		if uncovered < 0 {
			uncovered = 0
		}
		onShelf := e.Units - uncovered
		if onShelf < 0 {
			onShelf = 0
		}
		report.Expired = append(report.Expired, ExpiredUnits{StockKey: e.StockKey, Units: onShelf, GrossUnits: e.Units})
	}
	for _, e := range expiring {
		if e.Units > 0 {
			report.ExpiringSoon = append(report.ExpiringSoon, e)
		}
	}
	sort.Slice(report.Expired, func(i, j int) bool {
		return keyLess(report.Expired[i].StockKey, report.Expired[j].StockKey)
	})
	SortUnits(report.ExpiringSoon)
	return report
}

// ExpiringWithin sums entry units per key whose expiry falls in [from, to]
func ExpiringWithin(entries []*Entry, from, to time.Time) []StockUnits {
	sums := make(map[StockKey]int64)
	for _, e := range entries {
		if e.ExpiresWithin(from, to) {
			sums[e.Key()] += e.Units
		}
	}
	return fromMap(sums)
}
