package inventory

import (
	"sort"
	"time"
)

// StockUnits is a unit total for one stock key
type StockUnits struct {
	StockKey
	Units int64 `json:"units"`
}

// StockTotals is the aggregated view of one organization's ledgers at a
// point in time. Every entry is counted in exactly one of Usable or Expired.
type StockTotals struct {
	AsOf    time.Time
	Usable  []StockUnits
	Expired []StockUnits
	Issued  []StockUnits
}

// StockStatus labels a balance for display
type StockStatus string

const (
	StatusCritical StockStatus = "Critical"
	StatusLow      StockStatus = "Low Stock"
	StatusGood     StockStatus = "Good Stock"
)

// Thresholds are presentation policy: balances below Critical are
// critical, below Low are low, anything else is good.
type Thresholds struct {
	Critical int64
	Low      int64
}

var (
	// SummaryThresholds label per blood group and component balances
	SummaryThresholds = Thresholds{Critical: 5, Low: 20}
	// DashboardThresholds label per blood group balances summed over components
	DashboardThresholds = Thresholds{Critical: 50, Low: 150}
)

func (t Thresholds) Classify(balance int64) StockStatus {
	switch {
	case balance < t.Critical:
		return StatusCritical
	case balance < t.Low:
		return StatusLow
	default:
		return StatusGood
	}
}

// StockLine is one row of an organization summary
type StockLine struct {
	BloodGroup    BloodGroup    `json:"blood_group"`
	ComponentType ComponentType `json:"component_type"`
	Balance       int64         `json:"balance"`
	Status        StockStatus   `json:"status"`
}

// GroupBalance is a balance summed across components of one blood group
type GroupBalance struct {
	BloodGroup BloodGroup  `json:"blood_group"`
	Balance    int64       `json:"balance"`
	Status     StockStatus `json:"status,omitempty"`
}

// ComponentBalance is a balance summed across blood groups of one component
type ComponentBalance struct {
	ComponentType ComponentType `json:"component_type"`
	Balance       int64         `json:"balance"`
}

// Balance applies the ledger formula to usable and issued totals. The
// result is clamped at zero.
func Balance(usable, issued int64) int64 {
	if b := usable - issued; b > 0 {
		return b
	}
	return 0
}

// BalanceOf returns the balance of one stock key
func (t StockTotals) BalanceOf(key StockKey) int64 {
	return Balance(unitsOf(t.Usable, key), unitsOf(t.Issued, key))
}

// Keys returns every stock key observed in either ledger, in display order
func (t StockTotals) Keys() []StockKey {
	seen := make(map[StockKey]struct{})
	for _, set := range [][]StockUnits{t.Usable, t.Expired, t.Issued} {
		for _, u := range set {
			seen[u.StockKey] = struct{}{}
		}
	}
	keys := make([]StockKey, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	SortKeys(keys)
	return keys
}

// Summarize builds one line per observed stock key, zero balances included
func Summarize(t StockTotals, th Thresholds) []StockLine {
	keys := t.Keys()
	lines := make([]StockLine, 0, len(keys))
	for _, k := range keys {
		b := t.BalanceOf(k)
		lines = append(lines, StockLine{
			BloodGroup:    k.BloodGroup,
			ComponentType: k.ComponentType,
			Balance:       b,
			Status:        th.Classify(b),
		})
	}
	return lines
}

// ByBloodGroup sums summary lines per blood group. All eight groups are
// returned so empty groups show up as critical.
func ByBloodGroup(lines []StockLine, th Thresholds) []GroupBalance {
	sums := make(map[BloodGroup]int64, len(BloodGroups))
	for _, l := range lines {
		sums[l.BloodGroup] += l.Balance
	}
	out := make([]GroupBalance, 0, len(BloodGroups))
	for _, g := range BloodGroups {
		out = append(out, GroupBalance{BloodGroup: g, Balance: sums[g], Status: th.Classify(sums[g])})
	}
	return out
}

// ByComponent sums summary lines per component type
func ByComponent(lines []StockLine) []ComponentBalance {
	sums := make(map[ComponentType]int64, len(ComponentTypes))
	for _, l := range lines {
		sums[l.ComponentType] += l.Balance
	}
	out := make([]ComponentBalance, 0, len(ComponentTypes))
	for _, c := range ComponentTypes {
		out = append(out, ComponentBalance{ComponentType: c, Balance: sums[c]})
	}
	return out
}

// Aggregate folds raw ledger rows into totals at asOf
func Aggregate(entries []*Entry, issues []*Issue, asOf time.Time) StockTotals {
	usable := make(map[StockKey]int64)
	expired := make(map[StockKey]int64)
	issued := make(map[StockKey]int64)
	for _, e := range entries {
		if e.UsableAt(asOf) {
			usable[e.Key()] += e.Units
		} else {
			expired[e.Key()] += e.Units
		}
	}
	for _, i := range issues {
		issued[i.Key()] += i.Units
	}
	return StockTotals{
		AsOf:    asOf,
		Usable:  fromMap(usable),
		Expired: fromMap(expired),
		Issued:  fromMap(issued),
	}
}

// SortKeys orders stock keys by blood group then component display order
func SortKeys(keys []StockKey) {
	sort.Slice(keys, func(i, j int) bool {
		return keyLess(keys[i], keys[j])
	})
}

// SortUnits orders unit totals by stock key display order
func SortUnits(units []StockUnits) {
	sort.Slice(units, func(i, j int) bool {
		return keyLess(units[i].StockKey, units[j].StockKey)
	})
}

func keyLess(a, b StockKey) bool {
	ga, gb := indexOf(BloodGroups, a.BloodGroup), indexOf(BloodGroups, b.BloodGroup)
	if ga != gb {
		return ga < gb
	}
	return indexOf(ComponentTypes, a.ComponentType) < indexOf(ComponentTypes, b.ComponentType)
}

func indexOf[T comparable](list []T, v T) int {
	for i, x := range list {
		if x == v {
			return i
		}
	}
	return len(list)
}

func unitsOf(set []StockUnits, key StockKey) int64 {
	var total int64
	for _, u := range set {
		if u.StockKey == key {
			total += u.Units
		}
	}
	return total
}

func fromMap(m map[StockKey]int64) []StockUnits {
	out := make([]StockUnits, 0, len(m))
	for k, v := range m {
		out = append(out, StockUnits{StockKey: k, Units: v})
	}
	SortUnits(out)
	return out
}
