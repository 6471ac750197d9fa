package ledger

import (
	"context"
	"time"

	"github.com/blood-inventory-ledger/internal/domain/inventory"
)

// Dashboard is the per blood group overview of an organization
type Dashboard struct {
	AsOf              time.Time                    `json:"as_of"`
	BloodGroups       []inventory.GroupBalance     `json:"blood_groups"`
	Components        []inventory.ComponentBalance `json:"components"`
	TotalUnits        int64                        `json:"total_units"`
	ExpiredUnits      int64                        `json:"expired_units"`
	ExpiringSoonUnits int64                        `json:"expiring_soon_units"`
	WindowDays        int                          `json:"window_days"`
}

// Dashboard sums balances per blood group with the dashboard thresholds
// and adds the expiry totals for windowDays
func (s *Service) Dashboard(ctx context.Context, org inventory.Organization, windowDays int) (*Dashboard, error) {
	if windowDays < 0 {
		return nil, inventory.NewValidationError("window_days", "must not be negative")
	}
	totals, err := s.Totals(ctx, org, time.Time{})
	if err != nil {
		return nil, err
	}
	report, err := s.classify(ctx, org, totals, windowDays)
	if err != nil {
		return nil, err
	}

	lines := inventory.Summarize(totals, inventory.SummaryThresholds)
	d := &Dashboard{
		AsOf:              report.AsOf,
		BloodGroups:       inventory.ByBloodGroup(lines, inventory.DashboardThresholds),
		Components:        inventory.ByComponent(lines),
		ExpiredUnits:      report.TotalExpired(),
		ExpiringSoonUnits: report.TotalExpiringSoon(),
		WindowDays:        windowDays,
	}
	for _, l := range lines {
		d.TotalUnits += l.Balance
	}
	return d, nil
}
