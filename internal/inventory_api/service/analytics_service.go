package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/blood-inventory-ledger/internal/domain/inventory"
	"github.com/blood-inventory-ledger/internal/domain/journal"
)

const maxAnalyticsDays = 366

// Analytics pairs donation and usage trends with the current stock
// distribution
type Analytics struct {
	Days         int                          `json:"days"`
	Months       int                          `json:"months"`
	Daily        []journal.TrendPoint         `json:"daily"`
	Monthly      []journal.TrendPoint         `json:"monthly"`
	ByBloodGroup []inventory.GroupBalance     `json:"by_blood_group"`
	ByComponent  []inventory.ComponentBalance `json:"by_component"`
}

// StockSummarizer is the part of the ledger analytics reads balances from
type StockSummarizer interface {
	SummarizeByOrganization(ctx context.Context, org inventory.Organization) ([]inventory.StockLine, error)
}

// AnalyticsServiceImpl reads trends from the movement journal and the
// distribution from the ledger
type AnalyticsServiceImpl struct {
	journalRepo journal.Repository
	stock       StockSummarizer
	logger      *slog.Logger
	now         func() time.Time
	days        int
	months      int
}

func NewAnalyticsService(logger *slog.Logger, journalRepo journal.Repository, stock StockSummarizer, days, months int) *AnalyticsServiceImpl {
	return &AnalyticsServiceImpl{
		journalRepo: journalRepo,
		stock:       stock,
		logger:      logger,
		now:         time.Now,
		days:        days,
		months:      months,
	}
}

func (s *AnalyticsServiceImpl) GetAnalytics(ctx context.Context, org inventory.Organization, days int) (*Analytics, error) {
	if err := org.Validate(); err != nil {
		return nil, err
	}
	if days <= 0 {
		days = s.days
	}
	if days > maxAnalyticsDays {
		return nil, inventory.NewValidationError("days", "must be at most 366")
	}

	now := s.now().UTC()
	dailyFrom, dailyTo := journal.DailyRange(now, days)
	daily, err := s.journalRepo.Trend(ctx, org, dailyFrom, dailyTo, journal.GranularityDay)
	if err != nil {
		s.logger.Error("Failed to aggregate daily trend", "organization_id", org.ID.String(), "error", err)
		return nil, err
	}
	monthlyFrom, monthlyTo := journal.MonthlyRange(now, s.months)
	monthly, err := s.journalRepo.Trend(ctx, org, monthlyFrom, monthlyTo, journal.GranularityMonth)
	if err != nil {
		s.logger.Error("Failed to aggregate monthly trend", "organization_id", org.ID.String(), "error", err)
		return nil, err
	}

	lines, err := s.stock.SummarizeByOrganization(ctx, org)
	if err != nil {
		return nil, err
	}
	byGroup := inventory.ByBloodGroup(lines, inventory.DashboardThresholds)

	return &Analytics{
		Days:         days,
		Months:       s.months,
		Daily:        journal.FillTrend(daily, dailyFrom, dailyTo, journal.GranularityDay),
		Monthly:      journal.FillTrend(monthly, monthlyFrom, monthlyTo, journal.GranularityMonth),
		ByBloodGroup: byGroup,
		ByComponent:  inventory.ByComponent(lines),
	}, nil
}
