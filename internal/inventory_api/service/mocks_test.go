package service

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/blood-inventory-ledger/internal/domain/admission"
	"github.com/blood-inventory-ledger/internal/domain/inventory"
	"github.com/blood-inventory-ledger/internal/domain/journal"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

type MockJournalRepository struct {
	mock.Mock
}

func (m *MockJournalRepository) Record(ctx context.Context, movement *journal.Movement) error {
	return m.Called(ctx, movement).Error(0)
}

func (m *MockJournalRepository) GetByEventID(ctx context.Context, eventID uuid.UUID) (*journal.Movement, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*journal.Movement), args.Error(1)
}

func (m *MockJournalRepository) ListByOrganization(ctx context.Context, org inventory.Organization, limit, offset int) ([]*journal.Movement, error) {
	args := m.Called(ctx, org, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*journal.Movement), args.Error(1)
}

func (m *MockJournalRepository) CountByOrganization(ctx context.Context, org inventory.Organization) (int64, error) {
	args := m.Called(ctx, org)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockJournalRepository) Trend(ctx context.Context, org inventory.Organization, from, to time.Time, g journal.Granularity) ([]journal.TrendPoint, error) {
	args := m.Called(ctx, org, from, to, g)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]journal.TrendPoint), args.Error(1)
}

type MockStockSummarizer struct {
	mock.Mock
}

func (m *MockStockSummarizer) SummarizeByOrganization(ctx context.Context, org inventory.Organization) ([]inventory.StockLine, error) {
	args := m.Called(ctx, org)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]inventory.StockLine), args.Error(1)
}

type MockDecisionRepository struct {
	mock.Mock
}

func (m *MockDecisionRepository) Save(ctx context.Context, decision *admission.Decision) error {
	return m.Called(ctx, decision).Error(0)
}

func (m *MockDecisionRepository) GetByRequestID(ctx context.Context, requestID uuid.UUID) (*admission.Decision, error) {
	args := m.Called(ctx, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*admission.Decision), args.Error(1)
}

func (m *MockDecisionRepository) GetByIdempotencyKey(ctx context.Context, org inventory.Organization, key string) (*admission.Decision, error) {
	args := m.Called(ctx, org, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*admission.Decision), args.Error(1)
}

func (m *MockDecisionRepository) ListByOrganization(ctx context.Context, org inventory.Organization, limit, offset int) ([]*admission.Decision, error) {
	args := m.Called(ctx, org, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*admission.Decision), args.Error(1)
}

func (m *MockDecisionRepository) CountByOrganization(ctx context.Context, org inventory.Organization) (int64, error) {
	args := m.Called(ctx, org)
	return args.Get(0).(int64), args.Error(1)
}

type MockMessagePublisher struct {
	mock.Mock
}

func (m *MockMessagePublisher) Publish(ctx context.Context, key string, value interface{}) error {
	return m.Called(ctx, key, value).Error(0)
}

func (m *MockMessagePublisher) Close() error {
	return m.Called().Error(0)
}
