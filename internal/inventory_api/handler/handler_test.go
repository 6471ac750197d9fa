package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/blood-inventory-ledger/internal/domain/admission"
	"github.com/blood-inventory-ledger/internal/domain/inventory"
	"github.com/blood-inventory-ledger/internal/domain/journal"
	"github.com/blood-inventory-ledger/internal/domain/shared"
	"github.com/blood-inventory-ledger/internal/inventory_api/middleware"
	"github.com/blood-inventory-ledger/internal/inventory_api/service"
	"github.com/blood-inventory-ledger/internal/ledger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

var testOrg = inventory.Organization{ID: uuid.MustParse("5b0d3f0e-8f57-4c1c-9a2f-4f4a4e1d2c11"), Role: inventory.RoleBloodBank}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// newTestRouter authenticates every request as testOrg
func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.CorrelationID())
	router.Use(func(c *gin.Context) {
		c.Set(middleware.OrganizationKey, testOrg)
		c.Set(middleware.ActorKey, "tester")
	})
	return router
}

func doJSON(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		buf = bytes.NewBufferString(b)
	default:
		raw, _ := json.Marshal(b)
		buf = bytes.NewBuffer(raw)
	}
	req, _ := http.NewRequest(method, path, buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

// envelope decodes the response with data left raw
type envelope struct {
	Data          json.RawMessage `json:"data"`
	Error         *ErrorInfo      `json:"error,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Meta          *MetaInfo       `json:"meta,omitempty"`
}

func decode(rr *httptest.ResponseRecorder) envelope {
	var e envelope
	_ = json.Unmarshal(rr.Body.Bytes(), &e)
	return e
}

type MockInventoryService struct {
	mock.Mock
}

var _ service.InventoryService = (*MockInventoryService)(nil)

func (m *MockInventoryService) RecordEntry(ctx context.Context, org inventory.Organization, in inventory.EntryInput) (*inventory.Entry, error) {
	args := m.Called(ctx, org, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.Entry), args.Error(1)
}

func (m *MockInventoryService) ListEntries(ctx context.Context, org inventory.Organization, filter inventory.EntryFilter) (*ledger.EntryPage, error) {
	args := m.Called(ctx, org, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.EntryPage), args.Error(1)
}

func (m *MockInventoryService) TryIssue(ctx context.Context, org inventory.Organization, in inventory.IssueInput) (*inventory.Issue, error) {
	args := m.Called(ctx, org, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.Issue), args.Error(1)
}

func (m *MockInventoryService) ListIssues(ctx context.Context, org inventory.Organization, filter inventory.IssueFilter) (*ledger.IssuePage, error) {
	args := m.Called(ctx, org, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.IssuePage), args.Error(1)
}

func (m *MockInventoryService) ComputeBalance(ctx context.Context, org inventory.Organization, key inventory.StockKey, asOf time.Time) (int64, error) {
	args := m.Called(ctx, org, key, asOf)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockInventoryService) SummarizeByOrganization(ctx context.Context, org inventory.Organization) ([]inventory.StockLine, error) {
	args := m.Called(ctx, org)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]inventory.StockLine), args.Error(1)
}

func (m *MockInventoryService) ClassifyExpiry(ctx context.Context, org inventory.Organization, asOf time.Time, windowDays int) (*inventory.ExpiryReport, error) {
	args := m.Called(ctx, org, asOf, windowDays)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.ExpiryReport), args.Error(1)
}

func (m *MockInventoryService) Dashboard(ctx context.Context, org inventory.Organization, windowDays int) (*ledger.Dashboard, error) {
	args := m.Called(ctx, org, windowDays)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Dashboard), args.Error(1)
}

type MockAnalyticsService struct {
	mock.Mock
}

func (m *MockAnalyticsService) GetAnalytics(ctx context.Context, org inventory.Organization, days int) (*service.Analytics, error) {
	args := m.Called(ctx, org, days)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Analytics), args.Error(1)
}

type MockIssuanceService struct {
	mock.Mock
}

func (m *MockIssuanceService) SubmitRequest(ctx context.Context, req *shared.IssuanceRequest) (*admission.Decision, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*admission.Decision), args.Error(1)
}

func (m *MockIssuanceService) GetDecision(ctx context.Context, org inventory.Organization, requestID uuid.UUID) (*admission.Decision, error) {
	args := m.Called(ctx, org, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*admission.Decision), args.Error(1)
}

func (m *MockIssuanceService) ListDecisions(ctx context.Context, org inventory.Organization, page inventory.Page) ([]*admission.Decision, int64, error) {
	args := m.Called(ctx, org, page)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*admission.Decision), args.Get(1).(int64), args.Error(2)
}

type MockJournalService struct {
	mock.Mock
}

func (m *MockJournalService) ListMovements(ctx context.Context, org inventory.Organization, page inventory.Page) ([]*journal.Movement, int64, error) {
	args := m.Called(ctx, org, page)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*journal.Movement), args.Get(1).(int64), args.Error(2)
}

func (m *MockJournalService) GetMovement(ctx context.Context, org inventory.Organization, eventID uuid.UUID) (*service.MovementView, error) {
	args := m.Called(ctx, org, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.MovementView), args.Error(1)
}
