package inventory_api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/blood-inventory-ledger/internal/config"
	"github.com/blood-inventory-ledger/internal/data/memory"
	"github.com/blood-inventory-ledger/internal/domain/inventory"
	"github.com/blood-inventory-ledger/internal/inventory_api/middleware"
	"github.com/blood-inventory-ledger/internal/ledger"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "integration-secret-0123456789"

func testConfig() *config.Config {
	return &config.Config{
		Application: config.ApplicationConfig{Env: "test"},
		Server:      config.ServerConfig{Port: 0, ReadTimeout: time.Second, WriteTimeout: time.Second, IdleTimeout: time.Second},
		Auth:        config.AuthConfig{JWTSecret: testSecret, Issuer: "blood-portal"},
		RateLimit:   config.RateLimitConfig{Enabled: true, Rate: "1000-M"},
		Ledger:      config.LedgerConfig{ExpiryWindowDays: 3},
	}
}

func bearer(t *testing.T, orgID uuid.UUID, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, middleware.OrganizationClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   orgID.String(),
			Issuer:    "blood-portal",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return "Bearer " + signed
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	engine := ledger.NewService(logger, memory.NewStore())
	srv, err := NewServer(logger, testConfig(), Services{Inventory: engine})
	require.NoError(t, err)
	return srv
}

func call(srv *Server, method, path, auth string, body interface{}) *httptest.ResponseRecorder {
	var buf io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		buf = bytes.NewReader(raw)
	}
	req, _ := http.NewRequest(method, path, buf)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)
	return rr
}

func TestServer_Health(t *testing.T) {
	srv := newTestServer(t)
	rr := call(srv, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotEmpty(t, rr.Header().Get(middleware.CorrelationIDHeader))
}

func TestServer_InventoryRequiresToken(t *testing.T) {
	srv := newTestServer(t)
	rr := call(srv, http.MethodGet, "/api/v1/inventory/summary", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestServer_ReceiveThenIssue(t *testing.T) {
	srv := newTestServer(t)
	orgID := uuid.New()
	auth := bearer(t, orgID, "Blood Bank")
	today := time.Now().UTC().Format("2006-01-02")
	nextMonth := time.Now().UTC().AddDate(0, 1, 0).Format("2006-01-02")

	rr := call(srv, http.MethodPost, "/api/v1/inventory/entries", auth, map[string]interface{}{
		"blood_group":    "O+",
		"component_type": "Whole Blood",
		"units":          10,
		"source_type":    "Donation",
		"received_date":  today,
		"expiry_date":    nextMonth,
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var created struct {
		Data inventory.Entry `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	assert.Equal(t, orgID, created.Data.OrganizationID)
	assert.Equal(t, inventory.RoleBloodBank, created.Data.OrganizationRole)

	issue := map[string]interface{}{
		"blood_group":    "O+",
		"component_type": "Whole Blood",
		"units":          4,
		"issued_to_type": "Hospital",
		"issued_date":    today,
	}
	rr = call(srv, http.MethodPost, "/api/v1/inventory/issues", auth, issue)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	issue["units"] = 7
	rr = call(srv, http.MethodPost, "/api/v1/inventory/issues", auth, issue)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Contains(t, rr.Body.String(), "Insufficient stock. Available: 6 units")

	rr = call(srv, http.MethodGet, "/api/v1/inventory/balance?blood_group=O%2B&component_type=Whole%20Blood", auth, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var balance struct {
		Data struct {
			Balance int64 `json:"balance"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &balance))
	assert.Equal(t, int64(6), balance.Data.Balance)

	// another organization sees none of it
	other := bearer(t, uuid.New(), "hospital")
	rr = call(srv, http.MethodGet, "/api/v1/inventory/balance?blood_group=O%2B&component_type=Whole%20Blood", other, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &balance))
	assert.Equal(t, int64(0), balance.Data.Balance)
}

func TestNewServer_InvalidRate(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit.Rate = "lots"
	_, err := NewServer(slog.New(slog.NewJSONHandler(io.Discard, nil)), cfg, Services{})
	assert.Error(t, err)
}

func TestNewServer_InvalidCORSOrigin(t *testing.T) {
	cfg := testConfig()
	cfg.Server.CORSOrigins = "localhost:5173"
	_, err := NewServer(slog.New(slog.NewJSONHandler(io.Discard, nil)), cfg, Services{})
	assert.Error(t, err)
}
