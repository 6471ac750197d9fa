package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/blood-inventory-ledger/internal/domain/inventory"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLimiter(t *testing.T) {
	_, err := NewLimiter("not-a-rate")
	assert.Error(t, err)

	l, err := NewLimiter("10-M")
	require.NoError(t, err)
	assert.Equal(t, int64(10), l.Rate.Limit)
}

func TestRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	newRouter := func(t *testing.T, orgID uuid.UUID) *gin.Engine {
		l, err := NewLimiter("2-M")
		require.NoError(t, err)

		router := gin.New()
		router.Use(func(c *gin.Context) {
			if orgID != uuid.Nil {
				c.Set(OrganizationKey, inventory.Organization{ID: orgID, Role: inventory.RoleHospital})
			}
		})
		router.Use(RateLimit(logger, l))
		router.GET("/limited", func(c *gin.Context) { c.Status(http.StatusOK) })
		return router
	}

	hit := func(router *gin.Engine) *httptest.ResponseRecorder {
		req, _ := http.NewRequest(http.MethodGet, "/limited", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		return rr
	}

	t.Run("BlocksAfterRate", func(t *testing.T) {
		router := newRouter(t, uuid.New())

		assert.Equal(t, http.StatusOK, hit(router).Code)
		second := hit(router)
		assert.Equal(t, http.StatusOK, second.Code)
		assert.Equal(t, "0", second.Header().Get("X-RateLimit-Remaining"))
		assert.Equal(t, "2", second.Header().Get("X-RateLimit-Limit"))
		assert.NotEmpty(t, second.Header().Get("X-RateLimit-Reset"))

		third := hit(router)
		assert.Equal(t, http.StatusTooManyRequests, third.Code)
		assert.Equal(t, "RATE_LIMITED", errorCode(t, third))
	})

	t.Run("OrganizationsHaveSeparateBuckets", func(t *testing.T) {
		l, err := NewLimiter("1-M")
		require.NoError(t, err)
		var current uuid.UUID
		router := gin.New()
		router.Use(func(c *gin.Context) {
			c.Set(OrganizationKey, inventory.Organization{ID: current, Role: inventory.RoleHospital})
		})
		router.Use(RateLimit(logger, l))
		router.GET("/limited", func(c *gin.Context) { c.Status(http.StatusOK) })

		current = uuid.New()
		assert.Equal(t, http.StatusOK, hit(router).Code)
		assert.Equal(t, http.StatusTooManyRequests, hit(router).Code)
		current = uuid.New()
		assert.Equal(t, http.StatusOK, hit(router).Code)
	})

	t.Run("FallsBackToClientIP", func(t *testing.T) {
		router := newRouter(t, uuid.Nil)

		hit(router)
		hit(router)
		assert.Equal(t, http.StatusTooManyRequests, hit(router).Code)
	})
}
