package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCORS_Disabled(t *testing.T) {
	h, err := CORS(" , ")
	assert.NoError(t, err)
	assert.Nil(t, h)
}

func TestCORS_InvalidOrigin(t *testing.T) {
	_, err := CORS("localhost:5173")
	assert.Error(t, err)
}

func TestCORS_Preflight(t *testing.T) {
	gin.SetMode(gin.TestMode)

	h, err := CORS("http://localhost:5173, https://bank.example.org")
	require.NoError(t, err)

	router := gin.New()
	router.Use(h)
	router.POST("/api/v1/inventory/issues", func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})

	tests := []struct {
		name        string
		origin      string
		wantStatus  int
		wantAllowed string
	}{
		{"allowed origin", "http://localhost:5173", http.StatusNoContent, "http://localhost:5173"},
		{"second origin", "https://bank.example.org", http.StatusNoContent, "https://bank.example.org"},
		{"unknown origin", "https://evil.example.com", http.StatusForbidden, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodOptions, "/api/v1/inventory/issues", nil)
			req.Header.Set("Origin", tt.origin)
			req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantAllowed, w.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}
