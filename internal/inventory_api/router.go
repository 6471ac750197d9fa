package inventory_api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/blood-inventory-ledger/internal/inventory_api/handler"
	"github.com/blood-inventory-ledger/internal/inventory_api/middleware"
	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
)

// chain holds the optional middleware; nil entries are skipped
type chain struct {
	cors gin.HandlerFunc
	auth gin.HandlerFunc
	lim  *limiter.Limiter
}

type routes struct {
	inventory *handler.InventoryHandler
	analytics *handler.AnalyticsHandler
	issuance  *handler.IssuanceHandler
	movements *handler.MovementHandler
}

// setupRouter configures API routes and middleware
func setupRouter(logger *slog.Logger, r *gin.Engine, mw chain, h routes) {
	r.Use(middleware.Recovery(logger))
	if mw.cors != nil {
		r.Use(mw.cors)
	}
	r.Use(middleware.CorrelationID())
	r.Use(middleware.Logger(logger))

	v1 := r.Group("/api/v1")
	v1.Use(mw.auth)
	if mw.lim != nil {
		v1.Use(middleware.RateLimit(logger, mw.lim))
	}
	{
		inv := v1.Group("/inventory")
		{
			inv.POST("/entries", h.inventory.CreateEntry)
			inv.GET("/entries", h.inventory.ListEntries)
			inv.POST("/issues", h.inventory.CreateIssue)
			inv.GET("/issues", h.inventory.ListIssues)
			inv.GET("/balance", h.inventory.GetBalance)
			inv.GET("/summary", h.inventory.GetSummary)
			inv.GET("/expiry", h.inventory.GetExpiry)
			inv.GET("/dashboard", h.inventory.GetDashboard)
			inv.GET("/shelf-life", h.inventory.GetShelfLife)
			inv.GET("/analytics", h.analytics.Get)

			inv.POST("/issue-requests", h.issuance.Create)
			inv.GET("/issue-requests", h.issuance.List)
			inv.GET("/issue-requests/:id", h.issuance.GetByID)

			inv.GET("/movements", h.movements.List)
			inv.GET("/movements/:event_id", h.movements.GetByID)
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
}
