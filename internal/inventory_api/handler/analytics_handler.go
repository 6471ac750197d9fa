package handler

import (
	"log/slog"

	"github.com/blood-inventory-ledger/internal/inventory_api/service"
	"github.com/gin-gonic/gin"
)

// AnalyticsHandler serves donation and usage trends
type AnalyticsHandler struct {
	analyticsService service.AnalyticsService
	logger           *slog.Logger
}

func NewAnalyticsHandler(logger *slog.Logger, analyticsService service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{
		analyticsService: analyticsService,
		logger:           logger,
	}
}

func (h *AnalyticsHandler) Get(c *gin.Context) {
	org, ok := organization(c)
	if !ok {
		return
	}

	var q AnalyticsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		RespondValidationError(c, "Invalid query parameters: "+err.Error())
		return
	}

	analytics, err := h.analyticsService.GetAnalytics(c.Request.Context(), org, q.Days)
	if err != nil {
		RespondDomainError(c, h.logger, "build analytics", err)
		return
	}
	RespondOK(c, analytics)
}
