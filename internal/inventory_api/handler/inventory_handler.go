package handler

import (
	"log/slog"
	"time"

	"github.com/blood-inventory-ledger/internal/domain/inventory"
	"github.com/blood-inventory-ledger/internal/inventory_api/middleware"
	"github.com/blood-inventory-ledger/internal/inventory_api/service"
	"github.com/gin-gonic/gin"
)

// InventoryHandler handles HTTP requests for the stock ledger
type InventoryHandler struct {
	inventoryService service.InventoryService
	logger           *slog.Logger
	windowDays       int
}

// NewInventoryHandler creates a new inventory handler. windowDays is the
// expiring-soon window used when a request does not set one.
func NewInventoryHandler(logger *slog.Logger, inventoryService service.InventoryService, windowDays int) *InventoryHandler {
	return &InventoryHandler{
		inventoryService: inventoryService,
		logger:           logger,
		windowDays:       windowDays,
	}
}

// CreateEntry records a received batch
func (h *InventoryHandler) CreateEntry(c *gin.Context) {
	org, ok := organization(c)
	if !ok {
		return
	}

	var req CreateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondValidationError(c, "Invalid request body: "+err.Error())
		return
	}
	in, err := req.toInput(middleware.GetActor(c))
	if err != nil {
		RespondDomainError(c, h.logger, "parse entry", err)
		return
	}

	entry, err := h.inventoryService.RecordEntry(c.Request.Context(), org, in)
	if err != nil {
		RespondDomainError(c, h.logger, "record entry", err)
		return
	}
	RespondCreated(c, entry)
}

func (h *InventoryHandler) ListEntries(c *gin.Context) {
	org, ok := organization(c)
	if !ok {
		return
	}

	var q EntryListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		RespondValidationError(c, "Invalid query parameters: "+err.Error())
		return
	}

	result, err := h.inventoryService.ListEntries(c.Request.Context(), org, inventory.EntryFilter{
		BloodGroup:    bloodGroupParam(q.BloodGroup),
		ComponentType: inventory.ComponentType(q.ComponentType),
		SourceType:    inventory.SourceType(q.SourceType),
		Page:          q.toPage(),
	})
	if err != nil {
		RespondDomainError(c, h.logger, "list entries", err)
		return
	}
	entries := result.Entries
	if entries == nil {
		entries = []*inventory.Entry{}
	}
	RespondWithPaginatedData(c, entries, result.Page, result.Total)
}

// CreateIssue admits and records an issue in one request. A shortfall
// answers 409 with the available units.
func (h *InventoryHandler) CreateIssue(c *gin.Context) {
	org, ok := organization(c)
	if !ok {
		return
	}

	var req CreateIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondValidationError(c, "Invalid request body: "+err.Error())
		return
	}
	in, err := req.toInput(middleware.GetActor(c))
	if err != nil {
		RespondDomainError(c, h.logger, "parse issue", err)
		return
	}

	issue, err := h.inventoryService.TryIssue(c.Request.Context(), org, in)
	if err != nil {
		RespondDomainError(c, h.logger, "issue stock", err)
		return
	}
	RespondCreated(c, issue)
}

func (h *InventoryHandler) ListIssues(c *gin.Context) {
	org, ok := organization(c)
	if !ok {
		return
	}

	var q IssueListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		RespondValidationError(c, "Invalid query parameters: "+err.Error())
		return
	}

	result, err := h.inventoryService.ListIssues(c.Request.Context(), org, inventory.IssueFilter{
		BloodGroup:    bloodGroupParam(q.BloodGroup),
		ComponentType: inventory.ComponentType(q.ComponentType),
		IssuedToType:  inventory.RecipientType(q.IssuedToType),
		Page:          q.toPage(),
	})
	if err != nil {
		RespondDomainError(c, h.logger, "list issues", err)
		return
	}
	issues := result.Issues
	if issues == nil {
		issues = []*inventory.Issue{}
	}
	RespondWithPaginatedData(c, issues, result.Page, result.Total)
}

func (h *InventoryHandler) GetBalance(c *gin.Context) {
	org, ok := organization(c)
	if !ok {
		return
	}

	var q BalanceQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		RespondValidationError(c, "Invalid query parameters: "+err.Error())
		return
	}
	asOf, err := parseDate("as_of", q.AsOf)
	if err != nil {
		RespondDomainError(c, h.logger, "parse balance query", err)
		return
	}

	key := inventory.StockKey{
		BloodGroup:    bloodGroupParam(q.BloodGroup),
		ComponentType: inventory.ComponentType(q.ComponentType),
	}
	balance, err := h.inventoryService.ComputeBalance(c.Request.Context(), org, key, timeOrZero(asOf))
	if err != nil {
		RespondDomainError(c, h.logger, "compute balance", err)
		return
	}

	response := BalanceResponse{
		BloodGroup:    key.BloodGroup,
		ComponentType: key.ComponentType,
		Balance:       balance,
	}
	if asOf != nil {
		response.AsOf = asOf.Format(time.RFC3339)
	}
	RespondOK(c, response)
}

func (h *InventoryHandler) GetSummary(c *gin.Context) {
	org, ok := organization(c)
	if !ok {
		return
	}

	lines, err := h.inventoryService.SummarizeByOrganization(c.Request.Context(), org)
	if err != nil {
		RespondDomainError(c, h.logger, "summarize inventory", err)
		return
	}
	if lines == nil {
		lines = []inventory.StockLine{}
	}
	RespondOK(c, lines)
}

func (h *InventoryHandler) GetExpiry(c *gin.Context) {
	org, ok := organization(c)
	if !ok {
		return
	}

	var q ExpiryQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		RespondValidationError(c, "Invalid query parameters: "+err.Error())
		return
	}
	asOf, err := parseDate("as_of", q.AsOf)
	if err != nil {
		RespondDomainError(c, h.logger, "parse expiry query", err)
		return
	}

	report, err := h.inventoryService.ClassifyExpiry(c.Request.Context(), org, timeOrZero(asOf), h.window(q.WindowDays))
	if err != nil {
		RespondDomainError(c, h.logger, "classify expiry", err)
		return
	}
	RespondOK(c, report)
}

func (h *InventoryHandler) GetDashboard(c *gin.Context) {
	org, ok := organization(c)
	if !ok {
		return
	}

	var q DashboardQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		RespondValidationError(c, "Invalid query parameters: "+err.Error())
		return
	}

	dashboard, err := h.inventoryService.Dashboard(c.Request.Context(), org, h.window(q.WindowDays))
	if err != nil {
		RespondDomainError(c, h.logger, "build dashboard", err)
		return
	}
	RespondOK(c, dashboard)
}

// GetShelfLife lists the default shelf life of every component
func (h *InventoryHandler) GetShelfLife(c *gin.Context) {
	response := make([]ShelfLifeResponse, 0, len(inventory.ComponentTypes))
	for _, ct := range inventory.ComponentTypes {
		life, _ := inventory.ShelfLife(ct)
		response = append(response, ShelfLifeResponse{
			ComponentType: ct,
			Days:          int(life / (24 * time.Hour)),
		})
	}
	RespondOK(c, response)
}

func (h *InventoryHandler) window(requested *int) int {
	if requested != nil {
		return *requested
	}
	return h.windowDays
}

func timeOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
