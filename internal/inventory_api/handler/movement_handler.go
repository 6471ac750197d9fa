package handler

import (
	"log/slog"

	"github.com/blood-inventory-ledger/internal/domain/journal"
	"github.com/blood-inventory-ledger/internal/inventory_api/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// MovementHandler serves the organization's movement journal
type MovementHandler struct {
	journalService service.JournalService
	logger         *slog.Logger
}

func NewMovementHandler(logger *slog.Logger, journalService service.JournalService) *MovementHandler {
	return &MovementHandler{
		journalService: journalService,
		logger:         logger,
	}
}

func (h *MovementHandler) List(c *gin.Context) {
	org, ok := organization(c)
	if !ok {
		return
	}

	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		RespondValidationError(c, "Invalid pagination parameters")
		return
	}

	page := pagination.toPage()
	movements, total, err := h.journalService.ListMovements(c.Request.Context(), org, page)
	if err != nil {
		RespondDomainError(c, h.logger, "list movements", err)
		return
	}
	if movements == nil {
		movements = []*journal.Movement{}
	}
	RespondWithPaginatedData(c, movements, page, total)
}

// GetByID returns one movement; the event id is the entry or issue id
func (h *MovementHandler) GetByID(c *gin.Context) {
	org, ok := organization(c)
	if !ok {
		return
	}

	eventID, err := uuid.Parse(c.Param("event_id"))
	if err != nil {
		RespondValidationError(c, "Invalid event ID")
		return
	}

	movement, err := h.journalService.GetMovement(c.Request.Context(), org, eventID)
	if err != nil {
		RespondDomainError(c, h.logger, "get movement", err)
		return
	}
	if movement == nil {
		RespondNotFound(c, "Movement not found")
		return
	}
	RespondOK(c, movement)
}
