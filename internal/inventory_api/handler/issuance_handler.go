package handler

import (
	"log/slog"
	"time"

	"github.com/blood-inventory-ledger/internal/domain/admission"
	"github.com/blood-inventory-ledger/internal/domain/shared"
	"github.com/blood-inventory-ledger/internal/inventory_api/middleware"
	"github.com/blood-inventory-ledger/internal/inventory_api/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// IssuanceHandler handles asynchronous issuance requests
type IssuanceHandler struct {
	issuanceService service.IssuanceService
	logger          *slog.Logger
}

func NewIssuanceHandler(logger *slog.Logger, issuanceService service.IssuanceService) *IssuanceHandler {
	return &IssuanceHandler{
		issuanceService: issuanceService,
		logger:          logger,
	}
}

// Create queues an issuance request for admission. A repeated idempotency
// key returns the decision already made for it.
func (h *IssuanceHandler) Create(c *gin.Context) {
	org, ok := organization(c)
	if !ok {
		return
	}

	var req CreateIssuanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondValidationError(c, "Invalid request body: "+err.Error())
		return
	}
	in, err := req.toInput(middleware.GetActor(c))
	if err != nil {
		RespondDomainError(c, h.logger, "parse issuance request", err)
		return
	}

	issuanceRequest := &shared.IssuanceRequest{
		RequestID:        uuid.New(),
		OrganizationID:   org.ID,
		OrganizationRole: org.Role,
		BloodGroup:       in.BloodGroup,
		ComponentType:    in.ComponentType,
		Units:            in.Units,
		IssuedToType:     in.IssuedToType,
		IssuedToName:     in.IssuedToName,
		IssuedToRefID:    in.IssuedToRefID,
		RequestRefID:     in.RequestRefID,
		Notes:            in.Notes,
		RequestedBy:      in.CreatedBy,
		IdempotencyKey:   req.IdempotencyKey,
		CorrelationID:    middleware.GetCorrelationID(c),
		Timestamp:        time.Now().UTC(),
	}
	if in.IssuedDate != nil {
		issuanceRequest.IssuedDate = *in.IssuedDate
	}

	existing, err := h.issuanceService.SubmitRequest(c.Request.Context(), issuanceRequest)
	if err != nil {
		RespondDomainError(c, h.logger, "submit issuance request", err)
		return
	}
	if existing != nil {
		RespondOK(c, existing)
		return
	}

	RespondAccepted(c, IssuanceStatusResponse{
		RequestID: issuanceRequest.RequestID.String(),
		Status:    string(shared.DecisionStatusRequested),
	})
}

// GetByID returns the admission decision, or REQUESTED while the processor
// has not picked the request up
func (h *IssuanceHandler) GetByID(c *gin.Context) {
	org, ok := organization(c)
	if !ok {
		return
	}

	idParam := c.Param("id")
	requestID, err := uuid.Parse(idParam)
	if err != nil {
		RespondValidationError(c, "Invalid request ID")
		return
	}

	decision, err := h.issuanceService.GetDecision(c.Request.Context(), org, requestID)
	if err != nil {
		RespondDomainError(c, h.logger, "get issuance decision", err)
		return
	}
	if decision == nil {
		RespondOK(c, IssuanceStatusResponse{
			RequestID: requestID.String(),
			Status:    string(shared.DecisionStatusRequested),
		})
		return
	}
	RespondOK(c, decision)
}

func (h *IssuanceHandler) List(c *gin.Context) {
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
	decisions, total, err := h.issuanceService.ListDecisions(c.Request.Context(), org, page)
	if err != nil {
		RespondDomainError(c, h.logger, "list issuance decisions", err)
		return
	}
	if decisions == nil {
		decisions = []*admission.Decision{}
	}
	RespondWithPaginatedData(c, decisions, page, total)
}
