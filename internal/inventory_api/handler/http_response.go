package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/blood-inventory-ledger/internal/domain/inventory"
	"github.com/blood-inventory-ledger/internal/inventory_api/middleware"
	"github.com/gin-gonic/gin"
)

// Response represents a standard API response
type Response struct {
	Data          interface{} `json:"data,omitempty"`
	Error         *ErrorInfo  `json:"error,omitempty"`
	CorrelationID string      `json:"correlation_id,omitempty"`
	Meta          *MetaInfo   `json:"meta,omitempty"`
}

// ErrorInfo represents error information in a response
type ErrorInfo struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// MetaInfo represents pagination metadata
type MetaInfo struct {
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	TotalPages int   `json:"total_pages"`
	TotalItems int64 `json:"total_items"`
}

func NewResponse(data interface{}) *Response {
	return &Response{Data: data}
}

func NewErrorResponse(code, message string) *Response {
	return &Response{
		Error: &ErrorInfo{
			Code:    code,
			Message: message,
		},
	}
}

// NewPaginatedResponse creates a new paginated response
func NewPaginatedResponse(data interface{}, page inventory.Page, totalItems int64) *Response {
	page = page.Normalize()
	totalPages := int(totalItems / int64(page.PerPage))
	if totalItems%int64(page.PerPage) > 0 {
		totalPages++
	}

	return &Response{
		Data: data,
		Meta: &MetaInfo{
			Page:       page.Page,
			PerPage:    page.PerPage,
			TotalPages: totalPages,
			TotalItems: totalItems,
		},
	}
}

func RespondWithData(c *gin.Context, statusCode int, data interface{}) {
	response := NewResponse(data)
	response.CorrelationID = middleware.GetCorrelationID(c)
	c.JSON(statusCode, response)
}

func RespondWithError(c *gin.Context, statusCode int, code, message string) {
	response := NewErrorResponse(code, message)
	response.CorrelationID = middleware.GetCorrelationID(c)
	c.JSON(statusCode, response)
}

func RespondWithPaginatedData(c *gin.Context, data interface{}, page inventory.Page, totalItems int64) {
	response := NewPaginatedResponse(data, page, totalItems)
	response.CorrelationID = middleware.GetCorrelationID(c)
	c.JSON(http.StatusOK, response)
}

func RespondOK(c *gin.Context, data interface{}) {
	RespondWithData(c, http.StatusOK, data)
}

func RespondCreated(c *gin.Context, data interface{}) {
	RespondWithData(c, http.StatusCreated, data)
}

func RespondAccepted(c *gin.Context, data interface{}) {
	RespondWithData(c, http.StatusAccepted, data)
}

// RespondValidationError sends a 400 for input the ledger refuses
func RespondValidationError(c *gin.Context, message string) {
	RespondWithError(c, http.StatusBadRequest, "VALIDATION_ERROR", message)
}

func RespondUnauthorized(c *gin.Context) {
	RespondWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized")
}

func RespondNotFound(c *gin.Context, message string) {
	if message == "" {
		message = "Resource not found"
	}
	RespondWithError(c, http.StatusNotFound, "NOT_FOUND", message)
}

// RespondInsufficientStock sends a 409 carrying the units that were available
func RespondInsufficientStock(c *gin.Context, e *inventory.InsufficientStockError) {
	response := &Response{
		Error: &ErrorInfo{
			Code:    "INSUFFICIENT_STOCK",
			Message: e.Error(),
			Details: gin.H{"available": e.Available, "requested": e.Requested},
		},
		CorrelationID: middleware.GetCorrelationID(c),
	}
	c.JSON(http.StatusConflict, response)
}

func RespondInternalError(c *gin.Context) {
	RespondWithError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "An internal server error occurred")
}

// RespondDomainError maps ledger errors onto the error envelope. Anything
// unrecognized is logged and hidden behind a 500.
func RespondDomainError(c *gin.Context, logger *slog.Logger, operation string, err error) {
	var (
		validationErr   *inventory.ValidationError
		insufficientErr *inventory.InsufficientStockError
		conflictErr     *inventory.ConcurrencyConflictError
		duplicateErr    *inventory.DuplicateRecordError
	)

	switch {
	case errors.As(err, &validationErr):
		RespondValidationError(c, validationErr.Error())
	case errors.As(err, &insufficientErr):
		RespondInsufficientStock(c, insufficientErr)
	case errors.As(err, &conflictErr):
		RespondWithError(c, http.StatusConflict, "CONCURRENCY_CONFLICT", "Stock is being updated by another request, please retry")
	case errors.As(err, &duplicateErr):
		RespondWithError(c, http.StatusConflict, "DUPLICATE_RECORD", duplicateErr.Error())
	default:
		logger.Error("Failed to "+operation,
			"error", err,
			"correlation_id", middleware.GetCorrelationID(c),
		)
		RespondInternalError(c)
	}
}

// organization returns the caller's organization or answers 401
func organization(c *gin.Context) (inventory.Organization, bool) {
	org, ok := middleware.GetOrganization(c)
	if !ok {
		RespondUnauthorized(c)
	}
	return org, ok
}
