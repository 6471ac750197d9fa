package handler

import (
	"strings"
	"time"

	"github.com/blood-inventory-ledger/internal/domain/inventory"
)

// CreateEntryRequest represents a received batch. Dates are either
// YYYY-MM-DD or RFC3339.
type CreateEntryRequest struct {
	BloodGroup      string `json:"blood_group"`
	ComponentType   string `json:"component_type"`
	Units           int64  `json:"units"`
	SourceType      string `json:"source_type"`
	SourceName      string `json:"source_name,omitempty"`
	SourceRefID     string `json:"source_ref_id,omitempty"`
	CollectionDate  string `json:"collection_date,omitempty"`
	ReceivedDate    string `json:"received_date,omitempty"`
	ExpiryDate      string `json:"expiry_date,omitempty"`
	StorageLocation string `json:"storage_location,omitempty" binding:"max=255"`
	Notes           string `json:"notes,omitempty"`
}

// CreateIssueRequest represents units leaving the organization
type CreateIssueRequest struct {
	BloodGroup    string `json:"blood_group"`
	ComponentType string `json:"component_type"`
	Units         int64  `json:"units"`
	IssuedToType  string `json:"issued_to_type"`
	IssuedToName  string `json:"issued_to_name,omitempty"`
	IssuedToRefID string `json:"issued_to_ref_id,omitempty"`
	IssuedDate    string `json:"issued_date,omitempty"`
	RequestRefID  string `json:"request_ref_id,omitempty"`
	Notes         string `json:"notes,omitempty"`
}

// CreateIssuanceRequest is an issue admitted asynchronously by the processor
type CreateIssuanceRequest struct {
	CreateIssueRequest
	IdempotencyKey string `json:"idempotency_key,omitempty" binding:"max=128"`
}

// PaginationParams represents pagination query parameters
type PaginationParams struct {
	Page    int `form:"page,default=1" binding:"min=1"`
	PerPage int `form:"per_page,default=20" binding:"min=1,max=100"`
}

func (p PaginationParams) toPage() inventory.Page {
	return inventory.Page{Page: p.Page, PerPage: p.PerPage}
}

type EntryListQuery struct {
	PaginationParams
	BloodGroup    string `form:"blood_group"`
	ComponentType string `form:"component_type"`
	SourceType    string `form:"source_type"`
}

type IssueListQuery struct {
	PaginationParams
	BloodGroup    string `form:"blood_group"`
	ComponentType string `form:"component_type"`
	IssuedToType  string `form:"issued_to_type"`
}

type BalanceQuery struct {
	BloodGroup    string `form:"blood_group"`
	ComponentType string `form:"component_type"`
	AsOf          string `form:"as_of"`
}

type ExpiryQuery struct {
	AsOf       string `form:"as_of"`
	WindowDays *int   `form:"window_days" binding:"omitempty,min=0,max=365"`
}

type DashboardQuery struct {
	WindowDays *int `form:"window_days" binding:"omitempty,min=0,max=365"`
}

type AnalyticsQuery struct {
	Days int `form:"days" binding:"min=0,max=366"`
}

// BalanceResponse represents one tuple's balance
type BalanceResponse struct {
	BloodGroup    inventory.BloodGroup    `json:"blood_group"`
	ComponentType inventory.ComponentType `json:"component_type"`
	Balance       int64                   `json:"balance"`
	AsOf          string                  `json:"as_of,omitempty"`
}

// ShelfLifeResponse represents how many days a component keeps
type ShelfLifeResponse struct {
	ComponentType inventory.ComponentType `json:"component_type"`
	Days          int                     `json:"days"`
}

// IssuanceStatusResponse is returned while no decision exists yet
type IssuanceStatusResponse struct {
	RequestID string `json:"request_id"`
	Status    string `json:"status"`
}

const dateLayout = "2006-01-02"

// parseDate accepts YYYY-MM-DD or RFC3339. Empty input yields nil.
func parseDate(field, raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		t = t.UTC()
		return &t, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, inventory.NewValidationError(field, "must be YYYY-MM-DD or RFC3339")
	}
	return &t, nil
}

// bloodGroupParam restores the "+" of a positive group sent unencoded in a
// query string, where it decodes to a space
func bloodGroupParam(raw string) inventory.BloodGroup {
	if strings.HasSuffix(raw, " ") {
		raw = strings.TrimRight(raw, " ") + "+"
	}
	return inventory.BloodGroup(strings.TrimSpace(raw))
}

func (r CreateEntryRequest) toInput(createdBy string) (inventory.EntryInput, error) {
	collection, err := parseDate("collection_date", r.CollectionDate)
	if err != nil {
		return inventory.EntryInput{}, err
	}
	received, err := parseDate("received_date", r.ReceivedDate)
	if err != nil {
		return inventory.EntryInput{}, err
	}
	expiry, err := parseDate("expiry_date", r.ExpiryDate)
	if err != nil {
		return inventory.EntryInput{}, err
	}
	return inventory.EntryInput{
		BloodGroup:      inventory.BloodGroup(strings.TrimSpace(r.BloodGroup)),
		ComponentType:   inventory.ComponentType(strings.TrimSpace(r.ComponentType)),
		Units:           r.Units,
		SourceType:      inventory.SourceType(strings.TrimSpace(r.SourceType)),
		SourceName:      r.SourceName,
		SourceRefID:     r.SourceRefID,
		CollectionDate:  collection,
		ReceivedDate:    received,
		ExpiryDate:      expiry,
		StorageLocation: r.StorageLocation,
		Notes:           r.Notes,
		CreatedBy:       createdBy,
	}, nil
}

func (r CreateIssueRequest) toInput(createdBy string) (inventory.IssueInput, error) {
	issued, err := parseDate("issued_date", r.IssuedDate)
	if err != nil {
		return inventory.IssueInput{}, err
	}
	return inventory.IssueInput{
		BloodGroup:    inventory.BloodGroup(strings.TrimSpace(r.BloodGroup)),
		ComponentType: inventory.ComponentType(strings.TrimSpace(r.ComponentType)),
		Units:         r.Units,
		IssuedToType:  inventory.RecipientType(strings.TrimSpace(r.IssuedToType)),
		IssuedToName:  r.IssuedToName,
		IssuedToRefID: r.IssuedToRefID,
		IssuedDate:    issued,
		RequestRefID:  r.RequestRefID,
		Notes:         r.Notes,
		CreatedBy:     createdBy,
	}, nil
}
