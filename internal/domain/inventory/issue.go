package inventory

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Issue is a dispatched batch of blood units
type Issue struct {
	ID               uuid.UUID        `json:"id"`
	OrganizationID   uuid.UUID        `json:"organization_id"`
	OrganizationRole OrganizationRole `json:"organization_role"`
	BloodGroup       BloodGroup       `json:"blood_group"`
	ComponentType    ComponentType    `json:"component_type"`
	Units            int64            `json:"units"`
	IssuedToType     RecipientType    `json:"issued_to_type"`
	IssuedToName     string           `json:"issued_to_name,omitempty"`
	IssuedToRefID    string           `json:"issued_to_ref_id,omitempty"`
	IssuedDate       time.Time        `json:"issued_date"`
	RequestRefID     string           `json:"request_ref_id,omitempty"`
	Notes            string           `json:"notes,omitempty"`
	CreatedBy        string           `json:"created_by,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
}

// IssueInput carries the caller supplied fields of a new issue
type IssueInput struct {
	ID            uuid.UUID // optional, generated when nil
	BloodGroup    BloodGroup
	ComponentType ComponentType
	Units         int64
	IssuedToType  RecipientType
	IssuedToName  string
	IssuedToRefID string
	IssuedDate    *time.Time
	RequestRefID  string
	Notes         string
	CreatedBy     string
}

func (in IssueInput) Key() StockKey {
	return StockKey{BloodGroup: in.BloodGroup, ComponentType: in.ComponentType}
}

// NewIssue validates the input and builds an issue owned by org. It does
// not check stock; that is the admission step's job.
// Clone returns a copy of i. Issues hold no shared references today, but
// stores copy through Clone so a new pointer field cannot leak.
func (i *Issue) Clone() *Issue {
	cp := *i
	return &cp
}

func NewIssue(org Organization, in IssueInput) (*Issue, error) {
	if err := org.Validate(); err != nil {
		return nil, err
	}
	if err := in.Key().Validate(); err != nil {
		return nil, err
	}
	if in.Units < 1 {
		return nil, NewValidationError("units", "must be a positive whole number")
	}
	if !in.IssuedToType.Valid() {
		return nil, NewValidationError("issued_to_type", "must be one of Patient, Hospital, NGO, Donor")
	}
	if in.IssuedDate == nil || in.IssuedDate.IsZero() {
		return nil, NewValidationError("issued_date", "is required")
	}

	id := in.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	return &Issue{
		ID:               id,
		OrganizationID:   org.ID,
		OrganizationRole: org.Role,
		BloodGroup:       in.BloodGroup,
		ComponentType:    in.ComponentType,
		Units:            in.Units,
		IssuedToType:     in.IssuedToType,
		IssuedToName:     strings.TrimSpace(in.IssuedToName),
		IssuedToRefID:    strings.TrimSpace(in.IssuedToRefID),
		IssuedDate:       in.IssuedDate.UTC(),
		RequestRefID:     strings.TrimSpace(in.RequestRefID),
		Notes:            in.Notes,
		CreatedBy:        in.CreatedBy,
		CreatedAt:        time.Now().UTC(),
	}, nil
}

func (i *Issue) Key() StockKey {
	return StockKey{BloodGroup: i.BloodGroup, ComponentType: i.ComponentType}
}
