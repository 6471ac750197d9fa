package inventory

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Entry is a received batch of blood units. Entries are append-only:
// corrections are made with further entries or issues.
type Entry struct {
	ID               uuid.UUID        `json:"id"`
	OrganizationID   uuid.UUID        `json:"organization_id"`
	OrganizationRole OrganizationRole `json:"organization_role"`
	BloodGroup       BloodGroup       `json:"blood_group"`
	ComponentType    ComponentType    `json:"component_type"`
	Units            int64            `json:"units"`
	SourceType       SourceType       `json:"source_type"`
	SourceName       string           `json:"source_name,omitempty"`
	SourceRefID      string           `json:"source_ref_id,omitempty"`
	CollectionDate   *time.Time       `json:"collection_date,omitempty"`
	ReceivedDate     time.Time        `json:"received_date"`
	ExpiryDate       *time.Time       `json:"expiry_date,omitempty"`
	StorageLocation  string           `json:"storage_location,omitempty"`
	Notes            string           `json:"notes,omitempty"`
	CreatedBy        string           `json:"created_by,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
}

// EntryInput carries the caller supplied fields of a new entry
type EntryInput struct {
	BloodGroup      BloodGroup
	ComponentType   ComponentType
	Units           int64
	SourceType      SourceType
	SourceName      string
	SourceRefID     string
	CollectionDate  *time.Time
	ReceivedDate    *time.Time
	ExpiryDate      *time.Time
	StorageLocation string
	Notes           string
	CreatedBy       string
}

// NewEntry validates the input and builds an entry owned by org
func NewEntry(org Organization, in EntryInput) (*Entry, error) {
	if err := org.Validate(); err != nil {
		return nil, err
	}
	key := StockKey{BloodGroup: in.BloodGroup, ComponentType: in.ComponentType}
	if err := key.Validate(); err != nil {
		return nil, err
	}
	if in.Units < 1 {
		return nil, NewValidationError("units", "must be a positive whole number")
	}
	if !in.SourceType.Valid() {
		return nil, NewValidationError("source_type", "must be one of Donation, Purchase, Transfer, Camp")
	}
	if in.ReceivedDate == nil || in.ReceivedDate.IsZero() {
		return nil, NewValidationError("received_date", "is required")
	}

	return &Entry{
		ID:               uuid.New(),
		OrganizationID:   org.ID,
		OrganizationRole: org.Role,
		BloodGroup:       in.BloodGroup,
		ComponentType:    in.ComponentType,
		Units:            in.Units,
		SourceType:       in.SourceType,
		SourceName:       strings.TrimSpace(in.SourceName),
		SourceRefID:      strings.TrimSpace(in.SourceRefID),
		CollectionDate:   utcPtr(in.CollectionDate),
		ReceivedDate:     in.ReceivedDate.UTC(),
		ExpiryDate:       utcPtr(in.ExpiryDate),
		StorageLocation:  strings.TrimSpace(in.StorageLocation),
		Notes:            in.Notes,
		CreatedBy:        in.CreatedBy,
		CreatedAt:        time.Now().UTC(),
	}, nil
}

// Clone returns a copy that shares no memory with e
func (e *Entry) Clone() *Entry {
	cp := *e
	cp.CollectionDate = copyTime(e.CollectionDate)
	cp.ExpiryDate = copyTime(e.ExpiryDate)
	return &cp
}

func (e *Entry) Key() StockKey {
	return StockKey{BloodGroup: e.BloodGroup, ComponentType: e.ComponentType}
}

// UsableAt reports whether the entry still counts towards the balance at
// asOf. Undated entries never expire.
func (e *Entry) UsableAt(asOf time.Time) bool {
	return e.ExpiryDate == nil || !e.ExpiryDate.Before(asOf)
}

// ExpiredAt is the exact complement of UsableAt
func (e *Entry) ExpiredAt(asOf time.Time) bool {
	return !e.UsableAt(asOf)
}

// ExpiresWithin reports whether the expiry falls in [from, to]
func (e *Entry) ExpiresWithin(from, to time.Time) bool {
	if e.ExpiryDate == nil {
		return false
	}
	return !e.ExpiryDate.Before(from) && !e.ExpiryDate.After(to)
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	u := t.UTC()
	return &u
}
