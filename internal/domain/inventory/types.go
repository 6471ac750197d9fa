package inventory

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// BloodGroup is one of the eight ABO/Rh groups
type BloodGroup string

const (
	BloodGroupAPos  BloodGroup = "A+"
	BloodGroupANeg  BloodGroup = "A-"
	BloodGroupBPos  BloodGroup = "B+"
	BloodGroupBNeg  BloodGroup = "B-"
	BloodGroupABPos BloodGroup = "AB+"
	BloodGroupABNeg BloodGroup = "AB-"
	BloodGroupOPos  BloodGroup = "O+"
	BloodGroupONeg  BloodGroup = "O-"
)

// BloodGroups lists the groups in display order
var BloodGroups = []BloodGroup{
	BloodGroupAPos, BloodGroupANeg,
	BloodGroupBPos, BloodGroupBNeg,
	BloodGroupABPos, BloodGroupABNeg,
	BloodGroupOPos, BloodGroupONeg,
}

// ComponentType defines how the collected blood was processed
type ComponentType string

const (
	ComponentWholeBlood ComponentType = "Whole Blood"
	ComponentRBC        ComponentType = "RBC"
	ComponentPlasma     ComponentType = "Plasma"
	ComponentPlatelets  ComponentType = "Platelets"
)

// ComponentTypes lists the components in display order
var ComponentTypes = []ComponentType{
	ComponentWholeBlood,
	ComponentRBC,
	ComponentPlasma,
	ComponentPlatelets,
}

// SourceType defines where received units came from
type SourceType string

const (
	SourceDonation SourceType = "Donation"
	SourcePurchase SourceType = "Purchase"
	SourceTransfer SourceType = "Transfer"
	SourceCamp     SourceType = "Camp"
)

var sourceTypes = []SourceType{SourceDonation, SourcePurchase, SourceTransfer, SourceCamp}

// RecipientType defines who issued units were dispatched to
type RecipientType string

const (
	RecipientPatient  RecipientType = "Patient"
	RecipientHospital RecipientType = "Hospital"
	RecipientNGO      RecipientType = "NGO"
	RecipientDonor    RecipientType = "Donor"
)

var recipientTypes = []RecipientType{RecipientPatient, RecipientHospital, RecipientNGO, RecipientDonor}

// OrganizationRole is the kind of organization owning a stock ledger
type OrganizationRole string

const (
	RoleHospital  OrganizationRole = "hospital"
	RoleBloodBank OrganizationRole = "blood-bank"
)

func (g BloodGroup) Valid() bool {
	for _, v := range BloodGroups {
		if g == v {
			return true
		}
	}
	return false
}

func (c ComponentType) Valid() bool {
	for _, v := range ComponentTypes {
		if c == v {
			return true
		}
	}
	return false
}

func (s SourceType) Valid() bool {
	for _, v := range sourceTypes {
		if s == v {
			return true
		}
	}
	return false
}

func (r RecipientType) Valid() bool {
	for _, v := range recipientTypes {
		if r == v {
			return true
		}
	}
	return false
}

func (r OrganizationRole) Valid() bool {
	return r == RoleHospital || r == RoleBloodBank
}

// NormalizeRole maps the free-form roles issued by the identity provider
// ("Blood Bank", "bloodbank", "Hospital Admin") onto an OrganizationRole.
func NormalizeRole(raw string) (OrganizationRole, error) {
	r := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case strings.Contains(r, "blood"):
		return RoleBloodBank, nil
	case strings.Contains(r, "hospital"):
		return RoleHospital, nil
	}
	return "", NewValidationError("organization_role", "must be a hospital or blood bank role")
}

// Organization identifies the owner of a stock ledger. Every ledger
// operation is scoped to exactly one organization.
type Organization struct {
	ID   uuid.UUID        `json:"organization_id"`
	Role OrganizationRole `json:"organization_role"`
}

// Validate checks the organization identity is usable as a ledger scope
func (o Organization) Validate() error {
	if o.ID == uuid.Nil {
		return NewValidationError("organization_id", "is required")
	}
	if !o.Role.Valid() {
		return NewValidationError("organization_role", "must be hospital or blood-bank")
	}
	return nil
}

// StockKey is the blood group and component pair stock is aggregated over
type StockKey struct {
	BloodGroup    BloodGroup    `json:"blood_group"`
	ComponentType ComponentType `json:"component_type"`
}

func (k StockKey) Validate() error {
	if !k.BloodGroup.Valid() {
		return NewValidationError("blood_group", "unrecognized blood group "+strconv.Quote(string(k.BloodGroup)))
	}
	if !k.ComponentType.Valid() {
		return NewValidationError("component_type", "unrecognized component type "+strconv.Quote(string(k.ComponentType)))
	}
	return nil
}

// LockKey returns the string that identifies the (organization, stock key)
// tuple for serializing admissions.
func (o Organization) LockKey(key StockKey) string {
	return o.ID.String() + "|" + string(o.Role) + "|" + string(key.BloodGroup) + "|" + string(key.ComponentType)
}
