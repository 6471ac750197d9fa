package inventory

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var d0 = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func testOrg() Organization {
	return Organization{ID: uuid.New(), Role: RoleBloodBank}
}

func ptr(t time.Time) *time.Time { return &t }

func mustEntry(t *testing.T, org Organization, g BloodGroup, c ComponentType, units int64, expiry *time.Time) *Entry {
	t.Helper()
	e, err := NewEntry(org, EntryInput{
		BloodGroup:    g,
		ComponentType: c,
		Units:         units,
		SourceType:    SourceDonation,
		ReceivedDate:  ptr(d0),
		ExpiryDate:    expiry,
	})
	require.NoError(t, err)
	return e
}

func mustIssue(t *testing.T, org Organization, g BloodGroup, c ComponentType, units int64, issued time.Time) *Issue {
	t.Helper()
	i, err := NewIssue(org, IssueInput{
		BloodGroup:    g,
		ComponentType: c,
		Units:         units,
		IssuedToType:  RecipientPatient,
		IssuedDate:    &issued,
	})
	require.NoError(t, err)
	return i
}

func TestNewEntry(t *testing.T) {
	org := testOrg()
	valid := EntryInput{
		BloodGroup:    BloodGroupOPos,
		ComponentType: ComponentWholeBlood,
		Units:         10,
		SourceType:    SourceDonation,
		ReceivedDate:  ptr(d0),
		ExpiryDate:    ptr(d0.AddDate(0, 0, 35)),
	}

	t.Run("SuccessfulCreation", func(t *testing.T) {
		e, err := NewEntry(org, valid)
		require.NoError(t, err)

		assert.NotEqual(t, uuid.Nil, e.ID)
		assert.Equal(t, org.ID, e.OrganizationID)
		assert.Equal(t, org.Role, e.OrganizationRole)
		assert.Equal(t, int64(10), e.Units)
		assert.True(t, e.ReceivedDate.Equal(d0))
		require.NotNil(t, e.ExpiryDate)
		assert.False(t, e.CreatedAt.IsZero())
	})

	tests := []struct {
		name   string
		mutate func(in *EntryInput)
		field  string
	}{
		{"zero units", func(in *EntryInput) { in.Units = 0 }, "units"},
		{"negative units", func(in *EntryInput) { in.Units = -3 }, "units"},
		{"unknown blood group", func(in *EntryInput) { in.BloodGroup = "C+" }, "blood_group"},
		{"unknown component", func(in *EntryInput) { in.ComponentType = "Cryo" }, "component_type"},
		{"unknown source", func(in *EntryInput) { in.SourceType = "Gift" }, "source_type"},
		{"missing received date", func(in *EntryInput) { in.ReceivedDate = nil }, "received_date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)
			e, err := NewEntry(org, in)

			assert.Nil(t, e)
			assert.ErrorIs(t, err, ErrValidation)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
		})
	}

	t.Run("MissingOrganization", func(t *testing.T) {
		_, err := NewEntry(Organization{Role: RoleHospital}, valid)
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestNewIssue(t *testing.T) {
	org := testOrg()
	valid := IssueInput{
		BloodGroup:    BloodGroupANeg,
		ComponentType: ComponentPlatelets,
		Units:         2,
		IssuedToType:  RecipientHospital,
		IssuedDate:    ptr(d0),
	}

	t.Run("GeneratesID", func(t *testing.T) {
		i, err := NewIssue(org, valid)
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, i.ID)
	})

	t.Run("KeepsSuppliedID", func(t *testing.T) {
		in := valid
		in.ID = uuid.New()
		i, err := NewIssue(org, in)
		require.NoError(t, err)
		assert.Equal(t, in.ID, i.ID)
	})

	t.Run("InvalidRecipient", func(t *testing.T) {
		in := valid
		in.IssuedToType = "Clinic"
		_, err := NewIssue(org, in)
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("MissingIssuedDate", func(t *testing.T) {
		in := valid
		in.IssuedDate = nil
		_, err := NewIssue(org, in)
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestNormalizeRole(t *testing.T) {
	tests := []struct {
		raw     string
		want    OrganizationRole
		wantErr bool
	}{
		{"blood-bank", RoleBloodBank, false},
		{"Blood Bank", RoleBloodBank, false},
		{"bloodbank", RoleBloodBank, false},
		{"hospital", RoleHospital, false},
		{"Hospital Admin", RoleHospital, false},
		{"donor", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := NormalizeRole(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInsufficientStockError(t *testing.T) {
	err := error(&InsufficientStockError{Available: 12, Requested: 20})

	assert.Equal(t, "Insufficient stock. Available: 12 units", err.Error())
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.NotErrorIs(t, err, ErrValidation)
}

func TestThresholds_Classify(t *testing.T) {
	assert.Equal(t, StatusCritical, SummaryThresholds.Classify(0))
	assert.Equal(t, StatusCritical, SummaryThresholds.Classify(4))
	assert.Equal(t, StatusLow, SummaryThresholds.Classify(5))
	assert.Equal(t, StatusLow, SummaryThresholds.Classify(19))
	assert.Equal(t, StatusGood, SummaryThresholds.Classify(20))

	assert.Equal(t, StatusCritical, DashboardThresholds.Classify(49))
	assert.Equal(t, StatusLow, DashboardThresholds.Classify(50))
	assert.Equal(t, StatusGood, DashboardThresholds.Classify(150))
}

func TestBalance_Clamp(t *testing.T) {
	assert.Equal(t, int64(6), Balance(10, 4))
	assert.Equal(t, int64(0), Balance(4, 10))
	assert.Equal(t, int64(0), Balance(0, 0))
}

func TestAggregate_LedgerScenarios(t *testing.T) {
	org := testOrg()
	key := StockKey{BloodGroup: BloodGroupOPos, ComponentType: ComponentWholeBlood}
	entries := []*Entry{mustEntry(t, org, BloodGroupOPos, ComponentWholeBlood, 10, ptr(d0.AddDate(0, 0, 35)))}

	t.Run("EntryCountsUntilExpiry", func(t *testing.T) {
		totals := Aggregate(entries, nil, d0)
		assert.Equal(t, int64(10), totals.BalanceOf(key))
	})

	issues := []*Issue{mustIssue(t, org, BloodGroupOPos, ComponentWholeBlood, 4, d0.AddDate(0, 0, 1))}

	t.Run("IssueReducesBalance", func(t *testing.T) {
		totals := Aggregate(entries, issues, d0.AddDate(0, 0, 1))
		assert.Equal(t, int64(6), totals.BalanceOf(key))
	})

	t.Run("ExpiredStockLeavesBalanceAndIsReported", func(t *testing.T) {
		asOf := d0.AddDate(0, 0, 36)
		totals := Aggregate(entries, issues, asOf)
		assert.Equal(t, int64(0), totals.BalanceOf(key))

		from, to := ExpiringWindow(asOf, DefaultExpiryWindowDays)
		report := ClassifyExpiry(totals, ExpiringWithin(entries, from, to), DefaultExpiryWindowDays)
		require.Len(t, report.Expired, 1)
		assert.Equal(t, key, report.Expired[0].StockKey)
		assert.Equal(t, int64(6), report.Expired[0].Units)
		assert.Equal(t, int64(10), report.Expired[0].GrossUnits)
		assert.Empty(t, report.ExpiringSoon)
	})

	t.Run("ExpiryBoundaryIsUsable", func(t *testing.T) {
		totals := Aggregate(entries, nil, d0.AddDate(0, 0, 35))
		assert.Equal(t, int64(10), totals.BalanceOf(key))
		assert.Empty(t, totals.Expired)
	})
}

func TestClassifyExpiry_ExpiringSoon(t *testing.T) {
	org := testOrg()
	key := StockKey{BloodGroup: BloodGroupANeg, ComponentType: ComponentPlatelets}
	entries := []*Entry{
		mustEntry(t, org, BloodGroupANeg, ComponentPlatelets, 3, ptr(d0.AddDate(0, 0, 2))),
		mustEntry(t, org, BloodGroupANeg, ComponentPlatelets, 5, ptr(d0.AddDate(0, 0, 20))),
	}

	totals := Aggregate(entries, nil, d0)
	from, to := ExpiringWindow(d0, 7)
	report := ClassifyExpiry(totals, ExpiringWithin(entries, from, to), 7)

	assert.Equal(t, int64(8), totals.BalanceOf(key))
	assert.Empty(t, report.Expired)
	require.Len(t, report.ExpiringSoon, 1)
	assert.Equal(t, int64(3), report.ExpiringSoon[0].Units)
	assert.Equal(t, int64(3), report.TotalExpiringSoon())
	assert.Equal(t, int64(0), report.TotalExpired())
}

func TestClassifyExpiry_IssuesCoveredByUsableStock(t *testing.T) {
	org := testOrg()
	entries := []*Entry{
		mustEntry(t, org, BloodGroupBPos, ComponentRBC, 10, ptr(d0.AddDate(0, 0, -1))),
		mustEntry(t, org, BloodGroupBPos, ComponentRBC, 5, nil),
	}
	issues := []*Issue{mustIssue(t, org, BloodGroupBPos, ComponentRBC, 4, d0)}

	totals := Aggregate(entries, issues, d0)
	report := ClassifyExpiry(totals, nil, 7)

	assert.Equal(t, int64(1), totals.BalanceOf(StockKey{BloodGroupBPos, ComponentRBC}))
	require.Len(t, report.Expired, 1)
	assert.Equal(t, int64(10), report.Expired[0].Units)
}

func TestSummarize(t *testing.T) {
	org := testOrg()
	entries := []*Entry{
		mustEntry(t, org, BloodGroupONeg, ComponentPlasma, 30, nil),
		mustEntry(t, org, BloodGroupAPos, ComponentRBC, 4, nil),
		mustEntry(t, org, BloodGroupAPos, ComponentWholeBlood, 8, ptr(d0.AddDate(0, 0, -2))),
	}
	issues := []*Issue{
		mustIssue(t, org, BloodGroupAPos, ComponentRBC, 4, d0),
		mustIssue(t, org, BloodGroupBNeg, ComponentPlatelets, 1, d0),
	}

	lines := Summarize(Aggregate(entries, issues, d0), SummaryThresholds)

	require.Len(t, lines, 4)
	assert.Equal(t, StockLine{BloodGroupAPos, ComponentWholeBlood, 0, StatusCritical}, lines[0])
	assert.Equal(t, StockLine{BloodGroupAPos, ComponentRBC, 0, StatusCritical}, lines[1])
	assert.Equal(t, StockLine{BloodGroupBNeg, ComponentPlatelets, 0, StatusCritical}, lines[2])
	assert.Equal(t, StockLine{BloodGroupONeg, ComponentPlasma, 30, StatusGood}, lines[3])

	t.Run("ByBloodGroup", func(t *testing.T) {
		groups := ByBloodGroup(lines, DashboardThresholds)
		require.Len(t, groups, len(BloodGroups))
		assert.Equal(t, GroupBalance{BloodGroupONeg, 30, StatusCritical}, groups[7])
	})

	t.Run("ByComponent", func(t *testing.T) {
		comps := ByComponent(lines)
		require.Len(t, comps, len(ComponentTypes))
		assert.Equal(t, ComponentBalance{ComponentPlasma, 30}, comps[2])
	})
}

func TestSuggestExpiry(t *testing.T) {
	collected := d0.AddDate(0, 0, -1)

	exp := SuggestExpiry(ComponentPlatelets, &collected, ptr(d0))
	require.NotNil(t, exp)
	assert.True(t, exp.Equal(collected.AddDate(0, 0, 5)))

	exp = SuggestExpiry(ComponentRBC, nil, ptr(d0))
	require.NotNil(t, exp)
	assert.True(t, exp.Equal(d0.AddDate(0, 0, 42)))

	assert.Nil(t, SuggestExpiry("Cryo", nil, ptr(d0)))
	assert.Nil(t, SuggestExpiry(ComponentPlasma, nil, nil))
}

func TestPage_Normalize(t *testing.T) {
	p := Page{}.Normalize()
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, DefaultPerPage, p.PerPage)

	assert.Equal(t, MaxPerPage, Page{Page: 1, PerPage: 1000}.Limit())
	assert.Equal(t, 40, Page{Page: 3, PerPage: 20}.Offset())
}
