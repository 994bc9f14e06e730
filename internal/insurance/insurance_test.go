package insurance_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afyapos/compliance/internal/domain/order"
	"github.com/afyapos/compliance/internal/insurance"
)

func nhif() *insurance.Provider {
	return &insurance.Provider{
		ID:              "nhif",
		Name:            "National Hospital Insurance Fund",
		Code:            "NHIF",
		Type:            insurance.ProviderNHIF,
		CopayPercentage: 10,
		Active:          true,
	}
}

func TestProviderValidate(t *testing.T) {
	p := nhif()
	require.NoError(t, p.Validate())

	p.CopayPercentage = 120
	assert.ErrorIs(t, p.Validate(), insurance.ErrInvalidCopay)

	p.CopayPercentage = -1
	assert.ErrorIs(t, p.Validate(), insurance.ErrInvalidCopay)

	p = nhif()
	p.Code = ""
	assert.Error(t, p.Validate())
}

func TestCoveragePercentage(t *testing.T) {
	assert.Equal(t, 90.0, nhif().CoveragePercentage())
}

func TestAdjudicate(t *testing.T) {
	split := nhif().Adjudicate(1000)

	assert.Equal(t, 1000.0, split.Total)
	assert.Equal(t, 100.0, split.PatientCopay)
	assert.Equal(t, 900.0, split.InsuranceAmount)
}

func TestNeedsPreauth(t *testing.T) {
	p := nhif()
	assert.False(t, p.NeedsPreauth(1_000_000))

	p.RequiresPreauth = true
	p.PreauthThreshold = 5000
	assert.False(t, p.NeedsPreauth(4999))
	assert.True(t, p.NeedsPreauth(5000))
}

func TestDraftClaim(t *testing.T) {
	providerID := "nhif"
	o := &order.Order{
		ID:        "o-1",
		PatientID: "p-1",
		Lines: []order.Line{
			{Product: &order.Product{ID: "amox-500", Name: "Amoxicillin 500mg"}, Quantity: 21, UnitPrice: 15},
			{Product: &order.Product{ID: "para-500", Name: "Paracetamol 500mg"}, Quantity: 10, UnitPrice: 5},
		},
		Pharmacy: order.Extension{
			InsuranceProviderID:   &providerID,
			InsuranceMemberNumber: "M-00123",
		},
	}

	claim, err := insurance.DraftClaim(o, nhif(), time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.NotEmpty(t, claim.ID)
	assert.Equal(t, insurance.ClaimDraft, claim.Status)
	assert.Equal(t, "M-00123", claim.MemberNumber)
	require.Len(t, claim.Lines, 2)
	assert.Equal(t, 365.0, claim.Split.Total)
	assert.InDelta(t, 36.5, claim.Split.PatientCopay, 1e-9)
	assert.InDelta(t, 328.5, claim.Split.InsuranceAmount, 1e-9)
}

func TestDraftClaimWithoutInsurance(t *testing.T) {
	o := &order.Order{ID: "o-2"}
	_, err := insurance.DraftClaim(o, nhif(), time.Now())
	assert.ErrorIs(t, err, insurance.ErrNoInsurance)
}
