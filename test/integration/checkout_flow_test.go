// Package integration exercises a full dispensing checkout across the
// domain packages: batch selection, prescription matching, compliance
// gating, verification degradation and post-sale effects.
package integration

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afyapos/compliance/internal/domain/dispensing"
	"github.com/afyapos/compliance/internal/domain/order"
	"github.com/afyapos/compliance/internal/domain/prescription"
	"github.com/afyapos/compliance/internal/insurance"
	"github.com/afyapos/compliance/internal/register"
	"github.com/afyapos/compliance/internal/verification"
)

func datePtr(s string) *time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return &t
}

func TestControlledDispensingCheckout(t *testing.T) {
	today := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	// The till asks for batches of the controlled product. The earliest
	// batch has expired; the picker must skip it.
	lots := []*dispensing.Lot{
		{ID: "lot-2026", ProductID: "morph-10", LotNumber: "M26", ExpiryDate: datePtr("2026-01-31"), QuantityOnHand: 30},
		{ID: "lot-2024", ProductID: "morph-10", LotNumber: "M24", ExpiryDate: datePtr("2024-11-30"), QuantityOnHand: 8},
	}
	picker := dispensing.NewBatchPicker(lots, today)

	require.Error(t, picker.Select(lots[1]))
	selected, ok := picker.Selected()
	require.True(t, ok)
	assert.Equal(t, "lot-2026", selected.ID)

	lotResult, err := picker.Confirm()
	require.NoError(t, err)
	require.True(t, lotResult.Confirmed)

	// The pharmacist searches prescriptions by patient name.
	rx := &prescription.Prescription{
		ID:         "rx-100",
		Name:       "RX/2025/00100",
		Status:     prescription.StatusValidated,
		Patient:    prescription.Patient{ID: "ID-778", DisplayName: "Janet Doe"},
		Prescriber: prescription.Prescriber{Name: "Dr. Smith", License: "KMP-9"},
		Lines: []prescription.Line{
			{ProductID: "morph-10", ProductName: "Morphine 10mg", QuantityPrescribed: 10},
		},
	}
	matched := prescription.Filter([]*prescription.Prescription{rx}, "jan")
	require.Len(t, matched, 1)

	// Order with the confirmed lot.
	o := &order.Order{
		ID:          "o-100",
		PatientID:   "ID-778",
		PatientName: "Janet Doe",
		Lines: []order.Line{
			{
				Product:   &order.Product{ID: "morph-10", Name: "Morphine 10mg", Schedule: order.ScheduleControlled1},
				LotID:     lotResult.Payload.ID,
				Quantity:  4,
				UnitPrice: 250,
			},
		},
	}

	ck := order.NewCheckout(o)
	ck.Evaluate()
	require.True(t, o.Pharmacy.HasPrescriptionItems)

	// Prescription gate blocks until the match is linked.
	require.ErrorIs(t, ck.ReadyForVerification(), order.ErrPrescriptionRequired)
	require.NoError(t, ck.LinkPrescription(matched[0].ID))
	require.NoError(t, ck.ReadyForVerification())

	// Verification service is down; the sale degrades instead of blocking.
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer down.Close()

	gw, err := verification.New(verification.Config{BaseURL: down.URL, RequestTimeout: time.Second}, nil)
	require.NoError(t, err)

	result := gw.VerifyInsurance(context.Background(), "NHIF-778", "nhif")
	require.True(t, result.Unavailable())
	assert.Equal(t, verification.UnavailableMessage, result.Error)

	require.NoError(t, ck.RecordVerification(order.VerificationUnavailable))
	require.NoError(t, ck.Finalize())

	// Post-sale effects: dispense recorded, register entry built, claim
	// drafted.
	require.NoError(t, rx.RecordDispense("morph-10", 4))
	assert.Equal(t, prescription.StatusPartial, rx.Status)

	entries := register.BuildEntries(o, rx, "pharmacist-1", today)
	require.Len(t, entries, 1)
	assert.Equal(t, "lot-2026", entries[0].LotID)
	assert.Equal(t, "Janet Doe", entries[0].PatientName)
	assert.Equal(t, "rx-100", entries[0].PrescriptionID)
	assert.Equal(t, "Dr. Smith", entries[0].PrescriberName)

	providerID := "nhif"
	o.Pharmacy.InsuranceProviderID = &providerID
	o.Pharmacy.InsuranceMemberNumber = "NHIF-778"
	provider := &insurance.Provider{ID: providerID, Name: "NHIF", Code: "NHIF", CopayPercentage: 10, Active: true}
	claim, err := insurance.DraftClaim(o, provider, today)
	require.NoError(t, err)
	assert.InDelta(t, 1000.0, claim.Split.Total, 1e-9)
	assert.InDelta(t, 100.0, claim.Split.PatientCopay, 1e-9)
	assert.InDelta(t, 900.0, claim.Split.InsuranceAmount, 1e-9)
}

func TestLineEditRewindsCheckout(t *testing.T) {
	o := &order.Order{
		ID: "o-101",
		Lines: []order.Line{
			{Product: &order.Product{ID: "para-500", Schedule: order.ScheduleOTC}, Quantity: 1},
		},
	}

	ck := order.NewCheckout(o)
	ck.Evaluate()
	require.NoError(t, ck.ReadyForVerification())
	require.NoError(t, ck.RecordVerification(order.VerificationPassed))

	// Adding a prescription item invalidates the confirmed stages.
	o.Lines = append(o.Lines, order.Line{
		Product: &order.Product{ID: "amox", Schedule: order.SchedulePrescription}, Quantity: 1,
	})
	ck.LinesChanged()

	assert.Equal(t, order.StageDraft, ck.Stage())
	assert.Equal(t, order.VerificationNotRun, ck.Verification())
	require.Error(t, ck.Finalize())

	ck.Evaluate()
	require.ErrorIs(t, ck.ReadyForVerification(), order.ErrPrescriptionRequired)
}
