package register_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afyapos/compliance/internal/domain/order"
	"github.com/afyapos/compliance/internal/domain/prescription"
	"github.com/afyapos/compliance/internal/register"
)

var (
	morphine = &order.Product{ID: "morph-10", Name: "Morphine 10mg", Schedule: order.ScheduleControlled1}
	panadol  = &order.Product{ID: "para-500", Name: "Paracetamol 500mg", Schedule: order.ScheduleOTC}
)

func TestBuildEntriesOnlyControlledLines(t *testing.T) {
	o := &order.Order{
		ID:          "o-77",
		PatientID:   "ID-445",
		PatientName: "Janet Doe",
		Lines: []order.Line{
			{Product: panadol, Quantity: 2},
			{Product: morphine, Quantity: 1, LotID: "lot-9"},
		},
	}
	rx := &prescription.Prescription{
		ID:         "rx-42",
		Prescriber: prescription.Prescriber{Name: "Dr. Smith", License: "KMP-1234"},
	}
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	entries := register.BuildEntries(o, rx, "cashier-3", now)

	require.Len(t, entries, 1)
	e := entries[0]
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, now, e.Date)
	assert.Equal(t, "morph-10", e.ProductID)
	assert.Equal(t, register.TransactionDispensing, e.TransactionType)
	assert.Equal(t, 1.0, e.QuantityDispensed)
	assert.Equal(t, "lot-9", e.LotID)
	assert.Equal(t, "rx-42", e.PrescriptionID)
	assert.Equal(t, "Janet Doe", e.PatientName)
	assert.Equal(t, "ID-445", e.PatientIDNumber)
	assert.Equal(t, "Dr. Smith", e.PrescriberName)
	assert.Equal(t, "KMP-1234", e.PrescriberLicense)
	assert.Equal(t, "cashier-3", e.AuthorizedBy)
	assert.Equal(t, "POS Sale - Order o-77", e.Remarks)
}

func TestBuildEntriesWalkInWithoutPrescription(t *testing.T) {
	o := &order.Order{
		ID:    "o-78",
		Lines: []order.Line{{Product: morphine, Quantity: 1}},
	}

	entries := register.BuildEntries(o, nil, "pharmacist-1", time.Now())

	require.Len(t, entries, 1)
	assert.Equal(t, "Walk-in Customer", entries[0].PatientName)
	assert.Empty(t, entries[0].PrescriptionID)
	assert.Empty(t, entries[0].PrescriberName)
}

func TestBuildEntriesNoControlledSubstances(t *testing.T) {
	o := &order.Order{
		ID:    "o-79",
		Lines: []order.Line{{Product: panadol, Quantity: 3}},
	}
	assert.Empty(t, register.BuildEntries(o, nil, "cashier-3", time.Now()))
}
