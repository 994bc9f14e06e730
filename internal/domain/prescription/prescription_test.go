package prescription_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afyapos/compliance/internal/domain/prescription"
)

func validatedRx() *prescription.Prescription {
	return &prescription.Prescription{
		ID:     "rx-1",
		Name:   "RX/2025/00042",
		Status: prescription.StatusValidated,
		Lines: []prescription.Line{
			{ProductID: "amox-500", ProductName: "Amoxicillin 500mg", QuantityPrescribed: 21},
			{ProductID: "para-500", ProductName: "Paracetamol 500mg", QuantityPrescribed: 10},
		},
	}
}

func TestRecordDispensePartial(t *testing.T) {
	rx := validatedRx()

	require.NoError(t, rx.RecordDispense("amox-500", 21))
	assert.Equal(t, prescription.StatusPartial, rx.Status)
	assert.True(t, rx.Lines[0].FullyDispensed())
	assert.Equal(t, 10.0, rx.Lines[1].Remaining())
}

func TestRecordDispenseCompletes(t *testing.T) {
	rx := validatedRx()

	require.NoError(t, rx.RecordDispense("amox-500", 21))
	require.NoError(t, rx.RecordDispense("para-500", 10))
	assert.Equal(t, prescription.StatusDispensed, rx.Status)
}

func TestRecordDispenseOverDispense(t *testing.T) {
	rx := validatedRx()

	require.NoError(t, rx.RecordDispense("para-500", 8))
	err := rx.RecordDispense("para-500", 3)
	require.ErrorIs(t, err, prescription.ErrOverDispense)
	// Failed dispense leaves quantities untouched.
	assert.Equal(t, 8.0, rx.Lines[1].QuantityDispensed)
}

func TestRecordDispenseUnknownProduct(t *testing.T) {
	rx := validatedRx()
	assert.ErrorIs(t, rx.RecordDispense("ibu-400", 1), prescription.ErrLineNotFound)
}

func TestRecordDispenseRequiresValidation(t *testing.T) {
	rx := validatedRx()
	rx.Status = prescription.StatusDraft
	assert.ErrorIs(t, rx.RecordDispense("amox-500", 1), prescription.ErrNotValidated)
}

func TestRecordDispenseRejectsNonPositiveQuantity(t *testing.T) {
	rx := validatedRx()
	assert.ErrorIs(t, rx.RecordDispense("amox-500", 0), prescription.ErrInvalidQuantity)
	assert.ErrorIs(t, rx.RecordDispense("amox-500", -2), prescription.ErrInvalidQuantity)
}

func TestValidateCancelled(t *testing.T) {
	rx := validatedRx()
	rx.Status = prescription.StatusCancelled
	assert.Error(t, rx.Validate())
}
