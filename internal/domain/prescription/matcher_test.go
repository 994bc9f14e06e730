package prescription_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afyapos/compliance/internal/domain/prescription"
	"github.com/afyapos/compliance/internal/domain/selection"
)

func fixtureSet() []*prescription.Prescription {
	return []*prescription.Prescription{
		{ID: "1", Name: "RX/2025/00001", Patient: prescription.Patient{ID: "p1", DisplayName: "Janet Doe"}},
		{ID: "2", Name: "RX/2025/00002", Patient: prescription.Patient{ID: "p2", DisplayName: "John Smith"}},
		{ID: "3", Name: "RX/2025/00003-JANUARY", Patient: prescription.Patient{ID: "p3", DisplayName: "Mary Wanjiku"}},
	}
}

func TestFilterEmptyQueryReturnsSetUnchanged(t *testing.T) {
	set := fixtureSet()
	got := prescription.Filter(set, "")

	require.Len(t, got, 3)
	for i := range set {
		assert.Same(t, set[i], got[i])
	}
}

func TestFilterMatchesPatientName(t *testing.T) {
	// "jan" hits Janet Doe's prescription through the patient field and the
	// JANUARY prescription through its number.
	got := prescription.Filter(fixtureSet(), "jan")

	require.Len(t, got, 2)
	assert.Equal(t, "1", got[0].ID)
	assert.Equal(t, "3", got[1].ID)
}

func TestFilterIsCaseInsensitive(t *testing.T) {
	got := prescription.Filter(fixtureSet(), "SMITH")
	require.Len(t, got, 1)
	assert.Equal(t, "2", got[0].ID)

	got = prescription.Filter(fixtureSet(), "rx/2025/00002")
	require.Len(t, got, 1)
	assert.Equal(t, "2", got[0].ID)
}

func TestFilterNoMatches(t *testing.T) {
	got := prescription.Filter(fixtureSet(), "nothing-matches-this")
	assert.Empty(t, got)
}

func TestPickerConfirmWithoutSelection(t *testing.T) {
	picker := prescription.NewPicker(fixtureSet())

	_, err := picker.Confirm()
	assert.ErrorIs(t, err, selection.ErrNoSelection)
}

func TestPickerSelectAndConfirm(t *testing.T) {
	set := fixtureSet()
	picker := prescription.NewPicker(set)

	matches := picker.Search("wanjiku")
	require.Len(t, matches, 1)
	require.NoError(t, picker.Select(matches[0]))

	res, err := picker.Confirm()
	require.NoError(t, err)
	assert.True(t, res.Confirmed)
	assert.Equal(t, "3", res.Payload.ID)
}

func TestPickerCancel(t *testing.T) {
	picker := prescription.NewPicker(fixtureSet())
	res := picker.Cancel()
	assert.False(t, res.Confirmed)
	assert.Nil(t, res.Payload)
}
