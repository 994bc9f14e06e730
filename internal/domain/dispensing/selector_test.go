package dispensing_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afyapos/compliance/internal/domain/dispensing"
	"github.com/afyapos/compliance/internal/domain/selection"
)

func TestSortFEFO(t *testing.T) {
	undated := &dispensing.Lot{ID: "undated"}
	expired := &dispensing.Lot{ID: "expired", ExpiryDate: date(2024, 1, 1)}
	future := &dispensing.Lot{ID: "future", ExpiryDate: date(2099, 1, 1)}

	sorted := dispensing.SortFEFO([]*dispensing.Lot{undated, expired, future})

	// Dated lots ascend by expiry, undated ones go last.
	require.Len(t, sorted, 3)
	assert.Equal(t, "expired", sorted[0].ID)
	assert.Equal(t, "future", sorted[1].ID)
	assert.Equal(t, "undated", sorted[2].ID)
}

func TestSortFEFOIsStable(t *testing.T) {
	a := &dispensing.Lot{ID: "a", ExpiryDate: date(2025, 6, 1)}
	b := &dispensing.Lot{ID: "b", ExpiryDate: date(2025, 6, 1)}
	u1 := &dispensing.Lot{ID: "u1"}
	u2 := &dispensing.Lot{ID: "u2"}

	sorted := dispensing.SortFEFO([]*dispensing.Lot{u1, a, u2, b})

	assert.Equal(t, "a", sorted[0].ID)
	assert.Equal(t, "b", sorted[1].ID)
	assert.Equal(t, "u1", sorted[2].ID)
	assert.Equal(t, "u2", sorted[3].ID)
}

func TestSortFEFODoesNotMutateInput(t *testing.T) {
	input := []*dispensing.Lot{
		{ID: "later", ExpiryDate: date(2099, 1, 1)},
		{ID: "sooner", ExpiryDate: date(2025, 1, 1)},
	}

	_ = dispensing.SortFEFO(input)
	assert.Equal(t, "later", input[0].ID)
}

func TestBatchPickerDefaultsToEarliestDispensableLot(t *testing.T) {
	today := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	expired := &dispensing.Lot{ID: "expired", ExpiryDate: date(2024, 1, 1)}
	future := &dispensing.Lot{ID: "future", ExpiryDate: date(2099, 1, 1)}
	undated := &dispensing.Lot{ID: "undated"}

	picker := dispensing.NewBatchPicker([]*dispensing.Lot{undated, expired, future}, today)

	// Expired stock heads the FEFO list but is never the default selection.
	candidates := picker.Candidates()
	require.Len(t, candidates, 3)
	assert.Equal(t, "expired", candidates[0].ID)

	selected, ok := picker.Selected()
	require.True(t, ok)
	assert.Equal(t, "future", selected.ID)
}

func TestBatchPickerEmptyCandidates(t *testing.T) {
	picker := dispensing.NewBatchPicker(nil, time.Now())

	_, ok := picker.Selected()
	assert.False(t, ok)

	_, err := picker.Confirm()
	assert.ErrorIs(t, err, selection.ErrNoSelection)
}

func TestBatchPickerRejectsExpiredLot(t *testing.T) {
	today := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	expired := &dispensing.Lot{ID: "expired", ExpiryDate: date(2024, 1, 1)}
	future := &dispensing.Lot{ID: "future", ExpiryDate: date(2099, 1, 1)}

	picker := dispensing.NewBatchPicker([]*dispensing.Lot{expired, future}, today)

	err := picker.Select(expired)
	require.ErrorIs(t, err, dispensing.ErrExpiredBatch)

	// Prior selection untouched by the rejection.
	selected, ok := picker.Selected()
	require.True(t, ok)
	assert.Equal(t, "future", selected.ID)

	res, err := picker.Confirm()
	require.NoError(t, err)
	assert.True(t, res.Confirmed)
	assert.Equal(t, "future", res.Payload.ID)
}

func TestBatchPickerAllExpired(t *testing.T) {
	today := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	picker := dispensing.NewBatchPicker([]*dispensing.Lot{
		{ID: "a", ExpiryDate: date(2023, 1, 1)},
		{ID: "b", ExpiryDate: date(2024, 1, 1)},
	}, today)

	_, ok := picker.Selected()
	assert.False(t, ok)

	_, err := picker.Confirm()
	assert.ErrorIs(t, err, selection.ErrNoSelection)
}

func TestBatchPickerCancel(t *testing.T) {
	today := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	picker := dispensing.NewBatchPicker([]*dispensing.Lot{
		{ID: "a", ExpiryDate: date(2026, 1, 1)},
	}, today)

	res := picker.Cancel()
	assert.False(t, res.Confirmed)
	assert.Nil(t, res.Payload)
}

func TestBatchPickerUndatedLotIsSelectable(t *testing.T) {
	picker := dispensing.NewBatchPicker([]*dispensing.Lot{{ID: "undated"}}, time.Now())

	require.NoError(t, picker.Select(&dispensing.Lot{ID: "undated"}))

	res, err := picker.Confirm()
	require.NoError(t, err)
	assert.True(t, res.Confirmed)
}
