package selection_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afyapos/compliance/internal/domain/selection"
)

func TestConfirmWithoutSelection(t *testing.T) {
	s := selection.NewSession[string](nil)

	_, err := s.Confirm()
	require.ErrorIs(t, err, selection.ErrNoSelection)
}

func TestConfirmReturnsSelection(t *testing.T) {
	s := selection.NewSession[string](nil)
	require.NoError(t, s.Select("lot-001"))

	res, err := s.Confirm()
	require.NoError(t, err)
	assert.True(t, res.Confirmed)
	assert.Equal(t, "lot-001", res.Payload)
}

func TestGuardRejectionKeepsPriorSelection(t *testing.T) {
	rejected := errors.New("rejected")
	s := selection.NewSession(func(v string) error {
		if v == "bad" {
			return rejected
		}
		return nil
	})

	require.NoError(t, s.Select("good"))
	require.ErrorIs(t, s.Select("bad"), rejected)

	got, ok := s.Selected()
	require.True(t, ok)
	assert.Equal(t, "good", got)
}

func TestGuardRejectionOnEmptySession(t *testing.T) {
	rejected := errors.New("rejected")
	s := selection.NewSession(func(string) error { return rejected })

	require.Error(t, s.Select("anything"))

	_, ok := s.Selected()
	assert.False(t, ok)

	_, err := s.Confirm()
	assert.ErrorIs(t, err, selection.ErrNoSelection)
}

func TestCancelIsNotConfirmedAndDoesNotMutate(t *testing.T) {
	s := selection.NewSession[string](nil)
	require.NoError(t, s.Select("lot-001"))

	res := s.Cancel()
	assert.False(t, res.Confirmed)

	// Cancel must not clear the selection; the flow can still be confirmed.
	confirmed, err := s.Confirm()
	require.NoError(t, err)
	assert.Equal(t, "lot-001", confirmed.Payload)
}
