package dispensing_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/afyapos/compliance/internal/domain/dispensing"
)

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestIsExpired(t *testing.T) {
	today := time.Date(2025, 1, 1, 12, 30, 0, 0, time.UTC)

	testCases := []struct {
		name string
		lot  *dispensing.Lot
		want bool
	}{
		{name: "nil lot", lot: nil, want: false},
		{name: "no expiry date", lot: &dispensing.Lot{ID: "L1"}, want: false},
		{name: "expired last year", lot: &dispensing.Lot{ID: "L2", ExpiryDate: date(2024, 1, 1)}, want: true},
		{name: "expired yesterday", lot: &dispensing.Lot{ID: "L3", ExpiryDate: date(2024, 12, 31)}, want: true},
		{name: "expires today", lot: &dispensing.Lot{ID: "L4", ExpiryDate: date(2025, 1, 1)}, want: false},
		{name: "expires tomorrow", lot: &dispensing.Lot{ID: "L5", ExpiryDate: date(2025, 1, 2)}, want: false},
		{name: "far future", lot: &dispensing.Lot{ID: "L6", ExpiryDate: date(2099, 1, 1)}, want: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, dispensing.IsExpired(tc.lot, today))
		})
	}
}

func TestIsExpiredIgnoresTimeOfDay(t *testing.T) {
	// Same calendar day in different zones must classify identically.
	expiry := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	lot := &dispensing.Lot{ID: "L1", ExpiryDate: &expiry}

	lateEvening := time.Date(2025, 6, 15, 23, 59, 0, 0, time.UTC)
	assert.False(t, dispensing.IsExpired(lot, lateEvening))

	nextMorning := time.Date(2025, 6, 16, 0, 1, 0, 0, time.UTC)
	assert.True(t, dispensing.IsExpired(lot, nextMorning))
}

func TestIsExpiringSoon(t *testing.T) {
	today := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	testCases := []struct {
		name string
		lot  *dispensing.Lot
		want bool
	}{
		{name: "no expiry date", lot: &dispensing.Lot{}, want: false},
		{name: "in 10 days", lot: &dispensing.Lot{ExpiryDate: date(2025, 1, 11)}, want: true},
		{name: "at window edge", lot: &dispensing.Lot{ExpiryDate: date(2025, 6, 30)}, want: true},
		{name: "in 200 days", lot: &dispensing.Lot{ExpiryDate: date(2025, 7, 20)}, want: false},
		{name: "expires today", lot: &dispensing.Lot{ExpiryDate: date(2025, 1, 1)}, want: false},
		{name: "already expired", lot: &dispensing.Lot{ExpiryDate: date(2024, 6, 1)}, want: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, dispensing.IsExpiringSoon(tc.lot, today, dispensing.DefaultAlertWindowDays))
		})
	}
}

func TestExpiredAndExpiringSoonAreMutuallyExclusive(t *testing.T) {
	today := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	lots := []*dispensing.Lot{
		{},
		{ExpiryDate: date(2024, 1, 1)},
		{ExpiryDate: date(2024, 12, 31)},
		{ExpiryDate: date(2025, 1, 1)},
		{ExpiryDate: date(2025, 1, 2)},
		{ExpiryDate: date(2025, 6, 30)},
		{ExpiryDate: date(2099, 1, 1)},
	}

	for _, lot := range lots {
		expired := dispensing.IsExpired(lot, today)
		soon := dispensing.IsExpiringSoon(lot, today, dispensing.DefaultAlertWindowDays)
		assert.False(t, expired && soon, "lot %+v flagged both expired and expiring soon", lot)
	}
}

func TestEvaluate(t *testing.T) {
	today := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	lot := &dispensing.Lot{ID: "L1", ExpiryDate: date(2025, 1, 11)}

	view := dispensing.Evaluate(lot, today, dispensing.DefaultAlertWindowDays)
	assert.False(t, view.IsExpired)
	assert.True(t, view.ExpiryAlert)
	assert.Equal(t, 10, view.DaysToExpiry)
}
