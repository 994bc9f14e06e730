package dispensing

import "time"

// DefaultAlertWindowDays is the expiring-soon threshold: alert on stock that
// expires within six months.
const DefaultAlertWindowDays = 180

// dateOnly truncates an instant to its UTC calendar date. Expiry comparisons
// are date-level so results do not flip within the boundary day depending on
// wall-clock time or zone.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysToExpiry returns whole days remaining until the lot's expiry date,
// negative once expired. Lots without an expiry date report zero.
func DaysToExpiry(lot *Lot, today time.Time) int {
	if lot == nil || lot.ExpiryDate == nil {
		return 0
	}
	return int(dateOnly(*lot.ExpiryDate).Sub(dateOnly(today)).Hours() / 24)
}

// IsExpired reports whether the lot's expiry date strictly precedes today.
// A lot without an expiry date is never expired.
func IsExpired(lot *Lot, today time.Time) bool {
	if lot == nil || lot.ExpiryDate == nil {
		return false
	}
	return dateOnly(*lot.ExpiryDate).Before(dateOnly(today))
}

// IsExpiringSoon reports whether the lot expires within windowDays of today.
// An already-expired lot is not expiring soon; the two flags are mutually
// exclusive. A lot without an expiry date never alerts.
func IsExpiringSoon(lot *Lot, today time.Time, windowDays int) bool {
	if lot == nil || lot.ExpiryDate == nil {
		return false
	}
	days := DaysToExpiry(lot, today)
	return days > 0 && days <= windowDays
}
