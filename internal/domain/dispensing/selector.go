package dispensing

import (
	"errors"
	"sort"
	"time"

	"github.com/afyapos/compliance/internal/domain/selection"
)

// ErrExpiredBatch is returned when a caller attempts to select a lot whose
// expiry date has passed. Expired stock can never be confirmed for dispensing.
var ErrExpiredBatch = errors.New("batch has expired and cannot be dispensed")

// SortFEFO orders lots first-expiry-first-out: ascending by expiry date,
// lots without an expiry date last. Expiry-less stock carries no time
// pressure, so it is depleted after all dated stock. The sort is stable;
// lots with equal or absent dates keep their input order.
func SortFEFO(lots []*Lot) []*Lot {
	sorted := make([]*Lot, len(lots))
	copy(sorted, lots)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].ExpiryDate, sorted[j].ExpiryDate
		if a == nil {
			return false
		}
		if b == nil {
			return true
		}
		return dateOnly(*a).Before(dateOnly(*b))
	})
	return sorted
}

// BatchPicker drives one batch-selection flow for a product. Candidates are
// presented in FEFO order with a default selection on the earliest-expiring
// lot; selecting an expired lot is rejected without touching the prior
// selection.
type BatchPicker struct {
	session    *selection.Session[*Lot]
	candidates []*Lot
}

// NewBatchPicker sorts the candidates FEFO against today and pre-selects the
// earliest-expiring non-expired lot, if any. Expired lots remain visible in
// the candidate list but are never auto-selected.
func NewBatchPicker(candidates []*Lot, today time.Time) *BatchPicker {
	sorted := SortFEFO(candidates)

	session := selection.NewSession(func(lot *Lot) error {
		if IsExpired(lot, today) {
			return ErrExpiredBatch
		}
		return nil
	})

	p := &BatchPicker{session: session, candidates: sorted}
	for _, lot := range sorted {
		if !IsExpired(lot, today) {
			// Guard already vetted, error unreachable.
			_ = session.Select(lot)
			break
		}
	}
	return p
}

// Candidates returns the FEFO-ordered candidate lots.
func (p *BatchPicker) Candidates() []*Lot { return p.candidates }

// Select attempts to make lot the current selection. Returns ErrExpiredBatch
// for expired stock, leaving any prior selection unchanged.
func (p *BatchPicker) Select(lot *Lot) error { return p.session.Select(lot) }

// Selected returns the currently selected lot, if any.
func (p *BatchPicker) Selected() (*Lot, bool) { return p.session.Selected() }

// Confirm completes the flow with the selected lot, failing with
// selection.ErrNoSelection when nothing is selected.
func (p *BatchPicker) Confirm() (selection.Result[*Lot], error) { return p.session.Confirm() }

// Cancel completes the flow without confirming. No state is mutated.
func (p *BatchPicker) Cancel() selection.Result[*Lot] { return p.session.Cancel() }
