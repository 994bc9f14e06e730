package prescription

import (
	"strings"

	"github.com/afyapos/compliance/internal/domain/selection"
)

// Filter returns the prescriptions whose number or patient display name
// contains query, case-insensitively. An empty query returns the full set
// unchanged, order preserved. The match is recomputed over the whole
// candidate set on every call; at POS scale there is nothing to index.
func Filter(set []*Prescription, query string) []*Prescription {
	if query == "" {
		return set
	}

	q := strings.ToLower(query)
	matched := make([]*Prescription, 0, len(set))
	for _, rx := range set {
		if strings.Contains(strings.ToLower(rx.Name), q) ||
			strings.Contains(strings.ToLower(rx.Patient.DisplayName), q) {
			matched = append(matched, rx)
		}
	}
	return matched
}

// Picker drives one prescription-selection flow over a loaded candidate set.
// It mirrors the batch picker's confirm/cancel contract.
type Picker struct {
	session    *selection.Session[*Prescription]
	candidates []*Prescription
}

// NewPicker creates a picker over the given prescriptions. Nothing is
// pre-selected; linking a prescription is always an explicit act.
func NewPicker(candidates []*Prescription) *Picker {
	return &Picker{
		session:    selection.NewSession[*Prescription](nil),
		candidates: candidates,
	}
}

// Search filters the candidate set by query.
func (p *Picker) Search(query string) []*Prescription { return Filter(p.candidates, query) }

// Select makes rx the current selection.
func (p *Picker) Select(rx *Prescription) error { return p.session.Select(rx) }

// Selected returns the currently selected prescription, if any.
func (p *Picker) Selected() (*Prescription, bool) { return p.session.Selected() }

// Confirm completes the flow, failing with selection.ErrNoSelection when
// nothing is selected.
func (p *Picker) Confirm() (selection.Result[*Prescription], error) { return p.session.Confirm() }

// Cancel completes the flow without confirming.
func (p *Picker) Cancel() selection.Result[*Prescription] { return p.session.Cancel() }
