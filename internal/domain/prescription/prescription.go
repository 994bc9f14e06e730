// Package prescription implements the prescription records consumed during
// dispensing and their state transitions.
package prescription

import (
	"errors"
	"time"
)

// Status represents prescription lifecycle state
type Status string

const (
	StatusDraft     Status = "draft"
	StatusValidated Status = "validated"
	StatusPartial   Status = "partial"
	StatusDispensed Status = "dispensed"
	StatusCancelled Status = "cancelled"
)

var (
	// ErrNotValidated is returned when dispensing is attempted against a
	// prescription that has not been validated by a pharmacist.
	ErrNotValidated = errors.New("prescription not validated")
	// ErrOverDispense is returned when a dispense would exceed the
	// prescribed quantity for a line.
	ErrOverDispense = errors.New("cannot dispense more than prescribed quantity")
	// ErrLineNotFound is returned when a dispense references a product the
	// prescription does not cover.
	ErrLineNotFound = errors.New("product not on prescription")
	// ErrInvalidQuantity is returned for zero or negative dispense quantities.
	ErrInvalidQuantity = errors.New("dispense quantity must be positive")
)

// Patient identifies the patient a prescription was written for.
type Patient struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// Prescriber identifies the clinician who wrote the prescription.
type Prescriber struct {
	Name    string `json:"name"`
	License string `json:"license,omitempty"`
}

// Line is one prescribed medication with its running dispensed quantity.
type Line struct {
	ProductID          string  `json:"product_id"`
	ProductName        string  `json:"product_name"`
	GenericName        string  `json:"generic_name,omitempty"`
	QuantityPrescribed float64 `json:"quantity_prescribed"`
	QuantityDispensed  float64 `json:"quantity_dispensed"`
	Dosage             string  `json:"dosage,omitempty"`
	Frequency          string  `json:"frequency,omitempty"`
	Duration           string  `json:"duration,omitempty"`
}

// Remaining returns the quantity still to be dispensed for this line.
func (l *Line) Remaining() float64 { return l.QuantityPrescribed - l.QuantityDispensed }

// FullyDispensed reports whether the line has no remaining quantity.
func (l *Line) FullyDispensed() bool { return l.QuantityDispensed >= l.QuantityPrescribed }

// Prescription is a clinical prescription loaded into a checkout session.
// Its identity fields are immutable once loaded; only dispensed quantities
// and status advance.
type Prescription struct {
	ID                  string     `json:"id"`
	Name                string     `json:"name"` // prescription number, e.g. RX/2025/00042
	Date                time.Time  `json:"date"`
	Patient             Patient    `json:"patient"`
	Prescriber          Prescriber `json:"prescriber"`
	Status              Status     `json:"status"`
	Lines               []Line     `json:"lines,omitempty"`
	Diagnosis           string     `json:"diagnosis,omitempty"`
	SpecialInstructions string     `json:"special_instructions,omitempty"`
}

// Validate marks the prescription as pharmacist-validated and therefore
// eligible for dispensing.
func (p *Prescription) Validate() error {
	if p.Status == StatusCancelled {
		return errors.New("prescription is cancelled")
	}
	p.Status = StatusValidated
	return nil
}

// RecordDispense adds qty to the dispensed quantity of the line covering
// productID, advancing the prescription status to partial or dispensed.
func (p *Prescription) RecordDispense(productID string, qty float64) error {
	if p.Status != StatusValidated && p.Status != StatusPartial {
		return ErrNotValidated
	}
	if qty <= 0 {
		return ErrInvalidQuantity
	}

	line := p.lineFor(productID)
	if line == nil {
		return ErrLineNotFound
	}
	if line.QuantityDispensed+qty > line.QuantityPrescribed {
		return ErrOverDispense
	}

	line.QuantityDispensed += qty
	p.refreshStatus()
	return nil
}

func (p *Prescription) lineFor(productID string) *Line {
	for i := range p.Lines {
		if p.Lines[i].ProductID == productID {
			return &p.Lines[i]
		}
	}
	return nil
}

func (p *Prescription) refreshStatus() {
	all := true
	for i := range p.Lines {
		if !p.Lines[i].FullyDispensed() {
			all = false
			break
		}
	}
	if all {
		p.Status = StatusDispensed
	} else {
		p.Status = StatusPartial
	}
}
