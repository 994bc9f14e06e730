package order

import "errors"

// Stage represents checkout progress for a single order
type Stage string

const (
	StageDraft                Stage = "draft"
	StageEvaluated            Stage = "compliance_evaluated"
	StageReadyForVerification Stage = "ready_for_verification"
	StageFinalizable          Stage = "finalizable"
)

// VerificationOutcome records how the pre-sale verification round ended.
type VerificationOutcome string

const (
	VerificationNotRun      VerificationOutcome = ""
	VerificationPassed      VerificationOutcome = "passed"
	VerificationUnavailable VerificationOutcome = "unavailable"
)

var (
	// ErrPrescriptionRequired is returned when an order with
	// prescription-only items advances without a linked prescription.
	ErrPrescriptionRequired = errors.New("order requires a linked prescription")
	// ErrNotEvaluated is returned when a step runs before compliance
	// evaluation.
	ErrNotEvaluated = errors.New("order compliance not evaluated")
	// ErrNotFinalizable is returned when Finalize is attempted before the
	// verification round.
	ErrNotFinalizable = errors.New("order not ready for finalization")
)

// Checkout gates one order through the compliance stages:
//
//	draft -> compliance_evaluated -> ready_for_verification -> finalizable
//
// Editing lines moves the checkout back to draft and drops confirmations
// that are now stale. One checkout owns one order; no other goroutine
// touches the order while a checkout is open.
type Checkout struct {
	order        *Order
	stage        Stage
	verification VerificationOutcome
}

// NewCheckout opens a checkout over an order in draft stage.
func NewCheckout(o *Order) *Checkout {
	return &Checkout{order: o, stage: StageDraft}
}

// Order returns the order under checkout.
func (c *Checkout) Order() *Order { return c.order }

// Stage returns the current checkout stage.
func (c *Checkout) Stage() Stage { return c.stage }

// Verification returns the recorded verification outcome.
func (c *Checkout) Verification() VerificationOutcome { return c.verification }

// Evaluate recomputes the order's compliance flags from its current lines
// and advances to compliance_evaluated. The derived has_prescription_items
// flag is cached on the extension for the order snapshot.
func (c *Checkout) Evaluate() {
	c.order.Pharmacy.HasPrescriptionItems = HasPrescriptionItems(c.order)
	if !c.order.Pharmacy.HasPrescriptionItems {
		// A prescription linked for items that were since removed is stale.
		c.order.Pharmacy.PrescriptionID = nil
	}
	c.stage = StageEvaluated
	c.verification = VerificationNotRun
}

// LinesChanged must be called whenever the host POS adds or removes lines.
// It rewinds the checkout to draft so downstream confirmations are redone
// against the new contents.
func (c *Checkout) LinesChanged() {
	c.stage = StageDraft
	c.verification = VerificationNotRun
	c.Evaluate()
	c.stage = StageDraft
}

// LinkPrescription records the confirmed prescription selection.
func (c *Checkout) LinkPrescription(prescriptionID string) error {
	if c.stage == StageDraft {
		return ErrNotEvaluated
	}
	c.order.Pharmacy.PrescriptionID = &prescriptionID
	return nil
}

// AssignInsurance records the insurance provider and member number chosen
// for this sale.
func (c *Checkout) AssignInsurance(providerID, memberNumber string) {
	c.order.Pharmacy.InsuranceProviderID = &providerID
	c.order.Pharmacy.InsuranceMemberNumber = memberNumber
}

// SetCopay records the patient-borne amount after adjudication.
func (c *Checkout) SetCopay(amount float64) {
	c.order.Pharmacy.PatientCopay = amount
}

// ReadyForVerification advances past compliance once every gate is met:
// evaluation has run and prescription-only items have a linked prescription.
func (c *Checkout) ReadyForVerification() error {
	if c.stage == StageDraft {
		return ErrNotEvaluated
	}
	if c.order.Pharmacy.HasPrescriptionItems && c.order.Pharmacy.PrescriptionID == nil {
		return ErrPrescriptionRequired
	}
	c.stage = StageReadyForVerification
	return nil
}

// RecordVerification stores the verification round's outcome and advances to
// finalizable. An unavailable verification does not block the sale; the
// outcome is surfaced so the cashier can warn or override.
func (c *Checkout) RecordVerification(outcome VerificationOutcome) error {
	if c.stage != StageReadyForVerification {
		return ErrNotFinalizable
	}
	c.verification = outcome
	c.stage = StageFinalizable
	return nil
}

// Finalize confirms the order may be handed to payment. The caller then
// performs the post-sale effects (register entries, prescription dispense,
// claim draft).
func (c *Checkout) Finalize() error {
	if c.stage != StageFinalizable {
		return ErrNotFinalizable
	}
	return nil
}
