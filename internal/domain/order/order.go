// Package order implements the pharmacy compliance state carried by a POS
// order and the checkout gating around it.
package order

// Schedule is the regulatory drug schedule of a product (PPB classification).
type Schedule string

const (
	ScheduleControlled1  Schedule = "schedule_1"   // controlled, high risk
	ScheduleControlled2  Schedule = "schedule_2"   // controlled, moderate risk
	SchedulePrescription Schedule = "prescription" // prescription-only medicine
	SchedulePharmacy     Schedule = "pharmacy"     // pharmacy medicine
	ScheduleOTC          Schedule = "otc"          // over the counter
)

// RequiresPrescription reports whether products on this schedule may only be
// dispensed against a prescription.
func (s Schedule) RequiresPrescription() bool {
	return s == ScheduleControlled1 || s == ScheduleControlled2 || s == SchedulePrescription
}

// Controlled reports whether products on this schedule go into the
// controlled drugs register.
func (s Schedule) Controlled() bool {
	return s == ScheduleControlled1 || s == ScheduleControlled2
}

// Product is a read-only view of a catalog product. Records arrive from an
// externally owned catalog and may be sparse; absent flags mean false.
type Product struct {
	ID                    string   `json:"id"`
	Name                  string   `json:"name"`
	GenericName           string   `json:"generic_name,omitempty"`
	Schedule              Schedule `json:"schedule,omitempty"`
	IsPharmaceutical      bool     `json:"is_pharmaceutical,omitempty"`
	RequiresPrescription  bool     `json:"requires_prescription,omitempty"`
	IsControlledSubstance bool     `json:"is_controlled_substance,omitempty"`
}

// Line is one order line. Lines are created and deleted by the host POS;
// this core only reads them and records the selected lot.
type Line struct {
	Product   *Product `json:"product"`
	LotID     string   `json:"lot_id,omitempty"`
	Quantity  float64  `json:"quantity"`
	UnitPrice float64  `json:"unit_price"`
}

// Subtotal returns the line amount before insurance adjudication.
func (l *Line) Subtotal() float64 { return l.Quantity * l.UnitPrice }

// Order is the slice of the host POS order this core needs: identity, the
// line collection, and the pharmacy extension it owns by composition.
type Order struct {
	ID          string    `json:"id"`
	PatientID   string    `json:"patient_id,omitempty"`
	PatientName string    `json:"patient_name,omitempty"`
	Lines       []Line    `json:"lines"`
	Pharmacy    Extension `json:"pharmacy"`
}

// Total returns the order total before insurance adjudication.
func (o *Order) Total() float64 {
	var total float64
	for i := range o.Lines {
		total += o.Lines[i].Subtotal()
	}
	return total
}
