package order

import "encoding/json"

// Extension is the pharmacy compliance state composed into a POS order:
// prescription linkage, insurance assignment, and the derived
// prescription-items flag. The host order stores one Extension value and
// forwards serialization to it on every snapshot.
type Extension struct {
	PrescriptionID        *string `json:"prescription_id"`
	InsuranceProviderID   *string `json:"insurance_provider_id"`
	InsuranceMemberNumber string  `json:"insurance_member_number"`
	PatientCopay          float64 `json:"patient_copay"`
	HasPrescriptionItems  bool    `json:"has_prescription_items"`
}

// Export produces the flat snapshot record persisted with the host order.
func (e *Extension) Export() ([]byte, error) {
	return json.Marshal(e)
}

// ImportExtension rehydrates an Extension from a snapshot. Missing optional
// fields take their defaults: nil references, zero copay, no prescription
// items. Export followed by ImportExtension reproduces an equivalent state.
func ImportExtension(data []byte) (Extension, error) {
	var e Extension
	if err := json.Unmarshal(data, &e); err != nil {
		return Extension{}, err
	}
	return e, nil
}

// HasInsurance reports whether an insurance provider is assigned.
func (e *Extension) HasInsurance() bool { return e.InsuranceProviderID != nil }

// ClearInsurance removes the insurance assignment and resets the copay.
func (e *Extension) ClearInsurance() {
	e.InsuranceProviderID = nil
	e.InsuranceMemberNumber = ""
	e.PatientCopay = 0
}
