// Package register implements the controlled drugs register: every
// finalized sale of a controlled substance produces one register entry per
// controlled line, published for asynchronous persistence.
package register

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/afyapos/compliance/internal/domain/order"
	"github.com/afyapos/compliance/internal/domain/prescription"
)

// TransactionType classifies a register movement.
type TransactionType string

const (
	TransactionDispensing TransactionType = "dispensing"
	TransactionReceipt    TransactionType = "receipt"
	TransactionDisposal   TransactionType = "disposal"
)

// Entry is one controlled drugs register record.
type Entry struct {
	ID                string          `json:"id"`
	Date              time.Time       `json:"date"`
	ProductID         string          `json:"product_id"`
	ProductName       string          `json:"product_name"`
	TransactionType   TransactionType `json:"transaction_type"`
	QuantityDispensed float64         `json:"quantity_dispensed"`
	LotID             string          `json:"lot_id,omitempty"`
	PrescriptionID    string          `json:"prescription_id,omitempty"`
	PatientName       string          `json:"patient_name"`
	PatientIDNumber   string          `json:"patient_id_number,omitempty"`
	PrescriberName    string          `json:"prescriber_name,omitempty"`
	PrescriberLicense string          `json:"prescriber_license,omitempty"`
	OrderID           string          `json:"order_id"`
	AuthorizedBy      string          `json:"authorized_by"`
	Remarks           string          `json:"remarks,omitempty"`
}

// BuildEntries produces the register entries for a finalized order, one per
// controlled line. rx may be nil for over-the-counter controlled exceptions
// recorded under pharmacist authority. Orders without controlled substances
// produce no entries.
func BuildEntries(o *order.Order, rx *prescription.Prescription, authorizedBy string, now time.Time) []Entry {
	patientName := o.PatientName
	if patientName == "" {
		patientName = "Walk-in Customer"
	}

	var entries []Entry
	for _, line := range order.ControlledLines(o) {
		e := Entry{
			ID:                uuid.New().String(),
			Date:              now.UTC(),
			ProductID:         line.Product.ID,
			ProductName:       line.Product.Name,
			TransactionType:   TransactionDispensing,
			QuantityDispensed: line.Quantity,
			LotID:             line.LotID,
			PatientName:       patientName,
			PatientIDNumber:   o.PatientID,
			OrderID:           o.ID,
			AuthorizedBy:      authorizedBy,
			Remarks:           fmt.Sprintf("POS Sale - Order %s", o.ID),
		}
		if rx != nil {
			e.PrescriptionID = rx.ID
			e.PrescriberName = rx.Prescriber.Name
			e.PrescriberLicense = rx.Prescriber.License
		}
		entries = append(entries, e)
	}
	return entries
}
