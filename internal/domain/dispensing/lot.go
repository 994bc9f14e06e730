// Package dispensing implements expiry classification and FEFO batch
// selection for pharmaceutical stock.
package dispensing

import "time"

// Lot represents a trackable batch of a product sharing one expiry date.
// A nil ExpiryDate means the lot carries no expiry constraint.
type Lot struct {
	ID                string     `json:"id"`
	ProductID         string     `json:"product_id"`
	LotNumber         string     `json:"lot_number"`
	ExpiryDate        *time.Time `json:"expiry_date,omitempty"`
	ManufacturingDate *time.Time `json:"manufacturing_date,omitempty"`
	PurchasePrice     float64    `json:"purchase_price,omitempty"`
	QuantityOnHand    float64    `json:"quantity_on_hand"`
}

// View is a lot annotated with expiry flags computed against a reference
// date. Flags are derived at evaluation time and never stored.
type View struct {
	Lot          *Lot `json:"lot"`
	IsExpired    bool `json:"is_expired"`
	ExpiryAlert  bool `json:"expiry_alert"`
	DaysToExpiry int  `json:"days_to_expiry"`
}

// Evaluate computes the derived expiry flags for a lot at the given instant.
func Evaluate(lot *Lot, today time.Time, alertWindowDays int) View {
	return View{
		Lot:          lot,
		IsExpired:    IsExpired(lot, today),
		ExpiryAlert:  IsExpiringSoon(lot, today, alertWindowDays),
		DaysToExpiry: DaysToExpiry(lot, today),
	}
}
