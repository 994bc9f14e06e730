package insurance

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/afyapos/compliance/internal/domain/order"
)

// ClaimStatus represents claim lifecycle state. Only draft claims are
// produced here; submission and settlement are external.
type ClaimStatus string

const (
	ClaimDraft     ClaimStatus = "draft"
	ClaimSubmitted ClaimStatus = "submitted"
	ClaimApproved  ClaimStatus = "approved"
	ClaimPaid      ClaimStatus = "paid"
	ClaimRejected  ClaimStatus = "rejected"
)

// ErrNoInsurance is returned when a claim draft is requested for an order
// without an insurance assignment.
var ErrNoInsurance = errors.New("order has no insurance provider assigned")

// ClaimLine is one claimed product.
type ClaimLine struct {
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
}

// Claim is the draft reimbursement claim raised for an insured sale.
type Claim struct {
	ID           string      `json:"id"`
	ProviderID   string      `json:"provider_id"`
	MemberNumber string      `json:"member_number"`
	PatientID    string      `json:"patient_id"`
	OrderID      string      `json:"order_id"`
	Date         time.Time   `json:"date"`
	Status       ClaimStatus `json:"status"`
	Lines        []ClaimLine `json:"lines"`
	Split        Split       `json:"split"`
}

// DraftClaim builds a claim draft for a finalized insured order, one claim
// line per order line, adjudicated with the provider's terms.
func DraftClaim(o *order.Order, p *Provider, now time.Time) (*Claim, error) {
	if !o.Pharmacy.HasInsurance() {
		return nil, ErrNoInsurance
	}

	claim := &Claim{
		ID:           uuid.New().String(),
		ProviderID:   p.ID,
		MemberNumber: o.Pharmacy.InsuranceMemberNumber,
		PatientID:    o.PatientID,
		OrderID:      o.ID,
		Date:         now.UTC(),
		Status:       ClaimDraft,
		Split:        p.Adjudicate(o.Total()),
	}

	for i := range o.Lines {
		line := &o.Lines[i]
		name := ""
		productID := ""
		if line.Product != nil {
			name = line.Product.Name
			productID = line.Product.ID
		}
		claim.Lines = append(claim.Lines, ClaimLine{
			ProductID:   productID,
			ProductName: name,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
		})
	}
	return claim, nil
}
