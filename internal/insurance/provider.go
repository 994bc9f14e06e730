// Package insurance implements insurance provider terms and the copay
// adjudication applied to a pharmacy order before claim submission.
package insurance

import (
	"errors"
	"fmt"
)

// ProviderType distinguishes national, private and corporate schemes.
type ProviderType string

const (
	ProviderNHIF      ProviderType = "nhif"
	ProviderPrivate   ProviderType = "private"
	ProviderCorporate ProviderType = "corporate"
)

// ErrInvalidCopay is returned for copay percentages outside [0, 100].
var ErrInvalidCopay = errors.New("copay percentage must be between 0 and 100")

// Provider holds the coverage terms of one insurance scheme. Claim
// submission transport (API, portal, email) stays outside this core.
type Provider struct {
	ID               string       `json:"id"`
	Name             string       `json:"name"`
	Code             string       `json:"code"`
	Type             ProviderType `json:"type"`
	CopayPercentage  float64      `json:"copay_percentage"`
	RequiresPreauth  bool         `json:"requires_preauth"`
	PreauthThreshold float64      `json:"preauth_threshold"`
	Active           bool         `json:"active"`
}

// Validate checks the provider's terms.
func (p *Provider) Validate() error {
	if p.Code == "" {
		return fmt.Errorf("provider %s: code is required", p.Name)
	}
	if p.CopayPercentage < 0 || p.CopayPercentage > 100 {
		return ErrInvalidCopay
	}
	return nil
}

// CoveragePercentage is the insurer-borne share of cost.
func (p *Provider) CoveragePercentage() float64 { return 100 - p.CopayPercentage }

// NeedsPreauth reports whether a sale of the given total requires
// pre-authorization from this provider.
func (p *Provider) NeedsPreauth(total float64) bool {
	return p.RequiresPreauth && total >= p.PreauthThreshold
}

// Split is the adjudicated division of an order total.
type Split struct {
	Total           float64 `json:"total"`
	PatientCopay    float64 `json:"patient_copay"`
	InsuranceAmount float64 `json:"insurance_amount"`
}

// Adjudicate splits total into the patient copay and the amount claimed
// from the insurer, per the provider's terms.
func (p *Provider) Adjudicate(total float64) Split {
	copay := total * p.CopayPercentage / 100
	return Split{
		Total:           total,
		PatientCopay:    copay,
		InsuranceAmount: total - copay,
	}
}
