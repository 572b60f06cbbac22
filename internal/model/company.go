package model

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Company is a corporate account.  Its defaults prefill new bookings made on
// its behalf; the PMS still decides the final rate.
type Company struct {
	ID                   string           `json:"id"`
	Name                 string           `json:"name"`
	ContractedRate       *decimal.Decimal `json:"contracted_rate,omitempty"`
	DefaultRateType      string           `json:"default_rate_type,omitempty"`
	DefaultMarketSegment string           `json:"default_market_segment,omitempty"`
	BillingAddress       string           `json:"billing_address,omitempty"`
	BillingEmail         string           `json:"billing_email,omitempty"`
	TaxNumber            string           `json:"tax_number,omitempty"`
	UpdatedAt            Timestamp        `json:"updated_at,omitempty"`
}

func (c Company) Fingerprint() string {
	if !c.UpdatedAt.IsZero() {
		return fmt.Sprintf("%s@%d", c.ID, c.UpdatedAt.UnixNano())
	}
	rate := ""
	if c.ContractedRate != nil {
		rate = c.ContractedRate.String()
	}
	return fmt.Sprintf("%s|%s|%s|%s|%s", c.ID, c.Name, rate, c.DefaultRateType, c.DefaultMarketSegment)
}
