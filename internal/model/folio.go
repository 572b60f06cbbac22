package model

import "github.com/shopspring/decimal"

// Folio is the running account of a booking.  Balance is computed by the
// PMS; the console only sums charges and payments for display.
type Folio struct {
	ID        string          `json:"id"`
	BookingID string          `json:"booking_id"`
	Status    string          `json:"status"`
	Charges   []Charge        `json:"charges"`
	Payments  []Payment       `json:"payments"`
	Balance   decimal.Decimal `json:"balance"`
	Currency  string          `json:"currency,omitempty"`
}

// Charge is a line posted to a folio.
type Charge struct {
	ID          string          `json:"id"`
	FolioID     string          `json:"folio_id"`
	Description string          `json:"description"`
	Category    string          `json:"category,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Quantity    int             `json:"quantity"`
	Voided      bool            `json:"voided"`
	PostedAt    Timestamp       `json:"posted_at"`
}

// Payment is money received against a folio.
type Payment struct {
	ID         string          `json:"id"`
	FolioID    string          `json:"folio_id"`
	Method     string          `json:"method"`
	Amount     decimal.Decimal `json:"amount"`
	Reference  string          `json:"reference,omitempty"`
	Voided     bool            `json:"voided"`
	ReceivedAt Timestamp       `json:"received_at"`
}

// NewCharge is the POST /folio/:id/charge body.
type NewCharge struct {
	Description string          `json:"description"`
	Category    string          `json:"category,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Quantity    int             `json:"quantity"`
}

// NewPayment is the POST /folio/:id/payment body.
type NewPayment struct {
	Method    string          `json:"method"`
	Amount    decimal.Decimal `json:"amount"`
	Reference string          `json:"reference,omitempty"`
}

// FolioTransfer moves charges between folios (POST /folio/transfer).
type FolioTransfer struct {
	FromFolioID string   `json:"from_folio_id"`
	ToFolioID   string   `json:"to_folio_id"`
	ChargeIDs   []string `json:"charge_ids"`
	Reason      string   `json:"reason,omitempty"`
}

// VoidRequest carries the reason for voiding a charge or payment.
type VoidRequest struct {
	Reason string `json:"reason"`
}
