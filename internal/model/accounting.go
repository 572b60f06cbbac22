package model

import "github.com/shopspring/decimal"

// Invoice is an accounting invoice as listed by GET /accounting/invoices.
type Invoice struct {
	ID           string          `json:"id"`
	Number       string          `json:"invoice_number"`
	CustomerName string          `json:"customer_name"`
	CompanyID    string          `json:"company_id,omitempty"`
	IssueDate    Date            `json:"issue_date"`
	DueDate      Date            `json:"due_date"`
	Status       string          `json:"status"`
	Lines        []InvoiceLine   `json:"lines,omitempty"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	TaxTotal     decimal.Decimal `json:"tax_total"`
	Total        decimal.Decimal `json:"total"`
}

// InvoiceLine is one billed item.  TaxRate is a percentage (7 means 7%).
type InvoiceLine struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
}

// NewInvoice is the POST /accounting/invoices body.
type NewInvoice struct {
	CustomerName string        `json:"customer_name"`
	CompanyID    string        `json:"company_id,omitempty"`
	IssueDate    Date          `json:"issue_date"`
	DueDate      Date          `json:"due_date"`
	Lines        []InvoiceLine `json:"lines"`
}

// Expense is a cost entry (GET /accounting/expenses).
type Expense struct {
	ID          string          `json:"id"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	SupplierID  string          `json:"supplier_id,omitempty"`
	Date        Date            `json:"date"`
	Status      string          `json:"status,omitempty"`
}

// NewExpense is the POST /accounting/expenses body.
type NewExpense struct {
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	SupplierID  string          `json:"supplier_id,omitempty"`
	Date        Date            `json:"date"`
}

type Supplier struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Contact string `json:"contact,omitempty"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
}

type BankAccount struct {
	ID            string          `json:"id"`
	BankName      string          `json:"bank_name"`
	AccountName   string          `json:"account_name"`
	AccountNumber string          `json:"account_number"`
	Balance       decimal.Decimal `json:"balance"`
	Currency      string          `json:"currency,omitempty"`
}

type InventoryItem struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Category     string          `json:"category,omitempty"`
	Quantity     int             `json:"quantity"`
	ReorderLevel int             `json:"reorder_level"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
	UpdatedAt    Timestamp       `json:"updated_at,omitempty"`
}

// LowStock reports whether the item is at or below its reorder level.
func (i InventoryItem) LowStock() bool { return i.Quantity <= i.ReorderLevel }
