package pmsapi

import (
	"context"
	"net/http"
	"net/url"

	"github.com/iliyamo/hotel-pms-console/internal/model"
)

func (c *Client) ListInvoices(ctx context.Context, limit int) ([]model.Invoice, error) {
	return list[model.Invoice](ctx, c, "/accounting/invoices", limitQuery(limit), "invoices")
}

func (c *Client) CreateInvoice(ctx context.Context, in model.NewInvoice) (model.Invoice, error) {
	var out model.Invoice
	err := c.send(ctx, http.MethodPost, "/accounting/invoices", in, &out)
	return out, err
}

func (c *Client) ListExpenses(ctx context.Context, limit int) ([]model.Expense, error) {
	return list[model.Expense](ctx, c, "/accounting/expenses", limitQuery(limit), "expenses")
}

func (c *Client) CreateExpense(ctx context.Context, in model.NewExpense) (model.Expense, error) {
	var out model.Expense
	err := c.send(ctx, http.MethodPost, "/accounting/expenses", in, &out)
	return out, err
}

func (c *Client) ListSuppliers(ctx context.Context, limit int) ([]model.Supplier, error) {
	return list[model.Supplier](ctx, c, "/accounting/suppliers", limitQuery(limit), "suppliers")
}

func (c *Client) ListBankAccounts(ctx context.Context, limit int) ([]model.BankAccount, error) {
	return list[model.BankAccount](ctx, c, "/accounting/bank-accounts", limitQuery(limit), "accounts")
}

func (c *Client) ListInventory(ctx context.Context, limit int) ([]model.InventoryItem, error) {
	return list[model.InventoryItem](ctx, c, "/accounting/inventory", limitQuery(limit), "items")
}

// Report reads one of the accounting reports (summary, cost, ...).  Reports
// are passed through to the browser as-is.
func (c *Client) Report(ctx context.Context, name string, q url.Values) (map[string]any, error) {
	out := map[string]any{}
	err := c.get(ctx, "/accounting/reports/"+url.PathEscape(name), q, &out)
	return out, err
}
