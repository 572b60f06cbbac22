package dashboard

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/hotel-pms-console/internal/model"
)

var hundred = decimal.NewFromInt(100)

// TaxBucket is the taxable base and tax for one rate.  Rates are percents.
type TaxBucket struct {
	Rate decimal.Decimal `json:"rate"`
	Base decimal.Decimal `json:"base"`
	Tax  decimal.Decimal `json:"tax"`
}

// InvoiceTotals is the preview of an invoice's arithmetic.  The PMS
// computes the figures that are actually billed.
type InvoiceTotals struct {
	LineAmounts []decimal.Decimal `json:"line_amounts"`
	Buckets     []TaxBucket       `json:"tax_buckets"`
	Subtotal    decimal.Decimal   `json:"subtotal"`
	Tax         decimal.Decimal   `json:"tax"`
	Total       decimal.Decimal   `json:"total"`
}

// CalculateInvoice prices each line as quantity * unit price, buckets the
// lines by tax rate and taxes each bucket once.  Every figure is rounded
// half away from zero to two places.
func CalculateInvoice(lines []model.InvoiceLine) InvoiceTotals {
	t := InvoiceTotals{LineAmounts: make([]decimal.Decimal, 0, len(lines)), Buckets: []TaxBucket{}}
	byRate := map[string]int{}
	for _, l := range lines {
		amount := l.Quantity.Mul(l.UnitPrice).Round(2)
		t.LineAmounts = append(t.LineAmounts, amount)
		t.Subtotal = t.Subtotal.Add(amount)

		key := l.TaxRate.String()
		i, ok := byRate[key]
		if !ok {
			i = len(t.Buckets)
			byRate[key] = i
			t.Buckets = append(t.Buckets, TaxBucket{Rate: l.TaxRate})
		}
		t.Buckets[i].Base = t.Buckets[i].Base.Add(amount)
	}
	sort.SliceStable(t.Buckets, func(i, j int) bool { return t.Buckets[i].Rate.LessThan(t.Buckets[j].Rate) })
	for i := range t.Buckets {
		b := &t.Buckets[i]
		b.Tax = b.Base.Mul(b.Rate).Div(hundred).Round(2)
		t.Tax = t.Tax.Add(b.Tax)
	}
	t.Subtotal = t.Subtotal.Round(2)
	t.Total = t.Subtotal.Add(t.Tax)
	return t
}

func validateInvoice(in model.NewInvoice) error {
	switch {
	case in.CustomerName == "":
		return model.ValidationError("customer name is required")
	case in.IssueDate.IsZero():
		return model.ValidationError("issue date is required")
	case !in.DueDate.IsZero() && in.DueDate.Before(in.IssueDate):
		return model.ValidationError("due date cannot be before the issue date")
	case len(in.Lines) == 0:
		return model.ValidationError("add at least one line")
	}
	for _, l := range in.Lines {
		switch {
		case strings.TrimSpace(l.Description) == "":
			return model.ValidationError("every line needs a description")
		case !l.Quantity.IsPositive():
			return model.ValidationError("quantity must be greater than zero")
		case l.UnitPrice.IsNegative():
			return model.ValidationError("unit price cannot be negative")
		case l.TaxRate.IsNegative() || l.TaxRate.GreaterThan(hundred):
			return model.ValidationError("tax rate must be between 0 and 100")
		}
	}
	return nil
}
