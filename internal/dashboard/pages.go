package dashboard

import (
	"context"
	"net/url"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/hotel-pms-console/internal/model"
)

// API is every PMS call the dashboards make.  *pmsapi.Client satisfies it.
type API interface {
	ListHousekeepingTasks(ctx context.Context, limit int) ([]model.HousekeepingTask, error)
	ListRoomStatus(ctx context.Context, limit int) ([]model.RoomStatusEntry, error)
	UpdateHousekeepingTaskStatus(ctx context.Context, id, status string) error
	ListMedia(ctx context.Context, qaStatus string, limit int) ([]model.MediaItem, error)
	ReviewMedia(ctx context.Context, in model.QAReview) error

	ListInvoices(ctx context.Context, limit int) ([]model.Invoice, error)
	CreateInvoice(ctx context.Context, in model.NewInvoice) (model.Invoice, error)
	ListExpenses(ctx context.Context, limit int) ([]model.Expense, error)
	CreateExpense(ctx context.Context, in model.NewExpense) (model.Expense, error)
	ListSuppliers(ctx context.Context, limit int) ([]model.Supplier, error)
	ListBankAccounts(ctx context.Context, limit int) ([]model.BankAccount, error)
	ListInventory(ctx context.Context, limit int) ([]model.InventoryItem, error)
	Report(ctx context.Context, name string, q url.Values) (map[string]any, error)

	ListMessageTemplates(ctx context.Context, limit int) ([]model.MessageTemplate, error)
	SendMessage(ctx context.Context, in model.OutgoingMessage) error

	ListPOSTables(ctx context.Context, limit int) ([]model.POSTable, error)
	UpdatePOSTableStatus(ctx context.Context, id, status string) error

	ListStaff(ctx context.Context, limit int) ([]model.StaffMember, error)
	ListStaffTasks(ctx context.Context, limit int) ([]model.StaffTask, error)
	UpdateStaffTaskStatus(ctx context.Context, id, status string) error
}

const (
	PageHousekeeping = "housekeeping"
	PageInvoicing    = "invoicing"
	PageMessaging    = "messaging"
	PagePOS          = "pos"
	PageStaff        = "staff"
	PageCost         = "cost"
)

// MediaPendingQA is the QA status of photos waiting for review.
const MediaPendingQA = "pending"

func (s *Service) definePages() map[string]pageDef {
	api := s.api
	pages := []pageDef{
		{
			name: PageHousekeeping,
			sections: []sectionDef{
				{"tasks", "housekeeping tasks", "No housekeeping tasks", listing(api.ListHousekeepingTasks)},
				{"room_status", "room status", "No room status reported", listing(api.ListRoomStatus)},
				{"media", "photos awaiting QA", "No photos awaiting review", listing(func(ctx context.Context, limit int) ([]model.MediaItem, error) {
					return api.ListMedia(ctx, MediaPendingQA, limit)
				})},
			},
			mutations: []string{"task_status", "photo_review"},
		},
		{
			name: PageInvoicing,
			sections: []sectionDef{
				{"invoices", "invoices", "No invoices yet", listing(api.ListInvoices)},
				{"expenses", "expenses", "No expenses recorded", listing(api.ListExpenses)},
				{"suppliers", "suppliers", "No suppliers", listing(api.ListSuppliers)},
				{"bank_accounts", "bank accounts", "No bank accounts", listing(api.ListBankAccounts)},
				{"inventory", "inventory", "No inventory items", listing(api.ListInventory)},
				{"report", "accounting summary", "No report data", report(api, "summary")},
			},
			mutations: []string{"create_invoice", "create_expense", "preview_invoice"},
		},
		{
			name: PageMessaging,
			sections: []sectionDef{
				{"templates", "message templates", "No message templates", listing(api.ListMessageTemplates)},
			},
			mutations: []string{"send_message"},
		},
		{
			name: PagePOS,
			sections: []sectionDef{
				{"tables", "tables", "No tables configured", listing(api.ListPOSTables)},
			},
			mutations: []string{"table_status"},
		},
		{
			name: PageStaff,
			sections: []sectionDef{
				{"staff", "staff", "No staff members", listing(api.ListStaff)},
				{"tasks", "staff tasks", "No staff tasks", listing(api.ListStaffTasks)},
			},
			mutations: []string{"task_status"},
		},
		{
			name: PageCost,
			sections: []sectionDef{
				{"by_category", "costs by category", "No costs recorded", costByCategory(api)},
				{"report", "cost report", "No report data", report(api, "cost")},
			},
			mutations: []string{"create_expense"},
		},
	}
	out := make(map[string]pageDef, len(pages))
	for _, p := range pages {
		out[p.name] = p
	}
	return out
}

// report loads GET /accounting/reports/:name as a single-object section.
func report(api API, name string) func(context.Context, int) (loadResult, error) {
	return func(ctx context.Context, _ int) (loadResult, error) {
		r, err := api.Report(ctx, name, nil)
		if err != nil {
			return loadResult{}, err
		}
		if r == nil {
			r = map[string]any{}
		}
		return loadResult{items: r, count: len(r)}, nil
	}
}

// CategoryTotal is the spend in one expense category.
type CategoryTotal struct {
	Category string          `json:"category"`
	Count    int             `json:"count"`
	Total    decimal.Decimal `json:"total"`
}

// GroupByCategory sums expenses per category, largest first.  Blank
// categories are grouped as "uncategorized".
func GroupByCategory(expenses []model.Expense) ([]CategoryTotal, decimal.Decimal) {
	idx := map[string]int{}
	var out []CategoryTotal
	grand := decimal.Zero
	for _, e := range expenses {
		cat := strings.ToLower(strings.TrimSpace(e.Category))
		if cat == "" {
			cat = "uncategorized"
		}
		i, ok := idx[cat]
		if !ok {
			i = len(out)
			idx[cat] = i
			out = append(out, CategoryTotal{Category: cat})
		}
		out[i].Count++
		out[i].Total = out[i].Total.Add(e.Amount)
		grand = grand.Add(e.Amount)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if c := out[i].Total.Cmp(out[j].Total); c != 0 {
			return c > 0
		}
		return out[i].Category < out[j].Category
	})
	for i := range out {
		out[i].Total = out[i].Total.Round(2)
	}
	if out == nil {
		out = []CategoryTotal{}
	}
	return out, grand.Round(2)
}

func costByCategory(api API) func(context.Context, int) (loadResult, error) {
	return func(ctx context.Context, limit int) (loadResult, error) {
		expenses, err := api.ListExpenses(ctx, limit)
		if err != nil {
			return loadResult{}, err
		}
		groups, total := GroupByCategory(expenses)
		return loadResult{items: groups, count: len(groups), total: &total}, nil
	}
}
