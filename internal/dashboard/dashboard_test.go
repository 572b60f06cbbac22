package dashboard

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/iliyamo/hotel-pms-console/internal/model"
	"github.com/iliyamo/hotel-pms-console/internal/notice"
	"github.com/iliyamo/hotel-pms-console/internal/pmsapi"
)

type fakeAPI struct {
	mu       sync.Mutex
	limits   map[string]int
	failing  map[string]error
	expenses []model.Expense
	tables   []model.POSTable
	writes   int
	writeErr error
}

func newFake() *fakeAPI {
	return &fakeAPI{limits: map[string]int{}, failing: map[string]error{}}
}

func (f *fakeAPI) seen(name string, limit int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.limits[name] = limit
	return f.failing[name]
}

func (f *fakeAPI) write() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes++
	return f.writeErr
}

func (f *fakeAPI) ListHousekeepingTasks(ctx context.Context, limit int) ([]model.HousekeepingTask, error) {
	return []model.HousekeepingTask{{ID: "t1", Status: "dirty"}}, f.seen("hk_tasks", limit)
}
func (f *fakeAPI) ListRoomStatus(ctx context.Context, limit int) ([]model.RoomStatusEntry, error) {
	return nil, f.seen("room_status", limit)
}
func (f *fakeAPI) UpdateHousekeepingTaskStatus(ctx context.Context, id, status string) error {
	return f.write()
}
func (f *fakeAPI) ListMedia(ctx context.Context, qaStatus string, limit int) ([]model.MediaItem, error) {
	if qaStatus != MediaPendingQA {
		return nil, errors.New("unexpected qa filter " + qaStatus)
	}
	return []model.MediaItem{{ID: "m1"}}, f.seen("media", limit)
}
func (f *fakeAPI) ReviewMedia(ctx context.Context, in model.QAReview) error { return f.write() }
func (f *fakeAPI) ListInvoices(ctx context.Context, limit int) ([]model.Invoice, error) {
	return nil, f.seen("invoices", limit)
}
func (f *fakeAPI) CreateInvoice(ctx context.Context, in model.NewInvoice) (model.Invoice, error) {
	return model.Invoice{}, f.write()
}
func (f *fakeAPI) ListExpenses(ctx context.Context, limit int) ([]model.Expense, error) {
	if err := f.seen("expenses", limit); err != nil {
		return nil, err
	}
	return f.expenses, nil
}
func (f *fakeAPI) CreateExpense(ctx context.Context, in model.NewExpense) (model.Expense, error) {
	return model.Expense{}, f.write()
}
func (f *fakeAPI) ListSuppliers(ctx context.Context, limit int) ([]model.Supplier, error) {
	return nil, f.seen("suppliers", limit)
}
func (f *fakeAPI) ListBankAccounts(ctx context.Context, limit int) ([]model.BankAccount, error) {
	return nil, f.seen("bank_accounts", limit)
}
func (f *fakeAPI) ListInventory(ctx context.Context, limit int) ([]model.InventoryItem, error) {
	return nil, f.seen("inventory", limit)
}
func (f *fakeAPI) Report(ctx context.Context, name string, q url.Values) (map[string]any, error) {
	return map[string]any{"revenue": 1200}, f.seen("report_"+name, 0)
}
func (f *fakeAPI) ListMessageTemplates(ctx context.Context, limit int) ([]model.MessageTemplate, error) {
	return nil, f.seen("templates", limit)
}
func (f *fakeAPI) SendMessage(ctx context.Context, in model.OutgoingMessage) error { return f.write() }
func (f *fakeAPI) ListPOSTables(ctx context.Context, limit int) ([]model.POSTable, error) {
	if err := f.seen("tables", limit); err != nil {
		return nil, err
	}
	return f.tables, nil
}
func (f *fakeAPI) UpdatePOSTableStatus(ctx context.Context, id, status string) error {
	if err := f.write(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.tables {
		if f.tables[i].ID == id {
			f.tables[i].Status = status
		}
	}
	return nil
}
func (f *fakeAPI) ListStaff(ctx context.Context, limit int) ([]model.StaffMember, error) {
	return nil, f.seen("staff", limit)
}
func (f *fakeAPI) ListStaffTasks(ctx context.Context, limit int) ([]model.StaffTask, error) {
	return nil, f.seen("staff_tasks", limit)
}
func (f *fakeAPI) UpdateStaffTaskStatus(ctx context.Context, id, status string) error {
	return f.write()
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestLoad_SectionFailureIsIsolated(t *testing.T) {
	api := newFake()
	api.failing["suppliers"] = &pmsapi.APIError{Status: 500, Message: "supplier service down"}
	api.failing["bank_accounts"] = &pmsapi.APIError{Status: 403}
	svc := NewService(api, 25, zap.NewNop())

	col := notice.NewCollector(nil)
	p, err := svc.Load(context.Background(), PageInvoicing, col)
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Sections) != 6 {
		t.Fatalf("sections=%d", len(p.Sections))
	}
	byName := map[string]Section{}
	for _, s := range p.Sections {
		byName[s.Name] = s
	}
	if !byName["suppliers"].Failed || byName["suppliers"].EmptyMessage == "" {
		t.Fatalf("suppliers=%+v", byName["suppliers"])
	}
	if byName["invoices"].Failed || byName["invoices"].EmptyMessage != "No invoices yet" {
		t.Fatalf("invoices=%+v", byName["invoices"])
	}
	if byName["report"].Count != 1 {
		t.Fatalf("report=%+v", byName["report"])
	}
	ns := col.Notices()
	if len(ns) != 2 {
		t.Fatalf("notices=%+v", ns)
	}
	cats := map[string]string{}
	for _, n := range ns {
		cats[n.Category] = n.Message
	}
	if cats[notice.CategoryLoad] != "supplier service down" || cats[notice.CategoryPermission] == "" {
		t.Fatalf("notices=%+v", ns)
	}
	if api.limits["invoices"] != 25 || api.limits["inventory"] != 25 {
		t.Fatalf("limits=%v", api.limits)
	}
}

func TestLoad_UnknownPage(t *testing.T) {
	if _, err := NewService(newFake(), 0, nil).Load(context.Background(), "spa", notice.Discard); !errors.Is(err, ErrUnknownPage) {
		t.Fatalf("err=%v", err)
	}
}

func TestMutation_RefetchesAffectedSections(t *testing.T) {
	api := newFake()
	api.tables = []model.POSTable{{ID: "T1", Status: "free"}}
	svc := NewService(api, 10, nil)
	col := notice.NewCollector(nil)

	p, err := svc.SetTableStatus(context.Background(), "T1", " Occupied ", col)
	if err != nil {
		t.Fatal(err)
	}
	tables := p.Sections[0].Items.([]model.POSTable)
	if tables[0].Status != "occupied" {
		t.Fatalf("tables=%+v", tables)
	}
	if col.Count(notice.LevelSuccess) != 1 || col.Len() != 1 {
		t.Fatalf("notices=%+v", col.Notices())
	}
}

func TestMutation_FailureChangesNothing(t *testing.T) {
	api := newFake()
	api.writeErr = &pmsapi.APIError{Status: 409, Message: "Table has an open order"}
	api.tables = []model.POSTable{{ID: "T1", Status: "occupied"}}
	svc := NewService(api, 10, nil)
	col := notice.NewCollector(nil)

	if _, err := svc.SetTableStatus(context.Background(), "T1", "free", col); err == nil {
		t.Fatal("expected error")
	}
	ns := col.Notices()
	if len(ns) != 1 || ns[0].Message != "Table has an open order" {
		t.Fatalf("notices=%+v", ns)
	}
	if _, ok := api.limits["tables"]; ok {
		t.Fatal("refetched after a failed mutation")
	}
}

func TestMutation_ValidationSkipsNetwork(t *testing.T) {
	api := newFake()
	svc := NewService(api, 10, nil)
	cases := []struct {
		name string
		run  func(notice.Notifier) error
	}{
		{"reject without note", func(n notice.Notifier) error {
			_, err := svc.ReviewPhoto(context.Background(), model.QAReview{MediaID: "m1", Decision: "reject"}, n)
			return err
		}},
		{"unknown decision", func(n notice.Notifier) error {
			_, err := svc.ReviewPhoto(context.Background(), model.QAReview{MediaID: "m1", Decision: "maybe"}, n)
			return err
		}},
		{"message without body", func(n notice.Notifier) error {
			_, err := svc.SendMessage(context.Background(), model.OutgoingMessage{Channel: "email", Recipient: "a@b.c"}, n)
			return err
		}},
		{"expense without amount", func(n notice.Notifier) error {
			_, err := svc.CreateExpense(context.Background(), PageCost, model.NewExpense{Category: "F&B", Description: "x", Date: model.Today()}, n)
			return err
		}},
		{"invoice line without quantity", func(n notice.Notifier) error {
			_, err := svc.CreateInvoice(context.Background(), model.NewInvoice{
				CustomerName: "Acme", IssueDate: model.Today(),
				Lines: []model.InvoiceLine{{Description: "Room", UnitPrice: dec("100")}},
			}, n)
			return err
		}},
		{"blank status", func(n notice.Notifier) error {
			_, err := svc.SetStaffTaskStatus(context.Background(), "t1", " ", n)
			return err
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			col := notice.NewCollector(nil)
			var verr model.ValidationError
			if err := tc.run(col); !errors.As(err, &verr) {
				t.Fatalf("err=%v", err)
			}
			if col.Len() != 1 || api.writes != 0 {
				t.Fatalf("notices=%d writes=%d", col.Len(), api.writes)
			}
		})
	}
}

func TestCreateExpense_CostPageRefetchesGroups(t *testing.T) {
	api := newFake()
	api.expenses = []model.Expense{
		{Category: "Utilities", Amount: dec("120.50")},
		{Category: "utilities ", Amount: dec("79.50")},
		{Category: "Laundry", Amount: dec("300")},
		{Amount: dec("5.555")},
	}
	svc := NewService(api, 10, nil)
	p, err := svc.CreateExpense(context.Background(), PageCost, model.NewExpense{Category: "Laundry", Description: "Linen", Amount: dec("10"), Date: model.Today()}, notice.Discard)
	if err != nil {
		t.Fatal(err)
	}
	if p.Name != PageCost || len(p.Sections) != 2 || p.Sections[0].Name != "by_category" {
		t.Fatalf("page=%+v", p)
	}
	groups := p.Sections[0].Items.([]CategoryTotal)
	if len(groups) != 3 || groups[0].Category != "laundry" || groups[1].Category != "utilities" || groups[1].Count != 2 {
		t.Fatalf("groups=%+v", groups)
	}
	if !groups[1].Total.Equal(dec("200")) || !groups[2].Total.Equal(dec("5.56")) {
		t.Fatalf("totals=%+v", groups)
	}
	if total := p.Sections[0].Total; total == nil || !total.Equal(dec("505.56")) {
		t.Fatalf("grand=%v", total)
	}
}

func TestCalculateInvoice(t *testing.T) {
	lines := []model.InvoiceLine{
		{Description: "Room", Quantity: dec("3"), UnitPrice: dec("100"), TaxRate: dec("10")},
		{Description: "Breakfast", Quantity: dec("2"), UnitPrice: dec("12.345"), TaxRate: dec("5")},
		{Description: "Parking", Quantity: dec("1"), UnitPrice: dec("20"), TaxRate: dec("10")},
		{Description: "Deposit", Quantity: dec("1"), UnitPrice: dec("50"), TaxRate: dec("0")},
	}
	got := CalculateInvoice(lines)
	if !got.LineAmounts[1].Equal(dec("24.69")) {
		t.Fatalf("line=%s", got.LineAmounts[1])
	}
	if len(got.Buckets) != 3 || !got.Buckets[0].Rate.IsZero() || !got.Buckets[2].Base.Equal(dec("320")) {
		t.Fatalf("buckets=%+v", got.Buckets)
	}
	if !got.Buckets[1].Tax.Equal(dec("1.23")) || !got.Buckets[2].Tax.Equal(dec("32")) {
		t.Fatalf("taxes=%+v", got.Buckets)
	}
	if !got.Subtotal.Equal(dec("394.69")) || !got.Tax.Equal(dec("33.23")) || !got.Total.Equal(dec("427.92")) {
		t.Fatalf("totals=%s/%s/%s", got.Subtotal, got.Tax, got.Total)
	}
}

func TestCalculateInvoice_Empty(t *testing.T) {
	got := CalculateInvoice(nil)
	if !got.Total.IsZero() || got.Buckets == nil || len(got.LineAmounts) != 0 {
		t.Fatalf("got=%+v", got)
	}
}
