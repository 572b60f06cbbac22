package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/iliyamo/hotel-pms-console/internal/calendar"
	"github.com/iliyamo/hotel-pms-console/internal/dashboard"
	"github.com/iliyamo/hotel-pms-console/internal/folio"
	"github.com/iliyamo/hotel-pms-console/internal/handler"
	"github.com/iliyamo/hotel-pms-console/internal/model"
	"github.com/iliyamo/hotel-pms-console/internal/notice"
	"github.com/iliyamo/hotel-pms-console/internal/pmsapi"
	"github.com/iliyamo/hotel-pms-console/internal/router"
	"github.com/iliyamo/hotel-pms-console/internal/utils"
)

const secret = "handler-test-secret"

// fakePMS is an in-memory PMS REST API.
type fakePMS struct {
	mu          sync.Mutex
	updates     []string
	folioStatus int
}

func (f *fakePMS) routes() http.Handler {
	mux := http.NewServeMux()
	write := func(w http.ResponseWriter, status int, body string) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
	mux.HandleFunc("GET /api/pms/rooms", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("offset") != "0" {
			write(w, http.StatusOK, `[]`)
			return
		}
		write(w, http.StatusOK, `[
			{"id":"r1","room_number":"101","room_type":"Deluxe","base_price":"120"},
			{"id":"r2","room_number":"102","room_type":"Deluxe","base_price":"120"}]`)
	})
	mux.HandleFunc("GET /api/pms/bookings", func(w http.ResponseWriter, r *http.Request) {
		write(w, http.StatusOK, `{"bookings":[{"id":"b1","guest_id":"g1","room_id":"r1","check_in":"2024-06-02","check_out":"2024-06-05","status":"confirmed","total_amount":"360"}]}`)
	})
	mux.HandleFunc("PUT /api/pms/bookings/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.updates = append(f.updates, r.PathValue("id"))
		f.mu.Unlock()
		write(w, http.StatusOK, `{}`)
	})
	mux.HandleFunc("GET /api/pms/guests", func(w http.ResponseWriter, r *http.Request) {
		write(w, http.StatusOK, `[{"id":"g1","name":"Ada Lovelace"}]`)
	})
	mux.HandleFunc("GET /api/companies", func(w http.ResponseWriter, r *http.Request) {
		write(w, http.StatusOK, `[]`)
	})
	mux.HandleFunc("GET /api/pms/room-blocks", func(w http.ResponseWriter, r *http.Request) {
		write(w, http.StatusOK, `[]`)
	})
	mux.HandleFunc("GET /api/folio/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		status := f.folioStatus
		f.mu.Unlock()
		if status != 0 {
			write(w, status, `{"message":"folio service down"}`)
			return
		}
		write(w, http.StatusOK, `{"id":"`+r.PathValue("id")+`","status":"open","balance":"0"}`)
	})
	return mux
}

func (f *fakePMS) updateCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.updates)
}

type recordingAuditor struct {
	mu      sync.Mutex
	entries []model.AuditLog
}

func (a *recordingAuditor) Enqueue(_ context.Context, e model.AuditLog) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, e)
}

func (a *recordingAuditor) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.entries)
}

type testEnv struct {
	e       *echo.Echo
	pms     *fakePMS
	auditor *recordingAuditor
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	pms := &fakePMS{}
	srv := httptest.NewServer(pms.routes())
	t.Cleanup(srv.Close)
	client, err := pmsapi.New(pmsapi.Options{BaseURL: srv.URL + "/api", Timeout: 2 * time.Second, MutationTimeout: 2 * time.Second})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	auditor := &recordingAuditor{}
	log := zap.NewNop()
	sessions := calendar.NewRegistry(ctx, client, auditor, calendar.Options{PollInterval: time.Hour}, time.Hour, log)

	e := echo.New()
	router.Register(e, router.Deps{
		JWTSecret: secret,
		Calendar:  handler.NewCalendarHandler(sessions, log),
		Dashboard: handler.NewDashboardHandler(dashboard.NewService(client, 10, log)),
		Folio:     handler.NewFolioHandler(folio.NewService(client, log)),
		Log:       log,
	})
	return &testEnv{e: e, pms: pms, auditor: auditor}
}

type envelope struct {
	Data    json.RawMessage `json:"data"`
	Notices []notice.Notice `json:"notices"`
	Error   string          `json:"error"`
}

func (env *testEnv) do(t *testing.T, role, method, target, body string) (int, envelope) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if role != "" {
		tok, err := utils.NewAccessToken(secret, "op-1", role, "", 5)
		if err != nil {
			t.Fatal(err)
		}
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+tok.Token)
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	var out envelope
	if strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("decode %s %s: %v (%s)", method, target, err, rec.Body.String())
		}
	}
	return rec.Code, out
}

// raw is do without decoding, for responses whose headers matter.
func (env *testEnv) raw(t *testing.T, role, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	tok, err := utils.NewAccessToken(secret, "op-1", role, "", 5)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+tok.Token)
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	env := newEnv(t)
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("code=%d body=%q", rec.Code, rec.Body.String())
	}
}

func TestCalendar_AuthAndRoles(t *testing.T) {
	env := newEnv(t)
	if code, _ := env.do(t, "", http.MethodGet, "/v1/calendar", ""); code != http.StatusUnauthorized {
		t.Fatalf("anonymous: %d", code)
	}
	if code, _ := env.do(t, "housekeeping", http.MethodGet, "/v1/calendar", ""); code != http.StatusForbidden {
		t.Fatalf("housekeeping: %d", code)
	}
}

type viewData struct {
	View struct {
		Days   int `json:"days_to_show"`
		Groups []struct {
			RoomType string `json:"room_type"`
			Rooms    []struct {
				RoomID string `json:"room_id"`
				Bars   []struct {
					BookingID   string `json:"booking_id"`
					GuestName   string `json:"guest_name"`
					StartColumn int    `json:"start_column"`
					Span        int    `json:"span"`
				} `json:"bookings"`
			} `json:"rooms"`
		} `json:"groups"`
	} `json:"view"`
	Window struct {
		Start string `json:"start"`
		Days  int    `json:"days"`
	} `json:"window"`
}

func TestCalendar_ViewWithWindow(t *testing.T) {
	env := newEnv(t)
	code, body := env.do(t, "front_desk", http.MethodGet, "/v1/calendar?start=2024-06-01&days=14", "")
	if code != http.StatusOK {
		t.Fatalf("code=%d notices=%v", code, body.Notices)
	}
	var d viewData
	if err := json.Unmarshal(body.Data, &d); err != nil {
		t.Fatal(err)
	}
	if d.Window.Start != "2024-06-01" || d.View.Days != 14 {
		t.Fatalf("window=%+v days=%d", d.Window, d.View.Days)
	}
	if len(d.View.Groups) != 1 || d.View.Groups[0].RoomType != "Deluxe" || len(d.View.Groups[0].Rooms) != 2 {
		t.Fatalf("groups=%+v", d.View.Groups)
	}
	bars := d.View.Groups[0].Rooms[0].Bars
	if len(bars) != 1 || bars[0].StartColumn != 1 || bars[0].Span != 3 || bars[0].GuestName != "Ada Lovelace" {
		t.Fatalf("bars=%+v", bars)
	}
}

func TestCalendar_ExportIsCompleteWorkbook(t *testing.T) {
	env := newEnv(t)
	if code, body := env.do(t, "front_desk", http.MethodGet, "/v1/calendar?start=2024-06-01&days=14", ""); code != http.StatusOK {
		t.Fatalf("load: %d %v", code, body.Notices)
	}
	rec := env.raw(t, "front_desk", http.MethodGet, "/v1/calendar/export.xlsx")

	if rec.Code != http.StatusOK {
		t.Fatalf("code=%d body=%s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get(echo.HeaderContentType); !strings.HasPrefix(ct, "application/vnd.openxmlformats") {
		t.Fatalf("content-type=%q", ct)
	}
	if cd := rec.Header().Get(echo.HeaderContentDisposition); !strings.Contains(cd, "calendar-2024-06-01.xlsx") {
		t.Fatalf("disposition=%q", cd)
	}
	if n := rec.Header().Get(echo.HeaderContentLength); n != "" && n != strconv.Itoa(rec.Body.Len()) {
		t.Fatalf("content-length=%s body=%d", n, rec.Body.Len())
	}
	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("workbook does not open: %v", err)
	}
	defer func() { _ = f.Close() }()
	if len(f.GetSheetList()) == 0 {
		t.Fatal("no sheets")
	}
}

func TestCalendar_BadWindowQuery(t *testing.T) {
	env := newEnv(t)
	code, body := env.do(t, "front_desk", http.MethodGet, "/v1/calendar?start=June", "")
	if code != http.StatusUnprocessableEntity || len(body.Notices) == 0 || body.Notices[len(body.Notices)-1].Category != notice.CategoryValidation {
		t.Fatalf("code=%d notices=%v", code, body.Notices)
	}
}

func gestureState(t *testing.T, env *testEnv) string {
	t.Helper()
	_, body := env.do(t, "front_desk", http.MethodGet, "/v1/calendar/gesture", "")
	var snap map[string]any
	if err := json.Unmarshal(body.Data, &snap); err != nil {
		t.Fatal(err)
	}
	s, _ := snap["state"].(string)
	return s
}

func TestGesture_MoveFlow(t *testing.T) {
	env := newEnv(t)
	env.do(t, "front_desk", http.MethodGet, "/v1/calendar?start=2024-06-01", "")

	if code, body := env.do(t, "front_desk", http.MethodPost, "/v1/calendar/gesture/drag", `{"booking_id":"b1"}`); code != http.StatusOK {
		t.Fatalf("drag: %d %v", code, body.Notices)
	}
	code, body := env.do(t, "front_desk", http.MethodPost, "/v1/calendar/gesture/drop", `{"room_id":"r2","date":"2024-06-20"}`)
	if code != http.StatusOK || !strings.Contains(string(body.Data), `"outcome":"pending"`) {
		t.Fatalf("drop: %d %s", code, body.Data)
	}

	// A reason is required before anything is sent.
	code, body = env.do(t, "front_desk", http.MethodPost, "/v1/calendar/gesture/commit", `{"reason":{}}`)
	if code != http.StatusUnprocessableEntity || env.pms.updateCount() != 0 {
		t.Fatalf("commit without reason: %d updates=%d", code, env.pms.updateCount())
	}
	if got := gestureState(t, env); got != "drop_pending" {
		t.Fatalf("state=%s", got)
	}

	code, body = env.do(t, "front_desk", http.MethodPost, "/v1/calendar/gesture/commit", `{"reason":{"code":"guest_request"}}`)
	if code != http.StatusOK {
		t.Fatalf("commit: %d %v", code, body.Notices)
	}
	if env.pms.updateCount() != 1 || env.auditor.count() != 1 {
		t.Fatalf("updates=%d audits=%d", env.pms.updateCount(), env.auditor.count())
	}
	var res struct {
		Booking  model.Booking `json:"booking"`
		Calendar viewData      `json:"calendar"`
	}
	if err := json.Unmarshal(body.Data, &res); err != nil {
		t.Fatal(err)
	}
	if res.Booking.RoomID != "r2" || res.Calendar.Window.Start != "2024-06-20" {
		t.Fatalf("booking room=%s window=%s", res.Booking.RoomID, res.Calendar.Window.Start)
	}
	if got := gestureState(t, env); got != "idle" {
		t.Fatalf("state=%s", got)
	}
}

func TestGesture_CommitWithoutDropIsConflict(t *testing.T) {
	env := newEnv(t)
	code, body := env.do(t, "front_desk", http.MethodPost, "/v1/calendar/gesture/commit", `{"reason":{"code":"upgrade"}}`)
	if code != http.StatusConflict || body.Error != "conflict" || len(body.Notices) == 0 {
		t.Fatalf("code=%d body=%+v", code, body)
	}

	// The failure is also in the session feed.
	_, feed := env.do(t, "front_desk", http.MethodGet, "/v1/calendar/notices", "")
	var list []notice.Notice
	if err := json.Unmarshal(feed.Data, &list); err != nil {
		t.Fatal(err)
	}
	found := false
	for _, n := range list {
		if n.Level == notice.LevelError && strings.Contains(n.Message, "no matching gesture") {
			found = true
		}
	}
	if !found {
		t.Fatalf("feed=%v", list)
	}
}

func TestGesture_UnknownBooking(t *testing.T) {
	env := newEnv(t)
	code, _ := env.do(t, "front_desk", http.MethodPost, "/v1/calendar/gesture/drag", `{"booking_id":"nope"}`)
	if code != http.StatusNotFound {
		t.Fatalf("code=%d", code)
	}
}

func TestMalformedBody(t *testing.T) {
	env := newEnv(t)
	code, body := env.do(t, "front_desk", http.MethodPost, "/v1/calendar/window", `{"days":`)
	if code != http.StatusBadRequest || len(body.Notices) != 1 || !strings.HasPrefix(body.Notices[0].Message, "Malformed request") {
		t.Fatalf("code=%d notices=%v", code, body.Notices)
	}
}

func TestPanels_UnknownName(t *testing.T) {
	env := newEnv(t)
	code, _ := env.do(t, "manager", http.MethodPost, "/v1/calendar/panels/weather", `{"open":true}`)
	if code != http.StatusNotFound {
		t.Fatalf("code=%d", code)
	}
}

func TestDashboardPage_DegradedIsNotStored(t *testing.T) {
	env := newEnv(t)
	// The fake PMS serves no staff endpoints, so every section fails.
	rec := env.raw(t, "manager", http.MethodGet, "/v1/dashboard/staff")
	if rec.Code != http.StatusOK {
		t.Fatalf("code=%d body=%s", rec.Code, rec.Body.String())
	}
	var body struct {
		Data struct {
			Sections []struct {
				Failed bool `json:"failed"`
			} `json:"sections"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Data.Sections) == 0 || !body.Data.Sections[0].Failed {
		t.Fatalf("sections=%+v", body.Data.Sections)
	}
	if cc := rec.Header().Get(echo.HeaderCacheControl); cc != "no-store" {
		t.Fatalf("cache-control=%q", cc)
	}

	// A healthy response carries no such marking.
	if rec := env.raw(t, "front_desk", http.MethodGet, "/v1/calendar?start=2024-06-01"); rec.Header().Get(echo.HeaderCacheControl) != "" {
		t.Fatalf("healthy cache-control=%q", rec.Header().Get(echo.HeaderCacheControl))
	}
}

func TestInvoicePreview(t *testing.T) {
	env := newEnv(t)
	body := `{"lines":[{"description":"Room","quantity":"2","unit_price":"100","tax_rate":"10"}]}`
	if code, _ := env.do(t, "housekeeping", http.MethodPost, "/v1/dashboard/invoicing/invoices/preview", body); code != http.StatusForbidden {
		t.Fatalf("housekeeping allowed on invoicing: %d", code)
	}
	code, res := env.do(t, "accounting", http.MethodPost, "/v1/dashboard/invoicing/invoices/preview", body)
	if code != http.StatusOK {
		t.Fatalf("code=%d", code)
	}
	var totals dashboard.InvoiceTotals
	if err := json.Unmarshal(res.Data, &totals); err != nil {
		t.Fatal(err)
	}
	if !totals.Subtotal.Equal(decimal.NewFromInt(200)) || !totals.Tax.Equal(decimal.NewFromInt(20)) || !totals.Total.Equal(decimal.NewFromInt(220)) {
		t.Fatalf("totals=%+v", totals)
	}
}

func TestFolio_UpstreamFailure(t *testing.T) {
	env := newEnv(t)
	if code, _ := env.do(t, "accounting", http.MethodGet, "/v1/folios/f1", ""); code != http.StatusOK {
		t.Fatalf("healthy folio: %d", code)
	}

	env.pms.mu.Lock()
	env.pms.folioStatus = http.StatusInternalServerError
	env.pms.mu.Unlock()
	code, body := env.do(t, "accounting", http.MethodGet, "/v1/folios/f1", "")
	if code != http.StatusBadGateway {
		t.Fatalf("code=%d", code)
	}
	if len(body.Notices) != 1 || body.Notices[0].Message != "folio service down" || body.Notices[0].Category != notice.CategoryLoad {
		t.Fatalf("notices=%v", body.Notices)
	}
}

func TestFolio_ValidationBeforeNetwork(t *testing.T) {
	env := newEnv(t)
	code, body := env.do(t, "front_desk", http.MethodPost, "/v1/folios/f1/charges", `{"description":"","amount":"10"}`)
	if code != http.StatusUnprocessableEntity || len(body.Notices) != 1 || body.Notices[0].Message != "description is required" {
		t.Fatalf("code=%d notices=%v", code, body.Notices)
	}
}
