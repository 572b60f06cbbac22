package calendar

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/hotel-pms-console/internal/model"
)

var d = model.MustParseDate

func testRooms() []model.Room {
	return []model.Room{
		{ID: "r10", RoomNumber: "10", RoomType: "Suite", BasePrice: decimal.NewFromInt(300)},
		{ID: "r9", RoomNumber: "9", RoomType: "Deluxe", BasePrice: decimal.NewFromInt(150)},
		{ID: "r101", RoomNumber: "101", RoomType: "Deluxe", BasePrice: decimal.NewFromInt(100)},
		{ID: "rx", RoomNumber: "X1"},
	}
}

func findRow(v View, roomID string) (RoomRow, bool) {
	for _, g := range v.Groups {
		for _, r := range g.Rooms {
			if r.RoomID == roomID {
				return r, true
			}
		}
	}
	return RoomRow{}, false
}

func TestRender_GroupsAndOrdering(t *testing.T) {
	v := Render(Input{RangeStart: d("2024-06-01"), Days: 7, Rooms: testRooms()})
	if len(v.Groups) != 3 {
		t.Fatalf("groups=%d", len(v.Groups))
	}
	want := []string{"Deluxe", "Other", "Suite"}
	for i, g := range v.Groups {
		if g.RoomType != want[i] {
			t.Fatalf("group %d = %s, want %s", i, g.RoomType, want[i])
		}
	}
	if v.Groups[0].Rooms[0].RoomNumber != "9" || v.Groups[0].Rooms[1].RoomNumber != "101" {
		t.Fatalf("deluxe order = %+v", v.Groups[0].Rooms)
	}
	if len(v.Dates) != 7 || !v.RangeEnd.Equal(d("2024-06-08")) {
		t.Fatalf("dates=%d end=%s", len(v.Dates), v.RangeEnd)
	}
	if v.Dates[0].Weekday != "Sat" || !v.Dates[0].IsWeekend {
		t.Fatalf("first header=%+v", v.Dates[0])
	}
}

func TestRender_ScenarioSpanAndColumn(t *testing.T) {
	b := model.Booking{ID: "b1", RoomID: "r101", GuestID: "g1", CheckIn: d("2024-06-01"), CheckOut: d("2024-06-04"),
		Status: model.StatusConfirmed, MarketSegment: "Corporate", OTAChannel: "Booking.com"}
	v := Render(Input{
		RangeStart: d("2024-06-01"), Days: 14, Rooms: testRooms(),
		Bookings: []model.Booking{b},
		Guests:   []model.Guest{{ID: "g1", Name: "Ada Lovelace"}},
	})
	row, ok := findRow(v, "r101")
	if !ok || len(row.Bars) != 1 {
		t.Fatalf("row=%+v", row)
	}
	bar := row.Bars[0]
	if bar.StartColumn != 0 || bar.Span != 3 || bar.Nights != 3 {
		t.Fatalf("bar=%+v", bar)
	}
	if bar.GuestName != "Ada Lovelace" || bar.Color != segmentPalette["corporate"] || bar.OTABadge != "BDC" {
		t.Fatalf("bar=%+v", bar)
	}
	if bar.ClippedStart || bar.ClippedEnd || bar.Conflict {
		t.Fatalf("bar flags=%+v", bar)
	}
}

func TestRender_ClippedBarsAndSkippedStatuses(t *testing.T) {
	bookings := []model.Booking{
		{ID: "early", RoomID: "r9", CheckIn: d("2024-05-28"), CheckOut: d("2024-06-03"), Status: model.StatusCheckedIn},
		{ID: "late", RoomID: "r9", CheckIn: d("2024-06-06"), CheckOut: d("2024-06-20"), Status: model.StatusConfirmed},
		{ID: "gone", RoomID: "r9", CheckIn: d("2024-06-03"), CheckOut: d("2024-06-05"), Status: model.StatusCancelled},
		{ID: "inverted", RoomID: "r10", CheckIn: d("2024-06-04"), CheckOut: d("2024-06-02"), Status: model.StatusConfirmed},
	}
	v := Render(Input{RangeStart: d("2024-06-01"), Days: 7, Rooms: testRooms(), Bookings: bookings})
	row, _ := findRow(v, "r9")
	if len(row.Bars) != 2 {
		t.Fatalf("bars=%+v", row.Bars)
	}
	early, late := row.Bars[0], row.Bars[1]
	if early.BookingID != "early" || early.StartColumn != 0 || early.Span != 2 || !early.ClippedStart {
		t.Fatalf("early=%+v", early)
	}
	if late.StartColumn != 5 || late.Span != 2 || !late.ClippedEnd {
		t.Fatalf("late=%+v", late)
	}
	inv, _ := findRow(v, "r10")
	if len(inv.Bars) != 1 || inv.Bars[0].Span != 1 || inv.Bars[0].StartColumn != 3 {
		t.Fatalf("inverted=%+v", inv.Bars)
	}
	if early.GuestName != "Guest" || early.Color != DefaultColor {
		t.Fatalf("fallbacks=%+v", early)
	}
}

func TestRender_ConflictBannerAndFlags(t *testing.T) {
	bookings := []model.Booking{
		{ID: "A", RoomID: "r101", CheckIn: d("2024-06-01"), CheckOut: d("2024-06-05"), Status: model.StatusConfirmed},
		{ID: "B", RoomID: "r101", CheckIn: d("2024-06-03"), CheckOut: d("2024-06-07"), Status: model.StatusConfirmed},
		{ID: "C", RoomID: "r9", CheckIn: d("2024-06-03"), CheckOut: d("2024-06-07"), Status: model.StatusConfirmed},
	}
	v := Render(Input{RangeStart: d("2024-06-01"), Days: 14, Rooms: testRooms(), Bookings: bookings})
	if len(v.Conflicts) != 1 || v.Banner == "" || v.Stats.Conflicts != 1 {
		t.Fatalf("conflicts=%+v banner=%q", v.Conflicts, v.Banner)
	}
	c := v.Conflicts[0]
	if !c.OverlapStart.Equal(d("2024-06-03")) || !c.OverlapEnd.Equal(d("2024-06-05")) {
		t.Fatalf("overlap=%s..%s", c.OverlapStart, c.OverlapEnd)
	}
	row, _ := findRow(v, "r101")
	for _, b := range row.Bars {
		if !b.Conflict {
			t.Fatalf("bar %s not flagged", b.BookingID)
		}
	}
	other, _ := findRow(v, "r9")
	if other.Bars[0].Conflict {
		t.Fatal("unrelated bar flagged")
	}
}

func TestRender_StatsAndOccupancy(t *testing.T) {
	today := d("2024-06-02")
	bookings := []model.Booking{
		{ID: "in1", RoomID: "r9", CheckIn: d("2024-06-01"), CheckOut: d("2024-06-04"), Status: model.StatusCheckedIn},
		{ID: "arr", RoomID: "r101", CheckIn: today, CheckOut: d("2024-06-05"), Status: model.StatusConfirmed},
		{ID: "dep", RoomID: "r10", CheckIn: d("2024-05-30"), CheckOut: today, Status: model.StatusCheckedOut},
		{ID: "cxl", RoomID: "rx", CheckIn: today, CheckOut: d("2024-06-03"), Status: model.StatusCancelled},
	}
	v := Render(Input{RangeStart: d("2024-06-01"), Days: 3, Today: today, Rooms: testRooms(), Bookings: bookings})
	s := v.Stats
	if s.Rooms != 4 || s.Arrivals != 1 || s.Departures != 1 || s.InHouse != 1 || s.Occupancy != 25 {
		t.Fatalf("stats=%+v", s)
	}
	if !v.Dates[1].IsToday || v.Dates[1].Occupancy != 25 {
		t.Fatalf("header=%+v", v.Dates[1])
	}
}

func TestRender_Blocks(t *testing.T) {
	blocks := []model.RoomBlock{
		{ID: "bl1", RoomID: "r10", Type: model.BlockMaintenance, StartDate: d("2024-06-03"), Status: "active"},
		{ID: "bl2", RoomID: "r9", Type: model.BlockOutOfOrder, StartDate: d("2024-06-02"), EndDate: d("2024-06-04"), AllowSell: true, Status: "active"},
	}
	v := Render(Input{RangeStart: d("2024-06-01"), Days: 7, Rooms: testRooms(), Blocks: blocks})
	open, _ := findRow(v, "r10")
	if len(open.Blocks) != 1 || open.Blocks[0].StartColumn != 2 || open.Blocks[0].Span != 5 || !open.Blocks[0].OpenEnded {
		t.Fatalf("open block=%+v", open.Blocks)
	}
	sellable, _ := findRow(v, "r9")
	if sellable.Blocks[0].Span != 2 || !sellable.Blocks[0].AllowSell {
		t.Fatalf("block=%+v", sellable.Blocks)
	}
}

func TestSegmentColorAndBadge(t *testing.T) {
	if SegmentColor(" Long Stay ") != segmentPalette["long_stay"] {
		t.Fatal("long stay colour")
	}
	if SegmentColor("martian") != DefaultColor || SegmentColor("") != DefaultColor {
		t.Fatal("default colour")
	}
	cases := map[string]string{"": "", "Expedia": "EXP", "hostelworld": "HOS", "123 go": "GO"}
	for in, want := range cases {
		if got := OTABadge(in); got != want {
			t.Errorf("OTABadge(%q)=%q, want %q", in, got, want)
		}
	}
}
