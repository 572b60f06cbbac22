// Package calendar holds the per-operator reservation calendar: the session
// that caches rooms, bookings, guests, companies and blocks for a date
// window, and the renderer that turns those caches into a grid view.
package calendar

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/hotel-pms-console/internal/conflict"
	"github.com/iliyamo/hotel-pms-console/internal/grid"
	"github.com/iliyamo/hotel-pms-console/internal/model"
)

// DefaultColor paints bars whose market segment has no palette entry.
const DefaultColor = "#64748b"

var segmentPalette = map[string]string{
	"corporate":     "#2563eb",
	"leisure":       "#16a34a",
	"group":         "#9333ea",
	"government":    "#ea580c",
	"ota":           "#0891b2",
	"direct":        "#0d9488",
	"wholesale":     "#ca8a04",
	"complimentary": "#db2777",
	"long_stay":     "#4f46e5",
}

// SegmentColor returns the bar colour for a market segment.
func SegmentColor(segment string) string {
	key := strings.ToLower(strings.TrimSpace(segment))
	key = strings.ReplaceAll(key, " ", "_")
	if c, ok := segmentPalette[key]; ok {
		return c
	}
	return DefaultColor
}

var otaBadges = map[string]string{
	"booking.com": "BDC",
	"booking_com": "BDC",
	"booking":     "BDC",
	"expedia":     "EXP",
	"airbnb":      "ABB",
	"agoda":       "AGD",
	"trip.com":    "TRP",
	"hotels.com":  "HCM",
}

// OTABadge is the short label shown on bars booked through a channel.
// Empty when the booking has no channel.
func OTABadge(channel string) string {
	key := strings.ToLower(strings.TrimSpace(channel))
	if key == "" {
		return ""
	}
	if b, ok := otaBadges[key]; ok {
		return b
	}
	letters := make([]rune, 0, 3)
	for _, r := range strings.ToUpper(key) {
		if r >= 'A' && r <= 'Z' {
			letters = append(letters, r)
			if len(letters) == 3 {
				break
			}
		}
	}
	return string(letters)
}

// Input is everything Render needs.  Panels are passed through untouched.
type Input struct {
	RangeStart model.Date
	Days       int
	Today      model.Date
	Rooms      []model.Room
	Bookings   []model.Booking
	Guests     []model.Guest
	Blocks     []model.RoomBlock
	Panels     []Panel
}

type DateHeader struct {
	Date      model.Date `json:"date"`
	Weekday   string     `json:"weekday"`
	IsToday   bool       `json:"is_today"`
	IsWeekend bool       `json:"is_weekend"`
	Occupancy int        `json:"occupancy"`
}

// Bar is one booking drawn on a room row.
type Bar struct {
	BookingID    string          `json:"booking_id"`
	GuestName    string          `json:"guest_name"`
	Status       string          `json:"status"`
	CheckIn      model.Date      `json:"check_in"`
	CheckOut     model.Date      `json:"check_out"`
	Nights       int             `json:"nights"`
	StartColumn  int             `json:"start_column"`
	Span         int             `json:"span"`
	ClippedStart bool            `json:"clipped_start"`
	ClippedEnd   bool            `json:"clipped_end"`
	Segment      string          `json:"market_segment,omitempty"`
	Color        string          `json:"color"`
	OTABadge     string          `json:"ota_badge,omitempty"`
	Conflict     bool            `json:"conflict"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
}

// BlockBar is a room block drawn on a room row.
type BlockBar struct {
	BlockID     string `json:"block_id"`
	Type        string `json:"type"`
	StartColumn int    `json:"start_column"`
	Span        int    `json:"span"`
	AllowSell   bool   `json:"allow_sell"`
	OpenEnded   bool   `json:"open_ended"`
	Reason      string `json:"reason,omitempty"`
}

type RoomRow struct {
	RoomID     string          `json:"room_id"`
	RoomNumber string          `json:"room_number"`
	Floor      int             `json:"floor"`
	Status     string          `json:"status"`
	BasePrice  decimal.Decimal `json:"base_price"`
	Bars       []Bar           `json:"bookings"`
	Blocks     []BlockBar      `json:"blocks"`
}

type RoomGroup struct {
	RoomType string    `json:"room_type"`
	Rooms    []RoomRow `json:"rooms"`
}

// Stats summarises today for the header strip.
type Stats struct {
	Rooms      int `json:"rooms"`
	Arrivals   int `json:"arrivals"`
	Departures int `json:"departures"`
	InHouse    int `json:"in_house"`
	Occupancy  int `json:"occupancy"`
	Conflicts  int `json:"conflicts"`
}

// View is the rendered grid.
type View struct {
	RangeStart model.Date          `json:"range_start"`
	RangeEnd   model.Date          `json:"range_end"`
	Days       int                 `json:"days_to_show"`
	Dates      []DateHeader        `json:"dates"`
	Groups     []RoomGroup         `json:"groups"`
	Conflicts  []conflict.Conflict `json:"conflicts"`
	Banner     string              `json:"banner,omitempty"`
	Stats      Stats               `json:"stats"`
	Panels     []Panel             `json:"panels,omitempty"`
}

const otherRoomType = "Other"

// Render lays the caches out as a rooms by dates grid.  It never fails:
// bookings with inverted dates render as a one column bar.
func Render(in Input) View {
	days := in.Days
	if days <= 0 {
		days = DefaultDays
	}
	conflicts := conflict.Detect(in.Bookings)
	flagged := conflict.Involved(conflicts)

	guestNames := make(map[string]string, len(in.Guests))
	for _, g := range in.Guests {
		guestNames[g.ID] = g.Name
	}

	v := View{
		RangeStart: in.RangeStart,
		RangeEnd:   grid.RangeEnd(in.RangeStart, days),
		Days:       days,
		Conflicts:  conflicts,
		Panels:     in.Panels,
	}
	if v.Conflicts == nil {
		v.Conflicts = []conflict.Conflict{}
	}
	if n := len(conflicts); n > 0 {
		v.Banner = fmt.Sprintf("%d booking conflict(s) detected: overlapping stays on the same room", n)
	}

	for _, d := range grid.VisibleDates(in.RangeStart, days) {
		wd := d.Weekday()
		v.Dates = append(v.Dates, DateHeader{
			Date:      d,
			Weekday:   wd.String()[:3],
			IsToday:   d.Equal(in.Today),
			IsWeekend: wd == time.Saturday || wd == time.Sunday,
			Occupancy: grid.Occupancy(in.Bookings, len(in.Rooms), d),
		})
	}

	byRoom := make(map[string][]model.Booking)
	for _, b := range in.Bookings {
		if !b.Active() || !barVisible(b, in.RangeStart, days) {
			continue
		}
		byRoom[b.RoomID] = append(byRoom[b.RoomID], b)
	}
	blocksByRoom := make(map[string][]model.RoomBlock)
	for _, bl := range in.Blocks {
		if !grid.BlockVisible(bl, in.RangeStart, days) {
			continue
		}
		blocksByRoom[bl.RoomID] = append(blocksByRoom[bl.RoomID], bl)
	}

	groups := make(map[string][]model.Room)
	for _, r := range in.Rooms {
		t := strings.TrimSpace(r.RoomType)
		if t == "" {
			t = otherRoomType
		}
		groups[t] = append(groups[t], r)
	}
	types := make([]string, 0, len(groups))
	for t := range groups {
		types = append(types, t)
	}
	sort.Strings(types)

	end := v.RangeEnd
	for _, t := range types {
		rooms := groups[t]
		sort.SliceStable(rooms, func(i, j int) bool { return lessRoomNumber(rooms[i].RoomNumber, rooms[j].RoomNumber) })
		g := RoomGroup{RoomType: t}
		for _, r := range rooms {
			row := RoomRow{
				RoomID:     r.ID,
				RoomNumber: r.RoomNumber,
				Floor:      r.Floor,
				Status:     r.Status,
				BasePrice:  r.BasePrice,
				Bars:       []Bar{},
				Blocks:     []BlockBar{},
			}
			bookings := byRoom[r.ID]
			sort.SliceStable(bookings, func(i, j int) bool { return bookings[i].CheckIn.Before(bookings[j].CheckIn) })
			for _, b := range bookings {
				row.Bars = append(row.Bars, barFor(b, in.RangeStart, days, end, guestNames, flagged[b.ID]))
			}
			for _, bl := range blocksByRoom[r.ID] {
				row.Blocks = append(row.Blocks, BlockBar{
					BlockID:     bl.ID,
					Type:        bl.Type,
					StartColumn: grid.BlockStartColumn(bl, in.RangeStart),
					Span:        grid.CalculateBlockSpan(bl, in.RangeStart, days),
					AllowSell:   bl.AllowSell,
					OpenEnded:   bl.OpenEnded(),
					Reason:      bl.Reason,
				})
			}
			g.Rooms = append(g.Rooms, row)
		}
		v.Groups = append(v.Groups, g)
	}
	if v.Groups == nil {
		v.Groups = []RoomGroup{}
	}

	v.Stats = statsFor(in, len(conflicts))
	return v
}

func barFor(b model.Booking, start model.Date, days int, end model.Date, guests map[string]string, conflicted bool) Bar {
	name := strings.TrimSpace(b.GuestName)
	if name == "" {
		name = guests[b.GuestID]
	}
	if name == "" {
		name = "Guest"
	}
	return Bar{
		BookingID:    b.ID,
		GuestName:    name,
		Status:       b.Status,
		CheckIn:      b.CheckIn,
		CheckOut:     b.CheckOut,
		Nights:       b.Nights(),
		StartColumn:  grid.BookingStartColumn(b, start),
		Span:         grid.CalculateBookingSpan(b, start, days),
		ClippedStart: b.CheckIn.Before(start),
		ClippedEnd:   b.CheckOut.After(end),
		Segment:      b.MarketSegment,
		Color:        SegmentColor(b.MarketSegment),
		OTABadge:     OTABadge(b.OTAChannel),
		Conflict:     conflicted,
		TotalAmount:  b.TotalAmount,
	}
}

// barVisible also keeps bookings whose check-out is not after check-in; they
// render as a single column on their check-in day.
func barVisible(b model.Booking, start model.Date, days int) bool {
	if b.CheckOut.After(b.CheckIn) {
		return grid.BookingVisible(b, start, days)
	}
	return !b.CheckIn.Before(start) && b.CheckIn.Before(grid.RangeEnd(start, days))
}

func statsFor(in Input, conflicts int) Stats {
	s := Stats{
		Rooms:     len(in.Rooms),
		Occupancy: grid.Occupancy(in.Bookings, len(in.Rooms), in.Today),
		Conflicts: conflicts,
	}
	for _, b := range in.Bookings {
		if !b.Active() {
			continue
		}
		if b.CheckIn.Equal(in.Today) {
			s.Arrivals++
		}
		if b.CheckOut.Equal(in.Today) {
			s.Departures++
		}
		if strings.EqualFold(b.Status, model.StatusCheckedIn) {
			s.InHouse++
		}
	}
	return s
}

// lessRoomNumber orders "9" before "10" and falls back to string order for
// numbers like "A12".
func lessRoomNumber(a, b string) bool {
	ai, aerr := strconv.Atoi(a)
	bi, berr := strconv.Atoi(b)
	if aerr == nil && berr == nil {
		return ai < bi
	}
	return a < b
}
