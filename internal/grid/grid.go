// Package grid holds the date arithmetic behind the reservation calendar:
// which cells a booking or block covers, how many columns a bar spans inside
// the visible window, and the per-day occupancy shown in the header.  Every
// function is pure and operates on whole calendar days.
package grid

import (
	"math"
	"strings"

	"github.com/iliyamo/hotel-pms-console/internal/model"
)

// MaxDaysToShow caps the visible window.
const MaxDaysToShow = 62

// RangeEnd returns the first day after the visible window.
func RangeEnd(rangeStart model.Date, daysToShow int) model.Date {
	return rangeStart.AddDays(daysToShow)
}

// VisibleDates lists the days of the window in order.
func VisibleDates(rangeStart model.Date, daysToShow int) []model.Date {
	if daysToShow <= 0 {
		return nil
	}
	out := make([]model.Date, daysToShow)
	for i := range out {
		out[i] = rangeStart.AddDays(i)
	}
	return out
}

// Nights counts the nights between two dates, never negative.
func Nights(checkIn, checkOut model.Date) int {
	n := checkIn.DaysUntil(checkOut)
	if n < 0 {
		return 0
	}
	return n
}

// IsBookingOnDate reports whether the booking occupies the given night:
// check_in <= date < check_out.
func IsBookingOnDate(b model.Booking, date model.Date) bool {
	return !date.Before(b.CheckIn) && date.Before(b.CheckOut)
}

// CalculateBookingSpan returns how many grid columns the booking covers once
// clipped to [rangeStart, rangeStart+daysToShow).  A booking that is visible
// at all spans at least one column; inverted or degenerate bookings also get
// one column so the bar still renders.
func CalculateBookingSpan(b model.Booking, rangeStart model.Date, daysToShow int) int {
	return clippedSpan(b.CheckIn, b.CheckOut, rangeStart, daysToShow)
}

// BookingStartColumn is the zero-based column where the booking's bar starts.
func BookingStartColumn(b model.Booking, rangeStart model.Date) int {
	return startColumn(b.CheckIn, rangeStart)
}

// BookingVisible reports whether any night of the booking falls inside the
// window.
func BookingVisible(b model.Booking, rangeStart model.Date, daysToShow int) bool {
	return Overlaps(b.CheckIn, b.CheckOut, rangeStart, RangeEnd(rangeStart, daysToShow))
}

// blockEnd resolves an open-ended block to the end of the window.
func blockEnd(block model.RoomBlock, rangeStart model.Date, daysToShow int) model.Date {
	if block.OpenEnded() {
		return model.MaxDate(RangeEnd(rangeStart, daysToShow), block.StartDate.AddDays(1))
	}
	return block.EndDate
}

// IsBlockOnDate reports whether the block covers the day.  Open-ended
// blocks cover every day from their start.
func IsBlockOnDate(block model.RoomBlock, date model.Date) bool {
	if date.Before(block.StartDate) {
		return false
	}
	return block.OpenEnded() || date.Before(block.EndDate)
}

// CalculateBlockSpan mirrors CalculateBookingSpan for room blocks.
func CalculateBlockSpan(block model.RoomBlock, rangeStart model.Date, daysToShow int) int {
	return clippedSpan(block.StartDate, blockEnd(block, rangeStart, daysToShow), rangeStart, daysToShow)
}

// BlockStartColumn is the zero-based column where the block's bar starts.
func BlockStartColumn(block model.RoomBlock, rangeStart model.Date) int {
	return startColumn(block.StartDate, rangeStart)
}

// BlockVisible reports whether the block intersects the window.
func BlockVisible(block model.RoomBlock, rangeStart model.Date, daysToShow int) bool {
	return Overlaps(block.StartDate, blockEnd(block, rangeStart, daysToShow), rangeStart, RangeEnd(rangeStart, daysToShow))
}

// Overlaps is the half-open interval test [aStart,aEnd) ∩ [bStart,bEnd) ≠ ∅.
func Overlaps(aStart, aEnd, bStart, bEnd model.Date) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// Occupancy is the share of rooms with a checked-in booking on the given
// night, as a rounded percentage in [0,100].  It is 0 when there are no
// rooms.
func Occupancy(bookings []model.Booking, roomCount int, date model.Date) int {
	if roomCount <= 0 {
		return 0
	}
	occupied := 0
	for _, b := range bookings {
		if strings.EqualFold(b.Status, model.StatusCheckedIn) && IsBookingOnDate(b, date) {
			occupied++
		}
	}
	pct := int(math.Round(float64(occupied) / float64(roomCount) * 100))
	if pct > 100 {
		return 100
	}
	if pct < 0 {
		return 0
	}
	return pct
}

// BookingAt returns the active booking occupying the room on the given night.
func BookingAt(bookings []model.Booking, roomID string, date model.Date) (model.Booking, bool) {
	for _, b := range bookings {
		if b.RoomID == roomID && b.Active() && IsBookingOnDate(b, date) {
			return b, true
		}
	}
	return model.Booking{}, false
}

// BlockAt returns the block covering the room on the given day.  Cancelled
// blocks are ignored.  When blocks overlap, one that forbids selling wins
// over sellable ones.
func BlockAt(blocks []model.RoomBlock, roomID string, date model.Date) (model.RoomBlock, bool) {
	var found model.RoomBlock
	ok := false
	for _, bl := range blocks {
		if bl.RoomID != roomID || strings.EqualFold(bl.Status, "cancelled") {
			continue
		}
		if !IsBlockOnDate(bl, date) {
			continue
		}
		if !bl.AllowSell {
			return bl, true
		}
		if !ok {
			found, ok = bl, true
		}
	}
	return found, ok
}

// CellBlocked reports whether new bookings may not be placed on the cell,
// i.e. whether any covering block forbids selling.
func CellBlocked(blocks []model.RoomBlock, roomID string, date model.Date) bool {
	bl, ok := BlockAt(blocks, roomID, date)
	return ok && !bl.AllowSell
}

func startColumn(start, rangeStart model.Date) int {
	col := rangeStart.DaysUntil(start)
	if col < 0 {
		return 0
	}
	return col
}

func clippedSpan(start, end, rangeStart model.Date, daysToShow int) int {
	if daysToShow <= 0 {
		return 1
	}
	from := model.MaxDate(start, rangeStart)
	to := model.MinDate(end, RangeEnd(rangeStart, daysToShow))
	span := from.DaysUntil(to)
	if span < 1 {
		return 1
	}
	if span > daysToShow {
		return daysToShow
	}
	return span
}
