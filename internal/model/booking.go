package model

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Booking status values.  Transitions are decided by the PMS; the console
// only requests them.
const (
	StatusConfirmed  = "confirmed"
	StatusCheckedIn  = "checked_in"
	StatusCheckedOut = "checked_out"
	StatusCancelled  = "cancelled"
	StatusNoShow     = "no_show"
)

var bookingTransitions = map[string][]string{
	StatusConfirmed: {StatusCheckedIn, StatusCancelled, StatusNoShow},
	StatusCheckedIn: {StatusCheckedOut},
}

// CanTransition reports whether the console should offer (and send) a
// request moving a booking from one status to another.
func CanTransition(from, to string) bool {
	for _, next := range bookingTransitions[strings.ToLower(from)] {
		if next == strings.ToLower(to) {
			return true
		}
	}
	return false
}

// Booking is a stay on one room.  CheckIn/CheckOut form the half-open
// interval [CheckIn, CheckOut) of occupied nights.
type Booking struct {
	ID            string          `json:"id"`
	GuestID       string          `json:"guest_id"`
	GuestName     string          `json:"guest_name,omitempty"`
	RoomID        string          `json:"room_id"`
	CheckIn       Date            `json:"check_in"`
	CheckOut      Date            `json:"check_out"`
	Status        string          `json:"status"`
	Adults        int             `json:"adults"`
	Children      int             `json:"children"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	BaseRate      decimal.Decimal `json:"base_rate"`
	RateType      string          `json:"rate_type,omitempty"`
	MarketSegment string          `json:"market_segment,omitempty"`
	CompanyID     string          `json:"company_id,omitempty"`
	OTAChannel    string          `json:"ota_channel,omitempty"`
	UpdatedAt     Timestamp       `json:"updated_at,omitempty"`
}

// Nights is the length of the stay; degenerate bookings report 0.
func (b Booking) Nights() int {
	n := b.CheckIn.DaysUntil(b.CheckOut)
	if n < 0 {
		return 0
	}
	return n
}

// Active reports whether the booking still occupies its room.
func (b Booking) Active() bool {
	switch strings.ToLower(b.Status) {
	case StatusCancelled, StatusNoShow:
		return false
	}
	return true
}

func (b Booking) Fingerprint() string {
	if !b.UpdatedAt.IsZero() {
		return fmt.Sprintf("%s@%d", b.ID, b.UpdatedAt.UnixNano())
	}
	return fmt.Sprintf("%s|%s|%s|%s|%s|%s", b.ID, b.RoomID, b.CheckIn, b.CheckOut, b.Status, b.TotalAmount.String())
}

// BookingUpdate is the PUT /pms/bookings/:id body.  Nil fields are omitted
// so the PMS keeps its current values.
type BookingUpdate struct {
	RoomID      *string          `json:"room_id,omitempty"`
	CheckIn     *Date            `json:"check_in,omitempty"`
	CheckOut    *Date            `json:"check_out,omitempty"`
	Status      *string          `json:"status,omitempty"`
	TotalAmount *decimal.Decimal `json:"total_amount,omitempty"`
}

// NewBooking is the POST /pms/bookings body.
type NewBooking struct {
	GuestID       string           `json:"guest_id"`
	RoomID        string           `json:"room_id"`
	CheckIn       Date             `json:"check_in"`
	CheckOut      Date             `json:"check_out"`
	Adults        int              `json:"adults"`
	Children      int              `json:"children"`
	BaseRate      *decimal.Decimal `json:"base_rate,omitempty"`
	RateType      string           `json:"rate_type,omitempty"`
	MarketSegment string           `json:"market_segment,omitempty"`
	CompanyID     string           `json:"company_id,omitempty"`
	OTAChannel    string           `json:"ota_channel,omitempty"`
	Notes         string           `json:"notes,omitempty"`
}

// Validate performs the client-side required-field checks.  The returned
// message is shown to the operator verbatim.
func (n NewBooking) Validate() error {
	switch {
	case strings.TrimSpace(n.GuestID) == "":
		return ValidationError("please select a guest")
	case strings.TrimSpace(n.RoomID) == "":
		return ValidationError("please select a room")
	case n.CheckIn.IsZero() || n.CheckOut.IsZero():
		return ValidationError("check-in and check-out dates are required")
	case !n.CheckOut.After(n.CheckIn):
		return ValidationError("check-out must be after check-in")
	case n.Adults < 1:
		return ValidationError("at least one adult is required")
	case n.Children < 0:
		return ValidationError("children cannot be negative")
	}
	return nil
}

// MultiRoomBooking is the POST /pms/bookings/multi-room body: one guest, one
// stay, several rooms.
type MultiRoomBooking struct {
	GuestID       string                 `json:"guest_id"`
	CheckIn       Date                   `json:"check_in"`
	CheckOut      Date                   `json:"check_out"`
	Rooms         []MultiRoomBookingRoom `json:"rooms"`
	RateType      string                 `json:"rate_type,omitempty"`
	MarketSegment string                 `json:"market_segment,omitempty"`
	CompanyID     string                 `json:"company_id,omitempty"`
}

type MultiRoomBookingRoom struct {
	RoomID   string           `json:"room_id"`
	Adults   int              `json:"adults"`
	Children int              `json:"children"`
	BaseRate *decimal.Decimal `json:"base_rate,omitempty"`
}

func (m MultiRoomBooking) Validate() error {
	if strings.TrimSpace(m.GuestID) == "" {
		return ValidationError("please select a guest")
	}
	if m.CheckIn.IsZero() || m.CheckOut.IsZero() {
		return ValidationError("check-in and check-out dates are required")
	}
	if !m.CheckOut.After(m.CheckIn) {
		return ValidationError("check-out must be after check-in")
	}
	if len(m.Rooms) == 0 {
		return ValidationError("select at least one room")
	}
	seen := make(map[string]struct{}, len(m.Rooms))
	for _, r := range m.Rooms {
		if strings.TrimSpace(r.RoomID) == "" {
			return ValidationError("every room line needs a room")
		}
		if _, dup := seen[r.RoomID]; dup {
			return ValidationError("a room can only be selected once")
		}
		seen[r.RoomID] = struct{}{}
		if r.Adults < 1 {
			return ValidationError("every room needs at least one adult")
		}
	}
	return nil
}

// ValidationError is a client-side validation failure.  It never reaches the
// network and is surfaced to the operator as-is.
type ValidationError string

func (e ValidationError) Error() string { return string(e) }
