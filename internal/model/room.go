package model

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Room is a sellable unit as returned by GET /pms/rooms.  Status is a display
// label maintained by the PMS (available, occupied, dirty, ...); the console
// never changes it locally.
//
// Fields:
//
//	ID         – opaque identifier assigned by the PMS.
//	RoomNumber – human-facing number shown in the grid ("101").
//	RoomType   – grouping key for the calendar (Standard, Deluxe, ...).
//	BasePrice  – nightly rack rate used for display approximations only.
type Room struct {
	ID         string          `json:"id"`
	RoomNumber string          `json:"room_number"`
	RoomType   string          `json:"room_type"`
	Floor      int             `json:"floor"`
	Capacity   int             `json:"capacity"`
	BasePrice  decimal.Decimal `json:"base_price"`
	Status     string          `json:"status"`
	Amenities  []string        `json:"amenities,omitempty"`
	View       string          `json:"view,omitempty"`
	BedType    string          `json:"bed_type,omitempty"`
	UpdatedAt  Timestamp       `json:"updated_at,omitempty"`
}

// Fingerprint identifies this version of the room for change detection.
func (r Room) Fingerprint() string {
	if !r.UpdatedAt.IsZero() {
		return fmt.Sprintf("%s@%d", r.ID, r.UpdatedAt.UnixNano())
	}
	return fmt.Sprintf("%s|%s|%s|%s|%s", r.ID, r.RoomNumber, r.RoomType, r.Status, r.BasePrice.String())
}
