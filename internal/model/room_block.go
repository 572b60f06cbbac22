package model

import "fmt"

// Room block types accepted by POST /pms/room-blocks.
const (
	BlockOutOfOrder   = "out_of_order"
	BlockOutOfService = "out_of_service"
	BlockMaintenance  = "maintenance"
)

// ValidBlockType reports whether t is one of the block types the PMS knows.
func ValidBlockType(t string) bool {
	switch t {
	case BlockOutOfOrder, BlockOutOfService, BlockMaintenance:
		return true
	}
	return false
}

// RoomBlock takes a room out of inventory for a date range.  EndDate is
// exclusive like a booking's check-out; a zero EndDate means the block is
// open-ended.  When AllowSell is false the calendar refuses to place new
// bookings on the blocked cells.
type RoomBlock struct {
	ID        string    `json:"id"`
	RoomID    string    `json:"room_id"`
	Type      string    `json:"type"`
	StartDate Date      `json:"start_date"`
	EndDate   Date      `json:"end_date"`
	AllowSell bool      `json:"allow_sell"`
	Status    string    `json:"status"`
	Reason    string    `json:"reason,omitempty"`
	UpdatedAt Timestamp `json:"updated_at,omitempty"`
}

// OpenEnded reports whether the block has no end date.
func (b RoomBlock) OpenEnded() bool { return b.EndDate.IsZero() }

func (b RoomBlock) Fingerprint() string {
	if !b.UpdatedAt.IsZero() {
		return fmt.Sprintf("%s@%d", b.ID, b.UpdatedAt.UnixNano())
	}
	return fmt.Sprintf("%s|%s|%s|%s|%s|%t", b.ID, b.RoomID, b.StartDate, b.EndDate, b.Status, b.AllowSell)
}

// NewRoomBlock is the POST /pms/room-blocks body.
type NewRoomBlock struct {
	RoomID    string `json:"room_id"`
	Type      string `json:"type"`
	StartDate Date   `json:"start_date"`
	EndDate   *Date  `json:"end_date,omitempty"`
	AllowSell bool   `json:"allow_sell"`
	Reason    string `json:"reason,omitempty"`
}

func (n NewRoomBlock) Validate() error {
	switch {
	case n.RoomID == "":
		return ValidationError("please select a room")
	case !ValidBlockType(n.Type):
		return ValidationError("block type must be out_of_order, out_of_service or maintenance")
	case n.StartDate.IsZero():
		return ValidationError("start date is required")
	case n.EndDate != nil && !n.EndDate.IsZero() && !n.EndDate.After(n.StartDate):
		return ValidationError("end date must be after start date")
	}
	return nil
}
