package pmsapi

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/iliyamo/hotel-pms-console/internal/model"
)

// ListRooms reads one page of rooms.
func (c *Client) ListRooms(ctx context.Context, limit, offset int) ([]model.Room, error) {
	q := limitQuery(limit)
	q.Set("offset", strconv.Itoa(offset))
	return list[model.Room](ctx, c, "/pms/rooms", q, "rooms")
}

// BookingQuery bounds a booking read to a date window.
type BookingQuery struct {
	StartDate model.Date
	EndDate   model.Date
	Limit     int
}

// ListBookings reads the bookings that touch [StartDate, EndDate].
func (c *Client) ListBookings(ctx context.Context, bq BookingQuery) ([]model.Booking, error) {
	q := limitQuery(bq.Limit)
	if !bq.StartDate.IsZero() {
		q.Set("start_date", bq.StartDate.String())
	}
	if !bq.EndDate.IsZero() {
		q.Set("end_date", bq.EndDate.String())
	}
	return list[model.Booking](ctx, c, "/pms/bookings", q, "bookings")
}

func (c *Client) CreateBooking(ctx context.Context, in model.NewBooking) (model.Booking, error) {
	var out model.Booking
	err := c.send(ctx, http.MethodPost, "/pms/bookings", in, &out)
	return out, err
}

// UpdateBooking sends PUT /pms/bookings/:id.  Only the non-nil fields of up
// are transmitted.
func (c *Client) UpdateBooking(ctx context.Context, id string, up model.BookingUpdate) (model.Booking, error) {
	var out model.Booking
	err := c.send(ctx, http.MethodPut, "/pms/bookings/"+url.PathEscape(id), up, &out)
	return out, err
}

func (c *Client) CreateMultiRoomBooking(ctx context.Context, in model.MultiRoomBooking) ([]model.Booking, error) {
	var out []model.Booking
	err := c.send(ctx, http.MethodPost, "/pms/bookings/multi-room", in, &out)
	return out, err
}

// ListGuests reads up to limit guests.
func (c *Client) ListGuests(ctx context.Context, limit int) ([]model.Guest, error) {
	return list[model.Guest](ctx, c, "/pms/guests", limitQuery(limit), "guests")
}

// ListCompanies reads up to limit corporate accounts.
func (c *Client) ListCompanies(ctx context.Context, limit int) ([]model.Company, error) {
	return list[model.Company](ctx, c, "/companies", limitQuery(limit), "companies")
}

// BlockQuery filters room blocks by status and date window.
type BlockQuery struct {
	Status   string
	FromDate model.Date
	ToDate   model.Date
}

func (c *Client) ListRoomBlocks(ctx context.Context, bq BlockQuery) ([]model.RoomBlock, error) {
	q := url.Values{}
	if bq.Status != "" {
		q.Set("status", bq.Status)
	}
	if !bq.FromDate.IsZero() {
		q.Set("from_date", bq.FromDate.String())
	}
	if !bq.ToDate.IsZero() {
		q.Set("to_date", bq.ToDate.String())
	}
	return list[model.RoomBlock](ctx, c, "/pms/room-blocks", q, "blocks")
}

func (c *Client) CreateRoomBlock(ctx context.Context, in model.NewRoomBlock) (model.RoomBlock, error) {
	var out model.RoomBlock
	err := c.send(ctx, http.MethodPost, "/pms/room-blocks", in, &out)
	return out, err
}

// CancelRoomBlock releases a block; reason is optional.
func (c *Client) CancelRoomBlock(ctx context.Context, id, reason string) error {
	var body any
	if reason != "" {
		body = model.VoidRequest{Reason: reason}
	}
	return c.send(ctx, http.MethodPost, "/pms/room-blocks/"+url.PathEscape(id)+"/cancel", body, nil)
}

// AuditQuery selects the audit trail of one entity.
type AuditQuery struct {
	EntityType string
	EntityID   string
	Limit      int
}

// ListAuditLogs reads the audit trail.  Non-privileged operators get a 403
// which callers are expected to tolerate.
func (c *Client) ListAuditLogs(ctx context.Context, aq AuditQuery) ([]model.AuditLog, error) {
	q := limitQuery(aq.Limit)
	if aq.EntityType != "" {
		q.Set("entity_type", aq.EntityType)
	}
	if aq.EntityID != "" {
		q.Set("entity_id", aq.EntityID)
	}
	return list[model.AuditLog](ctx, c, "/audit-logs", q, "logs")
}

func (c *Client) CreateAuditLog(ctx context.Context, entry model.AuditLog) error {
	return c.send(ctx, http.MethodPost, "/audit-logs", entry, nil)
}
