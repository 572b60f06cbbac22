package interaction

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/iliyamo/hotel-pms-console/internal/grid"
	"github.com/iliyamo/hotel-pms-console/internal/model"
	"github.com/iliyamo/hotel-pms-console/internal/notice"
	"github.com/iliyamo/hotel-pms-console/internal/pmsapi"
)

// BookingUpdater sends PUT /pms/bookings/:id.
type BookingUpdater interface {
	UpdateBooking(ctx context.Context, id string, up model.BookingUpdate) (model.Booking, error)
}

// Inventory answers the questions a gesture asks about the grid.
type Inventory interface {
	Room(id string) (model.Room, bool)
	Blocks() []model.RoomBlock
}

// Auditor records a completed change.  Enqueue must not block on delivery.
type Auditor interface {
	Enqueue(ctx context.Context, entry model.AuditLog)
}

// Kind tells the commit hook which gesture finished.
type Kind string

const (
	KindMove   Kind = "room_move"
	KindResize Kind = "resize"
)

// Deps wires a controller to the rest of the session.
type Deps struct {
	Updater   BookingUpdater
	Inventory Inventory
	Auditor   Auditor
	// AfterCommit runs after a successful update, before the controller
	// returns to Idle.  The session uses it to move its window and reload.
	AfterCommit func(ctx context.Context, n notice.Notifier, kind Kind, updated model.Booking)
	Pricing     PricingMode
	Operator    string
	Logger      *zap.Logger
}

// Preview is where the booking would land if the gesture were committed.
type Preview struct {
	BookingID   string           `json:"booking_id"`
	RoomID      string           `json:"room_id"`
	CheckIn     model.Date       `json:"check_in"`
	CheckOut    model.Date       `json:"check_out"`
	Nights      int              `json:"nights"`
	TotalAmount *decimal.Decimal `json:"total_amount,omitempty"`
}

// Snapshot is the externally visible controller state.
type Snapshot struct {
	State   State          `json:"state"`
	Booking *model.Booking `json:"booking,omitempty"`
	Preview *Preview       `json:"preview,omitempty"`
	Edge    Edge           `json:"edge,omitempty"`
}

// DropOutcome says what a drop did.
type DropOutcome string

const (
	DropNoop    DropOutcome = "noop"
	DropBlocked DropOutcome = "blocked"
	DropPend    DropOutcome = "pending"
)

// Controller is the per-session gesture state machine.
type Controller struct {
	deps Deps
	log  *zap.Logger

	mu      sync.Mutex
	state   State
	booking model.Booking
	preview Preview
	edge    Edge
}

func NewController(deps Deps) *Controller {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if deps.Pricing == "" {
		deps.Pricing = PricingClient
	}
	return &Controller{deps: deps, log: log.Named("gesture")}
}

// Snapshot reports the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := Snapshot{State: c.state}
	if c.state != Idle {
		b := c.booking
		p := c.preview
		s.Booking = &b
		s.Preview = &p
		s.Edge = c.edge
	}
	return s
}

// State returns the bare state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func previewOf(b model.Booking) Preview {
	return Preview{BookingID: b.ID, RoomID: b.RoomID, CheckIn: b.CheckIn, CheckOut: b.CheckOut, Nights: b.Nights()}
}

// BeginDrag picks up a booking bar.  The returned preview is the ghost: the
// booking's own room, dates and night span.
func (c *Controller) BeginDrag(b model.Booking) (Preview, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Idle {
		return Preview{}, ErrBusy
	}
	if b.ID == "" {
		return Preview{}, ErrBadRequest
	}
	c.state = Dragging
	c.booking = b
	c.preview = previewOf(b)
	c.edge = ""
	return c.preview, nil
}

// Drop releases the dragged bar over a cell.  Dropping on the origin cell
// ends the gesture without a request.  Dropping on a cell closed by a room
// block ends the gesture with an error notice.  Otherwise the move waits in
// DropPending for a reason.
func (c *Controller) Drop(roomID string, date model.Date, n notice.Notifier) (DropOutcome, Preview, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Dragging {
		return "", Preview{}, ErrNoGesture
	}
	b := c.booking
	if roomID == b.RoomID && date.Equal(b.CheckIn) {
		c.reset()
		return DropNoop, Preview{}, nil
	}
	room, ok := c.deps.Inventory.Room(roomID)
	if !ok {
		c.reset()
		notice.Validation(n, "Unknown target room")
		return DropBlocked, Preview{}, nil
	}
	if grid.CellBlocked(c.deps.Inventory.Blocks(), roomID, date) {
		c.reset()
		n.Notify(notice.New(notice.LevelError, notice.CategoryValidation,
			fmt.Sprintf("Room %s is blocked on %s", room.RoomNumber, date)))
		return DropBlocked, Preview{}, nil
	}
	nights := b.Nights()
	if nights < 1 {
		nights = 1
	}
	c.state = DropPending
	c.preview = Preview{
		BookingID: b.ID,
		RoomID:    roomID,
		CheckIn:   date,
		CheckOut:  date.AddDays(nights),
		Nights:    nights,
	}
	return DropPend, c.preview, nil
}

// Commit sends the pending move.  A missing or invalid reason leaves the
// drop pending and nothing is sent.
func (c *Controller) Commit(ctx context.Context, reason Reason, n notice.Notifier) (model.Booking, error) {
	c.mu.Lock()
	if c.state != DropPending {
		c.mu.Unlock()
		return model.Booking{}, ErrNoGesture
	}
	if err := reason.Validate(); err != nil {
		c.mu.Unlock()
		notice.Validation(n, err.Error())
		return model.Booking{}, err
	}
	orig, p := c.booking, c.preview
	c.state = Committing
	c.mu.Unlock()
	defer c.finish()

	up := model.BookingUpdate{RoomID: &p.RoomID, CheckIn: &p.CheckIn, CheckOut: &p.CheckOut}
	updated, err := c.deps.Updater.UpdateBooking(ctx, orig.ID, up)
	if err != nil {
		c.log.Warn("room move failed", zap.String("booking_id", orig.ID), zap.Error(err))
		n.Notify(notice.New(notice.LevelError, notice.CategoryMutation, pmsapi.Message(err, "Failed to move booking")))
		return model.Booking{}, err
	}
	updated = fillMissing(updated, orig, p)

	c.audit(ctx, KindMove, orig, updated, reason)
	if c.deps.AfterCommit != nil {
		c.deps.AfterCommit(ctx, n, KindMove, updated)
	}
	msg := "Booking moved"
	if room, ok := c.deps.Inventory.Room(p.RoomID); ok {
		msg = fmt.Sprintf("Booking moved to room %s", room.RoomNumber)
	}
	notice.Success(n, msg)
	return updated, nil
}

// Cancel abandons any gesture that is not already being committed.
func (c *Controller) Cancel() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Committing || c.state == Idle {
		return false
	}
	c.reset()
	return true
}

// BeginResize grabs one edge of a booking bar.
func (c *Controller) BeginResize(b model.Booking, edge Edge) (Preview, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Idle {
		return Preview{}, ErrBusy
	}
	if b.ID == "" || !edge.Valid() {
		return Preview{}, ErrBadRequest
	}
	c.state = Resizing
	c.booking = b
	c.edge = edge
	c.preview = previewOf(b)
	return c.preview, nil
}

// ResizeMove moves the grabbed edge to date: the new check-in for the start
// edge, the new check-out for the end edge.
func (c *Controller) ResizeMove(date model.Date) (Preview, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Resizing {
		return Preview{}, ErrNoGesture
	}
	if c.edge == EdgeStart {
		c.preview.CheckIn = date
	} else {
		c.preview.CheckOut = date
	}
	c.preview.Nights = grid.Nights(c.preview.CheckIn, c.preview.CheckOut)
	c.preview.TotalAmount = nil
	if amt, ok := c.price(c.preview, c.booking.RoomID); ok {
		c.preview.TotalAmount = &amt
	}
	return c.preview, nil
}

// ResizeRelease submits the resized dates.  The controller is Idle when it
// returns, whatever the outcome.  changed is false when the dates were left
// as they were.
func (c *Controller) ResizeRelease(ctx context.Context, n notice.Notifier) (updated model.Booking, changed bool, err error) {
	c.mu.Lock()
	if c.state != Resizing {
		c.mu.Unlock()
		return model.Booking{}, false, ErrNoGesture
	}
	orig, p, edge := c.booking, c.preview, c.edge
	if p.CheckIn.Equal(orig.CheckIn) && p.CheckOut.Equal(orig.CheckOut) {
		c.reset()
		c.mu.Unlock()
		return orig, false, nil
	}
	if grid.Nights(p.CheckIn, p.CheckOut) < 1 {
		c.reset()
		c.mu.Unlock()
		verr := model.ValidationError("a booking must last at least one night")
		notice.Validation(n, verr.Error())
		return orig, false, verr
	}
	c.state = Committing
	c.mu.Unlock()
	defer c.finish()

	up := model.BookingUpdate{}
	if edge == EdgeStart {
		up.CheckIn = &p.CheckIn
	} else {
		up.CheckOut = &p.CheckOut
	}
	if amt, ok := c.price(p, orig.RoomID); ok {
		up.TotalAmount = &amt
	}

	updated, err = c.deps.Updater.UpdateBooking(ctx, orig.ID, up)
	if err != nil {
		c.log.Warn("resize failed", zap.String("booking_id", orig.ID), zap.Error(err))
		n.Notify(notice.New(notice.LevelError, notice.CategoryMutation, pmsapi.Message(err, "Failed to update booking dates")))
		return orig, false, err
	}
	updated = fillMissing(updated, orig, p)

	c.audit(ctx, KindResize, orig, updated, Reason{})
	if c.deps.AfterCommit != nil {
		c.deps.AfterCommit(ctx, n, KindResize, updated)
	}
	notice.Success(n, fmt.Sprintf("Booking updated to %d night(s)", grid.Nights(updated.CheckIn, updated.CheckOut)))
	return updated, true, nil
}

// price computes nights * base_price in client pricing mode.
func (c *Controller) price(p Preview, roomID string) (decimal.Decimal, bool) {
	if c.deps.Pricing != PricingClient || p.Nights < 1 {
		return decimal.Decimal{}, false
	}
	room, ok := c.deps.Inventory.Room(roomID)
	if !ok {
		return decimal.Decimal{}, false
	}
	return room.BasePrice.Mul(decimal.NewFromInt(int64(p.Nights))).Round(2), true
}

func (c *Controller) audit(ctx context.Context, kind Kind, orig, updated model.Booking, reason Reason) {
	if c.deps.Auditor == nil {
		return
	}
	c.deps.Auditor.Enqueue(ctx, model.AuditLog{
		EntityType: "booking",
		EntityID:   orig.ID,
		Action:     string(kind),
		ReasonCode: reason.Code,
		Reason:     reason.Text,
		UserID:     c.deps.Operator,
		OldValues: map[string]any{
			"room_id":   orig.RoomID,
			"check_in":  orig.CheckIn.String(),
			"check_out": orig.CheckOut.String(),
		},
		NewValues: map[string]any{
			"room_id":   updated.RoomID,
			"check_in":  updated.CheckIn.String(),
			"check_out": updated.CheckOut.String(),
		},
		CreatedAt: model.At(time.Now().UTC()),
	})
}

// fillMissing completes a sparse PUT response with what was requested.
func fillMissing(updated, orig model.Booking, p Preview) model.Booking {
	if updated.ID == "" {
		updated = orig
		updated.RoomID = p.RoomID
		updated.CheckIn = p.CheckIn
		updated.CheckOut = p.CheckOut
	}
	return updated
}

func (c *Controller) finish() {
	c.mu.Lock()
	c.reset()
	c.mu.Unlock()
}

// reset returns to Idle.  Callers hold c.mu.
func (c *Controller) reset() {
	c.state = Idle
	c.booking = model.Booking{}
	c.preview = Preview{}
	c.edge = ""
}
