package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-pms-console/internal/interaction"
	"github.com/iliyamo/hotel-pms-console/internal/model"
	"github.com/iliyamo/hotel-pms-console/internal/repository"
)

// The browser reports pointer gestures on booking bars to these endpoints;
// the session's controller decides what each step means.

func (h *CalendarHandler) Gesture(c echo.Context) error {
	s, col := h.session(c)
	return ok(c, col, s.Controller().Snapshot())
}

type grabReq struct {
	BookingID string           `json:"booking_id"`
	Edge      interaction.Edge `json:"edge,omitempty"`
}

func (h *CalendarHandler) BeginDrag(c echo.Context) error {
	s, col := h.session(c)
	var req grabReq
	if err := bind(c, col, &req); err != nil {
		return fail(c, col, err)
	}
	b, found := s.Booking(req.BookingID)
	if !found {
		return fail(c, col, repository.ErrNotFound)
	}
	p, err := s.Controller().BeginDrag(b)
	if err != nil {
		return fail(c, col, err)
	}
	return ok(c, col, echo.Map{"preview": p, "gesture": s.Controller().Snapshot()})
}

type dropReq struct {
	RoomID string     `json:"room_id"`
	Date   model.Date `json:"date"`
}

// Drop releases a dragged bar.  A pending drop waits for Commit with a
// reason; noop and blocked drops have already ended the gesture.
func (h *CalendarHandler) Drop(c echo.Context) error {
	s, col := h.session(c)
	var req dropReq
	if err := bind(c, col, &req); err != nil {
		return fail(c, col, err)
	}
	outcome, p, err := s.Controller().Drop(req.RoomID, req.Date, col)
	if err != nil {
		return fail(c, col, err)
	}
	return ok(c, col, echo.Map{"outcome": outcome, "preview": p, "gesture": s.Controller().Snapshot()})
}

type commitReq struct {
	Reason interaction.Reason `json:"reason"`
}

// Commit sends a pending room move.  On success the window has moved to the
// new check-in and every store is reloaded.
func (h *CalendarHandler) Commit(c echo.Context) error {
	s, col := h.session(c)
	var req commitReq
	if err := bind(c, col, &req); err != nil {
		return fail(c, col, err)
	}
	b, err := s.Controller().Commit(c.Request().Context(), req.Reason, col)
	if err != nil {
		return fail(c, col, err)
	}
	return ok(c, col, echo.Map{"booking": b, "calendar": payloadOf(s)})
}

func (h *CalendarHandler) CancelGesture(c echo.Context) error {
	s, col := h.session(c)
	cancelled := s.Controller().Cancel()
	return ok(c, col, echo.Map{"cancelled": cancelled, "gesture": s.Controller().Snapshot()})
}

func (h *CalendarHandler) BeginResize(c echo.Context) error {
	s, col := h.session(c)
	var req grabReq
	if err := bind(c, col, &req); err != nil {
		return fail(c, col, err)
	}
	b, found := s.Booking(req.BookingID)
	if !found {
		return fail(c, col, repository.ErrNotFound)
	}
	p, err := s.Controller().BeginResize(b, req.Edge)
	if err != nil {
		return fail(c, col, err)
	}
	return ok(c, col, echo.Map{"preview": p, "gesture": s.Controller().Snapshot()})
}

type resizeMoveReq struct {
	Date model.Date `json:"date"`
}

func (h *CalendarHandler) ResizeMove(c echo.Context) error {
	s, col := h.session(c)
	var req resizeMoveReq
	if err := bind(c, col, &req); err != nil {
		return fail(c, col, err)
	}
	p, err := s.Controller().ResizeMove(req.Date)
	if err != nil {
		return fail(c, col, err)
	}
	return ok(c, col, echo.Map{"preview": p})
}

// ResizeRelease submits the new dates.  An unchanged release is not an
// error and sends nothing.
func (h *CalendarHandler) ResizeRelease(c echo.Context) error {
	s, col := h.session(c)
	b, changed, err := s.Controller().ResizeRelease(c.Request().Context(), col)
	if err != nil {
		return fail(c, col, err)
	}
	return ok(c, col, echo.Map{"booking": b, "changed": changed, "calendar": payloadOf(s)})
}
