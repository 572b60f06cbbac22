package handler

import (
	"bytes"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/hotel-pms-console/internal/calendar"
	"github.com/iliyamo/hotel-pms-console/internal/middleware"
	"github.com/iliyamo/hotel-pms-console/internal/model"
	"github.com/iliyamo/hotel-pms-console/internal/notice"
	"github.com/iliyamo/hotel-pms-console/internal/repository"
)

// CalendarHandler serves the reservation calendar of the calling operator.
type CalendarHandler struct {
	Sessions *calendar.Registry
	Log      *zap.Logger
}

func NewCalendarHandler(sessions *calendar.Registry, log *zap.Logger) *CalendarHandler {
	if sessions == nil {
		panic("nil session registry passed to NewCalendarHandler")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &CalendarHandler{Sessions: sessions, Log: log.Named("calendar-http")}
}

// session returns the operator's calendar and a collector feeding its
// notice feed.  A fresh session is loaded before it is used.
func (h *CalendarHandler) session(c echo.Context) (*calendar.Session, *notice.Collector) {
	s, created := h.Sessions.Get(middleware.OperatorID(c))
	s.SetToken(middleware.AccessToken(c))
	col := notice.NewCollector(s.Feed())
	if created {
		_ = s.Load(c.Request().Context(), col)
	}
	return s, col
}

type calendarPayload struct {
	View   calendar.View     `json:"view"`
	Window repository.Window `json:"window"`
	Panels []calendar.Panel  `json:"panels"`
}

func payloadOf(s *calendar.Session) calendarPayload {
	return calendarPayload{View: s.View(), Window: s.Window(), Panels: s.OpenPanels()}
}

// View returns the rendered grid.  start and days in the query move the
// window first, which reloads every store.
func (h *CalendarHandler) View(c echo.Context) error {
	s, col := h.session(c)
	start, days, err := windowQuery(c)
	if err != nil {
		return fail(c, col, err)
	}
	if !start.IsZero() || days != 0 {
		s.SetWindow(start, days)
		_ = s.Load(c.Request().Context(), col)
	}
	return ok(c, col, payloadOf(s))
}

// Load reloads every store.  Stores that fail keep their last snapshot and
// report one notice each; the response is still 200.
func (h *CalendarHandler) Load(c echo.Context) error {
	s, col := h.session(c)
	if err := s.Load(c.Request().Context(), col); err != nil {
		h.Log.Debug("partial load", zap.String("operator", s.Operator()), zap.Error(err))
	}
	return ok(c, col, payloadOf(s))
}

type windowReq struct {
	Start model.Date `json:"start"`
	Days  int        `json:"days"`
}

func (h *CalendarHandler) SetWindow(c echo.Context) error {
	s, col := h.session(c)
	var req windowReq
	if err := bind(c, col, &req); err != nil {
		return fail(c, col, err)
	}
	if req.Days < 0 {
		return fail(c, col, model.ValidationError("days must be positive"))
	}
	s.SetWindow(req.Start, req.Days)
	_ = s.Load(c.Request().Context(), col)
	return ok(c, col, payloadOf(s))
}

type shiftReq struct {
	Pages int `json:"pages"`
}

// Shift pages the window backwards (negative) or forwards.
func (h *CalendarHandler) Shift(c echo.Context) error {
	s, col := h.session(c)
	var req shiftReq
	if err := bind(c, col, &req); err != nil {
		return fail(c, col, err)
	}
	if req.Pages == 0 {
		return ok(c, col, payloadOf(s))
	}
	s.Shift(req.Pages)
	_ = s.Load(c.Request().Context(), col)
	return ok(c, col, payloadOf(s))
}

// Today moves the window back to start today.
func (h *CalendarHandler) Today(c echo.Context) error {
	s, col := h.session(c)
	s.SetWindow(model.Today(), 0)
	_ = s.Load(c.Request().Context(), col)
	return ok(c, col, payloadOf(s))
}

// Export renders the current grid as an xlsx workbook.  The workbook is
// built in memory so a failure still gets a JSON error instead of a
// truncated download.
func (h *CalendarHandler) Export(c echo.Context) error {
	s, col := h.session(c)
	v := s.View()
	var buf bytes.Buffer
	if err := calendar.WriteExcel(&buf, v); err != nil {
		h.Log.Warn("calendar export failed", zap.Error(err))
		col.Notify(notice.New(notice.LevelError, notice.CategoryLoad, "Could not build the calendar export"))
		return c.JSON(http.StatusInternalServerError, Envelope{Notices: col.Notices(), Error: "export_failed"})
	}
	name := "calendar-" + v.RangeStart.String() + ".xlsx"
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+name+`"`)
	return c.Blob(http.StatusOK, xlsxMIME, buf.Bytes())
}

const xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type cellReq struct {
	RoomID    string     `json:"room_id"`
	Date      model.Date `json:"date"`
	CompanyID string     `json:"company_id"`
}

func (h *CalendarHandler) ClickCell(c echo.Context) error {
	s, col := h.session(c)
	var req cellReq
	if err := bind(c, col, &req); err != nil {
		return fail(c, col, err)
	}
	if req.RoomID == "" || req.Date.IsZero() {
		return fail(c, col, model.ValidationError("room_id and date are required"))
	}
	res, err := s.ClickCell(c.Request().Context(), req.RoomID, req.Date, req.CompanyID, col)
	if err != nil {
		return fail(c, col, err)
	}
	return ok(c, col, res)
}

func (h *CalendarHandler) BookingDetail(c echo.Context) error {
	s, col := h.session(c)
	d, err := s.BookingDetail(c.Request().Context(), c.Param("id"), col)
	if err != nil {
		return fail(c, col, err)
	}
	return ok(c, col, d)
}

func (h *CalendarHandler) CreateBooking(c echo.Context) error {
	s, col := h.session(c)
	var in model.NewBooking
	if err := bind(c, col, &in); err != nil {
		return fail(c, col, err)
	}
	b, err := s.CreateBooking(c.Request().Context(), in, col)
	if err != nil {
		return fail(c, col, err)
	}
	return ok(c, col, echo.Map{"booking": b, "calendar": payloadOf(s)})
}

func (h *CalendarHandler) CreateMultiRoomBooking(c echo.Context) error {
	s, col := h.session(c)
	var in model.MultiRoomBooking
	if err := bind(c, col, &in); err != nil {
		return fail(c, col, err)
	}
	bs, err := s.CreateMultiRoomBooking(c.Request().Context(), in, col)
	if err != nil {
		return fail(c, col, err)
	}
	return ok(c, col, echo.Map{"bookings": bs, "calendar": payloadOf(s)})
}

type statusReq struct {
	Status string `json:"status"`
}

// ChangeStatus requests a booking status transition such as check-in.
func (h *CalendarHandler) ChangeStatus(c echo.Context) error {
	s, col := h.session(c)
	var req statusReq
	if err := bind(c, col, &req); err != nil {
		return fail(c, col, err)
	}
	b, err := s.ChangeStatus(c.Request().Context(), c.Param("id"), req.Status, col)
	if err != nil {
		return fail(c, col, err)
	}
	return ok(c, col, echo.Map{"booking": b, "calendar": payloadOf(s)})
}

func (h *CalendarHandler) CreateBlock(c echo.Context) error {
	s, col := h.session(c)
	var in model.NewRoomBlock
	if err := bind(c, col, &in); err != nil {
		return fail(c, col, err)
	}
	bl, err := s.CreateBlock(c.Request().Context(), in, col)
	if err != nil {
		return fail(c, col, err)
	}
	return ok(c, col, echo.Map{"block": bl, "calendar": payloadOf(s)})
}

type reasonReq struct {
	Reason string `json:"reason"`
}

func (h *CalendarHandler) CancelBlock(c echo.Context) error {
	s, col := h.session(c)
	var req reasonReq
	if err := bind(c, col, &req); err != nil {
		return fail(c, col, err)
	}
	if err := s.CancelBlock(c.Request().Context(), c.Param("id"), req.Reason, col); err != nil {
		return fail(c, col, err)
	}
	return ok(c, col, echo.Map{"calendar": payloadOf(s)})
}

type panelReq struct {
	Open bool `json:"open"`
}

// TogglePanel opens or closes an analytics overlay.  Panel data is best
// effort, so this only fails for unknown panel names.
func (h *CalendarHandler) TogglePanel(c echo.Context) error {
	s, col := h.session(c)
	var req panelReq
	if err := bind(c, col, &req); err != nil {
		return fail(c, col, err)
	}
	p, err := s.TogglePanel(c.Request().Context(), c.Param("name"), req.Open)
	if err != nil {
		return fail(c, col, err)
	}
	return ok(c, col, echo.Map{"panel": p, "open": s.OpenPanels()})
}

func (h *CalendarHandler) Panels(c echo.Context) error {
	s, col := h.session(c)
	return ok(c, col, s.OpenPanels())
}

// Notices returns the session feed, optionally only the entries after the
// RFC 3339 timestamp in ?since.
func (h *CalendarHandler) Notices(c echo.Context) error {
	s, col := h.session(c)
	var since time.Time
	if raw := c.QueryParam("since"); raw != "" {
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return fail(c, col, model.ValidationError("since must be an RFC 3339 timestamp"))
		}
		since = t
	}
	return c.JSON(http.StatusOK, Envelope{Data: s.Feed().Since(since), Notices: col.Notices()})
}

// Close drops the operator's session; the next request starts a new one.
func (h *CalendarHandler) Close(c echo.Context) error {
	h.Sessions.Drop(middleware.OperatorID(c))
	return c.NoContent(http.StatusNoContent)
}

func windowQuery(c echo.Context) (model.Date, int, error) {
	var start model.Date
	if raw := c.QueryParam("start"); raw != "" {
		d, err := model.ParseDate(raw)
		if err != nil {
			return model.Date{}, 0, model.ValidationError("start must be a YYYY-MM-DD date")
		}
		start = d
	}
	days := 0
	if raw := c.QueryParam("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return model.Date{}, 0, model.ValidationError("days must be a positive number")
		}
		days = n
	}
	return start, days, nil
}
