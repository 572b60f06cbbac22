package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-pms-console/internal/dashboard"
	"github.com/iliyamo/hotel-pms-console/internal/model"
	"github.com/iliyamo/hotel-pms-console/internal/notice"
)

// DashboardHandler serves the CRUD dashboard pages.
type DashboardHandler struct {
	Pages *dashboard.Service
}

func NewDashboardHandler(pages *dashboard.Service) *DashboardHandler {
	if pages == nil {
		panic("nil dashboard service passed to NewDashboardHandler")
	}
	return &DashboardHandler{Pages: pages}
}

// List names every dashboard page.
func (h *DashboardHandler) List(c echo.Context) error {
	return ok(c, notice.NewCollector(nil), h.Pages.Pages())
}

// Page returns a handler loading one page.  Failed sections come back empty
// with one notice each; the response is still 200 but is never cached.
func (h *DashboardHandler) Page(name string) echo.HandlerFunc {
	return func(c echo.Context) error {
		col := notice.NewCollector(nil)
		p, err := h.Pages.Load(c.Request().Context(), name, col)
		if err != nil {
			return fail(c, col, err)
		}
		if p.Degraded() {
			noStore(c)
		}
		return ok(c, col, p)
	}
}

// pageResult answers a mutation with the refetched page.
func pageResult(c echo.Context, col *notice.Collector, p dashboard.Page, err error) error {
	if err != nil {
		return fail(c, col, err)
	}
	return ok(c, col, p)
}

func (h *DashboardHandler) SetHousekeepingTaskStatus(c echo.Context) error {
	col := notice.NewCollector(nil)
	var req statusReq
	if err := bind(c, col, &req); err != nil {
		return fail(c, col, err)
	}
	p, err := h.Pages.SetHousekeepingTaskStatus(c.Request().Context(), c.Param("id"), req.Status, col)
	return pageResult(c, col, p, err)
}

func (h *DashboardHandler) ReviewPhoto(c echo.Context) error {
	col := notice.NewCollector(nil)
	var in model.QAReview
	if err := bind(c, col, &in); err != nil {
		return fail(c, col, err)
	}
	if id := c.Param("id"); id != "" {
		in.MediaID = id
	}
	p, err := h.Pages.ReviewPhoto(c.Request().Context(), in, col)
	return pageResult(c, col, p, err)
}

func (h *DashboardHandler) CreateInvoice(c echo.Context) error {
	col := notice.NewCollector(nil)
	var in model.NewInvoice
	if err := bind(c, col, &in); err != nil {
		return fail(c, col, err)
	}
	p, err := h.Pages.CreateInvoice(c.Request().Context(), in, col)
	return pageResult(c, col, p, err)
}

type previewReq struct {
	Lines []model.InvoiceLine `json:"lines"`
}

// PreviewInvoice computes the display totals of a draft invoice.  Nothing
// is sent to the PMS.
func (h *DashboardHandler) PreviewInvoice(c echo.Context) error {
	col := notice.NewCollector(nil)
	var req previewReq
	if err := bind(c, col, &req); err != nil {
		return fail(c, col, err)
	}
	return ok(c, col, dashboard.CalculateInvoice(req.Lines))
}

// CreateExpense returns a handler posting an expense from the given page,
// which decides the sections refetched afterwards.
func (h *DashboardHandler) CreateExpense(page string) echo.HandlerFunc {
	return func(c echo.Context) error {
		col := notice.NewCollector(nil)
		var in model.NewExpense
		if err := bind(c, col, &in); err != nil {
			return fail(c, col, err)
		}
		p, err := h.Pages.CreateExpense(c.Request().Context(), page, in, col)
		return pageResult(c, col, p, err)
	}
}

func (h *DashboardHandler) SendMessage(c echo.Context) error {
	col := notice.NewCollector(nil)
	var in model.OutgoingMessage
	if err := bind(c, col, &in); err != nil {
		return fail(c, col, err)
	}
	p, err := h.Pages.SendMessage(c.Request().Context(), in, col)
	return pageResult(c, col, p, err)
}

func (h *DashboardHandler) SetTableStatus(c echo.Context) error {
	col := notice.NewCollector(nil)
	var req statusReq
	if err := bind(c, col, &req); err != nil {
		return fail(c, col, err)
	}
	p, err := h.Pages.SetTableStatus(c.Request().Context(), c.Param("id"), req.Status, col)
	return pageResult(c, col, p, err)
}

func (h *DashboardHandler) SetStaffTaskStatus(c echo.Context) error {
	col := notice.NewCollector(nil)
	var req statusReq
	if err := bind(c, col, &req); err != nil {
		return fail(c, col, err)
	}
	p, err := h.Pages.SetStaffTaskStatus(c.Request().Context(), c.Param("id"), req.Status, col)
	return pageResult(c, col, p, err)
}
