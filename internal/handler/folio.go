package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-pms-console/internal/folio"
	"github.com/iliyamo/hotel-pms-console/internal/model"
	"github.com/iliyamo/hotel-pms-console/internal/notice"
)

// FolioHandler proxies folio reads and postings.
type FolioHandler struct {
	Folios *folio.Service
}

func NewFolioHandler(folios *folio.Service) *FolioHandler {
	if folios == nil {
		panic("nil folio service passed to NewFolioHandler")
	}
	return &FolioHandler{Folios: folios}
}

func folioResult(c echo.Context, col *notice.Collector, v folio.View, err error) error {
	if err != nil {
		return fail(c, col, err)
	}
	return ok(c, col, v)
}

func (h *FolioHandler) ByBooking(c echo.Context) error {
	col := notice.NewCollector(nil)
	v, err := h.Folios.ByBooking(c.Request().Context(), c.Param("bookingID"), col)
	return folioResult(c, col, v, err)
}

func (h *FolioHandler) Get(c echo.Context) error {
	col := notice.NewCollector(nil)
	v, err := h.Folios.Get(c.Request().Context(), c.Param("id"), col)
	return folioResult(c, col, v, err)
}

func (h *FolioHandler) PostCharge(c echo.Context) error {
	col := notice.NewCollector(nil)
	var in model.NewCharge
	if err := bind(c, col, &in); err != nil {
		return fail(c, col, err)
	}
	v, err := h.Folios.PostCharge(c.Request().Context(), c.Param("id"), in, col)
	return folioResult(c, col, v, err)
}

func (h *FolioHandler) PostPayment(c echo.Context) error {
	col := notice.NewCollector(nil)
	var in model.NewPayment
	if err := bind(c, col, &in); err != nil {
		return fail(c, col, err)
	}
	v, err := h.Folios.PostPayment(c.Request().Context(), c.Param("id"), in, col)
	return folioResult(c, col, v, err)
}

func (h *FolioHandler) VoidCharge(c echo.Context) error {
	col := notice.NewCollector(nil)
	var req reasonReq
	if err := bind(c, col, &req); err != nil {
		return fail(c, col, err)
	}
	v, err := h.Folios.VoidCharge(c.Request().Context(), c.Param("id"), c.Param("chargeID"), req.Reason, col)
	return folioResult(c, col, v, err)
}

func (h *FolioHandler) VoidPayment(c echo.Context) error {
	col := notice.NewCollector(nil)
	var req reasonReq
	if err := bind(c, col, &req); err != nil {
		return fail(c, col, err)
	}
	v, err := h.Folios.VoidPayment(c.Request().Context(), c.Param("id"), c.Param("paymentID"), req.Reason, col)
	return folioResult(c, col, v, err)
}

func (h *FolioHandler) Transfer(c echo.Context) error {
	col := notice.NewCollector(nil)
	var in model.FolioTransfer
	if err := bind(c, col, &in); err != nil {
		return fail(c, col, err)
	}
	v, err := h.Folios.Transfer(c.Request().Context(), in, col)
	return folioResult(c, col, v, err)
}

// Export streams the PMS's Excel rendition of a folio.
func (h *FolioHandler) Export(c echo.Context) error {
	col := notice.NewCollector(nil)
	body, contentType, err := h.Folios.Excel(c.Request().Context(), c.Param("id"), col)
	if err != nil {
		return fail(c, col, err)
	}
	if contentType == "" {
		contentType = xlsxMIME
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="folio-`+c.Param("id")+`.xlsx"`)
	return c.Blob(http.StatusOK, contentType, body)
}
