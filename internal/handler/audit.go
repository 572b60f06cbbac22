package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-pms-console/internal/notice"
	"github.com/iliyamo/hotel-pms-console/internal/queue"
)

// AuditHandler lets an administrator inspect and replay audit entries the
// PMS never accepted.  It is only mounted when MySQL is configured.
type AuditHandler struct {
	Store     queue.ReplayStore
	Deliverer *queue.Deliverer
}

func NewAuditHandler(store queue.ReplayStore, d *queue.Deliverer) *AuditHandler {
	if store == nil || d == nil {
		panic("nil dependency passed to NewAuditHandler")
	}
	return &AuditHandler{Store: store, Deliverer: d}
}

func (h *AuditHandler) DeadLetters(c echo.Context) error {
	col := notice.NewCollector(nil)
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	rows, err := h.Store.ListRecent(c.Request().Context(), limit)
	if err != nil {
		col.Notify(notice.New(notice.LevelError, notice.CategoryLoad, "Failed to load undelivered audit entries"))
		return fail(c, col, err)
	}
	return ok(c, col, rows)
}

// Replay delivers one dead letter again.
func (h *AuditHandler) Replay(c echo.Context) error {
	col := notice.NewCollector(nil)
	out, err := h.Deliverer.Replay(c.Request().Context(), h.Store, c.Param("eventID"))
	if err != nil {
		return fail(c, col, err)
	}
	switch out {
	case queue.Delivered:
		notice.Success(col, "Audit entry delivered")
	case queue.Dropped:
		notice.Info(col, "Audit entry discarded: the PMS refused it")
	default:
		col.Notify(notice.New(notice.LevelError, notice.CategoryMutation, "Audit entry still undeliverable"))
	}
	return ok(c, col, echo.Map{"outcome": out})
}
