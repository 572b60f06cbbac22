package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-pms-console/internal/handler"
	"github.com/iliyamo/hotel-pms-console/internal/middleware"
)

// registerCalendar mounts the reservation calendar.  Its views are per
// session and change with every gesture, so nothing here is cached.
func registerCalendar(v1 *echo.Group, h *handler.CalendarHandler) {
	g := v1.Group("/calendar", middleware.RequireRole(middleware.RoleAdmin, middleware.RoleManager, middleware.RoleFrontDesk))

	// ---- Window ----
	g.GET("", h.View)
	g.POST("/load", h.Load)
	g.POST("/window", h.SetWindow)
	g.POST("/shift", h.Shift)
	g.POST("/today", h.Today)
	g.GET("/export.xlsx", h.Export)
	g.GET("/notices", h.Notices)
	g.DELETE("/session", h.Close)

	// ---- Cells and bookings ----
	g.POST("/cells/click", h.ClickCell)
	g.GET("/bookings/:id", h.BookingDetail)
	g.POST("/bookings", h.CreateBooking)
	g.POST("/bookings/multi-room", h.CreateMultiRoomBooking)
	g.POST("/bookings/:id/status", h.ChangeStatus)

	// ---- Room blocks ----
	g.POST("/blocks", h.CreateBlock)
	g.POST("/blocks/:id/cancel", h.CancelBlock)

	// ---- Analytics overlays ----
	g.GET("/panels", h.Panels)
	g.POST("/panels/:name", h.TogglePanel)

	// ---- Gestures ----
	g.GET("/gesture", h.Gesture)
	g.POST("/gesture/drag", h.BeginDrag)
	g.POST("/gesture/drop", h.Drop)
	g.POST("/gesture/commit", h.Commit)
	g.POST("/gesture/cancel", h.CancelGesture)
	g.POST("/gesture/resize", h.BeginResize)
	g.POST("/gesture/resize/move", h.ResizeMove)
	g.POST("/gesture/resize/release", h.ResizeRelease)
}

func registerFolio(v1 *echo.Group, h *handler.FolioHandler) {
	g := v1.Group("/folios", middleware.RequireRole(middleware.RoleAdmin, middleware.RoleManager, middleware.RoleFrontDesk, middleware.RoleAccounting))

	g.GET("/by-booking/:bookingID", h.ByBooking)
	g.POST("/transfer", h.Transfer)
	g.GET("/:id", h.Get)
	g.GET("/:id/export", h.Export)
	g.POST("/:id/charges", h.PostCharge)
	g.POST("/:id/charges/:chargeID/void", h.VoidCharge)
	g.POST("/:id/payments", h.PostPayment)
	g.POST("/:id/payments/:paymentID/void", h.VoidPayment)
}
