package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-pms-console/internal/dashboard"
	"github.com/iliyamo/hotel-pms-console/internal/handler"
	"github.com/iliyamo/hotel-pms-console/internal/middleware"
)

// Roles allowed on each dashboard page besides admin and manager.
var pageRoles = map[string][]string{
	dashboard.PageHousekeeping: {middleware.RoleHousekeeping},
	dashboard.PageInvoicing:    {middleware.RoleAccounting},
	dashboard.PageCost:         {middleware.RoleAccounting},
	dashboard.PageMessaging:    {middleware.RoleFrontDesk},
	dashboard.PagePOS:          {middleware.RoleFrontDesk},
	dashboard.PageStaff:        nil,
}

func pageGroup(d *echo.Group, page string) *echo.Group {
	roles := append([]string{middleware.RoleAdmin, middleware.RoleManager}, pageRoles[page]...)
	return d.Group("/"+page, middleware.RequireRole(roles...))
}

// registerDashboard mounts the CRUD pages.  Page reads go through the
// response cache; any successful write drops every cached page.
func registerDashboard(v1 *echo.Group, h *handler.DashboardHandler, cache echo.MiddlewareFunc) {
	d := v1.Group("/dashboard")
	d.GET("", h.List)

	hk := pageGroup(d, dashboard.PageHousekeeping)
	hk.GET("", h.Page(dashboard.PageHousekeeping), cache)
	hk.POST("/tasks/:id/status", h.SetHousekeepingTaskStatus)
	hk.POST("/media/:id/review", h.ReviewPhoto)

	inv := pageGroup(d, dashboard.PageInvoicing)
	inv.GET("", h.Page(dashboard.PageInvoicing), cache)
	inv.POST("/invoices", h.CreateInvoice)
	inv.POST("/invoices/preview", h.PreviewInvoice)
	inv.POST("/expenses", h.CreateExpense(dashboard.PageInvoicing))

	msg := pageGroup(d, dashboard.PageMessaging)
	msg.GET("", h.Page(dashboard.PageMessaging), cache)
	msg.POST("/send", h.SendMessage)

	pos := pageGroup(d, dashboard.PagePOS)
	pos.GET("", h.Page(dashboard.PagePOS), cache)
	pos.POST("/tables/:id/status", h.SetTableStatus)

	staff := pageGroup(d, dashboard.PageStaff)
	staff.GET("", h.Page(dashboard.PageStaff), cache)
	staff.POST("/tasks/:id/status", h.SetStaffTaskStatus)

	cost := pageGroup(d, dashboard.PageCost)
	cost.GET("", h.Page(dashboard.PageCost), cache)
	cost.POST("/expenses", h.CreateExpense(dashboard.PageCost))
}
