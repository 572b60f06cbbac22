// Package router wires the console's HTTP routes and their middleware.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/hotel-pms-console/internal/config"
	"github.com/iliyamo/hotel-pms-console/internal/handler"
	"github.com/iliyamo/hotel-pms-console/internal/middleware"
)

// Deps is everything the routes need.  Redis may be nil, in which case the
// cache and rate limiter pass requests through.
type Deps struct {
	JWTSecret string
	Calendar  *handler.CalendarHandler
	Dashboard *handler.DashboardHandler
	Folio     *handler.FolioHandler
	Audit     *handler.AuditHandler // nil without MySQL
	Cache     config.CacheConfig
	RateLimit config.RateLimitConfig
	Redis     *redis.Client
	Log       *zap.Logger
}

// RegisterRoutes registers the routes that need no authentication.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// Register mounts every authenticated route under /v1.  The operator's
// token is verified first; the rate limiter then keys on the operator.
func Register(e *echo.Echo, d Deps) {
	RegisterRoutes(e)

	v1 := e.Group("/v1",
		middleware.JWTAuth(d.JWTSecret),
		middleware.NewTokenBucket(d.RateLimit, d.Redis, d.Log),
		middleware.InvalidateOnWrite(d.Cache, d.Redis, d.Log),
	)
	registerCalendar(v1, d.Calendar)
	registerFolio(v1, d.Folio)
	registerDashboard(v1, d.Dashboard, middleware.NewRedisCache(d.Cache, d.Redis))
	if d.Audit != nil {
		admin := v1.Group("/admin", middleware.RequireRole(middleware.RoleAdmin))
		admin.GET("/audit/dead-letters", d.Audit.DeadLetters)
		admin.POST("/audit/dead-letters/:eventID/replay", d.Audit.Replay)
	}
}
