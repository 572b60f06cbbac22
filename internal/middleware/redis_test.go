package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/hotel-pms-console/internal/config"
)

func newRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb, mr
}

// asOperator stands in for JWTAuth: the operator comes from X-Op.
func asOperator(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Set(KeyOperatorID, c.Request().Header.Get("X-Op"))
		return next(c)
	}
}

func do(e *echo.Echo, method, path, op string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	req.Header.Set("X-Op", op)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRedisCache(t *testing.T) {
	rdb, mr := newRedis(t)
	cfg := config.CacheConfig{Enabled: true, TTL: time.Minute, Prefix: "pmscache", MaxBodyBytes: 1 << 16, ReadOnly: []string{"/peek"}}

	calls := 0
	degraded := false
	e := echo.New()
	g := e.Group("", asOperator, InvalidateOnWrite(cfg, rdb, nil))
	g.GET("/page", func(c echo.Context) error {
		calls++
		if degraded {
			c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
		}
		return c.String(http.StatusOK, "page "+strconv.Itoa(calls))
	}, NewRedisCache(cfg, rdb))
	g.POST("/write", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	g.POST("/reject", func(c echo.Context) error { return c.NoContent(http.StatusUnprocessableEntity) })
	g.POST("/peek", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	first := do(e, http.MethodGet, "/page", "op-1", nil)
	second := do(e, http.MethodGet, "/page", "op-1", nil)
	if first.Header().Get("X-Cache") != "MISS" || second.Header().Get("X-Cache") != "HIT" {
		t.Fatalf("x-cache=%q,%q", first.Header().Get("X-Cache"), second.Header().Get("X-Cache"))
	}
	if calls != 1 || second.Body.String() != "page 1" {
		t.Fatalf("calls=%d body=%q", calls, second.Body.String())
	}

	t.Run("other operator has its own entry", func(t *testing.T) {
		rec := do(e, http.MethodGet, "/page", "op-2", nil)
		if rec.Header().Get("X-Cache") != "MISS" || calls != 2 {
			t.Fatalf("x-cache=%q calls=%d", rec.Header().Get("X-Cache"), calls)
		}
	})

	t.Run("no-cache request refreshes", func(t *testing.T) {
		rec := do(e, http.MethodGet, "/page", "op-1", http.Header{"Cache-Control": {"no-cache"}})
		if rec.Header().Get("X-Cache") != "MISS" || rec.Body.String() != "page 3" {
			t.Fatalf("x-cache=%q body=%q", rec.Header().Get("X-Cache"), rec.Body.String())
		}
		if rec := do(e, http.MethodGet, "/page", "op-1", nil); rec.Body.String() != "page 3" {
			t.Fatalf("entry not refreshed: %q", rec.Body.String())
		}
	})

	t.Run("rejected write and read-only post keep entries", func(t *testing.T) {
		before := len(mr.Keys())
		do(e, http.MethodPost, "/reject", "op-2", nil)
		do(e, http.MethodPost, "/peek", "op-2", nil)
		if len(mr.Keys()) != before || before == 0 {
			t.Fatalf("keys before=%d after=%d", before, len(mr.Keys()))
		}
	})

	t.Run("any operator's write drops every page", func(t *testing.T) {
		do(e, http.MethodPost, "/write", "op-2", nil)
		if keys := mr.Keys(); len(keys) != 0 {
			t.Fatalf("keys=%v", keys)
		}
	})

	t.Run("no-store responses are not kept", func(t *testing.T) {
		degraded = true
		do(e, http.MethodGet, "/page", "op-1", nil)
		rec := do(e, http.MethodGet, "/page", "op-1", nil)
		if rec.Header().Get("X-Cache") != "MISS" || len(mr.Keys()) != 0 {
			t.Fatalf("x-cache=%q keys=%v", rec.Header().Get("X-Cache"), mr.Keys())
		}
		degraded = false
		do(e, http.MethodGet, "/page", "op-1", nil)
		if rec := do(e, http.MethodGet, "/page", "op-1", nil); rec.Header().Get("X-Cache") != "HIT" {
			t.Fatal("healthy page not cached after recovery")
		}
	})
}

func TestTokenBucket(t *testing.T) {
	rdb, _ := newRedis(t)
	cfg := config.RateLimitConfig{
		Enabled: true,
		Read:    config.Budget{Burst: 3, Every: time.Hour},
		Write:   config.Budget{Burst: 1, Every: time.Hour},
		Exempt:  []string{"/notices"},
		Prefix:  "rl",
	}
	ok := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	e := echo.New()
	g := e.Group("", asOperator, NewTokenBucket(cfg, rdb, nil))
	g.GET("/view", ok)
	g.GET("/notices", ok)
	g.POST("/commit", ok)

	if rec := do(e, http.MethodPost, "/commit", "op-1", nil); rec.Code != http.StatusOK || rec.Header().Get("X-RateLimit-Class") != RateWrite {
		t.Fatalf("first write: %d %v", rec.Code, rec.Header())
	}
	rec := do(e, http.MethodPost, "/commit", "op-1", nil)
	if rec.Code != http.StatusTooManyRequests || rec.Header().Get("Retry-After") == "" {
		t.Fatalf("second write: %d %v", rec.Code, rec.Header())
	}
	if body := rec.Body.String(); !strings.Contains(body, `"rate_limited"`) || !strings.Contains(body, `"notices"`) {
		t.Fatalf("body=%s", body)
	}

	// Writes and reads are separate budgets, and operators do not share.
	if rec := do(e, http.MethodGet, "/view", "op-1", nil); rec.Code != http.StatusOK || rec.Header().Get("X-RateLimit-Remaining") != "2" {
		t.Fatalf("read after writes: %d remaining=%q", rec.Code, rec.Header().Get("X-RateLimit-Remaining"))
	}
	if rec := do(e, http.MethodPost, "/commit", "op-2", nil); rec.Code != http.StatusOK {
		t.Fatalf("op-2 write: %d", rec.Code)
	}

	for i := 0; i < 10; i++ {
		if rec := do(e, http.MethodGet, "/notices", "op-1", nil); rec.Code != http.StatusOK || rec.Header().Get("X-RateLimit-Class") != "" {
			t.Fatalf("notice poll %d limited: %d", i, rec.Code)
		}
	}
}

func TestTokenBucket_RedisDownLetsThrough(t *testing.T) {
	rdb, mr := newRedis(t)
	mr.Close()
	cfg := config.RateLimitConfig{Enabled: true, Read: config.Budget{Burst: 1, Every: time.Hour}, Write: config.Budget{Burst: 1, Every: time.Hour}, Prefix: "rl"}
	e := echo.New()
	e.GET("/view", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, asOperator, NewTokenBucket(cfg, rdb, nil))
	for i := 0; i < 3; i++ {
		if rec := do(e, http.MethodGet, "/view", "op-1", nil); rec.Code != http.StatusOK {
			t.Fatalf("request %d: %d", i, rec.Code)
		}
	}
}
