package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-pms-console/internal/config"
	"github.com/iliyamo/hotel-pms-console/internal/pmsapi"
	"github.com/iliyamo/hotel-pms-console/internal/utils"
)

const secret = "test-secret"

func serve(t *testing.T, h echo.HandlerFunc, header string, mw ...echo.MiddlewareFunc) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	e.GET("/x", h, mw...)
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	if header != "" {
		req.Header.Set(echo.HeaderAuthorization, header)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestJWTAuth(t *testing.T) {
	good, err := utils.NewAccessToken(secret, "op-1", "Front_Desk", "", 5)
	if err != nil {
		t.Fatal(err)
	}
	other, _ := utils.NewAccessToken("other-secret", "op-1", "admin", "", 5)
	noSub := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"role": "admin", "exp": time.Now().Add(time.Minute).Unix()})
	noSubTok, _ := noSub.SignedString([]byte(secret))
	noExp := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "op-1", "role": "admin"})
	noExpTok, _ := noExp.SignedString([]byte(secret))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid", "Bearer " + good.Token, http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"wrong secret", "Bearer " + other.Token, http.StatusUnauthorized},
		{"no subject", "Bearer " + noSubTok, http.StatusUnauthorized},
		{"no expiry", "Bearer " + noExpTok, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotOp, gotRole string
			var hasBearer bool
			h := func(c echo.Context) error {
				gotOp, gotRole = OperatorID(c), Role(c)
				hasBearer = pmsapi.HasBearer(c.Request().Context())
				return c.NoContent(http.StatusOK)
			}
			rec := serve(t, h, tt.header, JWTAuth(secret))
			if rec.Code != tt.want {
				t.Fatalf("status=%d want %d", rec.Code, tt.want)
			}
			if tt.want == http.StatusOK && (gotOp != "op-1" || gotRole != "front_desk" || !hasBearer) {
				t.Fatalf("op=%q role=%q bearer=%v", gotOp, gotRole, hasBearer)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	ok := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	for role, want := range map[string]int{
		"front_desk":   http.StatusOK,
		"manager":      http.StatusOK,
		"housekeeping": http.StatusForbidden,
	} {
		tok, _ := utils.NewAccessToken(secret, "op", role, "", 5)
		rec := serve(t, ok, "Bearer "+tok.Token, JWTAuth(secret), RequireRole(RoleFrontDesk, RoleManager))
		if rec.Code != want {
			t.Errorf("%s: status=%d want %d", role, rec.Code, want)
		}
	}
}

func TestOperatorID_Anonymous(t *testing.T) {
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	if OperatorID(c) != "anon" || Role(c) != "" || AccessToken(c) != "" {
		t.Fatal("unauthenticated context should be anonymous")
	}
}

func TestCacheKey_IsPerOperator(t *testing.T) {
	cfg := config.CacheConfig{Prefix: "pmscache"}
	e := echo.New()
	key := func(op, query string) string {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/v1/dashboard/invoicing?"+query, nil), httptest.NewRecorder())
		c.Set(KeyOperatorID, op)
		return cacheKeyFrom(cfg, c)
	}
	a, b := key("op-1", "limit=10"), key("op-2", "limit=10")
	if a == b {
		t.Fatal("operators share a cache key")
	}
	if !strings.HasPrefix(a, "pmscache:op-1:") {
		t.Fatalf("key=%q", a)
	}
	if key("op-1", "limit=10") != a || key("op-1", "limit=20") == a {
		t.Fatal("query should be part of the key")
	}
}

func TestPayloadRoundTrip(t *testing.T) {
	h := http.Header{"Content-Type": {"application/json"}}
	bs, err := encodePayload(http.StatusOK, h, []byte(`{"ok":true}`))
	if err != nil {
		t.Fatal(err)
	}
	status, hdr, body, ok := decodePayload(bs)
	if !ok || status != http.StatusOK || hdr.Get("Content-Type") != "application/json" || string(body) != `{"ok":true}` {
		t.Fatalf("status=%d hdr=%v body=%q ok=%v", status, hdr, body, ok)
	}
	if _, _, _, ok := decodePayload([]byte{1, 2}); ok {
		t.Fatal("short payload decoded")
	}
}

func TestDisabledMiddlewarePassesThrough(t *testing.T) {
	ok := func(c echo.Context) error { return c.String(http.StatusOK, "hi") }
	rec := serve(t, ok, "",
		NewRedisCache(config.CacheConfig{}, nil),
		InvalidateOnWrite(config.CacheConfig{}, nil, nil),
		NewTokenBucket(config.RateLimitConfig{}, nil, nil),
	)
	if rec.Code != http.StatusOK || rec.Body.String() != "hi" || rec.Header().Get("X-Cache") != "" {
		t.Fatalf("code=%d body=%q", rec.Code, rec.Body.String())
	}
}

func TestRateClass(t *testing.T) {
	cfg := config.LoadRateLimitConfig()
	e := echo.New()
	tests := []struct {
		method, path string
		want         string
	}{
		{http.MethodGet, "/v1/calendar/notices", ""},
		{http.MethodGet, "/v1/calendar/gesture", ""},
		{http.MethodGet, "/v1/calendar", RateRead},
		{http.MethodPost, "/v1/calendar/gesture/resize/move", RateRead},
		{http.MethodPost, "/v1/calendar/cells/click", RateRead},
		{http.MethodPost, "/v1/calendar/window", RateRead},
		{http.MethodPost, "/v1/calendar/panels/:name", RateRead},
		{http.MethodPost, "/v1/calendar/gesture/commit", RateWrite},
		{http.MethodPost, "/v1/folios/:id/charges", RateWrite},
		{http.MethodDelete, "/v1/calendar/session", RateWrite},
	}
	for _, tt := range tests {
		c := e.NewContext(httptest.NewRequest(tt.method, "/", nil), httptest.NewRecorder())
		c.SetPath(tt.path)
		if got := rateClass(cfg, c); got != tt.want {
			t.Errorf("%s %s: class=%q want %q", tt.method, tt.path, got, tt.want)
		}
	}
	if k := rateKey(cfg, "op-1", RateWrite); k != "rl:op-1:write" {
		t.Fatalf("key=%q", k)
	}
}
