package middleware

import (
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/hotel-pms-console/internal/config"
	"github.com/iliyamo/hotel-pms-console/internal/notice"
)

// Rate classes.  Every operator has one bucket per class.
const (
	RateRead  = "read"
	RateWrite = "write"
)

// takeToken refills the bucket continuously (one token per every_ms) and
// takes one token if there is one.  It returns {allowed, tokens left,
// milliseconds until the next token}.
var takeToken = redis.NewScript(`
local burst = tonumber(ARGV[2])
local every = tonumber(ARGV[3])
local now = tonumber(ARGV[1])

local tokens = tonumber(redis.call('HGET', KEYS[1], 'tokens'))
local at = tonumber(redis.call('HGET', KEYS[1], 'at'))
if tokens == nil or at == nil then
	tokens = burst
	at = now
end
tokens = math.min(burst, tokens + math.max(0, now - at) / every)

local allowed = 0
local wait = 0
if tokens >= 1 then
	allowed = 1
	tokens = tokens - 1
else
	wait = math.ceil((1 - tokens) * every)
end
redis.call('HSET', KEYS[1], 'tokens', tostring(tokens), 'at', now)
redis.call('PEXPIRE', KEYS[1], math.ceil(burst * every) + 1000)
return {allowed, math.floor(tokens), wait}
`)

// NewTokenBucket limits each operator with two Redis token buckets, one for
// reads and one for writes, shared by every console replica.  Redis errors
// let the request through.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client, log *zap.Logger) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return passThrough
	}
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("ratelimit")

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			class := rateClass(cfg, c)
			if class == "" {
				return next(c)
			}
			budget := cfg.Read
			if class == RateWrite {
				budget = cfg.Write
			}
			key := rateKey(cfg, OperatorID(c), class)

			res, err := takeToken.Run(c.Request().Context(), rdb, []string{key},
				time.Now().UnixMilli(), budget.Burst, budget.Every.Milliseconds()).Int64Slice()
			if err != nil || len(res) != 3 {
				log.Warn("bucket unavailable", zap.String("key", key), zap.Error(err))
				return next(c)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Class", class)
			h.Set("X-RateLimit-Limit", strconv.Itoa(budget.Burst))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(res[1], 10))
			if res[0] == 1 {
				return next(c)
			}

			secs := (res[2] + 999) / 1000
			h.Set("Retry-After", strconv.FormatInt(secs, 10))
			log.Debug("limited", zap.String("operator", OperatorID(c)), zap.String("class", class), zap.String("route", c.Path()))
			msg := "Too many requests, try again in " + strconv.FormatInt(secs, 10) + "s"
			return c.JSON(http.StatusTooManyRequests, echo.Map{
				"notices": []notice.Notice{notice.New(notice.LevelError, notice.CategoryValidation, msg)},
				"error":   "rate_limited",
			})
		}
	}
}

// rateClass returns "" for exempt routes.  GETs and POSTs that change
// nothing in the PMS are reads.
func rateClass(cfg config.RateLimitConfig, c echo.Context) string {
	path := c.Path()
	if slices.Contains(cfg.Exempt, path) {
		return ""
	}
	switch c.Request().Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return RateRead
	}
	if slices.Contains(cfg.ReadOnly, path) {
		return RateRead
	}
	return RateWrite
}

func rateKey(cfg config.RateLimitConfig, operator, class string) string {
	return cfg.Prefix + ":" + operator + ":" + class
}
