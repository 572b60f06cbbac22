package config

import "time"

// readOnlyPosts are POST routes that change nothing in the PMS: window
// paging, overlays and pointer steps answered from the session.
func readOnlyPosts() []string {
	return envList("READONLY_POST_ROUTES", []string{
		"/v1/calendar/load",
		"/v1/calendar/window",
		"/v1/calendar/shift",
		"/v1/calendar/today",
		"/v1/calendar/panels/:name",
		"/v1/calendar/cells/click",
		"/v1/calendar/gesture/drag",
		"/v1/calendar/gesture/drop",
		"/v1/calendar/gesture/cancel",
		"/v1/calendar/gesture/resize",
		"/v1/calendar/gesture/resize/move",
		"/v1/dashboard/invoicing/invoices/preview",
	})
}

// CacheConfig drives the Redis response cache in front of the dashboard
// page reads.  Only GET responses are stored; any successful write drops
// every cached page so a change made by one operator is not hidden from
// another for a whole TTL.  ReadOnly POSTs do not count as writes.
type CacheConfig struct {
	Enabled      bool
	TTL          time.Duration
	Prefix       string
	MaxBodyBytes int
	ReadOnly     []string // echo route paths
}

func LoadCacheConfig() CacheConfig {
	cfg := CacheConfig{
		Enabled:      envBool("CACHE_ENABLED", true),
		TTL:          envDur("CACHE_TTL", 15*time.Second),
		Prefix:       envStr("CACHE_PREFIX", "pmscache"),
		MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
		ReadOnly:     readOnlyPosts(),
	}
	if cfg.TTL <= 0 {
		cfg.Enabled = false
	}
	return cfg
}

// Budget is one token bucket: Burst requests back to back, then one more
// every Every.
type Budget struct {
	Burst int
	Every time.Duration
}

// RateLimitConfig configures the per-operator token buckets.  GETs and
// ReadOnly POSTs share the Read budget; requests that make the PMS change
// something draw on the smaller Write budget.  Exempt routes (the notice
// and gesture polls) are never limited.
type RateLimitConfig struct {
	Enabled  bool
	Read     Budget
	Write    Budget
	Exempt   []string // echo route paths
	ReadOnly []string
	Prefix   string
}

func LoadRateLimitConfig() RateLimitConfig {
	cfg := RateLimitConfig{
		Enabled: envBool("RATE_LIMIT_ENABLED", true),
		Read: Budget{
			Burst: envInt("RATE_LIMIT_READ_BURST", 120),
			Every: envDur("RATE_LIMIT_READ_EVERY", 250*time.Millisecond),
		},
		Write: Budget{
			Burst: envInt("RATE_LIMIT_WRITE_BURST", 20),
			Every: envDur("RATE_LIMIT_WRITE_EVERY", 2*time.Second),
		},
		Exempt: envList("RATE_LIMIT_EXEMPT", []string{
			"/v1/calendar/notices",
			"/v1/calendar/gesture",
		}),
		ReadOnly: readOnlyPosts(),
		Prefix: envStr("RATE_LIMIT_PREFIX", "rl"),
	}
	cfg.Read = cfg.Read.normalized()
	cfg.Write = cfg.Write.normalized()
	return cfg
}

func (b Budget) normalized() Budget {
	if b.Burst < 1 {
		b.Burst = 1
	}
	if b.Every <= 0 {
		b.Every = time.Second
	}
	return b
}
