package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv" // optional .env file for local runs
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Required values are enforced by must(); the rest
// have defaults suited to a single-property deployment.
type Config struct {
	Env       string // application environment (e.g. "dev", "prod")
	Port      string // HTTP port to listen on
	LogLevel  string // zap level: debug, info, warn, error
	JWTSecret string // secret used to verify operator JWTs

	// Upstream PMS REST API.
	PMSBaseURL         string        // base URL every relative route is resolved against
	PMSServiceToken    string        // token used for background calls made without an operator
	PMSTimeout         time.Duration // default timeout for reads
	PMSMutationTimeout time.Duration // explicit timeout for POST/PUT calls

	// Calendar sessions.
	DefaultDays     int           // visible window when the operator did not choose one
	PollInterval    time.Duration // silent booking refresh period
	SessionIdleTTL  time.Duration // idle sessions are dropped after this long
	NoticeFeedSize  int           // notices kept per session
	RoomPageSize    int           // rooms fetched per page
	RoomMaxPages    int           // upper bound on room pages
	BookingLimit    int           // limit sent with booking reads
	BookingPadDays  int           // bookings starting this many days before the window still load
	GuestLimit      int
	CompanyLimit    int
	DashboardLimit  int    // default limit for dashboard lists
	PricingMode     string // "client" or "server", see interaction.PricingMode
	AccessTTLMin    int    // lifetime of tokens minted by the dev token command

	// Audit side-effect queue.
	RabbitURL         string // empty means the in-process queue is used
	AuditQueue        string
	AuditMaxAttempts  int
	AuditBackoff      time.Duration
	AuditMemoryBuffer int

	// Optional MySQL store for undeliverable audit entries.
	DBUser string
	DBPass string
	DBHost string
	DBPort string
	DBName string
}

// Load reads configuration values from environment variables and returns a
// Config.  A .env file in the working directory is loaded first when present.
// Missing required variables cause the program to exit with a fatal log
// message.
func Load() Config {
	_ = godotenv.Load() // absent .env is fine; real env vars win

	return Config{
		Env:       envStr("APP_ENV", "dev"),
		Port:      envStr("APP_PORT", "8080"),
		LogLevel:  envStr("LOG_LEVEL", "info"),
		JWTSecret: must("JWT_SECRET"),

		PMSBaseURL:         must("PMS_API_BASE_URL"),
		PMSServiceToken:    os.Getenv("PMS_API_TOKEN"),
		PMSTimeout:         envDur("PMS_API_TIMEOUT", 30*time.Second),
		PMSMutationTimeout: envDur("PMS_API_MUTATION_TIMEOUT", 15*time.Second),

		DefaultDays:    envInt("CALENDAR_DEFAULT_DAYS", 14),
		PollInterval:   envDur("CALENDAR_POLL_INTERVAL", 60*time.Second),
		SessionIdleTTL: envDur("SESSION_IDLE_TTL", 30*time.Minute),
		NoticeFeedSize: envInt("NOTICE_FEED_SIZE", 50),
		RoomPageSize:   envInt("ROOM_PAGE_SIZE", 100),
		RoomMaxPages:   envInt("ROOM_MAX_PAGES", 10),
		BookingLimit:   envInt("BOOKING_LIMIT", 1000),
		BookingPadDays: envInt("BOOKING_PAD_DAYS", 31),
		GuestLimit:     envInt("GUEST_LIMIT", 1000),
		CompanyLimit:   envInt("COMPANY_LIMIT", 200),
		DashboardLimit: envInt("DASHBOARD_LIMIT", 100),
		PricingMode:    strings.ToLower(envStr("RESIZE_PRICING_MODE", "client")),
		AccessTTLMin:   envInt("ACCESS_TOKEN_TTL_MIN", 60),

		RabbitURL:         rabbitURL(),
		AuditQueue:        envStr("AUDIT_QUEUE", "pms.audit"),
		AuditMaxAttempts:  envInt("AUDIT_MAX_ATTEMPTS", 5),
		AuditBackoff:      envDur("AUDIT_BACKOFF", 500*time.Millisecond),
		AuditMemoryBuffer: envInt("AUDIT_MEMORY_BUFFER", 256),

		DBUser: os.Getenv("DB_USER"),
		DBPass: os.Getenv("DB_PASS"), // empty allowed
		DBHost: os.Getenv("DB_HOST"),
		DBPort: envStr("DB_PORT", "3306"),
		DBName: os.Getenv("DB_NAME"),
	}
}

// DatabaseEnabled reports whether enough settings exist to open MySQL.
func (c Config) DatabaseEnabled() bool {
	return c.DBUser != "" && c.DBHost != "" && c.DBName != ""
}

// IsProd is true for production-like environments.
func (c Config) IsProd() bool {
	return c.Env == "prod" || c.Env == "production"
}

// rabbitURL honours both variable names the broker URL is known by.
func rabbitURL() string {
	if v := os.Getenv("RABBITMQ_URL"); v != "" {
		return v
	}
	return os.Getenv("AMQP_URL")
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envBool(k string, d bool) bool {
	switch strings.ToLower(os.Getenv(k)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	if n, err := strconv.Atoi(os.Getenv(k)); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	if dur, err := time.ParseDuration(os.Getenv(k)); err == nil {
		return dur
	}
	return d
}

// envList splits a comma separated variable, dropping blanks.
func envList(k string, d []string) []string {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
