package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ListenAddr     string
	AllowedOrigins []string
	DatabaseURL    string
	CookieHashKey  []byte
	CookieBlockKey []byte

	// guest sessions
	SessionStore string // "cookie" or "redis"
	RedisURL     string
	SessionIdle  time.Duration

	Location     *time.Location
	MaxPartySize int

	Waitlist WaitlistPolicy

	SeaterInterval time.Duration

	LogLevel  string
	LogFormat string
}

// WaitlistPolicy mirrors waitlist.Policy so this package stays free of domain imports.
type WaitlistPolicy struct {
	MinutesPerParty     float64
	BaseMinutes         int
	LargePartyThreshold int
	LargePartyFactor    float64
	PeakStartHour       int
	PeakEndHour         int
	PeakFactor          float64
}

func FromEnv() (Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := Config{
		ListenAddr:   getenv("LISTEN_ADDR", ":8080"),
		DatabaseURL:  strings.TrimSpace(os.Getenv("DATABASE_URL")),
		SessionStore: strings.ToLower(getenv("SESSION_STORE", "cookie")),
		RedisURL:     getenv("REDIS_URL", "redis://localhost:6379/0"),
		LogLevel:     getenv("LOG_LEVEL", "info"),
		LogFormat:    getenv("LOG_FORMAT", "json"),
	}

	for _, o := range strings.Split(os.Getenv("ALLOWED_ORIGINS"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
		}
	}

	switch cfg.SessionStore {
	case "cookie", "redis":
	default:
		return Config{}, fmt.Errorf("invalid SESSION_STORE %q: must be 'cookie' or 'redis'", cfg.SessionStore)
	}

	var err error
	idle, err := intEnv("SESSION_IDLE_MINUTES", 30, 1)
	if err != nil {
		return Config{}, err
	}
	cfg.SessionIdle = time.Duration(idle) * time.Minute

	tz := getenv("TIMEZONE", "America/New_York")
	cfg.Location, err = time.LoadLocation(tz)
	if err != nil {
		return Config{}, fmt.Errorf("invalid TIMEZONE: %w", err)
	}

	if cfg.MaxPartySize, err = intEnv("MAX_PARTY_SIZE", 8, 1); err != nil {
		return Config{}, err
	}

	seater, err := intEnv("SEATER_INTERVAL_SECONDS", 30, 1)
	if err != nil {
		return Config{}, err
	}
	cfg.SeaterInterval = time.Duration(seater) * time.Second

	if cfg.Waitlist, err = waitlistFromEnv(); err != nil {
		return Config{}, err
	}

	if v := os.Getenv("COOKIE_HASH_KEY"); v != "" {
		if cfg.CookieHashKey, err = decodeB64(v); err != nil {
			return Config{}, fmt.Errorf("COOKIE_HASH_KEY: %w", err)
		}
	}
	if v := os.Getenv("COOKIE_BLOCK_KEY"); v != "" {
		if cfg.CookieBlockKey, err = decodeB64(v); err != nil {
			return Config{}, fmt.Errorf("COOKIE_BLOCK_KEY: %w", err)
		}
	}

	return cfg, nil
}

// RequireCookieKeys reports whether both cookie keys are present and sized for securecookie.
func (c Config) RequireCookieKeys() error {
	if len(c.CookieHashKey) == 0 || len(c.CookieBlockKey) == 0 {
		return fmt.Errorf("COOKIE_HASH_KEY and COOKIE_BLOCK_KEY are required (32 and 16/24/32 bytes base64)")
	}
	switch len(c.CookieBlockKey) {
	case 16, 24, 32:
	default:
		return fmt.Errorf("COOKIE_BLOCK_KEY must decode to 16, 24 or 32 bytes (got %d)", len(c.CookieBlockKey))
	}
	return nil
}

func waitlistFromEnv() (WaitlistPolicy, error) {
	p := WaitlistPolicy{}
	var err error
	if p.MinutesPerParty, err = floatEnv("WAITLIST_MINUTES_PER_PARTY", 15); err != nil {
		return p, err
	}
	if p.BaseMinutes, err = intEnv("WAITLIST_BASE_MINUTES", 10, 0); err != nil {
		return p, err
	}
	if p.LargePartyThreshold, err = intEnv("WAITLIST_LARGE_PARTY_THRESHOLD", 4, 1); err != nil {
		return p, err
	}
	if p.LargePartyFactor, err = floatEnv("WAITLIST_LARGE_PARTY_FACTOR", 1.5); err != nil {
		return p, err
	}
	if p.PeakFactor, err = floatEnv("WAITLIST_PEAK_FACTOR", 1.3); err != nil {
		return p, err
	}
	p.PeakStartHour, p.PeakEndHour, err = parseHourRange(getenv("WAITLIST_PEAK_HOURS", "18-20"))
	if err != nil {
		return p, fmt.Errorf("invalid WAITLIST_PEAK_HOURS: %w", err)
	}
	return p, nil
}

func parseHourRange(s string) (int, int, error) {
	lo, hi, ok := strings.Cut(s, "-")
	if !ok {
		return 0, 0, fmt.Errorf("want START-END, got %q", s)
	}
	start, err := strconv.Atoi(strings.TrimSpace(lo))
	if err != nil {
		return 0, 0, err
	}
	end, err := strconv.Atoi(strings.TrimSpace(hi))
	if err != nil {
		return 0, 0, err
	}
	if start < 0 || end > 23 || start > end {
		return 0, 0, fmt.Errorf("hours must satisfy 0 <= start <= end <= 23, got %d-%d", start, end)
	}
	return start, end, nil
}

func decodeB64(s string) ([]byte, error) {
	if b, err := os.ReadFile(s); err == nil {
		// allow pointing to file path for k8s secret mounts
		s = string(b)
	}
	s = strings.TrimSpace(s)
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	return base64.RawStdEncoding.DecodeString(s)
}

func getenv(k, def string) string {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	return v
}

func intEnv(k string, def, min int) (int, error) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < min {
		return 0, fmt.Errorf("invalid %s: want integer >= %d, got %q", k, min, v)
	}
	return n, nil
}

func floatEnv(k string, def float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		return 0, fmt.Errorf("invalid %s: want positive number, got %q", k, v)
	}
	return f, nil
}
