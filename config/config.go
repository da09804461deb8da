package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds every tunable the collector reads from the environment.
// Defaults match the values the tracking script and dashboard assume.
type Config struct {
	Port int

	// Secret feeds both the visitor hasher and the rate-limit key hash.
	Secret string

	// Sites/origins allowed when the sites table has no matching row.
	AllowedSites   []string
	AllowedOrigins []string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RetentionDays  int
	SessionTimeout time.Duration

	TopPagesLimit     int
	TopReferrersLimit int

	// Cron expression for the nightly aggregation job.
	AggregateCron string

	GeoIPDBPath string

	// Stats surface auth. Both empty means /stats is open (self-hosted
	// single-operator deployments behind a reverse proxy).
	JWTSecret             string
	DashboardPasswordHash string
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:                  envInt("PORT", 8080),
		Secret:                os.Getenv("ANALYTICS_SECRET"),
		AllowedSites:          envList("ALLOWED_SITES"),
		AllowedOrigins:        envList("ALLOWED_ORIGINS"),
		RateLimitRequests:     envInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow:       time.Duration(envInt("RATE_LIMIT_WINDOW_SECONDS", 60)) * time.Second,
		RetentionDays:         envInt("RETENTION_DAYS", 90),
		SessionTimeout:        time.Duration(envInt("SESSION_TIMEOUT_MINUTES", 30)) * time.Minute,
		TopPagesLimit:         envInt("TOP_PAGES_LIMIT", 50),
		TopReferrersLimit:     envInt("TOP_REFERRERS_LIMIT", 30),
		AggregateCron:         envDefault("AGGREGATE_CRON", "0 3 * * *"),
		GeoIPDBPath:           os.Getenv("GEOIP_DB_PATH"),
		JWTSecret:             os.Getenv("JWT_SECRET"),
		DashboardPasswordHash: os.Getenv("DASHBOARD_PASSWORD_HASH"),
	}

	if cfg.Secret == "" {
		return nil, fmt.Errorf("ANALYTICS_SECRET must be set")
	}
	if cfg.RateLimitRequests < 0 || cfg.RetentionDays <= 0 {
		return nil, fmt.Errorf("invalid rate limit or retention configuration")
	}

	return cfg, nil
}

func envDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// envList parses a comma-separated env var, trimming whitespace and
// dropping empty entries.
func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
