package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/lib/pq" // imported for side-effects only, not for direct use in the code.
	"github.com/oschwald/geoip2-golang"
)

func CreatePostgresConnection() (*sql.DB, error) {
	connStr := fmt.Sprintf("user=%s password=%s host=%s port=%s dbname=%s sslmode=%s",
		os.Getenv("POSTGRES_USER"),
		os.Getenv("POSTGRES_PASSWORD"),
		os.Getenv("POSTGRES_HOST"),
		os.Getenv("POSTGRES_PORT"),
		os.Getenv("POSTGRES_DB"),
		os.Getenv("POSTGRES_SSLMODE"),
	)
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	err = db.Ping()
	if err != nil {
		return nil, err
	}

	return db, nil
}

func CreateGeoIPConnection(dbPath string) (*geoip2.Reader, error) {
	if dbPath == "" {
		// Fallback to local development path if env var not set
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("home directory error: %w", err)
		}
		dbPath = filepath.Join(homeDir, ".geoip2", "GeoLite2-City.mmdb")
	}

	reader, err := geoip2.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("geoip connection error: %w", err)
	}

	return reader, nil
}

// InitSchema creates the collector tables when they don't exist yet. The raw
// tables are append-only from the pipeline's perspective; daily_stats is the
// idempotent upsert target of the nightly job.
func InitSchema(db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS sites (
			id SERIAL PRIMARY KEY,
			domain TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL DEFAULT '',
			timezone TEXT NOT NULL DEFAULT 'UTC',
			active BOOLEAN NOT NULL DEFAULT TRUE
		)`,
		`CREATE TABLE IF NOT EXISTS page_views (
			id BIGSERIAL PRIMARY KEY,
			site TEXT NOT NULL,
			timestamp TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			url TEXT NOT NULL,
			page_title TEXT NOT NULL DEFAULT '',
			referrer TEXT NOT NULL DEFAULT '',
			referrer_type TEXT NOT NULL DEFAULT '',
			referrer_domain TEXT NOT NULL DEFAULT '',
			utm_source TEXT NOT NULL DEFAULT '',
			utm_medium TEXT NOT NULL DEFAULT '',
			utm_campaign TEXT NOT NULL DEFAULT '',
			utm_term TEXT NOT NULL DEFAULT '',
			utm_content TEXT NOT NULL DEFAULT '',
			country TEXT NOT NULL DEFAULT '',
			region TEXT NOT NULL DEFAULT '',
			city TEXT NOT NULL DEFAULT '',
			latitude DOUBLE PRECISION,
			longitude DOUBLE PRECISION,
			device_type TEXT NOT NULL DEFAULT '',
			browser TEXT NOT NULL DEFAULT '',
			browser_version TEXT NOT NULL DEFAULT '',
			os TEXT NOT NULL DEFAULT '',
			os_version TEXT NOT NULL DEFAULT '',
			screen_width INTEGER NOT NULL DEFAULT 0,
			screen_height INTEGER NOT NULL DEFAULT 0,
			language TEXT NOT NULL DEFAULT '',
			is_bot BOOLEAN NOT NULL DEFAULT FALSE,
			bot_name TEXT NOT NULL DEFAULT '',
			bot_category TEXT NOT NULL DEFAULT '',
			visitor_hash TEXT NOT NULL,
			session_id TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_page_views_site_ts ON page_views (site, timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_page_views_site_visitor ON page_views (site, visitor_hash)`,
		`CREATE INDEX IF NOT EXISTS idx_page_views_site_session ON page_views (site, session_id)`,
		`CREATE TABLE IF NOT EXISTS events (
			id BIGSERIAL PRIMARY KEY,
			site TEXT NOT NULL,
			timestamp TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			session_id TEXT NOT NULL DEFAULT '',
			visitor_hash TEXT NOT NULL,
			event_type TEXT NOT NULL,
			event_name TEXT NOT NULL,
			event_data JSONB,
			page_url TEXT NOT NULL DEFAULT '',
			country TEXT NOT NULL DEFAULT '',
			device_type TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_site_ts ON events (site, timestamp)`,
		`CREATE TABLE IF NOT EXISTS sessions (
			id BIGSERIAL PRIMARY KEY,
			site TEXT NOT NULL,
			session_id TEXT NOT NULL,
			visitor_hash TEXT NOT NULL,
			started_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			last_activity_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			ended_at TIMESTAMPTZ,
			duration_seconds INTEGER NOT NULL DEFAULT 0,
			pageview_count INTEGER NOT NULL DEFAULT 1,
			event_count INTEGER NOT NULL DEFAULT 0,
			is_bounce BOOLEAN NOT NULL DEFAULT TRUE,
			entry_page TEXT NOT NULL DEFAULT '',
			exit_page TEXT NOT NULL DEFAULT '',
			referrer_type TEXT NOT NULL DEFAULT '',
			referrer_domain TEXT NOT NULL DEFAULT '',
			utm_source TEXT NOT NULL DEFAULT '',
			utm_campaign TEXT NOT NULL DEFAULT '',
			country TEXT NOT NULL DEFAULT '',
			region TEXT NOT NULL DEFAULT '',
			device_type TEXT NOT NULL DEFAULT '',
			browser TEXT NOT NULL DEFAULT '',
			os TEXT NOT NULL DEFAULT '',
			UNIQUE (site, session_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_site_started ON sessions (site, started_at)`,
		`CREATE TABLE IF NOT EXISTS daily_stats (
			site TEXT NOT NULL,
			date DATE NOT NULL,
			total_views BIGINT NOT NULL DEFAULT 0,
			unique_visitors BIGINT NOT NULL DEFAULT 0,
			bot_views BIGINT NOT NULL DEFAULT 0,
			top_pages JSONB NOT NULL DEFAULT '[]',
			top_referrers JSONB NOT NULL DEFAULT '[]',
			countries JSONB NOT NULL DEFAULT '{}',
			devices JSONB NOT NULL DEFAULT '{}',
			browsers JSONB NOT NULL DEFAULT '{}',
			oses JSONB NOT NULL DEFAULT '{}',
			referrer_types JSONB NOT NULL DEFAULT '{}',
			utm_sources JSONB NOT NULL DEFAULT '{}',
			utm_campaigns JSONB NOT NULL DEFAULT '{}',
			bot_categories JSONB NOT NULL DEFAULT '{}',
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (site, date)
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("schema init: %w", err)
		}
	}
	return nil
}
