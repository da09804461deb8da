package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"cdr.dev/slog"

	"github.com/mvavassori/picostats/models"
)

type aggregatorDB interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// AggregatorConfig bounds the nightly job.
type AggregatorConfig struct {
	RetentionDays     int
	SessionTimeout    time.Duration
	TopPagesLimit     int
	TopReferrersLimit int
}

// Aggregator rolls the prior day's raw page views into per-site daily
// summaries, closes timed-out sessions and prunes raw data past the
// retention window. It runs as a single serialized task; an overlapping
// trigger is skipped rather than run concurrently.
type Aggregator struct {
	db       aggregatorDB
	sessions *SessionService
	log      slog.Logger
	cfg      AggregatorConfig

	running atomic.Bool
}

func NewAggregator(db aggregatorDB, sessions *SessionService, log slog.Logger, cfg AggregatorConfig) *Aggregator {
	return &Aggregator{db: db, sessions: sessions, log: log, cfg: cfg}
}

// Run executes one full aggregation pass for yesterday (UTC). Per-site
// failures are logged and skipped so one bad site never starves the rest;
// the summary log line distinguishes a partial run from a failed one.
func (a *Aggregator) Run(ctx context.Context, now time.Time) error {
	if !a.running.CompareAndSwap(false, true) {
		a.log.Warn(ctx, "aggregation already running, skipping trigger")
		return nil
	}
	defer a.running.Store(false)

	yesterday := now.UTC().AddDate(0, 0, -1)
	dayStart := time.Date(yesterday.Year(), yesterday.Month(), yesterday.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.Add(24 * time.Hour)

	sites, err := a.sitesWithTraffic(ctx, dayStart, dayEnd)
	if err != nil {
		return fmt.Errorf("error discovering sites with traffic: %w", err)
	}

	var failed int
	for _, site := range sites {
		if err := a.aggregateSite(ctx, site, dayStart, dayEnd); err != nil {
			failed++
			a.log.Error(ctx, "site aggregation failed",
				slog.F("site", site),
				slog.F("date", dayStart.Format("2006-01-02")),
				slog.Error(err),
			)
		}
	}

	closed, err := a.sessions.SweepTimedOut(ctx, a.cfg.SessionTimeout, now)
	if err != nil {
		a.log.Error(ctx, "session sweep failed", slog.Error(err))
	}

	removed, err := a.pruneExpired(ctx, now)
	if err != nil {
		a.log.Error(ctx, "retention cleanup failed", slog.Error(err))
	}

	a.log.Info(ctx, "aggregation run finished",
		slog.F("date", dayStart.Format("2006-01-02")),
		slog.F("sites", len(sites)),
		slog.F("failed_sites", failed),
		slog.F("sessions_closed", closed),
		slog.F("rows_removed", removed),
	)

	if failed == len(sites) && len(sites) > 0 {
		return fmt.Errorf("aggregation failed for all %d sites", len(sites))
	}
	return nil
}

func (a *Aggregator) sitesWithTraffic(ctx context.Context, from, to time.Time) ([]string, error) {
	rows, err := a.db.QueryContext(ctx,
		"SELECT DISTINCT site FROM page_views WHERE timestamp >= $1 AND timestamp < $2 ORDER BY site",
		from, to,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sites []string
	for rows.Next() {
		var site string
		if err := rows.Scan(&site); err != nil {
			return nil, err
		}
		sites = append(sites, site)
	}
	return sites, rows.Err()
}

func (a *Aggregator) aggregateSite(ctx context.Context, site string, from, to time.Time) error {
	summary, err := a.computeSummary(ctx, site, from, to)
	if err != nil {
		return err
	}
	return a.upsertSummary(ctx, site, from, summary)
}

// dailySummary holds one site's aggregates before JSON encoding.
type dailySummary struct {
	TotalViews     int
	UniqueVisitors int
	BotViews       int
	TopPages       []models.PageCount
	TopReferrers   []models.PageCount
	Breakdowns     breakdowns
	BotCategories  map[string]int
}

func (a *Aggregator) computeSummary(ctx context.Context, site string, from, to time.Time) (*dailySummary, error) {
	s := &dailySummary{BotCategories: map[string]int{}}

	row, err := a.db.QueryContext(ctx, `
		SELECT COUNT(*), COUNT(DISTINCT visitor_hash)
		FROM page_views
		WHERE site = $1 AND timestamp >= $2 AND timestamp < $3 AND is_bot = FALSE`,
		site, from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("error counting views: %w", err)
	}
	if row.Next() {
		if err := row.Scan(&s.TotalViews, &s.UniqueVisitors); err != nil {
			row.Close()
			return nil, fmt.Errorf("error scanning view counts: %w", err)
		}
	}
	row.Close()

	botRows, err := a.db.QueryContext(ctx, `
		SELECT bot_category, COUNT(*)
		FROM page_views
		WHERE site = $1 AND timestamp >= $2 AND timestamp < $3 AND is_bot = TRUE
		GROUP BY bot_category`,
		site, from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("error counting bot views: %w", err)
	}
	for botRows.Next() {
		var category string
		var count int
		if err := botRows.Scan(&category, &count); err != nil {
			botRows.Close()
			return nil, fmt.Errorf("error scanning bot categories: %w", err)
		}
		s.BotCategories[category] = count
		s.BotViews += count
	}
	botRows.Close()

	s.TopPages, err = a.topCounts(ctx, site, from, to, "url", a.cfg.TopPagesLimit, "")
	if err != nil {
		return nil, fmt.Errorf("error computing top pages: %w", err)
	}
	s.TopReferrers, err = a.topCounts(ctx, site, from, to, "referrer_domain", a.cfg.TopReferrersLimit, "AND referrer_domain <> ''")
	if err != nil {
		return nil, fmt.Errorf("error computing top referrers: %w", err)
	}

	dims, err := a.dimensionRows(ctx, site, from, to)
	if err != nil {
		return nil, fmt.Errorf("error loading breakdown rows: %w", err)
	}
	s.Breakdowns = accumulateBreakdowns(dims)

	return s, nil
}

func (a *Aggregator) topCounts(ctx context.Context, site string, from, to time.Time, column string, limit int, extraWhere string) ([]models.PageCount, error) {
	// column and extraWhere come from call sites above, never from input.
	query := fmt.Sprintf(`
		SELECT %s, COUNT(*) AS views
		FROM page_views
		WHERE site = $1 AND timestamp >= $2 AND timestamp < $3 AND is_bot = FALSE %s
		GROUP BY %s
		ORDER BY views DESC, %s ASC
		LIMIT $4`, column, extraWhere, column, column)

	rows, err := a.db.QueryContext(ctx, query, site, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := []models.PageCount{}
	for rows.Next() {
		var c models.PageCount
		if err := rows.Scan(&c.Key, &c.Views); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// dimensionRow is one non-bot page view reduced to its breakdown columns.
type dimensionRow struct {
	Country      string
	DeviceType   string
	Browser      string
	OS           string
	ReferrerType string
	UTMSource    string
	UTMCampaign  string
}

func (a *Aggregator) dimensionRows(ctx context.Context, site string, from, to time.Time) ([]dimensionRow, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT country, device_type, browser, os, referrer_type, utm_source, utm_campaign
		FROM page_views
		WHERE site = $1 AND timestamp >= $2 AND timestamp < $3 AND is_bot = FALSE`,
		site, from, to,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dims []dimensionRow
	for rows.Next() {
		var d dimensionRow
		if err := rows.Scan(&d.Country, &d.DeviceType, &d.Browser, &d.OS, &d.ReferrerType, &d.UTMSource, &d.UTMCampaign); err != nil {
			return nil, err
		}
		dims = append(dims, d)
	}
	return dims, rows.Err()
}

// breakdowns are count-per-category maps for one site and day.
type breakdowns struct {
	Countries     map[string]int
	Devices       map[string]int
	Browsers      map[string]int
	OSes          map[string]int
	ReferrerTypes map[string]int
	UTMSources    map[string]int
	UTMCampaigns  map[string]int
}

// accumulateBreakdowns folds page-view rows into breakdown maps. Pure: the
// same rows always produce the same maps, which keeps re-runs of the nightly
// job byte-identical after JSON encoding. Empty UTM values are absent, not a
// category.
func accumulateBreakdowns(rows []dimensionRow) breakdowns {
	b := breakdowns{
		Countries:     map[string]int{},
		Devices:       map[string]int{},
		Browsers:      map[string]int{},
		OSes:          map[string]int{},
		ReferrerTypes: map[string]int{},
		UTMSources:    map[string]int{},
		UTMCampaigns:  map[string]int{},
	}
	for _, r := range rows {
		b.Countries[r.Country]++
		b.Devices[r.DeviceType]++
		b.Browsers[r.Browser]++
		b.OSes[r.OS]++
		b.ReferrerTypes[r.ReferrerType]++
		if r.UTMSource != "" {
			b.UTMSources[r.UTMSource]++
		}
		if r.UTMCampaign != "" {
			b.UTMCampaigns[r.UTMCampaign]++
		}
	}
	return b
}

func (a *Aggregator) upsertSummary(ctx context.Context, site string, date time.Time, s *dailySummary) error {
	encoded := make([][]byte, 0, 10)
	for _, v := range []interface{}{
		s.TopPages, s.TopReferrers,
		s.Breakdowns.Countries, s.Breakdowns.Devices, s.Breakdowns.Browsers,
		s.Breakdowns.OSes, s.Breakdowns.ReferrerTypes,
		s.Breakdowns.UTMSources, s.Breakdowns.UTMCampaigns, s.BotCategories,
	} {
		buf, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("error encoding summary: %w", err)
		}
		encoded = append(encoded, buf)
	}

	_, err := a.db.ExecContext(ctx, `
		INSERT INTO daily_stats (
			site, date, total_views, unique_visitors, bot_views,
			top_pages, top_referrers, countries, devices, browsers, oses,
			referrer_types, utm_sources, utm_campaigns, bot_categories, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, NOW())
		ON CONFLICT (site, date) DO UPDATE SET
			total_views = EXCLUDED.total_views,
			unique_visitors = EXCLUDED.unique_visitors,
			bot_views = EXCLUDED.bot_views,
			top_pages = EXCLUDED.top_pages,
			top_referrers = EXCLUDED.top_referrers,
			countries = EXCLUDED.countries,
			devices = EXCLUDED.devices,
			browsers = EXCLUDED.browsers,
			oses = EXCLUDED.oses,
			referrer_types = EXCLUDED.referrer_types,
			utm_sources = EXCLUDED.utm_sources,
			utm_campaigns = EXCLUDED.utm_campaigns,
			bot_categories = EXCLUDED.bot_categories,
			updated_at = NOW()`,
		site, date.Format("2006-01-02"), s.TotalViews, s.UniqueVisitors, s.BotViews,
		encoded[0], encoded[1], encoded[2], encoded[3], encoded[4], encoded[5],
		encoded[6], encoded[7], encoded[8], encoded[9],
	)
	if err != nil {
		return fmt.Errorf("error upserting daily stats: %w", err)
	}
	return nil
}

// pruneExpired deletes raw rows past the retention window, in bulk.
func (a *Aggregator) pruneExpired(ctx context.Context, now time.Time) (int64, error) {
	cutoff := now.UTC().AddDate(0, 0, -a.cfg.RetentionDays)

	var removed int64
	for _, table := range []string{"page_views", "events"} {
		res, err := a.db.ExecContext(ctx,
			"DELETE FROM "+table+" WHERE timestamp < $1", cutoff,
		)
		if err != nil {
			return removed, fmt.Errorf("error pruning %s: %w", table, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return removed, fmt.Errorf("error counting pruned %s rows: %w", table, err)
		}
		removed += n
	}
	return removed, nil
}
