package handlers

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"cdr.dev/slog"

	"github.com/mvavassori/picostats/config"
	"github.com/mvavassori/picostats/models"
	"github.com/mvavassori/picostats/utils"
)

const recentVisitorLimit = 10

// StatsStore is the read surface the stats endpoint needs.
type StatsStore interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// StatsHandler serves read-only aggregate queries for the dashboard.
type StatsHandler struct {
	log slog.Logger
	cfg *config.Config
	db  StatsStore

	now func() time.Time
}

func NewStatsHandler(log slog.Logger, cfg *config.Config, db StatsStore) *StatsHandler {
	return &StatsHandler{log: log, cfg: cfg, db: db, now: time.Now}
}

// Stats answers GET /stats?site=...&period=today|7d|30d with a JSON summary
// computed from the raw tables, so today's numbers are live rather than
// waiting for the nightly rollup.
func (h *StatsHandler) Stats() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		site := r.URL.Query().Get("site")
		if site == "" {
			utils.WriteErrorResponse(w, http.StatusBadRequest, fmt.Errorf("site is required"))
			return
		}

		period := r.URL.Query().Get("period")
		if period == "" {
			period = "today"
		}

		now := h.now().UTC()
		var from time.Time
		switch period {
		case "today":
			from = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		case "7d":
			from = now.AddDate(0, 0, -7)
		case "30d":
			from = now.AddDate(0, 0, -30)
		default:
			utils.WriteErrorResponse(w, http.StatusBadRequest, fmt.Errorf("period must be today, 7d or 30d"))
			return
		}

		resp, err := h.buildStats(r.Context(), site, period, from, now)
		if err != nil {
			h.log.Error(r.Context(), "stats query failed", slog.F("site", site), slog.Error(err))
			utils.WriteErrorResponse(w, http.StatusInternalServerError, fmt.Errorf("error computing stats"))
			return
		}

		utils.WriteJSONResponse(w, http.StatusOK, resp)
	}
}

func (h *StatsHandler) buildStats(ctx context.Context, site, period string, from, to time.Time) (*models.StatsResponse, error) {
	resp := &models.StatsResponse{
		Site:      site,
		Period:    period,
		Countries: map[string]int64{},
		Devices:   map[string]int64{},
		TopPages:  []models.PageCount{},
	}

	err := h.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE is_bot = FALSE),
			COUNT(DISTINCT visitor_hash) FILTER (WHERE is_bot = FALSE),
			COUNT(*) FILTER (WHERE is_bot = TRUE)
		FROM page_views
		WHERE site = $1 AND timestamp >= $2 AND timestamp < $3`,
		site, from, to,
	).Scan(&resp.TotalViews, &resp.UniqueVisitors, &resp.BotViews)
	if err != nil {
		return nil, fmt.Errorf("error counting views: %w", err)
	}

	err = h.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(AVG(CASE WHEN is_bounce THEN 1.0 ELSE 0.0 END), 0),
			COALESCE(AVG(duration_seconds) FILTER (WHERE ended_at IS NOT NULL), 0)
		FROM sessions
		WHERE site = $1 AND started_at >= $2 AND started_at < $3`,
		site, from, to,
	).Scan(&resp.Sessions, &resp.BounceRate, &resp.AvgDuration)
	if err != nil {
		return nil, fmt.Errorf("error counting sessions: %w", err)
	}

	rows, err := h.db.QueryContext(ctx, `
		SELECT url, COUNT(*) AS views
		FROM page_views
		WHERE site = $1 AND timestamp >= $2 AND timestamp < $3 AND is_bot = FALSE
		GROUP BY url
		ORDER BY views DESC, url ASC
		LIMIT $4`,
		site, from, to, h.cfg.TopPagesLimit,
	)
	if err != nil {
		return nil, fmt.Errorf("error querying top pages: %w", err)
	}
	for rows.Next() {
		var pc models.PageCount
		if err := rows.Scan(&pc.Key, &pc.Views); err != nil {
			rows.Close()
			return nil, fmt.Errorf("error scanning top pages: %w", err)
		}
		resp.TopPages = append(resp.TopPages, pc)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading top pages: %w", err)
	}

	rows, err = h.db.QueryContext(ctx, `
		SELECT country, device_type, COUNT(*)
		FROM page_views
		WHERE site = $1 AND timestamp >= $2 AND timestamp < $3 AND is_bot = FALSE
		GROUP BY country, device_type`,
		site, from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("error querying breakdowns: %w", err)
	}
	for rows.Next() {
		var country, device string
		var count int64
		if err := rows.Scan(&country, &device, &count); err != nil {
			rows.Close()
			return nil, fmt.Errorf("error scanning breakdowns: %w", err)
		}
		resp.Countries[country] += count
		resp.Devices[device] += count
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading breakdowns: %w", err)
	}

	rows, err = h.db.QueryContext(ctx, `
		SELECT timestamp, url, country, device_type, browser
		FROM page_views
		WHERE site = $1 AND timestamp >= $2 AND timestamp < $3 AND is_bot = FALSE
		ORDER BY timestamp DESC
		LIMIT $4`,
		site, from, to, recentVisitorLimit,
	)
	if err != nil {
		return nil, fmt.Errorf("error querying recent visitors: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var rv models.RecentVisitor
		if err := rows.Scan(&rv.Timestamp, &rv.URL, &rv.Country, &rv.DeviceType, &rv.Browser); err != nil {
			return nil, fmt.Errorf("error scanning recent visitors: %w", err)
		}
		resp.RecentVisitors = append(resp.RecentVisitors, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading recent visitors: %w", err)
	}

	return resp, nil
}
