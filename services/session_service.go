package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mvavassori/picostats/models"
)

type sessionExecer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// SessionService maintains the session state machine. Every transition is a
// single SQL statement so concurrent beacons for the same session token
// can't lose updates to each other.
type SessionService struct {
	db sessionExecer
}

func NewSessionService(db sessionExecer) *SessionService {
	return &SessionService{db: db}
}

// RecordPageview creates the session on first sight of a token and advances
// it on every later pageview. First-touch attribution is written once and
// preserved on conflict; the exit page and activity clock always move
// forward. A closed session is left untouched.
func (s *SessionService) RecordPageview(ctx context.Context, start models.SessionStart, now time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (
			site, session_id, visitor_hash, started_at, last_activity_at,
			pageview_count, event_count, is_bounce, entry_page, exit_page,
			referrer_type, referrer_domain, utm_source, utm_campaign,
			country, region, device_type, browser, os
		) VALUES ($1, $2, $3, $4, $4, 1, 0, TRUE, $5, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (site, session_id) DO UPDATE SET
			last_activity_at = EXCLUDED.last_activity_at,
			exit_page = EXCLUDED.exit_page,
			pageview_count = sessions.pageview_count + 1,
			is_bounce = FALSE
		WHERE sessions.ended_at IS NULL`,
		start.Site, start.SessionID, start.VisitorHash, now, start.Page,
		start.ReferrerType, start.ReferrerDomain, start.UTMSource, start.UTMCampaign,
		start.Country, start.Region, start.DeviceType, start.Browser, start.OS,
	)
	if err != nil {
		return fmt.Errorf("error upserting session: %w", err)
	}
	return nil
}

// RecordHeartbeat refreshes the activity clock of an open session.
// Heartbeats never create a session and never touch the pageview count or
// bounce flag.
func (s *SessionService) RecordHeartbeat(ctx context.Context, site, sessionID string, now time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE sessions SET last_activity_at = $3
		WHERE site = $1 AND session_id = $2 AND ended_at IS NULL`,
		site, sessionID, now,
	)
	if err != nil {
		return fmt.Errorf("error recording heartbeat: %w", err)
	}
	return nil
}

// RecordEvent bumps the event counter of an open session. Like heartbeats,
// events never originate a session.
func (s *SessionService) RecordEvent(ctx context.Context, site, sessionID string, now time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE sessions SET event_count = event_count + 1, last_activity_at = $3
		WHERE site = $1 AND session_id = $2 AND ended_at IS NULL`,
		site, sessionID, now,
	)
	if err != nil {
		return fmt.Errorf("error recording session event: %w", err)
	}
	return nil
}

// EndSession closes a session in response to an explicit end-of-session
// beacon, computing its duration from the start time. Already-closed
// sessions are unaffected.
func (s *SessionService) EndSession(ctx context.Context, site, sessionID string, now time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE sessions SET
			ended_at = $3,
			duration_seconds = EXTRACT(EPOCH FROM ($3::timestamptz - started_at))::int
		WHERE site = $1 AND session_id = $2 AND ended_at IS NULL`,
		site, sessionID, now,
	)
	if err != nil {
		return fmt.Errorf("error ending session: %w", err)
	}
	return nil
}

// SweepTimedOut closes every open session whose last activity is older than
// the timeout. The close time is the last activity, not the sweep time, so
// durations reflect actual engagement. Returns how many sessions were
// closed.
func (s *SessionService) SweepTimedOut(ctx context.Context, timeout time.Duration, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE sessions SET
			ended_at = last_activity_at,
			duration_seconds = EXTRACT(EPOCH FROM (last_activity_at - started_at))::int
		WHERE ended_at IS NULL AND last_activity_at < $1`,
		now.Add(-timeout),
	)
	if err != nil {
		return 0, fmt.Errorf("error sweeping timed-out sessions: %w", err)
	}
	closed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("error counting swept sessions: %w", err)
	}
	return closed, nil
}
