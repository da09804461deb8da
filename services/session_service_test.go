package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvavassori/picostats/models"
)

// fakeResult implements sql.Result for tests.
type fakeResult struct {
	rowsAffected int64
}

func (f *fakeResult) LastInsertId() (int64, error) {
	return 0, errors.New("not implemented")
}

func (f *fakeResult) RowsAffected() (int64, error) {
	return f.rowsAffected, nil
}

// fakeExecer captures statements for assertions.
type fakeExecer struct {
	ExecFn    func(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	lastQuery string
	lastArgs  []interface{}
	calls     int
}

func (f *fakeExecer) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	f.calls++
	f.lastQuery = query
	f.lastArgs = args
	if f.ExecFn != nil {
		return f.ExecFn(ctx, query, args...)
	}
	return &fakeResult{rowsAffected: 1}, nil
}

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func TestRecordPageviewIsSingleUpsert(t *testing.T) {
	t.Parallel()

	db := &fakeExecer{}
	svc := NewSessionService(db)

	err := svc.RecordPageview(context.Background(), models.SessionStart{
		Site:        "example.com",
		SessionID:   "s-1",
		VisitorHash: "abcdef0123456789",
		Page:        "https://example.com/blog",
	}, testNow)
	require.NoError(t, err)

	require.Equal(t, 1, db.calls, "pageview must be one atomic statement")
	assert.Contains(t, db.lastQuery, "INSERT INTO sessions")
	assert.Contains(t, db.lastQuery, "ON CONFLICT (site, session_id) DO UPDATE")
	assert.Contains(t, db.lastQuery, "pageview_count = sessions.pageview_count + 1")
	assert.Contains(t, db.lastQuery, "is_bounce = FALSE")
	// Closed sessions stay closed.
	assert.Contains(t, db.lastQuery, "WHERE sessions.ended_at IS NULL")
	assert.Equal(t, "example.com", db.lastArgs[0])
	assert.Equal(t, "s-1", db.lastArgs[1])
}

func TestRecordHeartbeatNeverCreatesOrCounts(t *testing.T) {
	t.Parallel()

	db := &fakeExecer{}
	svc := NewSessionService(db)

	err := svc.RecordHeartbeat(context.Background(), "example.com", "s-1", testNow)
	require.NoError(t, err)

	require.Equal(t, 1, db.calls)
	assert.NotContains(t, db.lastQuery, "INSERT", "heartbeats never originate a session")
	assert.Contains(t, db.lastQuery, "UPDATE sessions SET last_activity_at")
	assert.NotContains(t, db.lastQuery, "pageview_count")
	assert.NotContains(t, db.lastQuery, "is_bounce")
	assert.Contains(t, db.lastQuery, "ended_at IS NULL")
}

func TestRecordEventBumpsCounterOnly(t *testing.T) {
	t.Parallel()

	db := &fakeExecer{}
	svc := NewSessionService(db)

	err := svc.RecordEvent(context.Background(), "example.com", "s-1", testNow)
	require.NoError(t, err)

	assert.NotContains(t, db.lastQuery, "INSERT")
	assert.Contains(t, db.lastQuery, "event_count = event_count + 1")
	assert.NotContains(t, db.lastQuery, "pageview_count")
}

func TestEndSessionComputesDuration(t *testing.T) {
	t.Parallel()

	db := &fakeExecer{}
	svc := NewSessionService(db)

	err := svc.EndSession(context.Background(), "example.com", "s-1", testNow)
	require.NoError(t, err)

	assert.Contains(t, db.lastQuery, "ended_at = $3")
	assert.Contains(t, db.lastQuery, "duration_seconds = EXTRACT(EPOCH FROM")
	assert.Contains(t, db.lastQuery, "ended_at IS NULL")
}

func TestSweepTimedOut(t *testing.T) {
	t.Parallel()

	db := &fakeExecer{
		ExecFn: func(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
			return &fakeResult{rowsAffected: 7}, nil
		},
	}
	svc := NewSessionService(db)

	closed, err := svc.SweepTimedOut(context.Background(), 30*time.Minute, testNow)
	require.NoError(t, err)
	assert.Equal(t, int64(7), closed)

	// Closed at last activity, not at sweep time.
	assert.Contains(t, db.lastQuery, "ended_at = last_activity_at")
	require.Len(t, db.lastArgs, 1)
	assert.Equal(t, testNow.Add(-30*time.Minute), db.lastArgs[0])
}

func TestSessionServicePropagatesErrors(t *testing.T) {
	t.Parallel()

	db := &fakeExecer{
		ExecFn: func(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
			return nil, errors.New("connection refused")
		},
	}
	svc := NewSessionService(db)

	err := svc.RecordPageview(context.Background(), models.SessionStart{Site: "example.com", SessionID: "s-1"}, testNow)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "connection refused"))
}
