package models

import (
	"encoding/json"
	"time"
)

// DailyStats is one precomputed per-site, per-day summary row. Breakdown
// columns hold JSON so the dashboard can render them without extra queries.
type DailyStats struct {
	Site           string          `json:"site"`
	Date           time.Time       `json:"date"`
	TotalViews     int64           `json:"totalViews"`
	UniqueVisitors int64           `json:"uniqueVisitors"`
	BotViews       int64           `json:"botViews"`
	TopPages       json.RawMessage `json:"topPages"`
	TopReferrers   json.RawMessage `json:"topReferrers"`
	Countries      json.RawMessage `json:"countries"`
	Devices        json.RawMessage `json:"devices"`
	Browsers       json.RawMessage `json:"browsers"`
	OSes           json.RawMessage `json:"oses"`
	ReferrerTypes  json.RawMessage `json:"referrerTypes"`
	UTMSources     json.RawMessage `json:"utmSources"`
	UTMCampaigns   json.RawMessage `json:"utmCampaigns"`
	BotCategories  json.RawMessage `json:"botCategories"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// PageCount is a url→views pair used in the top-pages/top-referrers lists.
type PageCount struct {
	Key   string `json:"key"`
	Views int64  `json:"views"`
}

// StatsResponse is the /stats payload for a site and period.
type StatsResponse struct {
	Site           string           `json:"site"`
	Period         string           `json:"period"`
	TotalViews     int64            `json:"totalViews"`
	UniqueVisitors int64            `json:"uniqueVisitors"`
	Sessions       int64            `json:"sessions"`
	BounceRate     float64          `json:"bounceRate"`
	AvgDuration    float64          `json:"avgDurationSeconds"`
	BotViews       int64            `json:"botViews"`
	TopPages       []PageCount      `json:"topPages"`
	Countries      map[string]int64 `json:"countries"`
	Devices        map[string]int64 `json:"devices"`
	RecentVisitors []RecentVisitor  `json:"recentVisitors"`
}

// RecentVisitor is one row of the realtime-ish visitor feed (non-bot only).
type RecentVisitor struct {
	Timestamp  time.Time `json:"timestamp"`
	URL        string    `json:"url"`
	Country    string    `json:"country"`
	DeviceType string    `json:"deviceType"`
	Browser    string    `json:"browser"`
}
