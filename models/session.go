package models

import "time"

// Session is one visitor session, unique per (site, session_id). Created on
// the first pageview carrying a session token, mutated in place by later
// beacons, closed explicitly or by the timeout sweep.
type Session struct {
	ID             int64      `json:"id"`
	Site           string     `json:"site"`
	SessionID      string     `json:"sessionId"`
	VisitorHash    string     `json:"visitorHash"`
	StartedAt      time.Time  `json:"startedAt"`
	LastActivityAt time.Time  `json:"lastActivityAt"`
	EndedAt        *time.Time `json:"endedAt,omitempty"`
	DurationSecs   int        `json:"durationSeconds"`
	PageviewCount  int        `json:"pageviewCount"`
	EventCount     int        `json:"eventCount"`
	IsBounce       bool       `json:"isBounce"`
	EntryPage      string     `json:"entryPage"`
	ExitPage       string     `json:"exitPage"`
	ReferrerType   string     `json:"referrerType"`
	ReferrerDomain string     `json:"referrerDomain"`
	UTMSource      string     `json:"utmSource"`
	UTMCampaign    string     `json:"utmCampaign"`
	Country        string     `json:"country"`
	Region         string     `json:"region"`
	DeviceType     string     `json:"deviceType"`
	Browser        string     `json:"browser"`
	OS             string     `json:"os"`
}

// SessionStart carries the first-touch attribution captured when a session
// row is created. Later pageviews never overwrite these fields.
type SessionStart struct {
	Site           string
	SessionID      string
	VisitorHash    string
	Page           string
	ReferrerType   string
	ReferrerDomain string
	UTMSource      string
	UTMCampaign    string
	Country        string
	Region         string
	DeviceType     string
	Browser        string
	OS             string
}
