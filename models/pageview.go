package models

import "time"

// PageView represents a stored pageview row.
type PageView struct {
	ID             int64     `json:"id"`
	Site           string    `json:"site"`
	Timestamp      time.Time `json:"timestamp"`
	URL            string    `json:"url"`
	PageTitle      string    `json:"pageTitle"`
	Referrer       string    `json:"referrer"`
	ReferrerType   string    `json:"referrerType"`
	ReferrerDomain string    `json:"referrerDomain"`
	UTMSource      string    `json:"utmSource"`
	UTMMedium      string    `json:"utmMedium"`
	UTMCampaign    string    `json:"utmCampaign"`
	UTMTerm        string    `json:"utmTerm"`
	UTMContent     string    `json:"utmContent"`
	Country        string    `json:"country"`
	Region         string    `json:"region"`
	City           string    `json:"city"`
	Latitude       *float64  `json:"latitude,omitempty"`
	Longitude      *float64  `json:"longitude,omitempty"`
	DeviceType     string    `json:"deviceType"`
	Browser        string    `json:"browser"`
	BrowserVersion string    `json:"browserVersion"`
	OS             string    `json:"os"`
	OSVersion      string    `json:"osVersion"`
	ScreenWidth    int       `json:"screenWidth"`
	ScreenHeight   int       `json:"screenHeight"`
	Language       string    `json:"language"`
	IsBot          bool      `json:"isBot"`
	BotName        string    `json:"botName"`
	BotCategory    string    `json:"botCategory"`
	VisitorHash    string    `json:"visitorHash"`
	SessionID      string    `json:"sessionId"`
}

// PageViewInsert represents the structure for inserting new pageview rows.
// Rows are immutable once written; the retention cleaner deletes them after
// the configured window.
type PageViewInsert struct {
	Site           string
	Timestamp      time.Time
	URL            string
	PageTitle      string
	Referrer       string
	ReferrerType   string
	ReferrerDomain string
	UTMSource      string
	UTMMedium      string
	UTMCampaign    string
	UTMTerm        string
	UTMContent     string
	Country        string
	Region         string
	City           string
	Latitude       *float64
	Longitude      *float64
	DeviceType     string
	Browser        string
	BrowserVersion string
	OS             string
	OSVersion      string
	ScreenWidth    int
	ScreenHeight   int
	Language       string
	IsBot          bool
	BotName        string
	BotCategory    string
	VisitorHash    string
	SessionID      string
}
