package models

// Beacon is the decoded payload of one tracking request, either from query
// parameters (legacy GET pixel) or a JSON POST body. Field names mirror the
// short keys the tracking script sends.
type Beacon struct {
	Site          string `json:"site"`
	URL           string `json:"url"`
	Title         string `json:"title"`
	Referrer      string `json:"referrer"`
	ViewportWidth int    `json:"w"`
	ScreenWidth   int    `json:"sw"`
	ScreenHeight  int    `json:"sh"`
	Language      string `json:"lang"`
	SessionID     string `json:"sid"`
	Type          string `json:"type"` // pageview | heartbeat | event | session_end

	// Event beacons only.
	EventType string `json:"event_type"`
	EventName string `json:"event_name"`
	EventData string `json:"event_data"`
}

// Beacon types understood by the collector.
const (
	BeaconPageview   = "pageview"
	BeaconHeartbeat  = "heartbeat"
	BeaconEvent      = "event"
	BeaconSessionEnd = "session_end"
)
