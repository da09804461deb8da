package models

import (
	"encoding/json"
	"time"
)

// Event is an auto-tracked or custom event (click, scroll, form, error, custom).
type Event struct {
	ID          int64           `json:"id"`
	Site        string          `json:"site"`
	Timestamp   time.Time       `json:"timestamp"`
	SessionID   string          `json:"sessionId"`
	VisitorHash string          `json:"visitorHash"`
	EventType   string          `json:"eventType"`
	EventName   string          `json:"eventName"`
	EventData   json.RawMessage `json:"eventData,omitempty"`
	PageURL     string          `json:"pageUrl"`
	Country     string          `json:"country"`
	DeviceType  string          `json:"deviceType"`
}

type EventInsert struct {
	Site        string
	Timestamp   time.Time
	SessionID   string
	VisitorHash string
	EventType   string
	EventName   string
	EventData   json.RawMessage
	PageURL     string
	Country     string
	DeviceType  string
}
