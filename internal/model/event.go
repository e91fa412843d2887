// internal/model/event.go
package model

import (
	"time"
)

// EventType represents the type of a link event
type EventType string

const (
	EventInfo            EventType = "INFO"
	EventWarning         EventType = "WARNING"
	EventError           EventType = "ERROR"
	EventSuccess         EventType = "SUCCESS"
	EventDebug           EventType = "DEBUG"
	EventProgressPercent EventType = "PROGRESS_PERCENT"
	EventProgressVisible EventType = "PROGRESS_VISIBLE"
	EventConnectionState EventType = "CONNECTION_STATE"
	EventDisconnect      EventType = "DISCONNECT"
)

// LinkEvent is a status report emitted by the device link.
// Seq increases by one per emitted event and gives the delivery order.
type LinkEvent struct {
	Seq       uint64    `json:"seq"`
	Type      EventType `json:"type"`
	Message   string    `json:"message,omitempty"`
	Percent   int       `json:"percent,omitempty"`
	Visible   bool      `json:"visible,omitempty"`
	Connected bool      `json:"connected,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// IsLogLine reports whether the event carries operator-readable text
func (e LinkEvent) IsLogLine() bool {
	switch e.Type {
	case EventInfo, EventWarning, EventError, EventSuccess, EventDebug:
		return true
	default:
		return false
	}
}

// Severity maps the event to INFO, WARNING or ERROR
func (e LinkEvent) Severity() string {
	switch e.Type {
	case EventError, EventDisconnect:
		return "ERROR"
	case EventWarning:
		return "WARNING"
	default:
		return "INFO"
	}
}
