// Package events provides NATS-based fan-out of raised alerts to external
// subscribers (notification bridges, on-call paging, downstream dashboards)
// independent of the read API's own HTTP/WebSocket surfaces.
package events

import "time"

// AlertRaisedEvent is published to NATS whenever the read API persists a new
// alert, mirroring the shape of telemetry.AlertEvent for subscribers that
// have no access to the telemetry store directly.
type AlertRaisedEvent struct {
	EventID    string    `json:"event_id"`
	Timestamp  time.Time `json:"timestamp"`
	Plugin     string    `json:"plugin"`
	MetricName string    `json:"metric_name,omitempty"`
	Severity   string    `json:"severity"`
	Title      string    `json:"title"`
	Message    string    `json:"message,omitempty"`
}

// Severity constants mirror telemetry.AlertSeverity's string values so
// subscribers don't need to import the telemetry package.
const (
	SeverityInfo     = "Info"
	SeverityWarning  = "Warning"
	SeverityCritical = "Critical"
)
