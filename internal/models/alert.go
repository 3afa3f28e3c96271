package models

import "time"

type AlertSourceType string

const (
	AlertSourceObservation AlertSourceType = "OBSERVATION"
	AlertSourceForecast    AlertSourceType = "FORECAST"
)

type AlertType string

const (
	AlertThresholdBreach AlertType = "THRESHOLD_BREACH"
	AlertForecastRisk    AlertType = "FORECAST_RISK"
)

type AlertSeverity string

const (
	SeverityCritical AlertSeverity = "CRITICAL"
	SeverityWarning  AlertSeverity = "WARNING"
)

// Alert is raised when an observation or forecast indicates degraded water quality
type Alert struct {
	ID         string          `json:"id"`
	StationID  int64           `json:"station_id"`
	SourceID   int64           `json:"source_id,omitempty"`
	SourceType AlertSourceType `json:"source_type"`
	Type       AlertType       `json:"type"`
	Severity   AlertSeverity   `json:"severity"`
	Status     string          `json:"status"`
	Title      string          `json:"title"`
	Message    string          `json:"message"`
	Score      float64         `json:"score"`
	EventTime  time.Time       `json:"event_time"`
	CreatedAt  time.Time       `json:"created_at"`
}
