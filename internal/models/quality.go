package models

import "time"

// QualityStatus is the categorical rating attached to a WQI score
type QualityStatus string

const (
	StatusGood     QualityStatus = "GOOD"
	StatusModerate QualityStatus = "MODERATE"
	StatusBad      QualityStatus = "BAD"
)

// Score thresholds for status classification
const (
	GoodThreshold     = 70.0
	ModerateThreshold = 40.0
)

// StatusFromScore classifies a WQI score.
func StatusFromScore(score float64) QualityStatus {
	switch {
	case score >= GoodThreshold:
		return StatusGood
	case score >= ModerateThreshold:
		return StatusModerate
	default:
		return StatusBad
	}
}

// Observation is a computed water quality index for a station at a point in time
type Observation struct {
	ID        int64         `json:"id,omitempty"`
	StationID int64         `json:"station_id"`
	Timestamp time.Time     `json:"timestamp"`
	Score     float64       `json:"score"`
	Status    QualityStatus `json:"status"`
	Details   string        `json:"details"`
}

// Forecast is a projected WQI score at ForecastTime
type Forecast struct {
	ID              int64         `json:"id,omitempty"`
	StationID       int64         `json:"station_id"`
	CreatedAt       time.Time     `json:"created_at"`
	ForecastTime    time.Time     `json:"forecast_time"`
	HorizonHours    int           `json:"horizon_hours"`
	PredictedScore  float64       `json:"predicted_score"`
	PredictedStatus QualityStatus `json:"predicted_status"`
	ModelName       string        `json:"model_name"`
	ModelVersion    string        `json:"model_version"`
	Confidence      float64       `json:"confidence"`
}

// ParameterScoreSet holds per-parameter sub-scores and the issues raised while scoring
type ParameterScoreSet struct {
	Scores map[string]float64 `json:"scores"`
	Issues []string           `json:"issues"`
}

// TrendAnalysis summarizes a linear fit over recent WQI scores
type TrendAnalysis struct {
	Slope      float64 `json:"slope"`
	Mean       float64 `json:"mean"`
	StdDev     float64 `json:"std_dev"`
	Confidence float64 `json:"confidence"`
}
