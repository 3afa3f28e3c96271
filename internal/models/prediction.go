package models

import "time"

// PredictionInput is a what-if request scored without satellite data
type PredictionInput struct {
	StationID       *int64   `json:"station_id,omitempty"`
	Ph              *float64 `json:"ph"`
	Temperature     *float64 `json:"temperature"`
	Turbidity       *float64 `json:"turbidity"`
	DissolvedOxygen *float64 `json:"dissolved_oxygen"`
	Conductivity    *float64 `json:"conductivity"`
}

// PredictionResult is the outcome of scoring a PredictionInput
type PredictionResult struct {
	Score           float64            `json:"score"`
	Status          QualityStatus      `json:"status"`
	Details         string             `json:"details"`
	ParameterScores map[string]float64 `json:"parameter_scores"`
	Recommendations []string           `json:"recommendations"`
}

// PredictionRecord is a persisted PredictionResult with its inputs
type PredictionRecord struct {
	ID              int64              `json:"id,omitempty"`
	StationID       int64              `json:"station_id"`
	Ph              *float64           `json:"ph,omitempty"`
	Temperature     *float64           `json:"temperature,omitempty"`
	Turbidity       *float64           `json:"turbidity,omitempty"`
	DissolvedOxygen *float64           `json:"dissolved_oxygen,omitempty"`
	Conductivity    *float64           `json:"conductivity,omitempty"`
	Score           float64            `json:"score"`
	Status          QualityStatus      `json:"status"`
	Details         string             `json:"details"`
	ParameterScores map[string]float64 `json:"parameter_scores"`
	Recommendations []string           `json:"recommendations"`
	CreatedAt       time.Time          `json:"created_at"`
}

// NewPredictionRecord pairs an input with its result.
func NewPredictionRecord(stationID int64, in PredictionInput, res PredictionResult, at time.Time) PredictionRecord {
	return PredictionRecord{
		StationID:       stationID,
		Ph:              in.Ph,
		Temperature:     in.Temperature,
		Turbidity:       in.Turbidity,
		DissolvedOxygen: in.DissolvedOxygen,
		Conductivity:    in.Conductivity,
		Score:           res.Score,
		Status:          res.Status,
		Details:         res.Details,
		ParameterScores: res.ParameterScores,
		Recommendations: res.Recommendations,
		CreatedAt:       at,
	}
}
