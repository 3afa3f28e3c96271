package ml

import (
	"time"

	"github.com/Capstone-E1/aquawatch_backend/internal/models"
)

// ModelKind selects how a forecast is projected
type ModelKind int

const (
	ModelSimpleDegradation ModelKind = iota
	ModelTrendRegression
)

const (
	// MinTrendHistory is the number of past scores needed before the trend model is used
	MinTrendHistory = 5
	// StaleAfter is how old an observation may be before a forecast must recompute it
	StaleAfter = time.Hour

	dailyDegradation   = 3.0
	fallbackConfidence = 0.5
)

// Tag returns the model name and version stored on a forecast
func (k ModelKind) Tag() (name, version string) {
	switch k {
	case ModelTrendRegression:
		return "TrendRegressionModel", "v2.0"
	default:
		return "SimpleDegradationModel", "v1.0"
	}
}

// SelectModel picks the trend model once enough history exists.
func SelectModel(historyLen int) ModelKind {
	if historyLen >= MinTrendHistory {
		return ModelTrendRegression
	}
	return ModelSimpleDegradation
}

// ProjectForecast projects latestScore horizonHours ahead of now. history holds past
// composite scores newest first.
func ProjectForecast(stationID int64, latestScore float64, history []float64, horizonHours int, now time.Time) models.Forecast {
	h := float64(horizonHours)
	degradation := h / 24 * dailyDegradation

	kind := SelectModel(len(history))

	var predicted, confidence float64
	switch kind {
	case ModelTrendRegression:
		trend := AnalyzeTrend(history)
		adj := clamp(trend.Slope*h/6, -20, 10)
		predicted = latestScore + adj - degradation
		confidence = trend.Confidence
	default:
		predicted = latestScore - degradation
		confidence = fallbackConfidence
	}

	forecastTime := now.Add(time.Duration(horizonHours) * time.Hour)
	predicted = roundTo2Decimals(clampScore(predicted + seasonalAdjustment(forecastTime.Month())))

	name, version := kind.Tag()
	return models.Forecast{
		StationID:       stationID,
		CreatedAt:       now,
		ForecastTime:    forecastTime,
		HorizonHours:    horizonHours,
		PredictedScore:  predicted,
		PredictedStatus: models.StatusFromScore(predicted),
		ModelName:       name,
		ModelVersion:    version,
		Confidence:      confidence,
	}
}

// summer and autumn warming lower the expected score
func seasonalAdjustment(month time.Month) float64 {
	switch {
	case month >= time.June && month <= time.August:
		return -2
	case month >= time.September && month <= time.November:
		return -1
	default:
		return 0
	}
}

// IsStale reports whether obs is missing or too old to project from.
func IsStale(obs *models.Observation, now time.Time) bool {
	if obs == nil {
		return true
	}
	return now.Sub(obs.Timestamp) > StaleAfter
}
