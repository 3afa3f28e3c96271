package alert

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Capstone-E1/aquawatch_backend/internal/models"
)

// StatusOpen is the initial status of every alert
const StatusOpen = "OPEN"

// criticalScore marks a non-GOOD observation as critical even when it is only MODERATE
const criticalScore = 50.0

// FromObservation builds an alert for a degraded observation. It returns false for GOOD observations.
func FromObservation(obs models.Observation, now time.Time) (models.Alert, bool) {
	if obs.Status == models.StatusGood {
		return models.Alert{}, false
	}

	severity := models.SeverityWarning
	title := "Degradation of water quality"
	if obs.Status == models.StatusBad || obs.Score < criticalScore {
		severity = models.SeverityCritical
		title = "Critical water quality issue"
	}

	return models.Alert{
		ID:         uuid.NewString(),
		StationID:  obs.StationID,
		SourceID:   obs.ID,
		SourceType: models.AlertSourceObservation,
		Type:       models.AlertThresholdBreach,
		Severity:   severity,
		Status:     StatusOpen,
		Title:      title,
		Message:    fmt.Sprintf("Quality status: %s, score=%.2f. Details: %s", obs.Status, obs.Score, obs.Details),
		Score:      obs.Score,
		EventTime:  obs.Timestamp,
		CreatedAt:  now,
	}, true
}

// FromForecast builds a warning when a forecast predicts BAD quality.
func FromForecast(f models.Forecast, now time.Time) (models.Alert, bool) {
	if f.PredictedStatus != models.StatusBad {
		return models.Alert{}, false
	}

	return models.Alert{
		ID:         uuid.NewString(),
		StationID:  f.StationID,
		SourceID:   f.ID,
		SourceType: models.AlertSourceForecast,
		Type:       models.AlertForecastRisk,
		Severity:   models.SeverityWarning,
		Status:     StatusOpen,
		Title:      "Predicted high-risk water quality",
		Message: fmt.Sprintf("Forecast (%s): status=%s, score=%.2f at %s",
			f.ModelName, f.PredictedStatus, f.PredictedScore, f.ForecastTime.Format(time.RFC3339)),
		Score:     f.PredictedScore,
		EventTime: f.ForecastTime,
		CreatedAt: now,
	}, true
}
