package ml

import "github.com/Capstone-E1/aquawatch_backend/internal/models"

const (
	// SatelliteWeight is the share of the composite score taken by remote sensing
	SatelliteWeight = 0.10
	// neutralSatelliteScore is used when no scene covers the station
	neutralSatelliteScore = 80.0
)

// ScoreSatellite reduces a perfect score by a fixed penalty for every metric that
// signals stress. Penalties stack, one per offending metric entry.
func ScoreSatellite(metrics []models.SatelliteMetric) (float64, []string) {
	if len(metrics) == 0 {
		return neutralSatelliteScore, nil
	}

	score := 100.0
	var issues []string
	for _, m := range metrics {
		switch m.Kind {
		case models.MetricNDWIMean:
			if m.Value < 0 {
				score -= 20
				issues = append(issues, "low NDWI / possible water stress")
			}
		case models.MetricTurbidityIndex:
			if m.Value > 0.5 {
				score -= 15
				issues = append(issues, "elevated satellite turbidity")
			}
		case models.MetricWaterCoveragePercent:
			if m.Value < 20 {
				score -= 10
				issues = append(issues, "low water coverage detected")
			}
		}
	}

	return clampScore(score), issues
}
