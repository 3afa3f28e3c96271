package ml

import "github.com/Capstone-E1/aquawatch_backend/internal/models"

const (
	trendWindow        = 10
	minTrendConfidence = 0.3
	maxTrendConfidence = 0.95
)

// AnalyzeTrend fits a line through the most recent scores. history is ordered newest
// first, as returned by the observation store.
// Confidence is a bounded heuristic derived from the spread of the scores, not a
// statistical confidence interval.
func AnalyzeTrend(history []float64) models.TrendAnalysis {
	if len(history) == 0 {
		return models.TrendAnalysis{Confidence: minTrendConfidence}
	}

	n := len(history)
	if n > trendWindow {
		n = trendWindow
	}

	// oldest first
	series := make([]float64, n)
	for i := 0; i < n; i++ {
		series[n-1-i] = history[i]
	}

	mean, stdDev := meanStdDev(series)
	return models.TrendAnalysis{
		Slope:      olsSlope(series),
		Mean:       mean,
		StdDev:     stdDev,
		Confidence: clamp(1-stdDev/50, minTrendConfidence, maxTrendConfidence),
	}
}
