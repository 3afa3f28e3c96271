package ml

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/Capstone-E1/aquawatch_backend/internal/models"
)

func idealMeasurement() *models.Measurement {
	return &models.Measurement{
		StationID:       1,
		Timestamp:       time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC),
		Ph:              models.Float(7.0),
		Temperature:     models.Float(20.0),
		Turbidity:       models.Float(0.5),
		DissolvedOxygen: models.Float(9.0),
		Conductivity:    models.Float(350.0),
	}
}

func TestScoreSatellite(t *testing.T) {
	tests := []struct {
		name       string
		metrics    []models.SatelliteMetric
		expected   float64
		issueCount int
	}{
		{"no metrics", nil, 80, 0},
		{"healthy scene", []models.SatelliteMetric{
			{Kind: models.MetricNDWIMean, Value: 0.4},
			{Kind: models.MetricTurbidityIndex, Value: 0.2},
			{Kind: models.MetricWaterCoveragePercent, Value: 60},
		}, 100, 0},
		{"negative ndwi", []models.SatelliteMetric{{Kind: models.MetricNDWIMean, Value: -0.1}}, 80, 1},
		{"all penalties", []models.SatelliteMetric{
			{Kind: models.MetricNDWIMean, Value: -0.1},
			{Kind: models.MetricTurbidityIndex, Value: 0.6},
			{Kind: models.MetricWaterCoveragePercent, Value: 10},
		}, 55, 3},
		{"penalties stack per entry", []models.SatelliteMetric{
			{Kind: models.MetricNDWIMean, Value: -0.1},
			{Kind: models.MetricNDWIMean, Value: -0.3},
		}, 60, 2},
		{"other kinds ignored", []models.SatelliteMetric{
			{Kind: models.MetricMNDWIMean, Value: -1},
			{Kind: models.MetricOther, Value: -1},
		}, 100, 0},
		{"clamped at zero", []models.SatelliteMetric{
			{Kind: models.MetricNDWIMean, Value: -1}, {Kind: models.MetricNDWIMean, Value: -1},
			{Kind: models.MetricNDWIMean, Value: -1}, {Kind: models.MetricNDWIMean, Value: -1},
			{Kind: models.MetricNDWIMean, Value: -1}, {Kind: models.MetricNDWIMean, Value: -1},
		}, 0, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, issues := ScoreSatellite(tt.metrics)
			if score != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, score)
			}
			if len(issues) != tt.issueCount {
				t.Errorf("Expected %d issues, got %v", tt.issueCount, issues)
			}
		})
	}
}

func TestComputeObservation_Ideal(t *testing.T) {
	now := time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)

	obs, err := ComputeObservation(idealMeasurement(), nil, now)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if !approxEqual(obs.Score, 98.0) {
		t.Errorf("Expected score 98 with neutral satellite, got %v", obs.Score)
	}
	if obs.Status != models.StatusGood {
		t.Errorf("Expected GOOD, got %v", obs.Status)
	}
	if obs.StationID != 1 || !obs.Timestamp.Equal(now) {
		t.Errorf("Unexpected station/timestamp: %d %v", obs.StationID, obs.Timestamp)
	}

	expected := "Measurements: pH=7.00, Temp=20.0°C, Turb=0.5 NTU, DO=9.0 mg/L, Cond=350 µS/cm. WQI score: 98.00/100. All parameters within norms."
	if obs.Details != expected {
		t.Errorf("Unexpected details:\n got %q\nwant %q", obs.Details, expected)
	}
}

func TestComputeObservation_WithSatelliteIssues(t *testing.T) {
	m := idealMeasurement()
	m.Ph = models.Float(6.0)
	metrics := []models.SatelliteMetric{{Kind: models.MetricTurbidityIndex, Value: 0.9}}

	obs, err := ComputeObservation(m, metrics, time.Now())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// 60*0.20 + 100*0.70 + 85*0.10
	if !approxEqual(obs.Score, 90.5) {
		t.Errorf("Expected 90.5, got %v", obs.Score)
	}
	idxPh := strings.Index(obs.Details, "pH slightly acidic")
	idxSat := strings.Index(obs.Details, "elevated satellite turbidity")
	if idxPh < 0 || idxSat < 0 || idxPh > idxSat {
		t.Errorf("Expected pH issue before satellite issue, got %q", obs.Details)
	}
	if !strings.Contains(obs.Details, "Issues: ") {
		t.Errorf("Expected issue list in details, got %q", obs.Details)
	}
}

func TestComputeObservation_AbsentValues(t *testing.T) {
	m := &models.Measurement{StationID: 3}

	obs, err := ComputeObservation(m, nil, time.Now())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !approxEqual(obs.Score, 53.0) {
		t.Errorf("Expected 53 for all-neutral inputs, got %v", obs.Score)
	}
	if obs.Status != models.StatusModerate {
		t.Errorf("Expected MODERATE, got %v", obs.Status)
	}
	if !strings.Contains(obs.Details, "pH=n/a") {
		t.Errorf("Expected n/a for absent pH, got %q", obs.Details)
	}
}

func TestComputeObservation_NaNParameter(t *testing.T) {
	m := idealMeasurement()
	m.Turbidity = models.Float(math.NaN())

	obs, err := ComputeObservation(m, nil, time.Now())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !approxEqual(obs.Score, 88.0) {
		t.Errorf("Expected NaN turbidity to score as absent (88), got %v", obs.Score)
	}
	if obs.Status != models.StatusGood {
		t.Errorf("Expected GOOD, got %v", obs.Status)
	}
}

func TestComputeObservation_NoMeasurement(t *testing.T) {
	obs, err := ComputeObservation(nil, nil, time.Now())
	if !errors.Is(err, ErrDataUnavailable) {
		t.Errorf("Expected ErrDataUnavailable, got %v", err)
	}
	if obs != nil {
		t.Errorf("Expected nil observation, got %+v", obs)
	}
}

func TestComputeObservation_Idempotent(t *testing.T) {
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	m := idealMeasurement()
	m.Turbidity = models.Float(7.3)
	metrics := []models.SatelliteMetric{{Kind: models.MetricWaterCoveragePercent, Value: 12}}

	a, _ := ComputeObservation(m, metrics, now)
	b, _ := ComputeObservation(m, metrics, now)
	if *a != *b {
		t.Errorf("Expected identical observations, got %+v and %+v", a, b)
	}
}

func TestPredictQuality_Good(t *testing.T) {
	res := PredictQuality(models.PredictionInput{
		Ph:              models.Float(7.0),
		Temperature:     models.Float(20.0),
		Turbidity:       models.Float(0.5),
		DissolvedOxygen: models.Float(9.0),
		Conductivity:    models.Float(350.0),
	})

	if res.Score < 70 {
		t.Errorf("Expected score >= 70, got %v", res.Score)
	}
	if res.Status != models.StatusGood {
		t.Errorf("Expected GOOD, got %v", res.Status)
	}
	if len(res.Recommendations) != 1 || res.Recommendations[0] != defaultRecommendation {
		t.Errorf("Expected only the default recommendation, got %v", res.Recommendations)
	}
	if len(res.ParameterScores) != 5 {
		t.Errorf("Expected 5 parameter scores, got %v", res.ParameterScores)
	}
}

func TestPredictQuality_Bad(t *testing.T) {
	res := PredictQuality(models.PredictionInput{
		Ph:              models.Float(5.0),
		Temperature:     models.Float(35.0),
		Turbidity:       models.Float(15.0),
		DissolvedOxygen: models.Float(3.0),
		Conductivity:    models.Float(1000.0),
	})

	if res.Status != models.StatusBad {
		t.Errorf("Expected BAD, got %v (score %v)", res.Status, res.Score)
	}
	if !approxEqual(res.Score, 19.58) {
		t.Errorf("Expected 19.58, got %v", res.Score)
	}

	keywords := []string{"pH", "temperature", "turbidity", "dissolved oxygen", "pollution"}
	if len(res.Recommendations) != len(keywords) {
		t.Fatalf("Expected %d recommendations, got %v", len(keywords), res.Recommendations)
	}
	for i, kw := range keywords {
		if !strings.Contains(res.Recommendations[i], kw) {
			t.Errorf("Recommendation %d = %q, expected it to mention %q", i, res.Recommendations[i], kw)
		}
	}
}

func TestPredictQuality_ExcludesSatellite(t *testing.T) {
	// all absent: every sensor scores 50, re-normalized weights keep it at 50
	res := PredictQuality(models.PredictionInput{})
	if !approxEqual(res.Score, 50) {
		t.Errorf("Expected 50, got %v", res.Score)
	}
	if res.Status != models.StatusModerate {
		t.Errorf("Expected MODERATE, got %v", res.Status)
	}
}
