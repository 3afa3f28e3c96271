package ml

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Capstone-E1/aquawatch_backend/internal/models"
)

// ErrDataUnavailable is returned when there is no measurement to score
var ErrDataUnavailable = errors.New("no measurement available")

// sensorWeightSum is the total weight of the five in-situ parameters
const sensorWeightSum = 0.90

const defaultRecommendation = "All parameters within norms - maintain routine monitoring"

// Composite is the intermediate result of combining sub-scores
type Composite struct {
	Parameters     models.ParameterScoreSet
	SatelliteScore float64
	Score          float64
	Status         models.QualityStatus
	Issues         []string
	Details        string
}

// ComputeComposite combines sensor and satellite sub-scores into a rounded WQI score.
func ComputeComposite(m models.Measurement, metrics []models.SatelliteMetric) Composite {
	params := ScoreMeasurement(m)
	satScore, satIssues := ScoreSatellite(metrics)

	total := 0.0
	for _, kind := range Parameters {
		total += params.Scores[kind.String()] * kind.Weight()
	}
	total += satScore * SatelliteWeight

	score := roundTo2Decimals(clampScore(total))

	issues := make([]string, 0, len(params.Issues)+len(satIssues))
	issues = append(issues, params.Issues...)
	issues = append(issues, satIssues...)

	return Composite{
		Parameters:     params,
		SatelliteScore: satScore,
		Score:          score,
		Status:         models.StatusFromScore(score),
		Issues:         issues,
		Details:        buildDetails("Measurements", m, score, issues),
	}
}

// ComputeObservation scores the latest measurement of a station together with its
// most recent satellite scene. now becomes the observation timestamp.
func ComputeObservation(m *models.Measurement, metrics []models.SatelliteMetric, now time.Time) (*models.Observation, error) {
	if m == nil {
		return nil, ErrDataUnavailable
	}

	c := ComputeComposite(*m, metrics)
	return &models.Observation{
		StationID: m.StationID,
		Timestamp: now,
		Score:     c.Score,
		Status:    c.Status,
		Details:   c.Details,
	}, nil
}

// PredictQuality scores a what-if set of values using only the sensor weights,
// re-normalized so they sum to one.
func PredictQuality(in models.PredictionInput) models.PredictionResult {
	m := models.Measurement{
		Ph:              in.Ph,
		Temperature:     in.Temperature,
		Turbidity:       in.Turbidity,
		DissolvedOxygen: in.DissolvedOxygen,
		Conductivity:    in.Conductivity,
	}
	params := ScoreMeasurement(m)

	total := 0.0
	for _, kind := range Parameters {
		total += params.Scores[kind.String()] * kind.Weight()
	}
	score := roundTo2Decimals(clampScore(total / sensorWeightSum))

	return models.PredictionResult{
		Score:           score,
		Status:          models.StatusFromScore(score),
		Details:         buildDetails("Analyzed measurements", m, score, params.Issues),
		ParameterScores: params.Scores,
		Recommendations: buildRecommendations(m),
	}
}

func buildRecommendations(m models.Measurement) []string {
	var recs []string

	if ph := m.Ph; ph != nil {
		if *ph < 6.5 {
			recs = append(recs, "Add an alkalizing agent to raise pH")
		} else if *ph > 8.5 {
			recs = append(recs, "Add an acidifying agent to lower pH")
		}
	}
	if m.Temperature != nil && *m.Temperature > 25 {
		recs = append(recs, "Improve shading or water circulation to lower temperature")
	}
	if m.Turbidity != nil && *m.Turbidity > 5 {
		recs = append(recs, "Install filters or settling basins to reduce turbidity")
	}
	if m.DissolvedOxygen != nil && *m.DissolvedOxygen < 8 {
		recs = append(recs, "Install aerators to raise dissolved oxygen")
	}
	if m.Conductivity != nil && *m.Conductivity > 800 {
		recs = append(recs, "Check for saline or mineral pollution sources")
	}

	if len(recs) == 0 {
		recs = append(recs, defaultRecommendation)
	}
	return recs
}

func buildDetails(prefix string, m models.Measurement, score float64, issues []string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%s: pH=%s, Temp=%s°C, Turb=%s NTU, DO=%s mg/L, Cond=%s µS/cm. ",
		prefix,
		formatValue(m.Ph, 2),
		formatValue(m.Temperature, 1),
		formatValue(m.Turbidity, 1),
		formatValue(m.DissolvedOxygen, 1),
		formatValue(m.Conductivity, 0))
	fmt.Fprintf(&sb, "WQI score: %.2f/100. ", score)

	if len(issues) == 0 {
		sb.WriteString("All parameters within norms.")
	} else {
		sb.WriteString("Issues: ")
		sb.WriteString(strings.Join(issues, "; "))
	}
	return sb.String()
}

func formatValue(v *float64, decimals int) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.*f", decimals, *v)
}
