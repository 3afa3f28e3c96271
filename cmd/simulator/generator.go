package main

import (
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/Capstone-E1/aquawatch_backend/internal/models"
)

// Generator produces synthetic station readings. A station drifts from clean
// water toward polluted water as its pollution level rises.
type Generator struct {
	rng       *rand.Rand
	pollution map[int64]float64
	drift     float64
}

// NewGenerator creates a generator. drift is the pollution change per step, in [0,1].
func NewGenerator(rng *rand.Rand, drift float64) *Generator {
	return &Generator{
		rng:       rng,
		pollution: make(map[int64]float64),
		drift:     drift,
	}
}

// Pollution returns the current pollution level of a station in [0,1]
func (g *Generator) Pollution(stationID int64) float64 {
	return g.pollution[stationID]
}

func (g *Generator) step(stationID int64) float64 {
	p := g.pollution[stationID] + g.drift*(g.rng.Float64()*2-0.5)
	p = math.Max(0, math.Min(1, p))
	g.pollution[stationID] = p
	return p
}

func (g *Generator) noisy(clean, polluted, p, spread float64) *float64 {
	v := clean + (polluted-clean)*p + g.rng.NormFloat64()*spread
	return &v
}

// Measurement generates the next reading for a station
func (g *Generator) Measurement(stationID int64, now time.Time) models.MeasurementData {
	p := g.step(stationID)
	ts := now.UTC()

	data := models.MeasurementData{
		Timestamp:       &ts,
		Ph:              g.noisy(7.2, 5.5, p, 0.1),
		Temperature:     g.noisy(18, 30, p, 0.5),
		Turbidity:       g.noisy(0.8, 12, p, 0.2),
		DissolvedOxygen: g.noisy(9, 3.5, p, 0.2),
		Conductivity:    g.noisy(350, 950, p, 10),
	}
	clampMeasurement(&data)
	return data
}

// Scene generates a satellite scene matching the station's pollution level
func (g *Generator) Scene(stationID int64, now time.Time) models.SatelliteSceneData {
	p := g.Pollution(stationID)
	return models.SatelliteSceneData{
		SceneID:   "SIM_" + uuid.NewString(),
		SceneTime: now.UTC(),
		Metrics: []models.SatelliteMetricData{
			{Kind: string(models.MetricNDWIMean), Value: *g.noisy(0.4, -0.3, p, 0.02)},
			{Kind: string(models.MetricWaterCoveragePercent), Value: math.Max(0, math.Min(100, *g.noisy(85, 30, p, 2))), Unit: "%"},
			{Kind: string(models.MetricTurbidityIndex), Value: *g.noisy(0.1, 0.8, p, 0.02)},
		},
	}
}

// clampMeasurement keeps generated values inside the ranges the backend accepts
func clampMeasurement(d *models.MeasurementData) {
	clamp := func(v *float64, lo, hi float64) {
		*v = math.Max(lo, math.Min(hi, *v))
	}
	clamp(d.Ph, 0, 14)
	clamp(d.Temperature, -5, 60)
	clamp(d.Turbidity, 0, math.MaxFloat64)
	clamp(d.DissolvedOxygen, 0, math.MaxFloat64)
	clamp(d.Conductivity, 0, math.MaxFloat64)
}
