package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Capstone-E1/aquawatch_backend/config"
	"github.com/Capstone-E1/aquawatch_backend/internal/ml"
	"github.com/Capstone-E1/aquawatch_backend/internal/models"
	"github.com/Capstone-E1/aquawatch_backend/internal/store"
)

var fixedNow = time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)

type recordingDispatcher struct {
	mu     sync.Mutex
	alerts []models.Alert
}

func (d *recordingDispatcher) Dispatch(_ context.Context, a models.Alert) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.alerts = append(d.alerts, a)
	return nil
}

func (d *recordingDispatcher) sent() []models.Alert {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]models.Alert(nil), d.alerts...)
}

type recordingHub struct {
	mu           sync.Mutex
	measurements int
	observations int
	forecasts    int
	alerts       int
}

func (h *recordingHub) BroadcastMeasurement(*models.Measurement) {
	h.mu.Lock()
	h.measurements++
	h.mu.Unlock()
}

func (h *recordingHub) BroadcastObservation(*models.Observation) {
	h.mu.Lock()
	h.observations++
	h.mu.Unlock()
}

func (h *recordingHub) BroadcastForecast(*models.Forecast) {
	h.mu.Lock()
	h.forecasts++
	h.mu.Unlock()
}

func (h *recordingHub) BroadcastAlert(*models.Alert) {
	h.mu.Lock()
	h.alerts++
	h.mu.Unlock()
}

type fixture struct {
	store     *store.Store
	alerts    *recordingDispatcher
	hub       *recordingHub
	quality   *QualityService
	forecasts *ForecastService
	ingest    *IngestService
}

func newFixture(t *testing.T, autoCompute bool) *fixture {
	t.Helper()
	logger := zap.NewNop()
	f := &fixture{
		store:  store.NewStore(100),
		alerts: &recordingDispatcher{},
		hub:    &recordingHub{},
	}
	clock := func() time.Time { return fixedNow }

	f.quality = NewQualityService(f.store, f.alerts, f.hub, logger)
	f.quality.SetClock(clock)
	f.forecasts = NewForecastService(f.store, f.quality, f.alerts, f.hub, config.Default().Forecast, logger)
	f.forecasts.SetClock(clock)
	f.ingest = NewIngestService(f.store, f.quality, f.hub, autoCompute, logger)
	f.ingest.SetClock(clock)
	return f
}

func idealMeasurement(stationID int64) *models.Measurement {
	return &models.Measurement{
		StationID:       stationID,
		Timestamp:       fixedNow.Add(-10 * time.Minute),
		Ph:              models.Float(7.0),
		Temperature:     models.Float(20.0),
		Turbidity:       models.Float(0.5),
		DissolvedOxygen: models.Float(9.0),
		Conductivity:    models.Float(350.0),
	}
}

func pollutedMeasurement(stationID int64) *models.Measurement {
	return &models.Measurement{
		StationID:       stationID,
		Timestamp:       fixedNow.Add(-10 * time.Minute),
		Ph:              models.Float(5.0),
		Temperature:     models.Float(35.0),
		Turbidity:       models.Float(15.0),
		DissolvedOxygen: models.Float(3.0),
		Conductivity:    models.Float(1000.0),
	}
}

func TestQualityService_ComputeCurrentQuality(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	require.NoError(t, f.store.AddMeasurement(ctx, idealMeasurement(1)))

	obs, err := f.quality.ComputeCurrentQuality(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 98.0, obs.Score)
	assert.Equal(t, models.StatusGood, obs.Status)
	assert.Equal(t, fixedNow, obs.Timestamp)
	assert.NotZero(t, obs.ID)

	stored, err := f.quality.GetLatestObservation(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, obs.ID, stored.ID)

	assert.Empty(t, f.alerts.sent())
	assert.Equal(t, 1, f.hub.observations)
}

func TestQualityService_ComputeRaisesAlert(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	require.NoError(t, f.store.AddMeasurement(ctx, pollutedMeasurement(4)))

	obs, err := f.quality.ComputeCurrentQuality(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, models.StatusBad, obs.Status)

	sent := f.alerts.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, models.SeverityCritical, sent[0].Severity)
	assert.Equal(t, models.AlertThresholdBreach, sent[0].Type)
	assert.Equal(t, obs.ID, sent[0].SourceID)
	assert.Equal(t, 1, f.hub.alerts)
}

func TestQualityService_Errors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)

	_, err := f.quality.ComputeCurrentQuality(ctx, 0)
	assert.ErrorIs(t, err, ErrStationRequired)

	_, err = f.quality.ComputeCurrentQuality(ctx, 9)
	assert.ErrorIs(t, err, ml.ErrDataUnavailable)

	_, err = f.quality.GetLatestObservation(ctx, 9)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestQualityService_GetObservationsLimit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	for i := 0; i < 5; i++ {
		require.NoError(t, f.store.SaveObservation(ctx, &models.Observation{StationID: 1, Score: float64(60 + i)}))
	}

	obs, err := f.quality.GetObservations(ctx, 1, 2)
	require.NoError(t, err)
	require.Len(t, obs, 2)
	assert.Equal(t, 64.0, obs[0].Score)

	obs, err = f.quality.GetObservations(ctx, 1, 0)
	require.NoError(t, err)
	assert.Len(t, obs, 5)
}

func TestQualityService_PredictQuality(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)

	t.Run("without station nothing is kept", func(t *testing.T) {
		res, err := f.quality.PredictQuality(ctx, models.PredictionInput{Ph: models.Float(7.0)})
		require.NoError(t, err)
		assert.NotEmpty(t, res.Details)

		all, err := f.quality.GetAllPredictionHistory(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)
	})

	t.Run("with station the result is recorded and alerted", func(t *testing.T) {
		station := int64(2)
		m := pollutedMeasurement(station)
		res, err := f.quality.PredictQuality(ctx, models.PredictionInput{
			StationID:       &station,
			Ph:              m.Ph,
			Temperature:     m.Temperature,
			Turbidity:       m.Turbidity,
			DissolvedOxygen: m.DissolvedOxygen,
			Conductivity:    m.Conductivity,
		})
		require.NoError(t, err)
		assert.Equal(t, models.StatusBad, res.Status)
		assert.Len(t, res.Recommendations, 5)

		history, err := f.quality.GetPredictionHistory(ctx, station)
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.Equal(t, res.Score, history[0].Score)
		assert.Equal(t, fixedNow, history[0].CreatedAt)

		require.Len(t, f.alerts.sent(), 1)
		assert.Equal(t, history[0].ID, f.alerts.sent()[0].SourceID)
	})

	t.Run("invalid station", func(t *testing.T) {
		station := int64(-1)
		_, err := f.quality.PredictQuality(ctx, models.PredictionInput{StationID: &station})
		assert.ErrorIs(t, err, ErrStationRequired)
	})
}

func TestForecastService_CreateForecastFromFreshObservation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	require.NoError(t, f.store.SaveObservation(ctx, &models.Observation{
		StationID: 1, Timestamp: fixedNow.Add(-30 * time.Minute), Score: 90, Status: models.StatusGood,
	}))

	fc, err := f.forecasts.CreateForecast(ctx, 1, 24)
	require.NoError(t, err)
	assert.Equal(t, 87.0, fc.PredictedScore)
	assert.Equal(t, models.StatusGood, fc.PredictedStatus)
	assert.Equal(t, "SimpleDegradationModel", fc.ModelName)
	assert.Equal(t, fixedNow.Add(24*time.Hour), fc.ForecastTime)
	assert.NotZero(t, fc.ID)

	// the fresh observation is reused
	obs, err := f.store.GetObservations(ctx, 1, 0)
	require.NoError(t, err)
	assert.Len(t, obs, 1)
	assert.Equal(t, 1, f.hub.forecasts)
}

func TestForecastService_RecomputesStaleObservation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	require.NoError(t, f.store.SaveObservation(ctx, &models.Observation{
		StationID: 1, Timestamp: fixedNow.Add(-2 * time.Hour), Score: 10, Status: models.StatusBad,
	}))
	require.NoError(t, f.store.AddMeasurement(ctx, idealMeasurement(1)))

	fc, err := f.forecasts.CreateForecast(ctx, 1, 24)
	require.NoError(t, err)
	// recomputed 98 minus one day of degradation
	assert.Equal(t, 95.0, fc.PredictedScore)

	obs, err := f.store.GetObservations(ctx, 1, 0)
	require.NoError(t, err)
	assert.Len(t, obs, 2)
}

func TestForecastService_Errors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)

	_, err := f.forecasts.CreateForecast(ctx, 0, 24)
	assert.ErrorIs(t, err, ErrStationRequired)

	for _, h := range []int{0, -5, 721} {
		_, err = f.forecasts.CreateForecast(ctx, 1, h)
		assert.ErrorIs(t, err, ErrInvalidHorizon, "horizon %d", h)
	}

	_, err = f.forecasts.CreateForecast(ctx, 1, 24)
	assert.ErrorIs(t, err, ml.ErrDataUnavailable)
}

func TestForecastService_BadForecastRaisesAlert(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	require.NoError(t, f.store.SaveObservation(ctx, &models.Observation{
		StationID: 3, Timestamp: fixedNow, Score: 30, Status: models.StatusBad,
	}))

	fc, err := f.forecasts.CreateForecast(ctx, 3, 24)
	require.NoError(t, err)
	assert.Equal(t, 27.0, fc.PredictedScore)

	sent := f.alerts.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, models.AlertForecastRisk, sent[0].Type)
	assert.Equal(t, fc.ID, sent[0].SourceID)
}

func TestForecastService_TrendModelWithHistory(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	// oldest first, losing 3 points per hour
	for i := 0; i < 10; i++ {
		score := 97 - 3*float64(i)
		require.NoError(t, f.store.SaveObservation(ctx, &models.Observation{
			StationID: 1, Timestamp: fixedNow.Add(time.Duration(i-9) * time.Hour), Score: score, Status: models.StatusFromScore(score),
		}))
	}

	fc, err := f.forecasts.CreateForecast(ctx, 1, 24)
	require.NoError(t, err)
	assert.Equal(t, "TrendRegressionModel", fc.ModelName)
	assert.Less(t, fc.PredictedScore, 60.0)
}

func TestForecastService_MultipleAndHistory(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	require.NoError(t, f.store.SaveObservation(ctx, &models.Observation{
		StationID: 1, Timestamp: fixedNow, Score: 98, Status: models.StatusGood,
	}))

	forecasts, err := f.forecasts.CreateMultipleForecasts(ctx, 1)
	require.NoError(t, err)
	require.Len(t, forecasts, 3)
	assert.Equal(t, []float64{95, 92, 89}, []float64{
		forecasts[0].PredictedScore, forecasts[1].PredictedScore, forecasts[2].PredictedScore,
	})

	latest, err := f.forecasts.GetLatestForecast(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 72, latest.HorizonHours)

	history, err := f.forecasts.GetForecasts(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, history, 3)

	history, err = f.forecasts.GetForecastHistory(ctx, 1, 7)
	require.NoError(t, err)
	assert.Len(t, history, 3)
}

func TestForecastService_GetSimpleForecast(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	require.NoError(t, f.store.SaveObservation(ctx, &models.Observation{
		StationID: 1, Timestamp: fixedNow, Score: 90, Status: models.StatusGood,
	}))

	first, err := f.forecasts.GetSimpleForecast(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, DefaultHorizonHours, first.HorizonHours)

	second, err := f.forecasts.GetSimpleForecast(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestIngestService_AutoCompute(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)

	obs, err := f.ingest.IngestMeasurement(ctx, idealMeasurement(5))
	require.NoError(t, err)
	require.NotNil(t, obs)
	assert.Equal(t, 98.0, obs.Score)
	assert.Equal(t, 1, f.hub.measurements)
}

func TestIngestService_WithoutAutoCompute(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)

	obs, err := f.ingest.IngestMeasurement(ctx, idealMeasurement(5))
	require.NoError(t, err)
	assert.Nil(t, obs)

	_, err = f.store.GetLatestObservation(ctx, 5)
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = f.ingest.IngestMeasurement(ctx, &models.Measurement{StationID: 5, Ph: models.Float(20)})
	assert.Error(t, err)
}

func TestIngestService_Payloads(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)

	require.NoError(t, f.ingest.HandleMeasurementPayload(ctx, 6, []byte("7.0,20.0,0.5,9.0,350")))
	m, err := f.store.GetLatestMeasurement(ctx, 6)
	require.NoError(t, err)
	assert.Equal(t, 350.0, *m.Conductivity)
	assert.Equal(t, fixedNow, m.Timestamp)

	assert.Error(t, f.ingest.HandleMeasurementPayload(ctx, 6, []byte("not a measurement")))

	scene := `{"scene_id":"S2A_20250115","scene_time":"2025-01-15T10:30:00Z","metrics":[
		{"kind":"NDWI_MEAN","value":0.31},
		{"kind":"TURBIDITY_INDEX","value":0.2}
	]}`
	require.NoError(t, f.ingest.HandleSatellitePayload(ctx, 6, []byte(scene)))
	sat, err := f.store.GetLatestSatelliteMetrics(ctx, 6)
	require.NoError(t, err)
	assert.Len(t, sat, 2)

	assert.Error(t, f.ingest.HandleSatellitePayload(ctx, 6, []byte(`{"scene_id":"x","metrics":[]}`)))
}

func TestScheduler_RunOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	require.NoError(t, f.store.AddMeasurement(ctx, idealMeasurement(1)))
	require.NoError(t, f.store.AddMeasurement(ctx, pollutedMeasurement(2)))

	s := NewScheduler(f.store, f.quality, f.forecasts, "@hourly", zap.NewNop())
	require.NoError(t, s.RunOnce(ctx))

	for _, id := range []int64{1, 2} {
		obs, err := f.store.GetObservations(ctx, id, 0)
		require.NoError(t, err)
		assert.Len(t, obs, 1, "station %d", id)

		forecasts, err := f.store.GetForecastsSince(ctx, id, fixedNow.Add(-time.Hour))
		require.NoError(t, err)
		assert.Len(t, forecasts, 3, "station %d", id)
	}
}

func TestScheduler_StartStop(t *testing.T) {
	f := newFixture(t, false)

	bad := NewScheduler(f.store, f.quality, f.forecasts, "not a spec", zap.NewNop())
	assert.Error(t, bad.Start())

	s := NewScheduler(f.store, f.quality, f.forecasts, "@hourly", zap.NewNop())
	require.NoError(t, s.Start())
	require.NoError(t, s.Start())
	s.Stop()
	s.Stop()
}
