package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Capstone-E1/aquawatch_backend/internal/alert"
	"github.com/Capstone-E1/aquawatch_backend/internal/metrics"
	"github.com/Capstone-E1/aquawatch_backend/internal/ml"
	"github.com/Capstone-E1/aquawatch_backend/internal/models"
	"github.com/Capstone-E1/aquawatch_backend/internal/store"
)

const (
	DefaultObservationLimit = 100
	MaxObservationLimit     = 1000

	stationPredictionLimit = 20
	allPredictionLimit     = 50
)

var (
	ErrStationRequired = errors.New("station id is required")
	ErrInvalidHorizon  = errors.New("invalid forecast horizon")
)

// Broadcaster pushes live updates to connected dashboards
type Broadcaster interface {
	BroadcastMeasurement(m *models.Measurement)
	BroadcastObservation(obs *models.Observation)
	BroadcastForecast(f *models.Forecast)
	BroadcastAlert(a *models.Alert)
}

type nopBroadcaster struct{}

func (nopBroadcaster) BroadcastMeasurement(*models.Measurement) {}
func (nopBroadcaster) BroadcastObservation(*models.Observation) {}
func (nopBroadcaster) BroadcastForecast(*models.Forecast)       {}
func (nopBroadcaster) BroadcastAlert(*models.Alert)             {}

// QualityService computes and serves water quality observations and what-if predictions
type QualityService struct {
	store  store.DataStore
	alerts alert.Dispatcher
	hub    Broadcaster
	logger *zap.Logger
	now    func() time.Time
}

// NewQualityService creates a quality service. hub may be nil.
func NewQualityService(dataStore store.DataStore, alerts alert.Dispatcher, hub Broadcaster, logger *zap.Logger) *QualityService {
	if hub == nil {
		hub = nopBroadcaster{}
	}
	return &QualityService{
		store:  dataStore,
		alerts: alerts,
		hub:    hub,
		logger: logger,
		now:    time.Now,
	}
}

// SetClock replaces the time source. Used by tests.
func (s *QualityService) SetClock(now func() time.Time) {
	s.now = now
}

// ComputeCurrentQuality scores the latest measurement of a station together with
// its latest satellite scene, persists the observation and raises an alert when needed.
func (s *QualityService) ComputeCurrentQuality(ctx context.Context, stationID int64) (*models.Observation, error) {
	if stationID <= 0 {
		return nil, ErrStationRequired
	}
	start := time.Now()

	obs, err := s.computeObservation(ctx, stationID)
	metrics.ObserveCompute("observation", err, time.Since(start))
	if err != nil {
		return nil, err
	}

	if err := s.store.SaveObservation(ctx, obs); err != nil {
		return nil, fmt.Errorf("failed to save observation: %w", err)
	}
	metrics.IncObservation(string(obs.Status))

	s.logger.Info("quality observation computed",
		zap.Int64("station_id", stationID),
		zap.Float64("score", obs.Score),
		zap.String("status", string(obs.Status)),
	)
	s.hub.BroadcastObservation(obs)

	if a, ok := alert.FromObservation(*obs, s.now()); ok {
		a.SourceID = obs.ID
		s.dispatchAlert(ctx, a)
	}
	return obs, nil
}

func (s *QualityService) computeObservation(ctx context.Context, stationID int64) (*models.Observation, error) {
	m, err := s.store.GetLatestMeasurement(ctx, stationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("station %d: %w", stationID, ml.ErrDataUnavailable)
		}
		return nil, fmt.Errorf("failed to load latest measurement: %w", err)
	}

	sat, err := s.store.GetLatestSatelliteMetrics(ctx, stationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load satellite metrics: %w", err)
	}

	return ml.ComputeObservation(m, sat, s.now())
}

func (s *QualityService) GetLatestObservation(ctx context.Context, stationID int64) (*models.Observation, error) {
	if stationID <= 0 {
		return nil, ErrStationRequired
	}
	return s.store.GetLatestObservation(ctx, stationID)
}

// GetObservations returns up to limit observations, newest first.
func (s *QualityService) GetObservations(ctx context.Context, stationID int64, limit int) ([]models.Observation, error) {
	if stationID <= 0 {
		return nil, ErrStationRequired
	}
	if limit <= 0 {
		limit = DefaultObservationLimit
	}
	if limit > MaxObservationLimit {
		limit = MaxObservationLimit
	}
	return s.store.GetObservations(ctx, stationID, limit)
}

// PredictQuality scores a hypothetical measurement. When a station id is given the
// result is kept in the prediction history and may raise an alert.
func (s *QualityService) PredictQuality(ctx context.Context, in models.PredictionInput) (*models.PredictionResult, error) {
	res := ml.PredictQuality(in)
	metrics.IncPrediction(string(res.Status))

	if in.StationID == nil {
		return &res, nil
	}
	if *in.StationID <= 0 {
		return nil, ErrStationRequired
	}

	now := s.now()
	rec := models.NewPredictionRecord(*in.StationID, in, res, now)
	if err := s.store.SavePrediction(ctx, &rec); err != nil {
		return nil, fmt.Errorf("failed to save prediction: %w", err)
	}

	obs := models.Observation{
		StationID: rec.StationID,
		Timestamp: now,
		Score:     res.Score,
		Status:    res.Status,
		Details:   res.Details,
	}
	if a, ok := alert.FromObservation(obs, now); ok {
		a.SourceID = rec.ID
		s.dispatchAlert(ctx, a)
	}
	return &res, nil
}

// GetPredictionHistory returns the most recent predictions of a station
func (s *QualityService) GetPredictionHistory(ctx context.Context, stationID int64) ([]models.PredictionRecord, error) {
	if stationID <= 0 {
		return nil, ErrStationRequired
	}
	return s.store.GetPredictions(ctx, stationID, stationPredictionLimit)
}

// GetAllPredictionHistory returns the most recent predictions across all stations
func (s *QualityService) GetAllPredictionHistory(ctx context.Context) ([]models.PredictionRecord, error) {
	return s.store.GetAllPredictions(ctx, allPredictionLimit)
}

// dispatchAlert delivers an alert. Failures are logged and never fail the caller.
func (s *QualityService) dispatchAlert(ctx context.Context, a models.Alert) {
	dispatchAlert(ctx, s.alerts, s.hub, s.logger, a)
}

func dispatchAlert(ctx context.Context, d alert.Dispatcher, hub Broadcaster, logger *zap.Logger, a models.Alert) {
	hub.BroadcastAlert(&a)
	if d == nil {
		return
	}

	err := d.Dispatch(ctx, a)
	metrics.IncAlert(string(a.Severity), err)
	if err != nil {
		logger.Warn("failed to dispatch alert",
			zap.String("alert_id", a.ID),
			zap.Int64("station_id", a.StationID),
			zap.Error(err),
		)
	}
}
