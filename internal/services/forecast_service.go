package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Capstone-E1/aquawatch_backend/config"
	"github.com/Capstone-E1/aquawatch_backend/internal/alert"
	"github.com/Capstone-E1/aquawatch_backend/internal/metrics"
	"github.com/Capstone-E1/aquawatch_backend/internal/ml"
	"github.com/Capstone-E1/aquawatch_backend/internal/models"
	"github.com/Capstone-E1/aquawatch_backend/internal/store"
)

const (
	DefaultHorizonHours = 24

	// observations fed to the trend analyzer
	historyWindow = 10
)

// ForecastService projects future water quality from the observation history
type ForecastService struct {
	store   store.DataStore
	quality *QualityService
	alerts  alert.Dispatcher
	hub     Broadcaster
	cfg     config.ForecastConfig
	logger  *zap.Logger
	now     func() time.Time
}

func NewForecastService(dataStore store.DataStore, quality *QualityService, alerts alert.Dispatcher, hub Broadcaster, cfg config.ForecastConfig, logger *zap.Logger) *ForecastService {
	if hub == nil {
		hub = nopBroadcaster{}
	}
	return &ForecastService{
		store:   dataStore,
		quality: quality,
		alerts:  alerts,
		hub:     hub,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
	}
}

// SetClock replaces the time source. Used by tests.
func (s *ForecastService) SetClock(now func() time.Time) {
	s.now = now
}

// Horizons returns the configured default horizons
func (s *ForecastService) Horizons() []int {
	return s.cfg.Horizons
}

func (s *ForecastService) validateHorizon(horizonHours int) error {
	maxHours := s.cfg.MaxHorizonHours
	if maxHours <= 0 {
		maxHours = config.Default().Forecast.MaxHorizonHours
	}
	if horizonHours < 1 || horizonHours > maxHours {
		return fmt.Errorf("%w: %d (allowed 1..%d)", ErrInvalidHorizon, horizonHours, maxHours)
	}
	return nil
}

func (s *ForecastService) isStale(obs *models.Observation, now time.Time) bool {
	if s.cfg.StaleAfter <= 0 {
		return ml.IsStale(obs, now)
	}
	return obs == nil || now.Sub(obs.Timestamp) > s.cfg.StaleAfter
}

// CreateForecast projects the station's quality horizonHours ahead. A missing or stale
// latest observation is recomputed first.
func (s *ForecastService) CreateForecast(ctx context.Context, stationID int64, horizonHours int) (*models.Forecast, error) {
	if stationID <= 0 {
		return nil, ErrStationRequired
	}
	if err := s.validateHorizon(horizonHours); err != nil {
		return nil, err
	}
	start := time.Now()

	f, err := s.project(ctx, stationID, horizonHours)
	metrics.ObserveCompute("forecast", err, time.Since(start))
	if err != nil {
		return nil, err
	}

	if err := s.store.SaveForecast(ctx, f); err != nil {
		return nil, fmt.Errorf("failed to save forecast: %w", err)
	}
	metrics.IncForecast(f.ModelName, string(f.PredictedStatus))

	s.logger.Info("forecast created",
		zap.Int64("station_id", stationID),
		zap.Int("horizon_hours", horizonHours),
		zap.Float64("predicted_score", f.PredictedScore),
		zap.String("model", f.ModelName),
	)
	s.hub.BroadcastForecast(f)

	if a, ok := alert.FromForecast(*f, s.now()); ok {
		dispatchAlert(ctx, s.alerts, s.hub, s.logger, a)
	}
	return f, nil
}

func (s *ForecastService) project(ctx context.Context, stationID int64, horizonHours int) (*models.Forecast, error) {
	now := s.now()

	latest, err := s.store.GetLatestObservation(ctx, stationID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("failed to load latest observation: %w", err)
	}
	if s.isStale(latest, now) {
		s.logger.Debug("latest observation missing or stale, recomputing", zap.Int64("station_id", stationID))
		latest, err = s.quality.ComputeCurrentQuality(ctx, stationID)
		if err != nil {
			return nil, err
		}
	}

	history, err := s.store.GetObservations(ctx, stationID, historyWindow)
	if err != nil {
		return nil, fmt.Errorf("failed to load observation history: %w", err)
	}
	scores := make([]float64, len(history))
	for i, obs := range history {
		scores[i] = obs.Score
	}

	f := ml.ProjectForecast(stationID, latest.Score, scores, horizonHours, now)
	return &f, nil
}

// CreateMultipleForecasts creates one forecast per configured horizon
func (s *ForecastService) CreateMultipleForecasts(ctx context.Context, stationID int64) ([]models.Forecast, error) {
	horizons := s.cfg.Horizons
	if len(horizons) == 0 {
		horizons = []int{DefaultHorizonHours}
	}

	forecasts := make([]models.Forecast, 0, len(horizons))
	for _, h := range horizons {
		f, err := s.CreateForecast(ctx, stationID, h)
		if err != nil {
			return nil, fmt.Errorf("horizon %dh: %w", h, err)
		}
		forecasts = append(forecasts, *f)
	}
	return forecasts, nil
}

func (s *ForecastService) GetLatestForecast(ctx context.Context, stationID int64) (*models.Forecast, error) {
	if stationID <= 0 {
		return nil, ErrStationRequired
	}
	return s.store.GetLatestForecast(ctx, stationID)
}

// GetSimpleForecast returns the latest forecast, creating a 24h one when none exists.
func (s *ForecastService) GetSimpleForecast(ctx context.Context, stationID int64) (*models.Forecast, error) {
	f, err := s.GetLatestForecast(ctx, stationID)
	if err == nil {
		return f, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	return s.CreateForecast(ctx, stationID, DefaultHorizonHours)
}

// GetForecasts returns the forecasts created within the configured history window
func (s *ForecastService) GetForecasts(ctx context.Context, stationID int64) ([]models.Forecast, error) {
	return s.GetForecastHistory(ctx, stationID, s.cfg.HistoryDays)
}

// GetForecastHistory returns forecasts created in the last days, newest first.
func (s *ForecastService) GetForecastHistory(ctx context.Context, stationID int64, days int) ([]models.Forecast, error) {
	if stationID <= 0 {
		return nil, ErrStationRequired
	}
	if days <= 0 {
		days = config.Default().Forecast.HistoryDays
	}
	since := s.now().Add(-time.Duration(days) * 24 * time.Hour)
	return s.store.GetForecastsSince(ctx, stationID, since)
}
