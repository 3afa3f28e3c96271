package store

import (
	"context"
	"errors"
	"time"

	"github.com/Capstone-E1/aquawatch_backend/internal/models"
)

// ErrNotFound is returned by single-record getters when nothing matches
var ErrNotFound = errors.New("record not found")

// DataStore defines the interface for data storage operations.
// List getters return records newest first.
type DataStore interface {
	// Health check
	Ping() error

	// Measurements
	AddMeasurement(ctx context.Context, m *models.Measurement) error
	GetLatestMeasurement(ctx context.Context, stationID int64) (*models.Measurement, error)
	GetRecentMeasurements(ctx context.Context, stationID int64, limit int) ([]models.Measurement, error)
	GetActiveStations(ctx context.Context) ([]int64, error)

	// Satellite metrics
	AddSatelliteMetrics(ctx context.Context, metrics []models.SatelliteMetric) error
	GetLatestSatelliteMetrics(ctx context.Context, stationID int64) ([]models.SatelliteMetric, error)

	// Quality observations
	SaveObservation(ctx context.Context, obs *models.Observation) error
	GetLatestObservation(ctx context.Context, stationID int64) (*models.Observation, error)
	GetObservations(ctx context.Context, stationID int64, limit int) ([]models.Observation, error)

	// Forecasts
	SaveForecast(ctx context.Context, f *models.Forecast) error
	GetLatestForecast(ctx context.Context, stationID int64) (*models.Forecast, error)
	GetForecastsSince(ctx context.Context, stationID int64, since time.Time) ([]models.Forecast, error)

	// Prediction history
	SavePrediction(ctx context.Context, rec *models.PredictionRecord) error
	GetPredictions(ctx context.Context, stationID int64, limit int) ([]models.PredictionRecord, error)
	GetAllPredictions(ctx context.Context, limit int) ([]models.PredictionRecord, error)
}
