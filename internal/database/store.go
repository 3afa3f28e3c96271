package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Capstone-E1/aquawatch_backend/internal/models"
	"github.com/Capstone-E1/aquawatch_backend/internal/store"
)

// DatabaseStore implements persistent storage on database/sql.
// Queries use $n placeholders, which both lib/pq and go-sqlite3 accept.
type DatabaseStore struct {
	db *sql.DB
}

var _ store.DataStore = (*DatabaseStore)(nil)

// NewDatabaseStore creates a new database store
func NewDatabaseStore(db *sql.DB) *DatabaseStore {
	return &DatabaseStore{db: db}
}

func (s *DatabaseStore) Ping() error {
	return s.db.Ping()
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

// notFound maps sql.ErrNoRows to store.ErrNotFound
func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return fmt.Errorf("failed to get %s: %w", what, err)
}

const measurementColumns = `id, station_id, timestamp, ph, temperature, turbidity, dissolved_oxygen, conductivity`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMeasurement(row rowScanner) (models.Measurement, error) {
	var m models.Measurement
	var ph, temp, turb, do, cond sql.NullFloat64
	err := row.Scan(&m.ID, &m.StationID, &m.Timestamp, &ph, &temp, &turb, &do, &cond)
	if err != nil {
		return m, err
	}
	m.Ph = floatPtr(ph)
	m.Temperature = floatPtr(temp)
	m.Turbidity = floatPtr(turb)
	m.DissolvedOxygen = floatPtr(do)
	m.Conductivity = floatPtr(cond)
	return m, nil
}

// AddMeasurement stores a measurement and sets its ID
func (s *DatabaseStore) AddMeasurement(ctx context.Context, m *models.Measurement) error {
	query := `
		INSERT INTO measurements (station_id, timestamp, ph, temperature, turbidity, dissolved_oxygen, conductivity)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	err := s.db.QueryRowContext(ctx, query, m.StationID, m.Timestamp,
		nullFloat(m.Ph), nullFloat(m.Temperature), nullFloat(m.Turbidity),
		nullFloat(m.DissolvedOxygen), nullFloat(m.Conductivity)).Scan(&m.ID)
	if err != nil {
		return fmt.Errorf("failed to store measurement: %w", err)
	}
	return nil
}

func (s *DatabaseStore) GetLatestMeasurement(ctx context.Context, stationID int64) (*models.Measurement, error) {
	query := `SELECT ` + measurementColumns + `
		FROM measurements
		WHERE station_id = $1
		ORDER BY timestamp DESC
		LIMIT 1`

	m, err := scanMeasurement(s.db.QueryRowContext(ctx, query, stationID))
	if err != nil {
		return nil, notFound(err, "latest measurement")
	}
	return &m, nil
}

func (s *DatabaseStore) GetRecentMeasurements(ctx context.Context, stationID int64, limit int) ([]models.Measurement, error) {
	query := `SELECT ` + measurementColumns + `
		FROM measurements
		WHERE station_id = $1
		ORDER BY timestamp DESC
		LIMIT $2`

	rows, err := s.db.QueryContext(ctx, query, stationID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query measurements: %w", err)
	}
	defer rows.Close()

	out := make([]models.Measurement, 0)
	for rows.Next() {
		m, err := scanMeasurement(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan measurement: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// GetActiveStations returns every station that has reported a measurement
func (s *DatabaseStore) GetActiveStations(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT station_id FROM measurements ORDER BY station_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query active stations: %w", err)
	}
	defer rows.Close()

	stations := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan station id: %w", err)
		}
		stations = append(stations, id)
	}
	return stations, rows.Err()
}

// AddSatelliteMetrics stores all metrics of a scene in one transaction
func (s *DatabaseStore) AddSatelliteMetrics(ctx context.Context, metrics []models.SatelliteMetric) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO satellite_metrics (station_id, scene_id, kind, value, unit, scene_time)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	for i := range metrics {
		m := &metrics[i]
		if err := tx.QueryRowContext(ctx, query, m.StationID, m.SceneID, string(m.Kind), m.Value, m.Unit, m.SceneTime).Scan(&m.ID); err != nil {
			return fmt.Errorf("failed to store satellite metric: %w", err)
		}
	}

	return tx.Commit()
}

// GetLatestSatelliteMetrics returns the metrics of the most recent scene over the station
func (s *DatabaseStore) GetLatestSatelliteMetrics(ctx context.Context, stationID int64) ([]models.SatelliteMetric, error) {
	query := `
		SELECT id, station_id, scene_id, kind, value, unit, scene_time
		FROM satellite_metrics
		WHERE station_id = $1
			AND scene_time = (SELECT MAX(scene_time) FROM satellite_metrics WHERE station_id = $1)
			AND scene_id = (
				SELECT scene_id FROM satellite_metrics
				WHERE station_id = $1
				ORDER BY scene_time DESC, id DESC
				LIMIT 1
			)
		ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, stationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query satellite metrics: %w", err)
	}
	defer rows.Close()

	out := make([]models.SatelliteMetric, 0)
	for rows.Next() {
		var m models.SatelliteMetric
		var kind string
		var unit sql.NullString
		if err := rows.Scan(&m.ID, &m.StationID, &m.SceneID, &kind, &m.Value, &unit, &m.SceneTime); err != nil {
			return nil, fmt.Errorf("failed to scan satellite metric: %w", err)
		}
		m.Kind = models.ParseSatelliteMetricKind(kind)
		m.Unit = unit.String
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *DatabaseStore) SaveObservation(ctx context.Context, obs *models.Observation) error {
	query := `
		INSERT INTO quality_observations (station_id, timestamp, score, status, details)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	err := s.db.QueryRowContext(ctx, query, obs.StationID, obs.Timestamp, obs.Score, string(obs.Status), obs.Details).Scan(&obs.ID)
	if err != nil {
		return fmt.Errorf("failed to store observation: %w", err)
	}
	return nil
}

func scanObservation(row rowScanner) (models.Observation, error) {
	var obs models.Observation
	var status string
	var details sql.NullString
	if err := row.Scan(&obs.ID, &obs.StationID, &obs.Timestamp, &obs.Score, &status, &details); err != nil {
		return obs, err
	}
	obs.Status = models.QualityStatus(status)
	obs.Details = details.String
	return obs, nil
}

func (s *DatabaseStore) GetLatestObservation(ctx context.Context, stationID int64) (*models.Observation, error) {
	query := `
		SELECT id, station_id, timestamp, score, status, details
		FROM quality_observations
		WHERE station_id = $1
		ORDER BY timestamp DESC
		LIMIT 1`

	obs, err := scanObservation(s.db.QueryRowContext(ctx, query, stationID))
	if err != nil {
		return nil, notFound(err, "latest observation")
	}
	return &obs, nil
}

func (s *DatabaseStore) GetObservations(ctx context.Context, stationID int64, limit int) ([]models.Observation, error) {
	query := `
		SELECT id, station_id, timestamp, score, status, details
		FROM quality_observations
		WHERE station_id = $1
		ORDER BY timestamp DESC
		LIMIT $2`

	rows, err := s.db.QueryContext(ctx, query, stationID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query observations: %w", err)
	}
	defer rows.Close()

	out := make([]models.Observation, 0)
	for rows.Next() {
		obs, err := scanObservation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan observation: %w", err)
		}
		out = append(out, obs)
	}
	return out, rows.Err()
}

const forecastColumns = `id, station_id, created_at, forecast_time, horizon_hours, predicted_score,
	predicted_status, model_name, model_version, confidence`

func scanForecast(row rowScanner) (models.Forecast, error) {
	var f models.Forecast
	var status string
	err := row.Scan(&f.ID, &f.StationID, &f.CreatedAt, &f.ForecastTime, &f.HorizonHours,
		&f.PredictedScore, &status, &f.ModelName, &f.ModelVersion, &f.Confidence)
	f.PredictedStatus = models.QualityStatus(status)
	return f, err
}

func (s *DatabaseStore) SaveForecast(ctx context.Context, f *models.Forecast) error {
	query := `
		INSERT INTO quality_forecasts (station_id, created_at, forecast_time, horizon_hours, predicted_score,
			predicted_status, model_name, model_version, confidence)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`

	err := s.db.QueryRowContext(ctx, query, f.StationID, f.CreatedAt, f.ForecastTime, f.HorizonHours,
		f.PredictedScore, string(f.PredictedStatus), f.ModelName, f.ModelVersion, f.Confidence).Scan(&f.ID)
	if err != nil {
		return fmt.Errorf("failed to store forecast: %w", err)
	}
	return nil
}

func (s *DatabaseStore) GetLatestForecast(ctx context.Context, stationID int64) (*models.Forecast, error) {
	query := `SELECT ` + forecastColumns + `
		FROM quality_forecasts
		WHERE station_id = $1
		ORDER BY created_at DESC
		LIMIT 1`

	f, err := scanForecast(s.db.QueryRowContext(ctx, query, stationID))
	if err != nil {
		return nil, notFound(err, "latest forecast")
	}
	return &f, nil
}

func (s *DatabaseStore) GetForecastsSince(ctx context.Context, stationID int64, since time.Time) ([]models.Forecast, error) {
	query := `SELECT ` + forecastColumns + `
		FROM quality_forecasts
		WHERE station_id = $1 AND created_at >= $2
		ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, stationID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query forecasts: %w", err)
	}
	defer rows.Close()

	out := make([]models.Forecast, 0)
	for rows.Next() {
		f, err := scanForecast(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan forecast: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// SavePrediction stores a prediction with its scores and recommendations encoded as JSON
func (s *DatabaseStore) SavePrediction(ctx context.Context, rec *models.PredictionRecord) error {
	scores, err := json.Marshal(rec.ParameterScores)
	if err != nil {
		return fmt.Errorf("failed to encode parameter scores: %w", err)
	}
	recs, err := json.Marshal(rec.Recommendations)
	if err != nil {
		return fmt.Errorf("failed to encode recommendations: %w", err)
	}

	query := `
		INSERT INTO prediction_history (station_id, ph, temperature, turbidity, dissolved_oxygen, conductivity,
			score, status, details, parameter_scores, recommendations, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id`

	err = s.db.QueryRowContext(ctx, query, rec.StationID,
		nullFloat(rec.Ph), nullFloat(rec.Temperature), nullFloat(rec.Turbidity),
		nullFloat(rec.DissolvedOxygen), nullFloat(rec.Conductivity),
		rec.Score, string(rec.Status), rec.Details, string(scores), string(recs), rec.CreatedAt).Scan(&rec.ID)
	if err != nil {
		return fmt.Errorf("failed to store prediction: %w", err)
	}
	return nil
}

const predictionColumns = `id, station_id, ph, temperature, turbidity, dissolved_oxygen, conductivity,
	score, status, details, parameter_scores, recommendations, created_at`

func (s *DatabaseStore) queryPredictions(ctx context.Context, query string, args ...any) ([]models.PredictionRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query predictions: %w", err)
	}
	defer rows.Close()

	out := make([]models.PredictionRecord, 0)
	for rows.Next() {
		var rec models.PredictionRecord
		var ph, temp, turb, do, cond sql.NullFloat64
		var status string
		var details sql.NullString
		var scores, recs []byte
		if err := rows.Scan(&rec.ID, &rec.StationID, &ph, &temp, &turb, &do, &cond,
			&rec.Score, &status, &details, &scores, &recs, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan prediction: %w", err)
		}
		rec.Ph, rec.Temperature, rec.Turbidity = floatPtr(ph), floatPtr(temp), floatPtr(turb)
		rec.DissolvedOxygen, rec.Conductivity = floatPtr(do), floatPtr(cond)
		rec.Status = models.QualityStatus(status)
		rec.Details = details.String
		if len(scores) > 0 {
			if err := json.Unmarshal(scores, &rec.ParameterScores); err != nil {
				return nil, fmt.Errorf("failed to decode parameter scores: %w", err)
			}
		}
		if len(recs) > 0 {
			if err := json.Unmarshal(recs, &rec.Recommendations); err != nil {
				return nil, fmt.Errorf("failed to decode recommendations: %w", err)
			}
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *DatabaseStore) GetPredictions(ctx context.Context, stationID int64, limit int) ([]models.PredictionRecord, error) {
	query := `SELECT ` + predictionColumns + `
		FROM prediction_history
		WHERE station_id = $1
		ORDER BY created_at DESC
		LIMIT $2`
	return s.queryPredictions(ctx, query, stationID, limit)
}

func (s *DatabaseStore) GetAllPredictions(ctx context.Context, limit int) ([]models.PredictionRecord, error) {
	query := `SELECT ` + predictionColumns + `
		FROM prediction_history
		ORDER BY created_at DESC
		LIMIT $1`
	return s.queryPredictions(ctx, query, limit)
}
