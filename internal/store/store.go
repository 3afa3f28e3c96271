package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Capstone-E1/aquawatch_backend/internal/models"
)

// Store is an in-memory DataStore used when no database is reachable.
// Each per-station history is capped at maxRecords entries.
type Store struct {
	mu           sync.RWMutex
	measurements map[int64][]models.Measurement
	satellite    map[int64][]models.SatelliteMetric
	observations map[int64][]models.Observation
	forecasts    map[int64][]models.Forecast
	predictions  []models.PredictionRecord
	maxRecords   int
	nextID       int64
}

var _ DataStore = (*Store)(nil)

// NewStore creates a new in-memory store
func NewStore(maxRecords int) *Store {
	if maxRecords <= 0 {
		maxRecords = 1000 // Default to keeping the last 1000 records per station
	}

	return &Store{
		measurements: make(map[int64][]models.Measurement),
		satellite:    make(map[int64][]models.SatelliteMetric),
		observations: make(map[int64][]models.Observation),
		forecasts:    make(map[int64][]models.Forecast),
		predictions:  make([]models.PredictionRecord, 0),
		maxRecords:   maxRecords,
	}
}

// Ping always succeeds for the in-memory store
func (s *Store) Ping() error {
	return nil
}

// caller must hold the write lock
func (s *Store) newID() int64 {
	s.nextID++
	return s.nextID
}

// appendCapped appends v and drops the oldest entries beyond max
func appendCapped[T any](list []T, v T, max int) []T {
	list = append(list, v)
	if len(list) > max {
		list = list[len(list)-max:]
	}
	return list
}

// newestFirst copies up to limit entries from a chronologically ordered slice in reverse
func newestFirst[T any](list []T, limit int) []T {
	if limit <= 0 || limit > len(list) {
		limit = len(list)
	}
	out := make([]T, 0, limit)
	for i := len(list) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, list[i])
	}
	return out
}

func (s *Store) AddMeasurement(_ context.Context, m *models.Measurement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m.ID = s.newID()
	s.measurements[m.StationID] = insertByTimestamp(s.measurements[m.StationID], *m, s.maxRecords)
	return nil
}

// insertByTimestamp keeps list in chronological order. Late arrivals with an older
// timestamp land before newer readings; equal timestamps keep insertion order.
func insertByTimestamp(list []models.Measurement, m models.Measurement, max int) []models.Measurement {
	i := sort.Search(len(list), func(i int) bool { return list[i].Timestamp.After(m.Timestamp) })
	list = append(list, models.Measurement{})
	copy(list[i+1:], list[i:])
	list[i] = m
	if len(list) > max {
		list = list[len(list)-max:]
	}
	return list
}

func (s *Store) GetLatestMeasurement(_ context.Context, stationID int64) (*models.Measurement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.measurements[stationID]
	if len(list) == 0 {
		return nil, ErrNotFound
	}
	latest := list[len(list)-1]
	return &latest, nil
}

func (s *Store) GetRecentMeasurements(_ context.Context, stationID int64, limit int) ([]models.Measurement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return newestFirst(s.measurements[stationID], limit), nil
}

// GetActiveStations returns every station that has reported a measurement, sorted by id
func (s *Store) GetActiveStations(_ context.Context) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stations := make([]int64, 0, len(s.measurements))
	for id, list := range s.measurements {
		if len(list) > 0 {
			stations = append(stations, id)
		}
	}
	sort.Slice(stations, func(i, j int) bool { return stations[i] < stations[j] })
	return stations, nil
}

func (s *Store) AddSatelliteMetrics(_ context.Context, metrics []models.SatelliteMetric) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range metrics {
		metrics[i].ID = s.newID()
		id := metrics[i].StationID
		s.satellite[id] = appendCapped(s.satellite[id], metrics[i], s.maxRecords)
	}
	return nil
}

// GetLatestSatelliteMetrics returns all metrics of the most recent scene over the station.
// An empty result is not an error.
func (s *Store) GetLatestSatelliteMetrics(_ context.Context, stationID int64) ([]models.SatelliteMetric, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.satellite[stationID]
	if len(list) == 0 {
		return []models.SatelliteMetric{}, nil
	}

	latest := list[0]
	for _, m := range list[1:] {
		if !m.SceneTime.Before(latest.SceneTime) {
			latest = m
		}
	}

	out := make([]models.SatelliteMetric, 0)
	for _, m := range list {
		if m.SceneID == latest.SceneID && m.SceneTime.Equal(latest.SceneTime) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *Store) SaveObservation(_ context.Context, obs *models.Observation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	obs.ID = s.newID()
	s.observations[obs.StationID] = appendCapped(s.observations[obs.StationID], *obs, s.maxRecords)
	return nil
}

func (s *Store) GetLatestObservation(_ context.Context, stationID int64) (*models.Observation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.observations[stationID]
	if len(list) == 0 {
		return nil, ErrNotFound
	}
	latest := list[len(list)-1]
	return &latest, nil
}

func (s *Store) GetObservations(_ context.Context, stationID int64, limit int) ([]models.Observation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return newestFirst(s.observations[stationID], limit), nil
}

func (s *Store) SaveForecast(_ context.Context, f *models.Forecast) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f.ID = s.newID()
	s.forecasts[f.StationID] = appendCapped(s.forecasts[f.StationID], *f, s.maxRecords)
	return nil
}

func (s *Store) GetLatestForecast(_ context.Context, stationID int64) (*models.Forecast, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.forecasts[stationID]
	if len(list) == 0 {
		return nil, ErrNotFound
	}
	latest := list[len(list)-1]
	return &latest, nil
}

func (s *Store) GetForecastsSince(_ context.Context, stationID int64, since time.Time) ([]models.Forecast, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Forecast, 0)
	for _, f := range newestFirst(s.forecasts[stationID], 0) {
		if f.CreatedAt.Before(since) {
			continue
		}
		out = append(out, f)
	}
	return out, nil
}

func (s *Store) SavePrediction(_ context.Context, rec *models.PredictionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec.ID = s.newID()
	s.predictions = appendCapped(s.predictions, *rec, s.maxRecords)
	return nil
}

func (s *Store) GetPredictions(_ context.Context, stationID int64, limit int) ([]models.PredictionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.PredictionRecord, 0)
	for i := len(s.predictions) - 1; i >= 0; i-- {
		if limit > 0 && len(out) >= limit {
			break
		}
		if s.predictions[i].StationID == stationID {
			out = append(out, s.predictions[i])
		}
	}
	return out, nil
}

func (s *Store) GetAllPredictions(_ context.Context, limit int) ([]models.PredictionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return newestFirst(s.predictions, limit), nil
}
