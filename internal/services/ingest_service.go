package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Capstone-E1/aquawatch_backend/internal/metrics"
	"github.com/Capstone-E1/aquawatch_backend/internal/models"
	"github.com/Capstone-E1/aquawatch_backend/internal/store"
)

const (
	kindMeasurement = "measurement"
	kindSatellite   = "satellite"
)

// IngestService stores incoming station data from MQTT and HTTP
type IngestService struct {
	store       store.DataStore
	parser      *MeasurementParser
	quality     *QualityService
	hub         Broadcaster
	autoCompute bool
	logger      *zap.Logger
	now         func() time.Time
}

// NewIngestService creates an ingest service. With autoCompute every stored
// measurement triggers a quality computation for its station.
func NewIngestService(dataStore store.DataStore, quality *QualityService, hub Broadcaster, autoCompute bool, logger *zap.Logger) *IngestService {
	if hub == nil {
		hub = nopBroadcaster{}
	}
	return &IngestService{
		store:       dataStore,
		parser:      NewMeasurementParser(),
		quality:     quality,
		hub:         hub,
		autoCompute: autoCompute,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *IngestService) SetClock(now func() time.Time) {
	s.now = now
}

func (s *IngestService) Parser() *MeasurementParser {
	return s.parser
}

// IngestMeasurement stores a validated measurement. The returned observation is nil
// unless auto compute is on and succeeded.
func (s *IngestService) IngestMeasurement(ctx context.Context, m *models.Measurement) (*models.Observation, error) {
	if err := m.Validate(); err != nil {
		metrics.IncIngest(kindMeasurement, err)
		return nil, fmt.Errorf("invalid measurement: %w", err)
	}
	if err := s.store.AddMeasurement(ctx, m); err != nil {
		metrics.IncIngest(kindMeasurement, err)
		return nil, fmt.Errorf("failed to store measurement: %w", err)
	}
	metrics.IncIngest(kindMeasurement, nil)
	s.hub.BroadcastMeasurement(m)

	if !s.autoCompute || s.quality == nil {
		return nil, nil
	}
	obs, err := s.quality.ComputeCurrentQuality(ctx, m.StationID)
	if err != nil {
		s.logger.Warn("auto compute failed",
			zap.Int64("station_id", m.StationID),
			zap.Error(err),
		)
		return nil, nil
	}
	return obs, nil
}

// IngestSatellite stores the metrics of one satellite scene
func (s *IngestService) IngestSatellite(ctx context.Context, sat []models.SatelliteMetric) error {
	if len(sat) == 0 {
		err := fmt.Errorf("no satellite metrics")
		metrics.IncIngest(kindSatellite, err)
		return err
	}
	if err := s.store.AddSatelliteMetrics(ctx, sat); err != nil {
		metrics.IncIngest(kindSatellite, err)
		return fmt.Errorf("failed to store satellite metrics: %w", err)
	}
	metrics.IncIngest(kindSatellite, nil)

	s.logger.Info("satellite scene stored",
		zap.Int64("station_id", sat[0].StationID),
		zap.String("scene_id", sat[0].SceneID),
		zap.Int("metrics", len(sat)),
	)
	return nil
}

// HandleMeasurementPayload parses a raw station payload (JSON or CSV) and ingests it
func (s *IngestService) HandleMeasurementPayload(ctx context.Context, stationID int64, payload []byte) error {
	m, err := s.parser.ParseMeasurement(payload, stationID, s.now())
	if err != nil {
		metrics.IncIngest(kindMeasurement, err)
		return err
	}
	s.logger.Debug("parsed measurement", zap.String("measurement", s.parser.FormatMeasurement(m)))

	_, err = s.IngestMeasurement(ctx, m)
	return err
}

// HandleSatellitePayload parses a raw scene payload and ingests it
func (s *IngestService) HandleSatellitePayload(ctx context.Context, stationID int64, payload []byte) error {
	sat, err := s.parser.ParseSatelliteJSON(payload, stationID)
	if err != nil {
		metrics.IncIngest(kindSatellite, err)
		return err
	}
	return s.IngestSatellite(ctx, sat)
}
