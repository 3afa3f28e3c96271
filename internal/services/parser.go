package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Capstone-E1/aquawatch_backend/internal/models"
)

// MeasurementParser handles parsing of station payloads from MQTT and HTTP
type MeasurementParser struct{}

// NewMeasurementParser creates a new instance of MeasurementParser
func NewMeasurementParser() *MeasurementParser {
	return &MeasurementParser{}
}

// ParseMeasurementJSON parses a JSON payload. A missing timestamp defaults to now.
func (p *MeasurementParser) ParseMeasurementJSON(payload []byte, stationID int64, now time.Time) (*models.Measurement, error) {
	var data models.MeasurementData
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, fmt.Errorf("failed to parse measurement JSON: %w", err)
	}
	return p.FromData(data, stationID, now)
}

// FromData builds and validates a measurement from an already decoded body.
func (p *MeasurementParser) FromData(data models.MeasurementData, stationID int64, now time.Time) (*models.Measurement, error) {
	m := &models.Measurement{
		StationID:       stationID,
		Timestamp:       now,
		Ph:              data.Ph,
		Temperature:     data.Temperature,
		Turbidity:       data.Turbidity,
		DissolvedOxygen: data.DissolvedOxygen,
		Conductivity:    data.Conductivity,
	}
	if data.Timestamp != nil {
		m.Timestamp = *data.Timestamp
	}

	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid measurement: %w", err)
	}
	return m, nil
}

// ParseMeasurementString parses comma-separated values (fallback format)
// Expected format: "ph,temperature,turbidity,dissolved_oxygen,conductivity"
func (p *MeasurementParser) ParseMeasurementString(payload string, stationID int64, now time.Time) (*models.Measurement, error) {
	var ph, temp, turb, do, cond float64

	n, err := fmt.Sscanf(strings.TrimSpace(payload), "%f,%f,%f,%f,%f", &ph, &temp, &turb, &do, &cond)
	if err != nil || n != 5 {
		return nil, fmt.Errorf("failed to parse measurement string: expected 5 values (ph,temp,turb,do,cond), got %d", n)
	}

	m := &models.Measurement{
		StationID:       stationID,
		Timestamp:       now,
		Ph:              models.Float(ph),
		Temperature:     models.Float(temp),
		Turbidity:       models.Float(turb),
		DissolvedOxygen: models.Float(do),
		Conductivity:    models.Float(cond),
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid measurement: %w", err)
	}
	return m, nil
}

// ParseMeasurement tries JSON first and falls back to the CSV format.
func (p *MeasurementParser) ParseMeasurement(payload []byte, stationID int64, now time.Time) (*models.Measurement, error) {
	m, jsonErr := p.ParseMeasurementJSON(payload, stationID, now)
	if jsonErr == nil {
		return m, nil
	}
	m, csvErr := p.ParseMeasurementString(string(payload), stationID, now)
	if csvErr == nil {
		return m, nil
	}
	return nil, errors.Join(jsonErr, csvErr)
}

// ParseSatelliteJSON parses one scene worth of metrics. Unknown kinds are kept as OTHER.
func (p *MeasurementParser) ParseSatelliteJSON(payload []byte, stationID int64) ([]models.SatelliteMetric, error) {
	var data models.SatelliteSceneData
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, fmt.Errorf("failed to parse satellite JSON: %w", err)
	}
	return p.FromScene(data, stationID)
}

// FromScene flattens a scene payload into metrics.
func (p *MeasurementParser) FromScene(data models.SatelliteSceneData, stationID int64) ([]models.SatelliteMetric, error) {
	if stationID <= 0 {
		return nil, fmt.Errorf("invalid station id %d", stationID)
	}
	if data.SceneID == "" {
		return nil, errors.New("satellite scene has no scene_id")
	}
	if len(data.Metrics) == 0 {
		return nil, errors.New("satellite scene has no metrics")
	}

	metrics := make([]models.SatelliteMetric, 0, len(data.Metrics))
	for _, md := range data.Metrics {
		metrics = append(metrics, models.SatelliteMetric{
			StationID: stationID,
			SceneID:   data.SceneID,
			Kind:      models.ParseSatelliteMetricKind(md.Kind),
			Value:     md.Value,
			Unit:      md.Unit,
			SceneTime: data.SceneTime,
		})
	}
	return metrics, nil
}

// FormatMeasurement formats a measurement for logging or debugging
func (p *MeasurementParser) FormatMeasurement(m *models.Measurement) string {
	return fmt.Sprintf("Station: %d, Time: %s, pH: %s, Temp: %s °C, Turbidity: %s NTU, DO: %s mg/L, Cond: %s µS/cm",
		m.StationID,
		m.Timestamp.Format("2006-01-02 15:04:05"),
		formatOptional(m.Ph),
		formatOptional(m.Temperature),
		formatOptional(m.Turbidity),
		formatOptional(m.DissolvedOxygen),
		formatOptional(m.Conductivity))
}

func formatOptional(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *v)
}
