package models

import "time"

// SatelliteMetricKind identifies which remote-sensing index a metric carries
type SatelliteMetricKind string

const (
	MetricNDWIMean             SatelliteMetricKind = "NDWI_MEAN"
	MetricMNDWIMean            SatelliteMetricKind = "MNDWI_MEAN"
	MetricWaterCoveragePercent SatelliteMetricKind = "WATER_COVERAGE_PERCENT"
	MetricTurbidityIndex       SatelliteMetricKind = "TURBIDITY_INDEX"
	MetricOther                SatelliteMetricKind = "OTHER"
)

// ParseSatelliteMetricKind maps unknown kinds to MetricOther.
func ParseSatelliteMetricKind(s string) SatelliteMetricKind {
	switch k := SatelliteMetricKind(s); k {
	case MetricNDWIMean, MetricMNDWIMean, MetricWaterCoveragePercent, MetricTurbidityIndex:
		return k
	default:
		return MetricOther
	}
}

// SatelliteMetric is one index value derived from a satellite scene over a station
type SatelliteMetric struct {
	ID        int64               `json:"id,omitempty"`
	StationID int64               `json:"station_id"`
	SceneID   string              `json:"scene_id"`
	Kind      SatelliteMetricKind `json:"kind"`
	Value     float64             `json:"value"`
	Unit      string              `json:"unit,omitempty"`
	SceneTime time.Time           `json:"scene_time"`
}

// SatelliteSceneData is the payload carrying all metrics derived from one scene
type SatelliteSceneData struct {
	SceneID   string                `json:"scene_id"`
	SceneTime time.Time             `json:"scene_time"`
	Metrics   []SatelliteMetricData `json:"metrics"`
}

type SatelliteMetricData struct {
	Kind  string  `json:"kind"`
	Value float64 `json:"value"`
	Unit  string  `json:"unit,omitempty"`
}
