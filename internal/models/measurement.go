package models

import (
	"fmt"
	"math"
	"time"
)

// Measurement is a single in-situ sensor reading taken at a monitoring station.
// A nil parameter means the sensor did not report it.
type Measurement struct {
	ID              int64     `json:"id,omitempty"`
	StationID       int64     `json:"station_id"`
	Timestamp       time.Time `json:"timestamp"`
	Ph              *float64  `json:"ph,omitempty"`
	Temperature     *float64  `json:"temperature,omitempty"`
	Turbidity       *float64  `json:"turbidity,omitempty"`
	DissolvedOxygen *float64  `json:"dissolved_oxygen,omitempty"`
	Conductivity    *float64  `json:"conductivity,omitempty"`
}

// MeasurementData is the raw JSON body sent by a station or posted to the API
type MeasurementData struct {
	Timestamp       *time.Time `json:"timestamp,omitempty"`
	Ph              *float64   `json:"ph"`
	Temperature     *float64   `json:"temperature"`
	Turbidity       *float64   `json:"turbidity"`
	DissolvedOxygen *float64   `json:"dissolved_oxygen"`
	Conductivity    *float64   `json:"conductivity"`
}

// Validate checks that every reported value is physically plausible.
func (m *Measurement) Validate() error {
	if m.StationID <= 0 {
		return fmt.Errorf("invalid station id %d", m.StationID)
	}
	for _, p := range []struct {
		name  string
		value *float64
	}{
		{"ph", m.Ph},
		{"temperature", m.Temperature},
		{"turbidity", m.Turbidity},
		{"dissolved oxygen", m.DissolvedOxygen},
		{"conductivity", m.Conductivity},
	} {
		if p.value != nil && (math.IsNaN(*p.value) || math.IsInf(*p.value, 0)) {
			return fmt.Errorf("%s must be a finite number", p.name)
		}
	}
	// pH scale
	if m.Ph != nil && (*m.Ph < 0 || *m.Ph > 14) {
		return fmt.Errorf("ph %.2f out of range [0,14]", *m.Ph)
	}
	if m.Temperature != nil && (*m.Temperature < -5 || *m.Temperature > 60) {
		return fmt.Errorf("temperature %.1f out of range [-5,60]", *m.Temperature)
	}
	if m.Turbidity != nil && *m.Turbidity < 0 {
		return fmt.Errorf("turbidity %.2f must be non-negative", *m.Turbidity)
	}
	if m.DissolvedOxygen != nil && *m.DissolvedOxygen < 0 {
		return fmt.Errorf("dissolved oxygen %.2f must be non-negative", *m.DissolvedOxygen)
	}
	if m.Conductivity != nil && *m.Conductivity < 0 {
		return fmt.Errorf("conductivity %.2f must be non-negative", *m.Conductivity)
	}
	if m.Ph == nil && m.Temperature == nil && m.Turbidity == nil && m.DissolvedOxygen == nil && m.Conductivity == nil {
		return fmt.Errorf("measurement has no parameters")
	}
	return nil
}

// Float returns a pointer to v. Handy for building measurements in code.
func Float(v float64) *float64 {
	return &v
}
