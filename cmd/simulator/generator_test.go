package main

import (
	"math/rand"
	"testing"
	"time"

	"github.com/Capstone-E1/aquawatch_backend/internal/models"
)

func TestGenerator_Deterministic(t *testing.T) {
	now := time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)
	a := NewGenerator(rand.New(rand.NewSource(42)), 0.1)
	b := NewGenerator(rand.New(rand.NewSource(42)), 0.1)

	for i := 0; i < 20; i++ {
		ma := a.Measurement(1, now)
		mb := b.Measurement(1, now)
		if *ma.Ph != *mb.Ph || *ma.Conductivity != *mb.Conductivity {
			t.Fatalf("step %d: same seed produced different readings", i)
		}
	}
}

func TestGenerator_ValuesAreValid(t *testing.T) {
	now := time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)
	gen := NewGenerator(rand.New(rand.NewSource(7)), 0.3)

	for i := 0; i < 200; i++ {
		data := gen.Measurement(2, now)
		m := models.Measurement{
			StationID:       2,
			Timestamp:       *data.Timestamp,
			Ph:              data.Ph,
			Temperature:     data.Temperature,
			Turbidity:       data.Turbidity,
			DissolvedOxygen: data.DissolvedOxygen,
			Conductivity:    data.Conductivity,
		}
		if err := m.Validate(); err != nil {
			t.Fatalf("step %d: generated invalid measurement: %v", i, err)
		}

		p := gen.Pollution(2)
		if p < 0 || p > 1 {
			t.Fatalf("pollution %f out of [0,1]", p)
		}
	}
}

func TestGenerator_Scene(t *testing.T) {
	gen := NewGenerator(rand.New(rand.NewSource(1)), 0.1)
	scene := gen.Scene(3, time.Now())

	if scene.SceneID == "" {
		t.Error("expected scene id")
	}
	if len(scene.Metrics) != 3 {
		t.Fatalf("expected 3 metrics, got %d", len(scene.Metrics))
	}
	for _, m := range scene.Metrics {
		if models.ParseSatelliteMetricKind(m.Kind) == models.MetricOther {
			t.Errorf("unexpected kind %q", m.Kind)
		}
	}
}
