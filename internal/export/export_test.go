package export

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Capstone-E1/aquawatch_backend/internal/models"
)

func sampleData() ExportData {
	base := time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)
	return ExportData{
		StationID:   4,
		GeneratedAt: base,
		Observations: []models.Observation{
			{StationID: 4, Timestamp: base, Score: 82, Status: models.StatusGood, Details: "Measurements: pH=7.00, Temp=20.0°C. All parameters within norms."},
			{StationID: 4, Timestamp: base.Add(-time.Hour), Score: 55, Status: models.StatusModerate, Details: "Issues: turbidity elevated (12.0)"},
			{StationID: 4, Timestamp: base.Add(-2 * time.Hour), Score: 30, Status: models.StatusBad, Details: "Issues: low dissolved oxygen (3.0)"},
		},
		Forecasts: []models.Forecast{
			{StationID: 4, CreatedAt: base, ForecastTime: base.Add(24 * time.Hour), HorizonHours: 24, PredictedScore: 79, PredictedStatus: models.StatusGood, ModelName: "SimpleDegradationModel", ModelVersion: "v1.0", Confidence: 0.5},
		},
	}
}

func TestSummarize(t *testing.T) {
	data := sampleData()
	s := Summarize(data.Observations)

	assert.Equal(t, 3, s.Count)
	assert.InDelta(t, 55.67, s.AverageScore, 0.01)
	assert.Equal(t, 30.0, s.MinScore)
	assert.Equal(t, 82.0, s.MaxScore)
	assert.Equal(t, 1, s.ByStatus[models.StatusBad])
	assert.Equal(t, data.Observations[2].Timestamp, s.From)
	assert.Equal(t, data.Observations[0].Timestamp, s.To)

	empty := Summarize(nil)
	assert.Zero(t, empty.Count)
	assert.NotNil(t, empty.ByStatus)
}

func TestGenerateExcel(t *testing.T) {
	es := NewExportService()

	content, err := es.GenerateExcel(sampleData())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(content))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Summary", "Observations", "Forecasts"}, f.GetSheetList())

	title, err := f.GetCellValue("Summary", "A1")
	require.NoError(t, err)
	assert.Equal(t, "AquaWatch Water Quality Report", title)

	status, err := f.GetCellValue("Observations", "C4")
	require.NoError(t, err)
	assert.Equal(t, "BAD", status)

	model, err := f.GetCellValue("Forecasts", "F2")
	require.NoError(t, err)
	assert.Equal(t, "SimpleDegradationModel v1.0", model)
}

func TestGenerateCSV(t *testing.T) {
	es := NewExportService()
	records := es.GenerateCSV(sampleData().Observations)

	require.Len(t, records, 4)
	assert.Equal(t, []string{"Timestamp", "Station", "Score", "Status", "Details"}, records[0])
	assert.Equal(t, "55.00", records[2][2])

	var buf bytes.Buffer
	require.NoError(t, es.WriteCSV(&buf, records))

	parsed, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, records, parsed)
}

func TestGeneratePDF(t *testing.T) {
	es := NewExportService()

	content, err := es.GeneratePDF(sampleData())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(content, []byte("%PDF")))

	empty, err := es.GeneratePDF(ExportData{StationID: 1, GeneratedAt: time.Now()})
	require.NoError(t, err)
	assert.NotEmpty(t, empty)
}
