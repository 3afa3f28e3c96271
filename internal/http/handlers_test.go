package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Capstone-E1/aquawatch_backend/config"
	"github.com/Capstone-E1/aquawatch_backend/internal/alert"
	"github.com/Capstone-E1/aquawatch_backend/internal/services"
	"github.com/Capstone-E1/aquawatch_backend/internal/store"
)

const idealBody = `{"ph":7.0,"temperature":20.0,"turbidity":0.5,"dissolved_oxygen":9.0,"conductivity":350}`

func newTestRouter(t *testing.T) *chi.Mux {
	t.Helper()
	logger := zap.NewNop()
	dataStore := store.NewStore(100)
	dispatcher := alert.NewLogDispatcher(logger)

	quality := services.NewQualityService(dataStore, dispatcher, nil, logger)
	forecasts := services.NewForecastService(dataStore, quality, dispatcher, nil, config.Default().Forecast, logger)
	ingest := services.NewIngestService(dataStore, quality, nil, true, logger)

	return SetupRoutes(Dependencies{
		Store:     dataStore,
		Ingest:    ingest,
		Quality:   quality,
		Forecasts: forecasts,
		Logger:    logger,
	})
}

func do(t *testing.T, router http.Handler, method, path, body string) (*httptest.ResponseRecorder, APIResponse) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var resp APIResponse
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func dataMap(t *testing.T, resp APIResponse) map[string]interface{} {
	t.Helper()
	m, ok := resp.Data.(map[string]interface{})
	require.True(t, ok, "unexpected data %T", resp.Data)
	return m
}

func TestHealth(t *testing.T) {
	router := newTestRouter(t)

	rec, resp := do(t, router, http.MethodGet, "/api/v1/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)
}

func TestAddMeasurement(t *testing.T) {
	router := newTestRouter(t)

	rec, resp := do(t, router, http.MethodPost, "/api/v1/stations/1/measurements", idealBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	obs := dataMap(t, resp)["observation"].(map[string]interface{})
	assert.Equal(t, 98.0, obs["score"])
	assert.Equal(t, "GOOD", obs["status"])

	rec, _ = do(t, router, http.MethodGet, "/api/v1/stations/1/measurements/latest", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, resp = do(t, router, http.MethodGet, "/api/v1/stations", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []interface{}{1.0}, resp.Data)
}

func TestAddMeasurement_Invalid(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name string
		path string
		body string
	}{
		{"malformed body", "/api/v1/stations/1/measurements", `{"ph":`},
		{"implausible ph", "/api/v1/stations/1/measurements", `{"ph":20}`},
		{"empty measurement", "/api/v1/stations/1/measurements", `{}`},
		{"bad station", "/api/v1/stations/abc/measurements", idealBody},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, resp := do(t, router, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.False(t, resp.Success)
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestAddSatelliteMetrics(t *testing.T) {
	router := newTestRouter(t)
	body := `{"scene_id":"S2A_1","scene_time":"2025-01-15T10:00:00Z","metrics":[{"kind":"NDWI_MEAN","value":-0.2}]}`

	rec, _ := do(t, router, http.MethodPost, "/api/v1/stations/2/satellite-metrics", body)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec, _ = do(t, router, http.MethodPost, "/api/v1/stations/2/satellite-metrics", `{"metrics":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQualityEndpoints(t *testing.T) {
	router := newTestRouter(t)

	rec, _ := do(t, router, http.MethodGet, "/api/v1/quality/latest", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = do(t, router, http.MethodGet, "/api/v1/quality/latest?station_id=1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = do(t, router, http.MethodPost, "/api/v1/quality/compute?station_id=1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	do(t, router, http.MethodPost, "/api/v1/stations/1/measurements", idealBody)

	rec, resp := do(t, router, http.MethodPost, "/api/v1/quality/compute?station_id=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 98.0, dataMap(t, resp)["score"])

	rec, resp = do(t, router, http.MethodGet, "/api/v1/quality/observations?station_id=1&limit=10", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, resp.Data, 2)

	rec, _ = do(t, router, http.MethodGet, "/api/v1/quality/observations?station_id=1&limit=x", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPredictQuality(t *testing.T) {
	router := newTestRouter(t)

	rec, resp := do(t, router, http.MethodPost, "/api/v1/quality/predict",
		`{"station_id":3,"ph":5.0,"temperature":35.0,"turbidity":15.0,"dissolved_oxygen":3.0,"conductivity":1000}`)
	require.Equal(t, http.StatusOK, rec.Code)
	data := dataMap(t, resp)
	assert.Equal(t, "BAD", data["status"])
	assert.Len(t, data["recommendations"], 5)

	rec, _ = do(t, router, http.MethodPost, "/api/v1/quality/predict", idealBody)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, resp = do(t, router, http.MethodGet, "/api/v1/quality/history/3", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, resp.Data, 1)

	rec, resp = do(t, router, http.MethodGet, "/api/v1/quality/history", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, resp.Data, 1)

	rec, _ = do(t, router, http.MethodPost, "/api/v1/quality/predict", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestForecastEndpoints(t *testing.T) {
	router := newTestRouter(t)
	do(t, router, http.MethodPost, "/api/v1/stations/1/measurements", idealBody)

	rec, _ := do(t, router, http.MethodPost, "/api/v1/forecast/create?station_id=1&horizon_hours=0", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = do(t, router, http.MethodPost, "/api/v1/forecast/create?station_id=1&horizon_hours=9999", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, resp := do(t, router, http.MethodPost, "/api/v1/forecast/create?station_id=1&horizon_hours=24", "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, 24.0, dataMap(t, resp)["horizon_hours"])

	rec, resp = do(t, router, http.MethodPost, "/api/v1/forecast/create-all?station_id=1", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Len(t, resp.Data, 3)

	rec, resp = do(t, router, http.MethodGet, "/api/v1/forecast/latest?station_id=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 72.0, dataMap(t, resp)["horizon_hours"])

	rec, _ = do(t, router, http.MethodGet, "/api/v1/forecast/simple?station_id=1", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, resp = do(t, router, http.MethodGet, "/api/v1/forecast?station_id=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, resp.Data, 4)

	rec, resp = do(t, router, http.MethodGet, "/api/v1/forecast?station_id=1&days=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, resp.Data, 4)

	rec, _ = do(t, router, http.MethodGet, "/api/v1/forecast/latest?station_id=2", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExports(t *testing.T) {
	router := newTestRouter(t)
	do(t, router, http.MethodPost, "/api/v1/stations/1/measurements", idealBody)

	tests := []struct {
		path        string
		contentType string
		prefix      []byte
	}{
		{"/api/v1/export/observations.csv?station_id=1", "text/csv", []byte("Timestamp,Station")},
		{"/api/v1/export/observations.xlsx?station_id=1", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", []byte("PK")},
		{"/api/v1/export/report.pdf?station_id=1", "application/pdf", []byte("%PDF")},
	}

	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			rec, _ := do(t, router, http.MethodGet, tt.path, "")
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.contentType, rec.Header().Get("Content-Type"))
			assert.Contains(t, rec.Header().Get("Content-Disposition"), "aquawatch_station_1_")
			assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), tt.prefix))
		})
	}

	rec, _ := do(t, router, http.MethodGet, "/api/v1/export/observations.csv", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMetricsRoute(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
