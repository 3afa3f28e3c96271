package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Capstone-E1/aquawatch_backend/internal/export"
	"github.com/Capstone-E1/aquawatch_backend/internal/ml"
	"github.com/Capstone-E1/aquawatch_backend/internal/models"
	"github.com/Capstone-E1/aquawatch_backend/internal/services"
	"github.com/Capstone-E1/aquawatch_backend/internal/store"
)

// Handlers contains the station, ingestion and export HTTP handlers
type Handlers struct {
	store         store.DataStore
	ingest        *services.IngestService
	quality       *services.QualityService
	forecasts     *services.ForecastService
	exportService *export.ExportService
	logger        *zap.Logger
}

// NewHandlers creates a new handlers instance
func NewHandlers(deps Dependencies) *Handlers {
	return &Handlers{
		store:         deps.Store,
		ingest:        deps.Ingest,
		quality:       deps.Quality,
		forecasts:     deps.Forecasts,
		exportService: export.NewExportService(),
		logger:        deps.Logger,
	}
}

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func sendJSON(w http.ResponseWriter, statusCode int, response APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(response)
}

func sendData(w http.ResponseWriter, statusCode int, data interface{}) {
	sendJSON(w, statusCode, APIResponse{Success: true, Data: data})
}

// sendErrorResponse sends a standardized error response
func sendErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	sendJSON(w, statusCode, APIResponse{Success: false, Error: message})
}

// sendServiceError maps service and store errors to HTTP status codes
func sendServiceError(w http.ResponseWriter, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, services.ErrStationRequired), errors.Is(err, services.ErrInvalidHorizon):
		sendErrorResponse(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, store.ErrNotFound), errors.Is(err, ml.ErrDataUnavailable):
		sendErrorResponse(w, err.Error(), http.StatusNotFound)
	default:
		logger.Error("request failed", zap.Error(err))
		sendErrorResponse(w, "Internal server error", http.StatusInternalServerError)
	}
}

// stationIDParam reads the station id from the {stationID} path segment or the station_id query parameter
func stationIDParam(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "stationID")
	if raw == "" {
		raw = r.URL.Query().Get("station_id")
	}
	if raw == "" {
		return 0, services.ErrStationRequired
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid station id %q", services.ErrStationRequired, raw)
	}
	return id, nil
}

func intQuery(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", key, raw)
	}
	return v, nil
}

// Health reports whether the backing store is reachable
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(); err != nil {
		h.logger.Warn("health check failed", zap.Error(err))
		sendErrorResponse(w, "store unavailable", http.StatusServiceUnavailable)
		return
	}
	sendData(w, http.StatusOK, map[string]string{"status": "ok"})
}

// AddMeasurement handles POST requests carrying a station measurement
func (h *Handlers) AddMeasurement(w http.ResponseWriter, r *http.Request) {
	stationID, err := stationIDParam(r)
	if err != nil {
		sendErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	var data models.MeasurementData
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		sendErrorResponse(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	m, err := h.ingest.Parser().FromData(data, stationID, time.Now())
	if err != nil {
		sendErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	obs, err := h.ingest.IngestMeasurement(r.Context(), m)
	if err != nil {
		sendServiceError(w, h.logger, err)
		return
	}

	sendJSON(w, http.StatusCreated, APIResponse{
		Success: true,
		Message: "Measurement stored",
		Data: map[string]interface{}{
			"measurement": m,
			"observation": obs,
		},
	})
}

// AddSatelliteMetrics handles POST requests carrying one satellite scene
func (h *Handlers) AddSatelliteMetrics(w http.ResponseWriter, r *http.Request) {
	stationID, err := stationIDParam(r)
	if err != nil {
		sendErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	var scene models.SatelliteSceneData
	if err := json.NewDecoder(r.Body).Decode(&scene); err != nil {
		sendErrorResponse(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	metrics, err := h.ingest.Parser().FromScene(scene, stationID)
	if err != nil {
		sendErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.ingest.IngestSatellite(r.Context(), metrics); err != nil {
		sendServiceError(w, h.logger, err)
		return
	}

	sendJSON(w, http.StatusCreated, APIResponse{Success: true, Message: "Satellite metrics stored", Data: metrics})
}

func (h *Handlers) GetLatestMeasurement(w http.ResponseWriter, r *http.Request) {
	stationID, err := stationIDParam(r)
	if err != nil {
		sendErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	m, err := h.store.GetLatestMeasurement(r.Context(), stationID)
	if err != nil {
		sendServiceError(w, h.logger, err)
		return
	}
	sendData(w, http.StatusOK, m)
}

// GetStations lists the stations that have reported measurements
func (h *Handlers) GetStations(w http.ResponseWriter, r *http.Request) {
	stations, err := h.store.GetActiveStations(r.Context())
	if err != nil {
		sendServiceError(w, h.logger, err)
		return
	}
	sendData(w, http.StatusOK, stations)
}

func (h *Handlers) exportData(r *http.Request) (export.ExportData, error) {
	stationID, err := stationIDParam(r)
	if err != nil {
		return export.ExportData{}, err
	}

	observations, err := h.quality.GetObservations(r.Context(), stationID, services.MaxObservationLimit)
	if err != nil {
		return export.ExportData{}, err
	}
	forecasts, err := h.forecasts.GetForecasts(r.Context(), stationID)
	if err != nil {
		return export.ExportData{}, err
	}

	return export.ExportData{
		StationID:    stationID,
		Observations: observations,
		Forecasts:    forecasts,
		GeneratedAt:  time.Now(),
	}, nil
}

func attachment(w http.ResponseWriter, contentType, filename string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
}

// ExportObservationsExcel exports a station's quality history as an Excel workbook
func (h *Handlers) ExportObservationsExcel(w http.ResponseWriter, r *http.Request) {
	data, err := h.exportData(r)
	if err != nil {
		sendServiceError(w, h.logger, err)
		return
	}

	content, err := h.exportService.GenerateExcel(data)
	if err != nil {
		sendServiceError(w, h.logger, err)
		return
	}

	attachment(w, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		fmt.Sprintf("aquawatch_station_%d_%s.xlsx", data.StationID, data.GeneratedAt.Format("2006-01-02")))
	w.Write(content)
}

// ExportObservationsCSV exports a station's quality history as CSV
func (h *Handlers) ExportObservationsCSV(w http.ResponseWriter, r *http.Request) {
	data, err := h.exportData(r)
	if err != nil {
		sendServiceError(w, h.logger, err)
		return
	}

	attachment(w, "text/csv",
		fmt.Sprintf("aquawatch_station_%d_%s.csv", data.StationID, data.GeneratedAt.Format("2006-01-02")))
	if err := h.exportService.WriteCSV(w, h.exportService.GenerateCSV(data.Observations)); err != nil {
		h.logger.Error("failed to write csv export", zap.Error(err))
	}
}

// ExportReportPDF renders a station report as PDF
func (h *Handlers) ExportReportPDF(w http.ResponseWriter, r *http.Request) {
	data, err := h.exportData(r)
	if err != nil {
		sendServiceError(w, h.logger, err)
		return
	}

	content, err := h.exportService.GeneratePDF(data)
	if err != nil {
		sendServiceError(w, h.logger, err)
		return
	}

	attachment(w, "application/pdf",
		fmt.Sprintf("aquawatch_station_%d_%s.pdf", data.StationID, data.GeneratedAt.Format("2006-01-02")))
	w.Write(content)
}
