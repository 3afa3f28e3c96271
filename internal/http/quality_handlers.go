package http

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/Capstone-E1/aquawatch_backend/internal/models"
	"github.com/Capstone-E1/aquawatch_backend/internal/services"
)

// QualityHandlers serves water quality index and forecast endpoints
type QualityHandlers struct {
	quality   *services.QualityService
	forecasts *services.ForecastService
	logger    *zap.Logger
}

func NewQualityHandlers(deps Dependencies) *QualityHandlers {
	return &QualityHandlers{
		quality:   deps.Quality,
		forecasts: deps.Forecasts,
		logger:    deps.Logger,
	}
}

// ComputeQuality computes and stores the current observation of a station
func (h *QualityHandlers) ComputeQuality(w http.ResponseWriter, r *http.Request) {
	stationID, err := stationIDParam(r)
	if err != nil {
		sendErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	obs, err := h.quality.ComputeCurrentQuality(r.Context(), stationID)
	if err != nil {
		sendServiceError(w, h.logger, err)
		return
	}
	sendData(w, http.StatusOK, obs)
}

func (h *QualityHandlers) GetLatestObservation(w http.ResponseWriter, r *http.Request) {
	stationID, err := stationIDParam(r)
	if err != nil {
		sendErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	obs, err := h.quality.GetLatestObservation(r.Context(), stationID)
	if err != nil {
		sendServiceError(w, h.logger, err)
		return
	}
	sendData(w, http.StatusOK, obs)
}

// GetObservations returns observation history, newest first
func (h *QualityHandlers) GetObservations(w http.ResponseWriter, r *http.Request) {
	stationID, err := stationIDParam(r)
	if err != nil {
		sendErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}
	limit, err := intQuery(r, "limit", services.DefaultObservationLimit)
	if err != nil {
		sendErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	obs, err := h.quality.GetObservations(r.Context(), stationID, limit)
	if err != nil {
		sendServiceError(w, h.logger, err)
		return
	}
	sendData(w, http.StatusOK, obs)
}

// PredictQuality scores hypothetical parameter values
func (h *QualityHandlers) PredictQuality(w http.ResponseWriter, r *http.Request) {
	var in models.PredictionInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		sendErrorResponse(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	res, err := h.quality.PredictQuality(r.Context(), in)
	if err != nil {
		sendServiceError(w, h.logger, err)
		return
	}
	sendData(w, http.StatusOK, res)
}

func (h *QualityHandlers) GetPredictionHistory(w http.ResponseWriter, r *http.Request) {
	stationID, err := stationIDParam(r)
	if err != nil {
		sendErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	history, err := h.quality.GetPredictionHistory(r.Context(), stationID)
	if err != nil {
		sendServiceError(w, h.logger, err)
		return
	}
	sendData(w, http.StatusOK, history)
}

func (h *QualityHandlers) GetAllPredictionHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.quality.GetAllPredictionHistory(r.Context())
	if err != nil {
		sendServiceError(w, h.logger, err)
		return
	}
	sendData(w, http.StatusOK, history)
}

// CreateForecast projects a station's quality horizon_hours ahead (default 24)
func (h *QualityHandlers) CreateForecast(w http.ResponseWriter, r *http.Request) {
	stationID, err := stationIDParam(r)
	if err != nil {
		sendErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}
	horizon, err := intQuery(r, "horizon_hours", services.DefaultHorizonHours)
	if err != nil {
		sendErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	f, err := h.forecasts.CreateForecast(r.Context(), stationID, horizon)
	if err != nil {
		sendServiceError(w, h.logger, err)
		return
	}
	sendData(w, http.StatusCreated, f)
}

// CreateAllForecasts creates one forecast per configured horizon
func (h *QualityHandlers) CreateAllForecasts(w http.ResponseWriter, r *http.Request) {
	stationID, err := stationIDParam(r)
	if err != nil {
		sendErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	forecasts, err := h.forecasts.CreateMultipleForecasts(r.Context(), stationID)
	if err != nil {
		sendServiceError(w, h.logger, err)
		return
	}
	sendData(w, http.StatusCreated, forecasts)
}

func (h *QualityHandlers) GetLatestForecast(w http.ResponseWriter, r *http.Request) {
	stationID, err := stationIDParam(r)
	if err != nil {
		sendErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	f, err := h.forecasts.GetLatestForecast(r.Context(), stationID)
	if err != nil {
		sendServiceError(w, h.logger, err)
		return
	}
	sendData(w, http.StatusOK, f)
}

// GetSimpleForecast returns the latest forecast or creates a 24h one
func (h *QualityHandlers) GetSimpleForecast(w http.ResponseWriter, r *http.Request) {
	stationID, err := stationIDParam(r)
	if err != nil {
		sendErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	f, err := h.forecasts.GetSimpleForecast(r.Context(), stationID)
	if err != nil {
		sendServiceError(w, h.logger, err)
		return
	}
	sendData(w, http.StatusOK, f)
}

// GetForecasts lists recent forecasts. An optional days parameter overrides the configured window.
func (h *QualityHandlers) GetForecasts(w http.ResponseWriter, r *http.Request) {
	stationID, err := stationIDParam(r)
	if err != nil {
		sendErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}
	days, err := intQuery(r, "days", 0)
	if err != nil {
		sendErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	var forecasts []models.Forecast
	if days > 0 {
		forecasts, err = h.forecasts.GetForecastHistory(r.Context(), stationID, days)
	} else {
		forecasts, err = h.forecasts.GetForecasts(r.Context(), stationID)
	}
	if err != nil {
		sendServiceError(w, h.logger, err)
		return
	}
	sendData(w, http.StatusOK, forecasts)
}
