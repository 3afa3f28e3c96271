package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/Capstone-E1/aquawatch_backend/internal/metrics"
	"github.com/Capstone-E1/aquawatch_backend/internal/services"
	"github.com/Capstone-E1/aquawatch_backend/internal/store"
	"github.com/Capstone-E1/aquawatch_backend/internal/ws"
)

// Dependencies are the collaborators the HTTP layer needs. Hub may be nil.
type Dependencies struct {
	Store     store.DataStore
	Ingest    *services.IngestService
	Quality   *services.QualityService
	Forecasts *services.ForecastService
	Hub       *ws.Hub
	Logger    *zap.Logger
}

// SetupRoutes configures all HTTP routes for the water quality API
func SetupRoutes(deps Dependencies) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(deps.Logger))
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	handlers := NewHandlers(deps)
	qualityHandlers := NewQualityHandlers(deps)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", handlers.Health)

		// Station data ingestion
		r.Get("/stations", handlers.GetStations)
		r.Route("/stations/{stationID}", func(r chi.Router) {
			r.Post("/measurements", handlers.AddMeasurement)
			r.Get("/measurements/latest", handlers.GetLatestMeasurement)
			r.Post("/satellite-metrics", handlers.AddSatelliteMetrics)
		})

		// Water quality index
		r.Route("/quality", func(r chi.Router) {
			r.Post("/compute", qualityHandlers.ComputeQuality)
			r.Get("/latest", qualityHandlers.GetLatestObservation)
			r.Get("/observations", qualityHandlers.GetObservations)
			r.Post("/predict", qualityHandlers.PredictQuality)
			r.Get("/history", qualityHandlers.GetAllPredictionHistory)
			r.Get("/history/{stationID}", qualityHandlers.GetPredictionHistory)
		})

		// Forecasts
		r.Route("/forecast", func(r chi.Router) {
			r.Get("/", qualityHandlers.GetForecasts)
			r.Post("/create", qualityHandlers.CreateForecast)
			r.Post("/create-all", qualityHandlers.CreateAllForecasts)
			r.Get("/latest", qualityHandlers.GetLatestForecast)
			r.Get("/simple", qualityHandlers.GetSimpleForecast)
		})

		// Export routes for quality history
		r.Route("/export", func(r chi.Router) {
			r.Get("/observations.xlsx", handlers.ExportObservationsExcel)
			r.Get("/observations.csv", handlers.ExportObservationsCSV)
			r.Get("/report.pdf", handlers.ExportReportPDF)
		})
	})

	r.Handle("/metrics", metrics.Handler())

	// WebSocket route for real-time updates
	if deps.Hub != nil {
		r.HandleFunc("/ws", deps.Hub.HandleWebSocket)
	}

	return r
}

// requestLogger logs each request with zap
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			logger.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
