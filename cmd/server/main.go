package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/Capstone-E1/aquawatch_backend/config"
	"github.com/Capstone-E1/aquawatch_backend/internal/alert"
	"github.com/Capstone-E1/aquawatch_backend/internal/database"
	httphandlers "github.com/Capstone-E1/aquawatch_backend/internal/http"
	"github.com/Capstone-E1/aquawatch_backend/internal/logger"
	"github.com/Capstone-E1/aquawatch_backend/internal/metrics"
	"github.com/Capstone-E1/aquawatch_backend/internal/mqtt"
	"github.com/Capstone-E1/aquawatch_backend/internal/services"
	"github.com/Capstone-E1/aquawatch_backend/internal/store"
	"github.com/Capstone-E1/aquawatch_backend/internal/ws"
)

func main() {
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	lg, err := logger.New(cfg.Log.Level, cfg.Log.Format, "aquawatch-server")
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer lg.Sync()

	if envErr != nil {
		lg.Debug("no .env file loaded", zap.Error(envErr))
	}
	lg.Info("starting AquaWatch water quality backend",
		zap.String("port", cfg.Server.Port), zap.String("db_driver", cfg.Database.Driver))

	// Database store with in-memory fallback
	var dataStore store.DataStore
	var sqlDB *sql.DB

	db, err := database.Connect(cfg.Database, lg)
	if err != nil {
		lg.Warn("database unavailable, falling back to in-memory storage", zap.Error(err))
		dataStore = store.NewStore(1000)
	} else {
		defer db.Close()
		if err := database.CreateTables(db.DB, db.Driver, lg); err != nil {
			lg.Fatal("failed to create tables", zap.Error(err))
		}
		sqlDB = db.DB
		dataStore = database.NewDatabaseStore(db.DB)
	}

	metrics.Init(sqlDB, lg)

	var dispatcher alert.Dispatcher
	if cfg.Alerts.ServiceURL != "" {
		dispatcher = alert.NewClient(cfg.Alerts.ServiceURL, cfg.Alerts.Timeout, cfg.Alerts.RetryCount, lg)
		lg.Info("alerts forwarded to alert service", zap.String("url", cfg.Alerts.ServiceURL))
	} else {
		dispatcher = alert.NewLogDispatcher(lg)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	wsHub := ws.NewHub(lg)
	go wsHub.Run(ctx)

	quality := services.NewQualityService(dataStore, dispatcher, wsHub, lg)
	forecasts := services.NewForecastService(dataStore, quality, dispatcher, wsHub, cfg.Forecast, lg)
	ingest := services.NewIngestService(dataStore, quality, wsHub, cfg.MQTT.AutoCompute, lg)

	var mqttClient *mqtt.Client
	if cfg.MQTT.BrokerURL != "" {
		mqttClient = mqtt.NewClient(cfg.MQTT, ingest, lg)
		mqttClient.SetErrorHandler(func(err error) {
			lg.Warn("mqtt error", zap.Error(err))
		})
		if err := mqttClient.Connect(); err != nil {
			lg.Warn("continuing without MQTT", zap.Error(err))
			mqttClient = nil
		} else if err := mqttClient.Subscribe(); err != nil {
			lg.Warn("mqtt subscribe failed", zap.Error(err))
		}
	} else {
		lg.Info("MQTT broker not configured, skipping MQTT ingestion")
	}

	var scheduler *services.Scheduler
	if cfg.Scheduler.Enabled {
		scheduler = services.NewScheduler(dataStore, quality, forecasts, cfg.Scheduler.Spec, lg)
		if err := scheduler.Start(); err != nil {
			lg.Fatal("failed to start scheduler", zap.Error(err))
		}
	}

	router := httphandlers.SetupRoutes(httphandlers.Dependencies{
		Store:     dataStore,
		Ingest:    ingest,
		Quality:   quality,
		Forecasts: forecasts,
		Hub:       wsHub,
		Logger:    lg,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		lg.Info("HTTP server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	lg.Info("shutting down server")

	if scheduler != nil {
		scheduler.Stop()
	}
	if mqttClient != nil {
		mqttClient.Disconnect()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		lg.Error("server forced to shutdown", zap.Error(err))
	}
	cancel()

	lg.Info("server shutdown complete")
}
