package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/Capstone-E1/aquawatch_backend/internal/metrics"
	"github.com/Capstone-E1/aquawatch_backend/internal/store"
)

const runTimeout = 5 * time.Minute

// Scheduler periodically recomputes observations and forecasts for every active station
type Scheduler struct {
	store     store.DataStore
	quality   *QualityService
	forecasts *ForecastService
	spec      string
	logger    *zap.Logger

	mu        sync.Mutex
	cron      *cron.Cron
	isRunning bool
}

// NewScheduler creates a scheduler running on the given cron spec (e.g. "@hourly")
func NewScheduler(dataStore store.DataStore, quality *QualityService, forecasts *ForecastService, spec string, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		store:     dataStore,
		quality:   quality,
		forecasts: forecasts,
		spec:      spec,
		logger:    logger,
	}
}

// Start registers the recompute job and starts the cron runner
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		s.logger.Warn("scheduler already running")
		return nil
	}

	c := cron.New()
	if _, err := c.AddFunc(s.spec, s.runJob); err != nil {
		return fmt.Errorf("invalid scheduler spec %q: %w", s.spec, err)
	}
	c.Start()

	s.cron = c
	s.isRunning = true
	s.logger.Info("scheduler started", zap.String("spec", s.spec))
	return nil
}

// Stop halts the cron runner and waits for a running job to finish
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}
	<-s.cron.Stop().Done()
	s.isRunning = false
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) runJob() {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	if err := s.RunOnce(ctx); err != nil {
		s.logger.Error("scheduled recompute failed", zap.Error(err))
	}
}

// RunOnce recomputes the observation and the configured forecasts of every active
// station. A failing station does not stop the others.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	stations, err := s.store.GetActiveStations(ctx)
	if err != nil {
		metrics.IncSchedulerRun(err)
		return fmt.Errorf("failed to list stations: %w", err)
	}

	var errs []error
	for _, id := range stations {
		if _, err := s.quality.ComputeCurrentQuality(ctx, id); err != nil {
			errs = append(errs, fmt.Errorf("station %d observation: %w", id, err))
			continue
		}
		if _, err := s.forecasts.CreateMultipleForecasts(ctx, id); err != nil {
			errs = append(errs, fmt.Errorf("station %d forecasts: %w", id, err))
		}
	}

	err = errors.Join(errs...)
	metrics.IncSchedulerRun(err)
	s.logger.Info("scheduled recompute finished",
		zap.Int("stations", len(stations)),
		zap.Int("failures", len(errs)),
	)
	return err
}
