package main

import (
	"flag"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/Capstone-E1/aquawatch_backend/config"
	"github.com/Capstone-E1/aquawatch_backend/internal/logger"
	"github.com/Capstone-E1/aquawatch_backend/internal/mqtt"
)

func main() {
	var (
		stations      = flag.Int("stations", 3, "Number of simulated stations")
		interval      = flag.Duration("interval", 10*time.Second, "Time between measurement rounds")
		satelliteEach = flag.Int("satellite-every", 6, "Publish a satellite scene every N rounds (0 disables)")
		rounds        = flag.Int("rounds", 0, "Stop after N rounds (0 runs until interrupted)")
		drift         = flag.Float64("drift", 0.05, "Pollution drift per round")
		seed          = flag.Int64("seed", time.Now().UnixNano(), "Random seed")
	)
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	lg, err := logger.New(cfg.Log.Level, "console", "aquawatch-simulator")
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer lg.Sync()

	if cfg.MQTT.BrokerURL == "" {
		lg.Fatal("MQTT_BROKER_URL is required for the simulator")
	}

	mqttCfg := cfg.MQTT
	mqttCfg.ClientID = cfg.MQTT.ClientID + "_simulator"
	client := mqtt.NewClient(mqttCfg, nil, lg)
	if err := client.Connect(); err != nil {
		lg.Fatal("failed to connect to broker", zap.Error(err))
	}
	defer client.Disconnect()

	gen := NewGenerator(rand.New(rand.NewSource(*seed)), *drift)
	lg.Info("simulator started",
		zap.Int("stations", *stations), zap.Duration("interval", *interval), zap.Int64("seed", *seed))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	for round := 1; ; round++ {
		now := time.Now()
		for id := int64(1); id <= int64(*stations); id++ {
			if err := client.PublishMeasurement(id, gen.Measurement(id, now)); err != nil {
				lg.Warn("publish measurement failed", zap.Int64("station_id", id), zap.Error(err))
			}
			if *satelliteEach > 0 && round%*satelliteEach == 0 {
				if err := client.PublishSatellite(id, gen.Scene(id, now)); err != nil {
					lg.Warn("publish satellite scene failed", zap.Int64("station_id", id), zap.Error(err))
				}
			}
		}
		lg.Info("round published", zap.Int("round", round))

		if *rounds > 0 && round >= *rounds {
			return
		}

		select {
		case <-ticker.C:
		case <-quit:
			lg.Info("simulator stopped")
			return
		}
	}
}
