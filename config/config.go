package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the water quality monitoring backend
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	Database  DatabaseConfig  `yaml:"database"`
	Alerts    AlertsConfig    `yaml:"alerts"`
	Forecast  ForecastConfig  `yaml:"forecast"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         string        `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// MQTTConfig holds MQTT broker configuration
type MQTTConfig struct {
	BrokerURL         string        `yaml:"broker_url"`
	ClientID          string        `yaml:"client_id"`
	Username          string        `yaml:"username"`
	Password          string        `yaml:"password"`
	KeepAlive         time.Duration `yaml:"keep_alive"`
	PingTimeout       time.Duration `yaml:"ping_timeout"`
	ConnectRetry      bool          `yaml:"connect_retry"`
	TopicMeasurements string        `yaml:"topic_measurements"`
	TopicSatellite    string        `yaml:"topic_satellite"`
	AutoCompute       bool          `yaml:"auto_compute"`
}

// DatabaseConfig holds database configuration. Driver is "postgres" or "sqlite3".
type DatabaseConfig struct {
	Driver     string `yaml:"driver"`
	URL        string `yaml:"url"`
	Host       string `yaml:"host"`
	Port       string `yaml:"port"`
	User       string `yaml:"user"`
	Password   string `yaml:"password"`
	DBName     string `yaml:"dbname"`
	SSLMode    string `yaml:"sslmode"`
	SQLitePath string `yaml:"sqlite_path"`
}

// AlertsConfig points at the downstream alert service. An empty ServiceURL logs alerts instead.
type AlertsConfig struct {
	ServiceURL string        `yaml:"service_url"`
	Timeout    time.Duration `yaml:"timeout"`
	RetryCount int           `yaml:"retry_count"`
}

// ForecastConfig holds forecasting parameters
type ForecastConfig struct {
	Horizons        []int         `yaml:"horizons"`
	StaleAfter      time.Duration `yaml:"stale_after"`
	HistoryDays     int           `yaml:"history_days"`
	MaxHorizonHours int           `yaml:"max_horizon_hours"`
}

// SchedulerConfig controls the periodic recompute job
type SchedulerConfig struct {
	Enabled bool   `yaml:"enabled"`
	Spec    string `yaml:"spec"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         "8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
		MQTT: MQTTConfig{
			BrokerURL:         "",
			ClientID:          "aquawatch_backend",
			KeepAlive:         30 * time.Second,
			PingTimeout:       10 * time.Second,
			ConnectRetry:      true,
			TopicMeasurements: "aquawatch/stations/+/measurements",
			TopicSatellite:    "aquawatch/stations/+/satellite",
			AutoCompute:       true,
		},
		Database: DatabaseConfig{
			Driver:     "postgres",
			Host:       "localhost",
			Port:       "5432",
			User:       "postgres",
			DBName:     "aquawatch",
			SSLMode:    "disable",
			SQLitePath: "aquawatch.db",
		},
		Alerts: AlertsConfig{
			Timeout:    10 * time.Second,
			RetryCount: 3,
		},
		Forecast: ForecastConfig{
			Horizons:        []int{24, 48, 72},
			StaleAfter:      time.Hour,
			HistoryDays:     30,
			MaxHorizonHours: 720,
		},
		Scheduler: SchedulerConfig{
			Enabled: true,
			Spec:    "@hourly",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the configuration from defaults, then the YAML file named by
// CONFIG_FILE if set, then environment variables.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Server.Port = getEnv("PORT", c.Server.Port)
	c.Server.ReadTimeout = getDurationEnv("SERVER_READ_TIMEOUT", c.Server.ReadTimeout)
	c.Server.WriteTimeout = getDurationEnv("SERVER_WRITE_TIMEOUT", c.Server.WriteTimeout)

	c.MQTT.BrokerURL = normalizeBrokerURL(getEnv("MQTT_BROKER", getEnv("MQTT_BROKER_URL", c.MQTT.BrokerURL)))
	c.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", c.MQTT.ClientID)
	c.MQTT.Username = getEnv("MQTT_USERNAME", c.MQTT.Username)
	c.MQTT.Password = getEnv("MQTT_PASSWORD", c.MQTT.Password)
	c.MQTT.KeepAlive = getDurationEnv("MQTT_KEEP_ALIVE", c.MQTT.KeepAlive)
	c.MQTT.PingTimeout = getDurationEnv("MQTT_PING_TIMEOUT", c.MQTT.PingTimeout)
	c.MQTT.ConnectRetry = getBoolEnv("MQTT_CONNECT_RETRY", c.MQTT.ConnectRetry)
	c.MQTT.TopicMeasurements = getEnv("MQTT_TOPIC_MEASUREMENTS", c.MQTT.TopicMeasurements)
	c.MQTT.TopicSatellite = getEnv("MQTT_TOPIC_SATELLITE", c.MQTT.TopicSatellite)
	c.MQTT.AutoCompute = getBoolEnv("MQTT_AUTO_COMPUTE", c.MQTT.AutoCompute)

	c.Database.Driver = getEnv("DB_DRIVER", c.Database.Driver)
	c.Database.URL = getEnv("DATABASE_URL", c.Database.URL)
	c.Database.Host = getEnv("DB_HOST", c.Database.Host)
	c.Database.Port = getEnv("DB_PORT", c.Database.Port)
	c.Database.User = getEnv("DB_USER", c.Database.User)
	c.Database.Password = getEnv("DB_PASSWORD", c.Database.Password)
	c.Database.DBName = getEnv("DB_NAME", c.Database.DBName)
	c.Database.SSLMode = getEnv("DB_SSLMODE", c.Database.SSLMode)
	c.Database.SQLitePath = getEnv("SQLITE_PATH", c.Database.SQLitePath)

	c.Alerts.ServiceURL = getEnv("ALERT_SERVICE_URL", c.Alerts.ServiceURL)
	c.Alerts.Timeout = getDurationEnv("ALERT_TIMEOUT", c.Alerts.Timeout)
	c.Alerts.RetryCount = getIntEnv("ALERT_RETRY_COUNT", c.Alerts.RetryCount)

	c.Forecast.Horizons = getIntListEnv("FORECAST_HORIZONS", c.Forecast.Horizons)
	c.Forecast.StaleAfter = getDurationEnv("FORECAST_STALE_AFTER", c.Forecast.StaleAfter)
	c.Forecast.HistoryDays = getIntEnv("FORECAST_HISTORY_DAYS", c.Forecast.HistoryDays)
	c.Forecast.MaxHorizonHours = getIntEnv("FORECAST_MAX_HORIZON_HOURS", c.Forecast.MaxHorizonHours)

	c.Scheduler.Enabled = getBoolEnv("SCHEDULER_ENABLED", c.Scheduler.Enabled)
	c.Scheduler.Spec = getEnv("SCHEDULER_SPEC", c.Scheduler.Spec)

	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)
}

// Validate rejects settings the services cannot run with
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite3":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Forecast.MaxHorizonHours <= 0 {
		return fmt.Errorf("forecast max horizon must be positive, got %d", c.Forecast.MaxHorizonHours)
	}
	for _, h := range c.Forecast.Horizons {
		if h <= 0 || h > c.Forecast.MaxHorizonHours {
			return fmt.Errorf("forecast horizon %d out of range (1..%d)", h, c.Forecast.MaxHorizonHours)
		}
	}
	if c.Forecast.HistoryDays <= 0 {
		return fmt.Errorf("forecast history days must be positive, got %d", c.Forecast.HistoryDays)
	}
	return nil
}

// getEnv returns environment variable value or default if not set
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDurationEnv returns duration environment variable value or default if not set
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getBoolEnv returns boolean environment variable value or default if not set
func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getIntListEnv parses a comma separated list such as "24,48,72"
func getIntListEnv(key string, defaultValue []int) []int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []int
	for _, part := range strings.Split(value, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return defaultValue
		}
		out = append(out, n)
	}
	return out
}

// normalizeBrokerURL adds a tcp:// prefix when no scheme is given.
// Supports both "localhost:1883" and "tcp://localhost:1883" formats
func normalizeBrokerURL(broker string) string {
	if broker == "" || strings.Contains(broker, "://") {
		return broker
	}
	return "tcp://" + broker
}
