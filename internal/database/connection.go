package database

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/Capstone-E1/aquawatch_backend/config"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

// DB holds the database connection and the driver it was opened with
type DB struct {
	*sql.DB
	Driver string
}

// Connect opens and pings the configured database
func Connect(cfg config.DatabaseConfig, log *zap.Logger) (*DB, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DriverPostgres
	}

	dsn := BuildConnectionString(cfg)
	switch driver {
	case DriverPostgres:
		if cfg.URL != "" {
			log.Info("using DATABASE_URL from environment")
		} else {
			log.Info("connecting to postgres",
				zap.String("host", cfg.Host), zap.String("port", cfg.Port), zap.String("db", cfg.DBName))
		}
	case DriverSQLite:
		log.Info("opening sqlite database", zap.String("path", cfg.SQLitePath))
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Configure connection pool
	if driver == DriverSQLite {
		// sqlite allows a single writer
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(10)
	}

	log.Info("connected to database", zap.String("driver", driver))

	return &DB{DB: db, Driver: driver}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	if db.DB != nil {
		return db.DB.Close()
	}
	return nil
}

// BuildConnectionString returns the DSN for the configured driver
func BuildConnectionString(cfg config.DatabaseConfig) string {
	if cfg.Driver == DriverSQLite {
		return cfg.SQLitePath + "?_foreign_keys=on"
	}
	if cfg.URL != "" {
		return cfg.URL
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)
}
