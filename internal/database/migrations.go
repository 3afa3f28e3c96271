package database

import (
	"database/sql"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Tables lists every table owned by the service, in creation order
var Tables = []string{
	"measurements",
	"satellite_metrics",
	"quality_observations",
	"quality_forecasts",
	"prediction_history",
}

// column type tokens substituted per dialect
var dialectTypes = map[string]map[string]string{
	DriverPostgres: {
		"{{pk}}":   "BIGSERIAL PRIMARY KEY",
		"{{ts}}":   "TIMESTAMP WITH TIME ZONE",
		"{{now}}":  "NOW()",
		"{{json}}": "JSONB",
	},
	DriverSQLite: {
		"{{pk}}":   "INTEGER PRIMARY KEY AUTOINCREMENT",
		"{{ts}}":   "DATETIME",
		"{{now}}":  "CURRENT_TIMESTAMP",
		"{{json}}": "TEXT",
	},
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS measurements (
		id {{pk}},
		station_id BIGINT NOT NULL,
		timestamp {{ts}} NOT NULL,
		ph DOUBLE PRECISION CHECK (ph IS NULL OR (ph >= 0 AND ph <= 14)),
		temperature DOUBLE PRECISION,
		turbidity DOUBLE PRECISION CHECK (turbidity IS NULL OR turbidity >= 0),
		dissolved_oxygen DOUBLE PRECISION CHECK (dissolved_oxygen IS NULL OR dissolved_oxygen >= 0),
		conductivity DOUBLE PRECISION CHECK (conductivity IS NULL OR conductivity >= 0),
		created_at {{ts}} DEFAULT {{now}}
	);`,
	`CREATE TABLE IF NOT EXISTS satellite_metrics (
		id {{pk}},
		station_id BIGINT NOT NULL,
		scene_id VARCHAR(128) NOT NULL,
		kind VARCHAR(32) NOT NULL,
		value DOUBLE PRECISION NOT NULL,
		unit VARCHAR(32),
		scene_time {{ts}} NOT NULL,
		created_at {{ts}} DEFAULT {{now}}
	);`,
	`CREATE TABLE IF NOT EXISTS quality_observations (
		id {{pk}},
		station_id BIGINT NOT NULL,
		timestamp {{ts}} NOT NULL,
		score DOUBLE PRECISION NOT NULL CHECK (score >= 0 AND score <= 100),
		status VARCHAR(16) NOT NULL CHECK (status IN ('GOOD', 'MODERATE', 'BAD')),
		details TEXT
	);`,
	`CREATE TABLE IF NOT EXISTS quality_forecasts (
		id {{pk}},
		station_id BIGINT NOT NULL,
		created_at {{ts}} NOT NULL,
		forecast_time {{ts}} NOT NULL,
		horizon_hours INTEGER NOT NULL CHECK (horizon_hours > 0),
		predicted_score DOUBLE PRECISION NOT NULL CHECK (predicted_score >= 0 AND predicted_score <= 100),
		predicted_status VARCHAR(16) NOT NULL,
		model_name VARCHAR(64) NOT NULL,
		model_version VARCHAR(16) NOT NULL,
		confidence DOUBLE PRECISION NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS prediction_history (
		id {{pk}},
		station_id BIGINT NOT NULL,
		ph DOUBLE PRECISION,
		temperature DOUBLE PRECISION,
		turbidity DOUBLE PRECISION,
		dissolved_oxygen DOUBLE PRECISION,
		conductivity DOUBLE PRECISION,
		score DOUBLE PRECISION NOT NULL,
		status VARCHAR(16) NOT NULL,
		details TEXT,
		parameter_scores {{json}},
		recommendations {{json}},
		created_at {{ts}} NOT NULL
	);`,
}

var indexes = []string{
	"CREATE INDEX IF NOT EXISTS idx_measurements_station_ts ON measurements(station_id, timestamp DESC);",
	"CREATE INDEX IF NOT EXISTS idx_satellite_metrics_station_scene ON satellite_metrics(station_id, scene_time DESC);",
	"CREATE INDEX IF NOT EXISTS idx_observations_station_ts ON quality_observations(station_id, timestamp DESC);",
	"CREATE INDEX IF NOT EXISTS idx_forecasts_station_created ON quality_forecasts(station_id, created_at DESC);",
	"CREATE INDEX IF NOT EXISTS idx_prediction_history_station ON prediction_history(station_id, created_at DESC);",
}

// renderDDL replaces dialect tokens in a statement
func renderDDL(stmt, driver string) string {
	for token, sqlType := range dialectTypes[driver] {
		stmt = strings.ReplaceAll(stmt, token, sqlType)
	}
	return stmt
}

// CreateTables creates all necessary tables for the given driver
func CreateTables(db *sql.DB, driver string, log *zap.Logger) error {
	if _, ok := dialectTypes[driver]; !ok {
		return fmt.Errorf("unsupported database driver %q", driver)
	}
	log.Info("creating database tables", zap.String("driver", driver))

	for i, stmt := range schema {
		if _, err := db.Exec(renderDDL(stmt, driver)); err != nil {
			return fmt.Errorf("failed to create %s table: %w", Tables[i], err)
		}
	}

	for _, indexSQL := range indexes {
		if _, err := db.Exec(indexSQL); err != nil {
			log.Warn("failed to create index", zap.String("sql", indexSQL), zap.Error(err))
		}
	}

	log.Info("database tables created")
	return nil
}

// DropTables drops all tables (useful for testing)
func DropTables(db *sql.DB, driver string, log *zap.Logger) error {
	log.Info("dropping database tables", zap.String("driver", driver))

	for i := len(Tables) - 1; i >= 0; i-- {
		query := fmt.Sprintf("DROP TABLE IF EXISTS %s", Tables[i])
		if driver == DriverPostgres {
			query += " CASCADE"
		}
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", Tables[i], err)
		}
	}

	log.Info("database tables dropped")
	return nil
}

// CheckTablesExist checks if all required tables exist
func CheckTablesExist(db *sql.DB, driver string) error {
	query := `SELECT EXISTS (
		SELECT FROM information_schema.tables
		WHERE table_name = $1
	);`
	if driver == DriverSQLite {
		query = `SELECT EXISTS (SELECT 1 FROM sqlite_master WHERE type = 'table' AND name = $1);`
	}

	for _, table := range Tables {
		var exists bool
		if err := db.QueryRow(query, table).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check table %s: %w", table, err)
		}
		if !exists {
			return fmt.Errorf("table %s does not exist", table)
		}
	}

	return nil
}
