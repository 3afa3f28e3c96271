package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/joho/godotenv"

	"github.com/Capstone-E1/aquawatch_backend/config"
	"github.com/Capstone-E1/aquawatch_backend/internal/database"
	"github.com/Capstone-E1/aquawatch_backend/internal/logger"
)

// ordering column per table, newest first
var orderColumns = map[string]string{
	"measurements":         "timestamp",
	"satellite_metrics":    "scene_time",
	"quality_observations": "timestamp",
	"quality_forecasts":    "created_at",
	"prediction_history":   "created_at",
}

func main() {
	var (
		table = flag.String("table", "measurements", "Table to view ("+strings.Join(database.Tables, ", ")+")")
		limit = flag.Int("limit", 10, "Number of records to show")
	)
	flag.Parse()

	if !slices.Contains(database.Tables, *table) {
		log.Fatalf("unknown table %q, available: %s", *table, strings.Join(database.Tables, ", "))
	}

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	lg, err := logger.New("warn", "console", "aquawatch-viewdata")
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer lg.Sync()

	db, err := database.Connect(cfg.Database, lg)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := printTable(db.DB, *table, *limit); err != nil {
		log.Fatalf("query failed: %v", err)
	}
}

func printTable(db *sql.DB, table string, limit int) error {
	// table is checked against database.Tables before it reaches the query
	query := fmt.Sprintf("SELECT * FROM %s ORDER BY %s DESC LIMIT $1", table, orderColumns[table])
	rows, err := db.Query(query, limit)
	if err != nil {
		return err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Latest %d rows of %s\n", limit, table)
	fmt.Fprintln(w, strings.ToUpper(strings.Join(columns, "\t")))

	values := make([]sql.NullString, len(columns))
	dest := make([]any, len(columns))
	for i := range values {
		dest[i] = &values[i]
	}

	count := 0
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return err
		}
		cells := make([]string, len(values))
		for i, v := range values {
			cells[i] = "-"
			if v.Valid {
				cells[i] = v.String
			}
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
		count++
	}
	if err := rows.Err(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\nTotal: %d rows\n", count)
	return w.Flush()
}
