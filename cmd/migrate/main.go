package main

import (
	"flag"
	"log"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/Capstone-E1/aquawatch_backend/config"
	"github.com/Capstone-E1/aquawatch_backend/internal/database"
	"github.com/Capstone-E1/aquawatch_backend/internal/logger"
)

func main() {
	var (
		drop   = flag.Bool("drop", false, "Drop all tables before creating")
		create = flag.Bool("create", true, "Create tables")
		check  = flag.Bool("check", false, "Check if tables exist")
		reset  = flag.Bool("reset", false, "Drop and recreate every table")
	)
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	lg, err := logger.New(cfg.Log.Level, "console", "aquawatch-migrate")
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer lg.Sync()

	db, err := database.Connect(cfg.Database, lg)
	if err != nil {
		lg.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if *reset {
		*drop = true
		*create = true
	}

	if *drop {
		if err := database.DropTables(db.DB, db.Driver, lg); err != nil {
			lg.Fatal("failed to drop tables", zap.Error(err))
		}
	}

	if *create {
		if err := database.CreateTables(db.DB, db.Driver, lg); err != nil {
			lg.Fatal("failed to create tables", zap.Error(err))
		}
	}

	if *check {
		if err := database.CheckTablesExist(db.DB, db.Driver); err != nil {
			lg.Fatal("table check failed", zap.Error(err))
		}
		lg.Info("all tables present", zap.Strings("tables", database.Tables))
	}

	lg.Info("migration completed")
}
