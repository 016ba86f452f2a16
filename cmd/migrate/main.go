package main

import (
	"flag"
	"log"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"taste-test/internal/config"
	"taste-test/internal/db"
)

func main() {
	down := flag.Bool("down", false, "roll back the latest migration instead of applying pending ones")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadDatabaseConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	if *down {
		if err := db.RollbackMigrations(logger, cfg.DatabaseURL); err != nil {
			logger.Fatal("rollback", zap.Error(err))
		}
		return
	}
	if err := db.RunMigrations(logger, cfg.DatabaseURL); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}
}
