package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"grocery-planner/internal/config"
	"grocery-planner/internal/database"
	"grocery-planner/internal/logging"
	"grocery-planner/internal/metrics"
	"grocery-planner/internal/session"

	"github.com/sirupsen/logrus"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.NewFromEnv()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	logger := logging.New(cfg.LogLevel)
	ctx := context.Background()

	switch os.Args[1] {
	case "migrate":
		if err := database.RunMigrations(cfg.DatabasePath); err != nil {
			logger.WithError(err).Fatal("migration failed")
		}
		fmt.Println("Database is up to date.")

	case "sessions-cleanup":
		db, err := database.NewDB(cfg.DatabasePath, logger)
		if err != nil {
			logger.WithError(err).Fatal("failed to open database")
		}
		defer db.Close()

		var store session.Store = session.NewSQLiteStore(db.SQL)
		if cfg.SessionStore == config.SessionStoreMongo {
			mongoStore, err := session.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
			if err != nil {
				logger.WithError(err).Fatal("failed to connect to mongodb")
			}
			defer mongoStore.Close(ctx)
			store = mongoStore
		}

		removed, err := store.CleanupExpired(ctx, time.Now())
		if err != nil {
			logger.WithError(err).Fatal("session cleanup failed")
		}
		fmt.Printf("Successfully removed %d expired sessions.\n", removed)

	case "metrics-cleanup":
		cleanupCmd := flag.NewFlagSet("metrics-cleanup", flag.ExitOnError)
		days := cleanupCmd.Int("days", 30, "Keep records for the last N days")
		_ = cleanupCmd.Parse(os.Args[2:])

		db, err := database.NewDB(cfg.DatabasePath, logger)
		if err != nil {
			logger.WithError(err).Fatal("failed to open database")
		}
		defer db.Close()

		affected, err := metrics.NewStore(db.SQL).Cleanup(ctx, *days)
		if err != nil {
			logger.WithError(err).Fatal("metrics cleanup failed")
		}
		fmt.Printf("Successfully removed %d old metric records.\n", affected)

	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: plannerctl <command> [arguments]")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  migrate                    Apply database migrations")
	fmt.Println("  sessions-cleanup           Remove expired sessions")
	fmt.Println("  metrics-cleanup [-days N]  Remove LLM usage records older than N days")
}
