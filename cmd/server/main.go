/*
main.go - Application entry point

PURPOSE:
  Starts the back-office server: affiliate tiers and commissions, and the
  protocol schedule generator. Handles configuration, dependency
  injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (.env + environment), apply flag overrides
  2. Initialize logger
  3. Initialize SQLite store
  4. Create API handler and router
  5. Start tier evaluation scheduler
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS (override the environment):
  -port    HTTP server port (PORT, default: 8080)
  -db      SQLite database path (DATABASE_PATH, default: backoffice.db)
           Use ":memory:" for an in-memory database
  -no-cron Do not start the tier evaluation scheduler

ENVIRONMENT:
  PORT, DATABASE_PATH, LOG_LEVEL, ENVIRONMENT, TIER_CRON_SPEC, TIMEZONE,
  CORS_ORIGINS. See config/config.go.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the scheduler (waits for a running evaluation)
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close database connection

EXAMPLES:
  ./server -db="./data/backoffice.db"
  LOG_LEVEL=debug ./server -db=":memory:" -no-cron

SEE ALSO:
  - api/server.go: Router configuration
  - api/scheduler.go: Tier evaluation job
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/peptora/backoffice/api"
	"github.com/peptora/backoffice/config"
	"github.com/peptora/backoffice/logger"
	"github.com/peptora/backoffice/store/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	// Flags
	port := flag.Int("port", cfg.Port, "HTTP server port")
	dbPath := flag.String("db", cfg.DatabasePath, "SQLite database path")
	noCron := flag.Bool("no-cron", false, "Disable the tier evaluation scheduler")
	flag.Parse()
	cfg.Port = *port
	cfg.DatabasePath = *dbPath

	logger.Init(cfg)
	log := logger.Log

	// Initialize store
	store, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	handler := api.NewHandler(store, cfg.Location)
	router := api.NewRouter(handler, cfg.CORSOrigins)

	var scheduler *api.TierScheduler
	if !*noCron {
		scheduler, err = api.NewTierScheduler(handler, cfg.TierCronSpec)
		if err != nil {
			log.Fatalf("Failed to create scheduler: %v", err)
		}
		if err := scheduler.Start(); err != nil {
			log.Fatalf("Failed to start scheduler: %v", err)
		}
		log.WithField("next_run", scheduler.NextRun().Format(time.RFC3339)).Info("Tier evaluation scheduled")
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.WithFields(logrus.Fields{
			"port":        cfg.Port,
			"db":          cfg.DatabasePath,
			"environment": cfg.Environment,
			"timezone":    cfg.Location.String(),
		}).Info("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")
	if scheduler != nil {
		scheduler.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Errorf("Server forced to shutdown: %v", err)
		return
	}

	log.Info("Server stopped")
}
