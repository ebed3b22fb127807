/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the back-office server: loyalty ledger,
  segmentation, campaigns, and financial reports. Handles configuration,
  dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Overlay .env files and load/validate configuration
  3. Initialize SQLite store
  4. Wire domain services (loyalty, segment, finance, campaign)
  5. Configure HTTP router
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (default: 8080)
  -db      SQLite database path (default: backoffice.db)
           Use ":memory:" for an in-memory database

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

ENVIRONMENT:
  See config package for the recognized variables (tier thresholds,
  conversion rate, campaign batching, log level).

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/minimart/backoffice/api"
	"github.com/minimart/backoffice/campaign"
	"github.com/minimart/backoffice/config"
	"github.com/minimart/backoffice/finance"
	"github.com/minimart/backoffice/logging"
	"github.com/minimart/backoffice/loyalty"
	"github.com/minimart/backoffice/segment"
	"github.com/minimart/backoffice/store/sqlite"
)

func main() {
	// Flags
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "backoffice.db", "SQLite database path")
	flag.Parse()

	logger := logging.NewLogger()

	// Configuration
	config.LoadEnv(logger)
	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("Invalid configuration")
	}

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize database")
	}
	defer store.Close()

	// Wire domain services
	service := loyalty.NewService(store, store, store, cfg.ConversionRate)
	resolver := segment.NewResolver(store, store, cfg.Tiers, cfg.InactiveDays)
	aggregator := finance.NewAggregator(store, store, store, logger)
	dispatcher := campaign.NewDispatcher(resolver, &campaign.LogSender{Log: logger},
		cfg.CampaignBatchSize, cfg.CampaignBatchPause, logger)

	handler := &api.Handler{
		Loyalty:    service,
		Clients:    store,
		Rewards:    store,
		Resolver:   resolver,
		Aggregator: aggregator,
		Finance:    store,
		Categories: store,
		Dispatcher: dispatcher,
		Promotions: store,
		Log:        logger,
	}

	// Create router
	router := api.NewRouter(handler)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.WithField("addr", server.Addr).Info("Server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Fatal("Server forced to shutdown")
	}

	logger.Info("Server stopped")
}
