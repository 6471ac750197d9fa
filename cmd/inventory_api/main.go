package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/blood-inventory-ledger/internal/config"
	"github.com/blood-inventory-ledger/internal/data"
	"github.com/blood-inventory-ledger/internal/data/mongo"
	"github.com/blood-inventory-ledger/internal/inventory_api"
	"github.com/blood-inventory-ledger/internal/inventory_api/service"
	"github.com/blood-inventory-ledger/internal/inventory_processor"
	"github.com/blood-inventory-ledger/internal/ledger"
	"github.com/blood-inventory-ledger/internal/logger"
	"github.com/blood-inventory-ledger/internal/platform/messaging/producers"
	"github.com/blood-inventory-ledger/internal/platform/persistence"
)

func main() {
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	cfg, err := config.LoadConfig("inventory_api")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg)
	log.Info("Starting Inventory API",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
		"ledger_store", cfg.Ledger.Store,
	)

	ledgerStore, err := data.OpenLedgerStore(appCtx, log, cfg)
	if err != nil {
		log.Error("Failed to open ledger store", "error", err)
		os.Exit(1)
	}

	mongoDB, err := persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
	if err != nil {
		log.Error("Failed to initialize MongoDB", "error", err)
		os.Exit(1)
	}

	movementRepo := mongo.NewMovementRepository(log, mongoDB.Database())
	decisionRepo := mongo.NewDecisionRepository(log, mongoDB.Database())
	if err := movementRepo.EnsureIndexes(appCtx); err != nil {
		log.Error("Failed to create movement indexes", "error", err)
		os.Exit(1)
	}
	if err := decisionRepo.EnsureIndexes(appCtx); err != nil {
		log.Error("Failed to create decision indexes", "error", err)
		os.Exit(1)
	}

	requestProducer, err := producers.NewIssuanceRequestProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize issuance request producer", "error", err)
		os.Exit(1)
	}

	engine := ledger.NewService(log, ledgerStore.Store)

	server, err := inventory_api.NewServer(log, cfg, inventory_api.Services{
		Inventory: engine,
		Analytics: service.NewAnalyticsService(log, movementRepo, engine, cfg.Ledger.AnalyticsDays, cfg.Ledger.AnalyticsMonths),
		Issuance:  service.NewIssuanceService(log, decisionRepo, requestProducer),
		Journal:   service.NewJournalService(log, movementRepo, ledgerStore.Outbox),
	})
	if err != nil {
		log.Error("Failed to initialize HTTP server", "error", err)
		os.Exit(1)
	}

	errChan := make(chan error, 2)

	// An in-memory ledger is private to this process, so the processor has
	// to run here to see it
	var embedded *inventory_processor.Processor
	if !cfg.UsesPostgres() {
		embedded, err = inventory_processor.New(appCtx, log.With("component", "processor"), cfg, inventory_processor.Dependencies{
			Engine:    engine,
			Outbox:    ledgerStore.Outbox,
			Journal:   movementRepo,
			Decisions: decisionRepo,
		})
		if err != nil {
			log.Error("Failed to initialize embedded processor", "error", err)
			os.Exit(1)
		}
		if err := embedded.Start(appCtx); err != nil {
			errChan <- err
		}
	}

	go func() {
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
		serverErr = err
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	log.Info("Starting graceful shutdown...")

	// stop taking requests before the stores go away
	if err = server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
	}

	cancelAppCtx()

	if embedded != nil {
		if err = embedded.Stop(shutdownCtx); err != nil {
			log.Error("Error stopping embedded processor", "error", err)
		}
	}

	if err = requestProducer.Close(); err != nil {
		log.Error("Error closing Kafka producer", "error", err)
	}

	ledgerStore.Close()

	if err = mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
	}

	if serverErr != nil {
		log.Error("Inventory API shutdown with errors", "error", serverErr)
		os.Exit(1)
	}
	log.Info("Inventory API shutdown completed")
}
