package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/blood-inventory-ledger/internal/config"
	"github.com/blood-inventory-ledger/internal/data"
	"github.com/blood-inventory-ledger/internal/data/mongo"
	"github.com/blood-inventory-ledger/internal/inventory_processor"
	"github.com/blood-inventory-ledger/internal/ledger"
	"github.com/blood-inventory-ledger/internal/logger"
	"github.com/blood-inventory-ledger/internal/platform/persistence"
)

const shutdownTimeout = 30 * time.Second

func main() {
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	cfg, err := config.LoadConfig("inventory_processor")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg)
	log.Info("Starting Inventory Processor",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
	)

	if !cfg.UsesPostgres() {
		log.Error("The inventory processor shares the ledger with the API and needs LEDGER_STORE=postgres")
		os.Exit(1)
	}

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

	processor, err := inventory_processor.New(appCtx, log, cfg, inventory_processor.Dependencies{
		Engine:    ledger.NewService(log, ledgerStore.Store),
		Outbox:    ledgerStore.Outbox,
		Journal:   movementRepo,
		Decisions: decisionRepo,
	})
	if err != nil {
		log.Error("Failed to initialize processor", "error", err)
		os.Exit(1)
	}

	errChan := make(chan error, 1)
	if err := processor.Start(appCtx); err != nil {
		errChan <- err
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	var serviceErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Service error occurred", "error", err)
		serviceErr = err
	}

	cancelAppCtx()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	log.Info("Starting graceful shutdown...")

	if err = processor.Stop(shutdownCtx); err != nil {
		log.Error("Error stopping processor", "error", err)
	}

	ledgerStore.Close()

	if err = mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
	}

	if serviceErr != nil {
		log.Error("Inventory Processor shutdown with errors", "error", serviceErr)
		os.Exit(1)
	}
	log.Info("Inventory Processor shutdown completed")
}
