package components

import (
	"log/slog"

	"github.com/blood-inventory-ledger/internal/config"
	"github.com/blood-inventory-ledger/internal/domain/admission"
	"github.com/blood-inventory-ledger/internal/inventory_processor/service"
)

// CreateProcessingService wires the admission pipeline behind a worker
// pool, falling back to the bare pipeline when the pool cannot be built
func CreateProcessingService(
	engine IssueAdmitter,
	decisions admission.Repository,
	logger *slog.Logger,
	cfg *config.Config,
) service.ProcessingService {
	baseService := service.NewProcessingService(
		NewRequestValidator(decisions, logger),
		NewStockAdmitter(engine),
		NewDecisionRecorder(decisions, logger),
		logger,
	)

	workerPoolService, err := service.NewWorkerPoolProcessingService(
		baseService,
		service.WorkerPoolConfig{Size: cfg.WorkerPool.Size},
		logger.With("component", "worker_pool"),
	)
	if err != nil {
		logger.Error("Failed to create worker pool service, falling back to base service", "error", err)
		return baseService
	}

	logger.Info("Created worker pool processing service", "pool_size", cfg.WorkerPool.Size)
	return workerPoolService
}
