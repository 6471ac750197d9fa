package service

import (
	"context"
	"log/slog"

	"github.com/blood-inventory-ledger/internal/domain/shared"
	"github.com/panjf2000/ants/v2"
)

// WorkerPoolProcessingService bounds how many requests are admitted at
// once. Each call blocks until its request has been decided.
type WorkerPoolProcessingService struct {
	baseService ProcessingService
	pool        *ants.Pool
	logger      *slog.Logger
}

type WorkerPoolConfig struct {
	Size int
}

func NewWorkerPoolProcessingService(
	baseService ProcessingService,
	config WorkerPoolConfig,
	logger *slog.Logger,
) (*WorkerPoolProcessingService, error) {
	pool, err := ants.NewPool(config.Size)
	if err != nil {
		return nil, err
	}

	return &WorkerPoolProcessingService{
		baseService: baseService,
		pool:        pool,
		logger:      logger,
	}, nil
}

func (s *WorkerPoolProcessingService) ProcessIssuanceRequest(ctx context.Context, request *shared.IssuanceRequest) error {
	requestCopy := *request
	resultChan := make(chan error, 1)

	err := s.pool.Submit(func() {
		resultChan <- s.baseService.ProcessIssuanceRequest(ctx, &requestCopy)
	})
	if err != nil {
		s.logger.Error("Failed to submit issuance request to worker pool",
			"request_id", request.RequestID.String(),
			"error", err,
		)
		return err
	}

	select {
	case err := <-resultChan:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown releases the pool
func (s *WorkerPoolProcessingService) Shutdown() {
	s.logger.Info("Shutting down worker pool", "running_workers", s.pool.Running())
	s.pool.Release()
}

func (s *WorkerPoolProcessingService) Running() int {
	return s.pool.Running()
}

func (s *WorkerPoolProcessingService) Capacity() int {
	return s.pool.Cap()
}
