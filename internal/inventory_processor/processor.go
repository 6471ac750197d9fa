// Package inventory_processor admits issuance requests from Kafka and
// relays ledger movements from the outbox
package inventory_processor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/blood-inventory-ledger/internal/config"
	"github.com/blood-inventory-ledger/internal/domain/admission"
	"github.com/blood-inventory-ledger/internal/domain/journal"
	"github.com/blood-inventory-ledger/internal/domain/outbox"
	"github.com/blood-inventory-ledger/internal/inventory_processor/components"
	"github.com/blood-inventory-ledger/internal/inventory_processor/consumer"
	"github.com/blood-inventory-ledger/internal/inventory_processor/outbox_poller"
	"github.com/blood-inventory-ledger/internal/inventory_processor/service"
	"github.com/blood-inventory-ledger/internal/platform/messaging/consumers"
	"github.com/blood-inventory-ledger/internal/platform/messaging/producers"
)

// Dependencies are the stores the processor reads and writes
type Dependencies struct {
	Engine    components.IssueAdmitter
	Outbox    outbox.Repository
	Journal   journal.Repository
	Decisions admission.Repository
}

// Processor runs the issuance request consumer and the outbox poller
type Processor struct {
	logger     *slog.Logger
	cfg        *config.Config
	consumer   consumers.Consumer
	handler    *consumer.IssuanceRequestHandler
	processing service.ProcessingService
	poller     *outbox_poller.Poller
	dlq        *producers.DLQProducer
	events     *producers.JSONProducer
	wg         sync.WaitGroup
}

func New(ctx context.Context, logger *slog.Logger, cfg *config.Config, deps Dependencies) (*Processor, error) {
	dlq, err := producers.NewDLQProducer(ctx, logger, &cfg.Kafka)
	if err != nil {
		return nil, fmt.Errorf("failed to create DLQ producer: %w", err)
	}
	events, err := producers.NewMovementEventProducer(ctx, logger, &cfg.Kafka)
	if err != nil {
		if dlq != nil {
			_ = dlq.Close()
		}
		return nil, fmt.Errorf("failed to create movement event producer: %w", err)
	}

	var dlqPublisher producers.DeadLetterPublisher
	if dlq != nil {
		dlqPublisher = dlq
	}

	processing := components.CreateProcessingService(deps.Engine, deps.Decisions, logger, cfg)
	publisher := outbox_poller.NewJournalPublisher(deps.Outbox, deps.Journal, events, logger)

	return &Processor{
		logger:     logger,
		cfg:        cfg,
		consumer:   consumers.NewKafkaConsumer(ctx, logger, &cfg.Kafka, consumers.WithDeadLetter(dlqPublisher)),
		handler:    consumer.NewIssuanceRequestHandler(logger, processing, dlqPublisher),
		processing: processing,
		poller:     outbox_poller.NewPoller(&cfg.Outbox, deps.Outbox, publisher, logger),
		dlq:        dlq,
		events:     events,
	}, nil
}

// Start subscribes to issuance requests and starts polling the outbox.
// Both stop when ctx is canceled.
func (p *Processor) Start(ctx context.Context) error {
	p.logger.Info("Starting Kafka consumer",
		"topic", p.cfg.Kafka.IssuanceTopic,
		"group", p.cfg.Kafka.ConsumerGroup,
	)
	if err := p.consumer.Subscribe(ctx, p.handler.HandleMessage); err != nil {
		return fmt.Errorf("kafka consumer error: %w", err)
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.poller.Start(ctx)
	}()
	return nil
}

// Stop drains the worker pool, waits for the poller until ctx is done and
// closes the Kafka clients. The context passed to Start must be canceled
// first.
func (p *Processor) Stop(ctx context.Context) error {
	if pool, ok := p.processing.(*service.WorkerPoolProcessingService); ok {
		p.logger.Info("Shutting down worker pool", "running_workers", pool.Running())
		pool.Shutdown()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		p.logger.Warn("Shutdown timeout reached before the outbox poller stopped")
	}

	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	keep(p.consumer.Close())
	keep(p.dlq.Close())
	keep(p.events.Close())
	return firstErr
}
