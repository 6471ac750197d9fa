package producers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/blood-inventory-ledger/internal/config"
	"github.com/blood-inventory-ledger/internal/domain/shared"
	"github.com/segmentio/kafka-go"
)

// CorrelationIDHeader carries the originating request's correlation id
const CorrelationIDHeader = "correlation-id"

// JSONProducer writes JSON encoded values to a single topic
type JSONProducer struct {
	logger *slog.Logger
	writer KafkaWriter
	topic  string
}

// NewIssuanceRequestProducer publishes issuance requests for the inventory
// processor. Writes are synchronous so the API only accepts a request once
// the broker has it.
func NewIssuanceRequestProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*JSONProducer, error) {
	if cfg.IssuanceTopic == "" {
		return nil, fmt.Errorf("kafka issuance topic is not configured")
	}
	return newJSONProducer(logger, cfg, cfg.IssuanceTopic, kafka.RequireOne)
}

// NewMovementEventProducer publishes ledger movements relayed by the outbox
// poller
func NewMovementEventProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*JSONProducer, error) {
	if cfg.MovementTopic == "" {
		return nil, fmt.Errorf("kafka movement topic is not configured")
	}
	return newJSONProducer(logger, cfg, cfg.MovementTopic, kafka.RequireAll)
}

func newJSONProducer(logger *slog.Logger, cfg *config.KafkaConfig, topic string, acks kafka.RequiredAcks) (*JSONProducer, error) {
	if err := ensureTopic(logger, cfg, topic); err != nil {
		return nil, err
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers),
		Topic:        topic,
		Balancer:     &kafka.Hash{}, // same key, same partition
		RequiredAcks: acks,
		WriteTimeout: cfg.MaxWait,
	}

	return &JSONProducer{
		logger: logger,
		writer: writer,
		topic:  topic,
	}, nil
}

func (p *JSONProducer) Publish(ctx context.Context, key string, value interface{}) error {
	jsonValue, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal message value for topic %s: %w", p.topic, err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: jsonValue,
	}
	if id := shared.CorrelationIDFromContext(ctx); id != "" {
		msg.Headers = append(msg.Headers, kafka.Header{Key: CorrelationIDHeader, Value: []byte(id)})
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish message",
			"topic", p.topic,
			"key", key,
			"error", err,
		)
		return fmt.Errorf("failed to publish message to %s: %w", p.topic, err)
	}

	p.logger.Debug("Published message",
		"topic", p.topic,
		"key", key,
	)
	return nil
}

func (p *JSONProducer) Close() error {
	p.logger.Info("Closing Kafka message producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka writer for topic %s: %w", p.topic, err)
	}
	return nil
}
