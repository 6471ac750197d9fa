package consumers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/blood-inventory-ledger/internal/config"
	"github.com/blood-inventory-ledger/internal/domain/shared"
	"github.com/blood-inventory-ledger/internal/platform/messaging/producers"
	"github.com/segmentio/kafka-go"
)

// CorrelationIDHeader matches the header the producers stamp
const CorrelationIDHeader = "correlation-id"

const (
	fetchBackoff    = time.Second
	maxRetryBackoff = 30 * time.Second
)

type MessageHandler func(ctx context.Context, key []byte, value []byte) error

// Consumer feeds messages of one topic to a handler
type Consumer interface {
	Subscribe(ctx context.Context, handler MessageHandler) error
	Close() error
}

// KafkaReader is the part of kafka.Reader the consumer uses
type KafkaReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaConsumer reads issuance requests with a consumer group. Offsets are
// committed only after the handler succeeds. A failing message is retried
// in place so nothing behind it on the partition is committed first; after
// maxAttempts it is parked on the dead letter topic, if one is set.
type KafkaConsumer struct {
	reader       KafkaReader
	logger       *slog.Logger
	topic        string
	groupID      string
	dlq          producers.DeadLetterPublisher
	maxAttempts  int
	retryBackoff time.Duration
}

type Option func(*KafkaConsumer)

// WithDeadLetter parks messages that still fail after the configured
// attempts instead of retrying them forever
func WithDeadLetter(dlq producers.DeadLetterPublisher) Option {
	return func(c *KafkaConsumer) {
		c.dlq = dlq
	}
}

func NewKafkaConsumer(_ context.Context, logger *slog.Logger, cfg *config.KafkaConfig, opts ...Option) *KafkaConsumer {
	startOffset := cfg.StartOffset
	if startOffset == 0 {
		startOffset = kafka.FirstOffset
	}
	c := &KafkaConsumer{
		logger:       logger,
		topic:        cfg.IssuanceTopic,
		groupID:      cfg.ConsumerGroup,
		maxAttempts:  cfg.MaxAttempts,
		retryBackoff: cfg.RetryBackoff,
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:     []string{cfg.Brokers},
			Topic:       cfg.IssuanceTopic,
			GroupID:     cfg.ConsumerGroup,
			MinBytes:    cfg.MinBytes,
			MaxBytes:    cfg.MaxBytes,
			MaxWait:     cfg.MaxWait,
			StartOffset: startOffset,
		}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Subscribe starts the read loop in the background. It stops when ctx is
// canceled.
func (c *KafkaConsumer) Subscribe(ctx context.Context, handler MessageHandler) error {
	if handler == nil {
		return errors.New("message handler is required")
	}
	c.logger.Info("Subscribed to Kafka topic", "topic", c.topic, "group_id", c.groupID)
	go c.run(ctx, handler)
	return nil
}

func (c *KafkaConsumer) run(ctx context.Context, handler MessageHandler) {
	for {
		if ctx.Err() != nil {
			c.logger.Info("Context canceled, stopping consumer", "topic", c.topic, "group_id", c.groupID)
			return
		}

		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			c.logger.Error("Failed to fetch message from Kafka", "topic", c.topic, "error", err)
			select {
			case <-ctx.Done():
			case <-time.After(fetchBackoff):
			}
			continue
		}

		c.handle(ctx, msg, handler)
	}
}

func (c *KafkaConsumer) handle(ctx context.Context, msg kafka.Message, handler MessageHandler) {
	msgCtx := shared.WithCorrelationID(ctx, headerValue(msg.Headers, CorrelationIDHeader))
	log := c.logger.With(
		"topic", msg.Topic,
		"partition", msg.Partition,
		"offset", msg.Offset,
		"key", string(msg.Key),
	)
	log.Debug("Received message from Kafka")

	if !c.process(msgCtx, log, msg, handler) {
		return
	}

	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		log.Error("Failed to commit message after successful processing", "error", err)
		return
	}
	log.Debug("Message committed")
}

// process runs handler until it succeeds or the message is dead lettered.
// It returns false only when ctx is canceled first, leaving the offset
// uncommitted for the next group member.
func (c *KafkaConsumer) process(ctx context.Context, log *slog.Logger, msg kafka.Message, handler MessageHandler) bool {
	for attempt := 1; ; attempt++ {
		err := handler(ctx, msg.Key, msg.Value)
		if err == nil {
			return true
		}
		log.Error("Failed to process message", "attempt", attempt, "error", err)

		if c.dlq != nil && c.maxAttempts > 0 && attempt >= c.maxAttempts {
			reason := fmt.Sprintf("processing failed after %d attempts: %s", attempt, err)
			dlqErr := c.dlq.PublishToDLQ(ctx, string(msg.Key), msg.Value, reason)
			if dlqErr == nil {
				return true
			}
			log.Error("Failed to publish message to DLQ, retrying", "dlq_error", dlqErr)
		}

		select {
		case <-ctx.Done():
			log.Warn("Context canceled before message succeeded, offset not committed")
			return false
		case <-time.After(c.backoff(attempt)):
		}
	}
}

func (c *KafkaConsumer) backoff(attempt int) time.Duration {
	d := c.retryBackoff
	if d <= 0 {
		d = fetchBackoff
	}
	for i := 1; i < attempt && d < maxRetryBackoff; i++ {
		d *= 2
	}
	if d > maxRetryBackoff {
		d = maxRetryBackoff
	}
	return d
}

func headerValue(headers []kafka.Header, key string) string {
	for _, h := range headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func (c *KafkaConsumer) Close() error {
	if c.reader != nil {
		return c.reader.Close()
	}
	return nil
}
