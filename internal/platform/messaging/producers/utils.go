package producers

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/blood-inventory-ledger/internal/config"
	"github.com/segmentio/kafka-go"
)

const (
	partitionReadAttempts = 5
	partitionReadBackoff  = 2 * time.Second
)

func ensureTopic(logger *slog.Logger, cfg *config.KafkaConfig, topic string) error {
	conn, err := kafka.Dial("tcp", cfg.Brokers)
	if err != nil {
		return fmt.Errorf("failed to dial kafka for topic %s: %w", topic, err)
	}
	defer conn.Close()

	if err := createKafkaTopicIfNotExists(conn, topic, cfg.NumPartitions, cfg.ReplicationFactor, logger); err != nil {
		return fmt.Errorf("failed to ensure topic %s exists: %w", topic, err)
	}
	return nil
}

// createKafkaTopicIfNotExists creates the topic when its partitions cannot
// be read after a few attempts
func createKafkaTopicIfNotExists(conn *kafka.Conn, topicName string, numPartitions int, replicationFactor int, log *slog.Logger) error {
	var partitions []kafka.Partition
	var err error

	for i := 0; i < partitionReadAttempts; i++ {
		partitions, err = conn.ReadPartitions(topicName)
		if err == nil {
			break
		}
		log.Warn("Failed to read partitions, retrying", "topic", topicName, "attempt", i+1, "error", err)
		time.Sleep(partitionReadBackoff)
	}

	if len(partitions) > 0 {
		log.Info("Kafka topic already exists", "topic", topicName, "partitions", len(partitions))
		return nil
	}

	topicConfig := topicConfigFor(topicName, numPartitions, replicationFactor)
	log.Info("Creating Kafka topic",
		"topic", topicName,
		"partitions", topicConfig.NumPartitions,
		"replication_factor", topicConfig.ReplicationFactor,
	)
	if err := conn.CreateTopics(topicConfig); err != nil {
		return fmt.Errorf("failed to create kafka topic %s: %w", topicName, err)
	}
	return nil
}

func topicConfigFor(topic string, numPartitions, replicationFactor int) kafka.TopicConfig {
	if numPartitions < 1 {
		numPartitions = 1
	}
	if replicationFactor < 1 {
		replicationFactor = 1
	}
	return kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     numPartitions,
		ReplicationFactor: replicationFactor,
	}
}
