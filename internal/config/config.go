// Package config loads and validates the settings shared by the inventory
// API and the inventory processor.
package config

import (
	"errors"
	"strings"
	"time"
)

const (
	LedgerStorePostgres = "postgres"
	LedgerStoreMemory   = "memory"
)

// Config is the full configuration of one inventory process
type Config struct {
	Application ApplicationConfig
	Logging     LoggingConfig
	Server      ServerConfig
	Auth        AuthConfig
	RateLimit   RateLimitConfig
	Ledger      LedgerConfig
	Kafka       KafkaConfig
	Postgres    PostgresConfig
	MongoDB     MongoDBConfig
	Outbox      OutboxConfig
	WorkerPool  WorkerPoolConfig
}

type ApplicationConfig struct {
	Env  string
	Name string
}

type LoggingConfig struct {
	Level string
}

// ServerConfig contains HTTP server configuration settings
type ServerConfig struct {
	Port            int
	ShutdownTimeout time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	// CORSOrigins is a comma separated allow list for browser clients;
	// empty disables CORS handling
	CORSOrigins string
}

// AuthConfig holds the shared secret organization tokens are signed with
type AuthConfig struct {
	JWTSecret string
	Issuer    string // optional; checked when set
}

// RateLimitConfig is a ulule/limiter formatted rate such as "100-M"
type RateLimitConfig struct {
	Enabled bool
	Rate    string
}

// LedgerConfig tunes the inventory engine
type LedgerConfig struct {
	Store            string        // postgres | memory
	LockTimeout      time.Duration // wait for a tuple's admission guard
	ExpiryWindowDays int
	AnalyticsDays    int
	AnalyticsMonths  int
}

// KafkaConfig contains Kafka configuration
type KafkaConfig struct {
	Brokers           string
	IssuanceTopic     string // issuance requests from the blood-request workflow
	MovementTopic     string // ledger movements published by the outbox poller
	DLQTopic          string
	NumPartitions     int
	ReplicationFactor int
	ConsumerGroup     string
	MinBytes          int
	MaxBytes          int
	MaxWait           time.Duration
	StartOffset       int64
	// MaxAttempts bounds handler retries of one message before it is dead
	// lettered; zero retries forever
	MaxAttempts  int
	RetryBackoff time.Duration
}

// PostgresConfig contains PostgreSQL configuration
type PostgresConfig struct {
	URL             string
	MaxConns        int32
	MinConns        int32
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	MigrationsPath  string
}

// MongoDBConfig contains MongoDB configuration
type MongoDBConfig struct {
	URI             string
	Database        string
	Timeout         time.Duration
	MaxPoolSize     uint64
	MinPoolSize     uint64
	MaxConnIdleTime time.Duration
}

// OutboxConfig contains outbox poller configuration
type OutboxConfig struct {
	PollingInterval  time.Duration
	BatchSize        int
	MaxRetryAttempts int
}

type WorkerPoolConfig struct {
	Size int
}

// UsesPostgres reports whether the ledger lives in PostgreSQL
func (c *Config) UsesPostgres() bool {
	return c.Ledger.Store == LedgerStorePostgres
}

// validate collects every invalid value instead of stopping at the first
func (c *Config) validate() error {
	var problems []string
	require := func(ok bool, msg string) {
		if !ok {
			problems = append(problems, msg)
		}
	}

	require(c.Server.Port > 0, "SERVER_PORT must be greater than 0")
	require(c.Server.ShutdownTimeout > 0, "SERVER_SHUTDOWN_TIMEOUT must be greater than 0")
	require(c.Server.ReadTimeout > 0, "SERVER_READ_TIMEOUT must be greater than 0")
	require(c.Server.WriteTimeout > 0, "SERVER_WRITE_TIMEOUT must be greater than 0")
	require(c.Server.IdleTimeout > 0, "SERVER_IDLE_TIMEOUT must be greater than 0")

	require(len(c.Auth.JWTSecret) >= 16, "AUTH_JWT_SECRET must be at least 16 characters")
	require(!c.RateLimit.Enabled || c.RateLimit.Rate != "", "RATE_LIMIT is required when RATE_LIMIT_ENABLED is set")

	require(c.Ledger.Store == LedgerStorePostgres || c.Ledger.Store == LedgerStoreMemory, "LEDGER_STORE must be postgres or memory")
	require(c.Ledger.LockTimeout > 0, "LEDGER_LOCK_TIMEOUT must be greater than 0")
	require(c.Ledger.ExpiryWindowDays >= 0, "LEDGER_EXPIRY_WINDOW_DAYS must not be negative")
	require(c.Ledger.AnalyticsDays > 0, "LEDGER_ANALYTICS_DAYS must be greater than 0")
	require(c.Ledger.AnalyticsMonths > 0, "LEDGER_ANALYTICS_MONTHS must be greater than 0")

	require(c.Kafka.Brokers != "", "KAFKA_BROKERS is required")
	require(c.Kafka.IssuanceTopic != "", "KAFKA_ISSUANCE_TOPIC is required")
	require(c.Kafka.MovementTopic != "", "KAFKA_MOVEMENT_TOPIC is required")
	require(c.Kafka.DLQTopic != "", "KAFKA_DLQ_TOPIC is required")
	require(c.Kafka.ConsumerGroup != "", "KAFKA_CONSUMER_GROUP is required")
	require(c.Kafka.MinBytes > 0, "KAFKA_CONSUMER_MIN_BYTES must be greater than 0")
	require(c.Kafka.MaxBytes > 0, "KAFKA_CONSUMER_MAX_BYTES must be greater than 0")
	require(c.Kafka.MaxWait > 0, "KAFKA_CONSUMER_MAX_WAIT must be greater than 0")
	require(c.Kafka.MaxAttempts >= 0, "KAFKA_CONSUMER_MAX_ATTEMPTS cannot be negative")
	require(c.Kafka.RetryBackoff > 0, "KAFKA_CONSUMER_RETRY_BACKOFF must be greater than 0")

	if c.UsesPostgres() {
		require(c.Postgres.URL != "", "POSTGRES_URL is required")
		require(c.Postgres.MaxConns > 0, "POSTGRES_MAX_CONNS must be greater than 0")
		require(c.Postgres.MinConns > 0, "POSTGRES_MIN_CONNS must be greater than 0")
		require(c.Postgres.ConnMaxLifetime > 0, "POSTGRES_MAX_CONN_LIFETIME must be greater than 0")
		require(c.Postgres.ConnMaxIdleTime > 0, "POSTGRES_MAX_CONN_IDLE_TIME must be greater than 0")
	}

	require(c.MongoDB.URI != "", "MONGO_URI is required")
	require(c.MongoDB.Database != "", "MONGO_DATABASE is required")
	require(c.MongoDB.Timeout > 0, "MONGO_TIMEOUT must be greater than 0")
	require(c.MongoDB.MaxPoolSize > 0, "MONGO_MAX_POOL_SIZE must be greater than 0")
	require(c.MongoDB.MinPoolSize > 0, "MONGO_MIN_POOL_SIZE must be greater than 0")
	require(c.MongoDB.MaxConnIdleTime > 0, "MONGO_MAX_CONN_IDLE_TIME must be greater than 0")

	require(c.Outbox.PollingInterval > 0, "OUTBOX_POLLING_INTERVAL must be greater than 0")
	require(c.Outbox.BatchSize > 0, "OUTBOX_BATCH_SIZE must be greater than 0")
	require(c.Outbox.MaxRetryAttempts > 0, "OUTBOX_MAX_RETRY_ATTEMPTS must be greater than 0")

	require(c.WorkerPool.Size > 0, "WORKER_POOL_SIZE must be greater than 0")

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, ", "))
	}
	return nil
}
