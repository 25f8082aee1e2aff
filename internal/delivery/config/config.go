package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	HTTPPort int

	DBConfig struct {
		DBHost     string `env:"DELIVERY_DB_HOST"`
		DBPort     string `env:"DELIVERY_DB_PORT"`
		DBUser     string `env:"DELIVERY_DB_USER"`
		DBPassword string `env:"DELIVERY_DB_PASSWORD"`
		DBName     string `env:"DELIVERY_DB_NAME"`
		DBSSLMode  string `env:"DELIVERY_DB_SSLMODE"`
	}

	KafkaURL                 string `env:"KAFKA_BROKER_URL"`
	KafkaOrderCreatedTopic   string `env:"KAFKA_ORDER_CREATED_TOPIC"`
	KafkaDeliveryStatusTopic string `env:"KAFKA_DELIVERY_STATUS_TOPIC"`
	KafkaDeadLetterTopic     string `env:"KAFKA_DEAD_LETTER_TOPIC"`
	KafkaConsumerGroup       string `env:"KAFKA_CONSUMER_GROUP"`

	OutboxPollInterval time.Duration `env:"OUTBOX_POLL_INTERVAL"`
	OutboxPollTimeout  time.Duration `env:"OUTBOX_POLL_TIMEOUT"`
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}

	portStr := getEnvOrDefault("DELIVERY_HTTP_PORT", "8083")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid DELIVERY_HTTP_PORT: %w", err)
	}
	cfg.HTTPPort = port

	cfg.DBConfig.DBHost = getEnvOrDefault("DELIVERY_DB_HOST", "localhost")
	cfg.DBConfig.DBPort = getEnvOrDefault("DELIVERY_DB_PORT", "5432")
	cfg.DBConfig.DBUser = getEnvOrDefault("DELIVERY_DB_USER", "postgres")
	cfg.DBConfig.DBPassword = getEnvOrDefault("DELIVERY_DB_PASSWORD", "postgres")
	cfg.DBConfig.DBName = getEnvOrDefault("DELIVERY_DB_NAME", "delivery_db")
	cfg.DBConfig.DBSSLMode = getEnvOrDefault("DELIVERY_DB_SSLMODE", "disable")

	cfg.KafkaURL = getEnvOrDefault("KAFKA_BROKER_URL", "localhost:9092")
	cfg.KafkaOrderCreatedTopic = getEnvOrDefault("KAFKA_ORDER_CREATED_TOPIC", "order_created")
	cfg.KafkaDeliveryStatusTopic = getEnvOrDefault("KAFKA_DELIVERY_STATUS_TOPIC", "delivery_status_updates")
	cfg.KafkaDeadLetterTopic = getEnvOrDefault("KAFKA_DEAD_LETTER_TOPIC", "delivery_dead_letters")
	cfg.KafkaConsumerGroup = getEnvOrDefault("KAFKA_CONSUMER_GROUP", "delivery-service-group")

	pollIntervalStr := getEnvOrDefault("OUTBOX_POLL_INTERVAL", "5s")
	pollInterval, err := time.ParseDuration(pollIntervalStr)
	if err != nil {
		return nil, fmt.Errorf("invalid OUTBOX_POLL_INTERVAL: %w", err)
	}
	cfg.OutboxPollInterval = pollInterval

	pollTimeoutStr := getEnvOrDefault("OUTBOX_POLL_TIMEOUT", "10s")
	pollTimeout, err := time.ParseDuration(pollTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid OUTBOX_POLL_TIMEOUT: %w", err)
	}
	cfg.OutboxPollTimeout = pollTimeout

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func (c *Config) GetDBMigrationConnectionString() string {
	return fmt.Sprintf("%s:%s@%s:%s/%s?sslmode=%s",
		c.DBConfig.DBUser, c.DBConfig.DBPassword, c.DBConfig.DBHost, c.DBConfig.DBPort, c.DBConfig.DBName, c.DBConfig.DBSSLMode)
}

func (c *Config) GetKafkaBrokers() []string {
	return []string{c.KafkaURL}
}
