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
		DBHost     string `env:"SALES_DB_HOST"`
		DBPort     string `env:"SALES_DB_PORT"`
		DBUser     string `env:"SALES_DB_USER"`
		DBPassword string `env:"SALES_DB_PASSWORD"`
		DBName     string `env:"SALES_DB_NAME"`
		DBSSLMode  string `env:"SALES_DB_SSLMODE"`
	}

	KafkaURL                 string `env:"KAFKA_BROKER_URL"`
	KafkaStockRequestTopic   string `env:"KAFKA_STOCK_REQUEST_TOPIC"`
	KafkaStockResponseTopic  string `env:"KAFKA_STOCK_RESPONSE_TOPIC"`
	KafkaReservationTopic    string `env:"KAFKA_RESERVATION_TOPIC"`
	KafkaReleaseTopic        string `env:"KAFKA_RELEASE_TOPIC"`
	KafkaOrderCreatedTopic   string `env:"KAFKA_ORDER_CREATED_TOPIC"`
	KafkaDeliveryStatusTopic string `env:"KAFKA_DELIVERY_STATUS_TOPIC"`
	KafkaDeadLetterTopic     string `env:"KAFKA_DEAD_LETTER_TOPIC"`
	KafkaConsumerGroup       string `env:"KAFKA_CONSUMER_GROUP"`

	StockCheckTimeout time.Duration `env:"STOCK_CHECK_TIMEOUT"`
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}

	portStr := getEnvOrDefault("SALES_HTTP_PORT", "8081")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid SALES_HTTP_PORT: %w", err)
	}
	cfg.HTTPPort = port

	cfg.DBConfig.DBHost = getEnvOrDefault("SALES_DB_HOST", "localhost")
	cfg.DBConfig.DBPort = getEnvOrDefault("SALES_DB_PORT", "5432")
	cfg.DBConfig.DBUser = getEnvOrDefault("SALES_DB_USER", "postgres")
	cfg.DBConfig.DBPassword = getEnvOrDefault("SALES_DB_PASSWORD", "postgres")
	cfg.DBConfig.DBName = getEnvOrDefault("SALES_DB_NAME", "sales_db")
	cfg.DBConfig.DBSSLMode = getEnvOrDefault("SALES_DB_SSLMODE", "disable")

	cfg.KafkaURL = getEnvOrDefault("KAFKA_BROKER_URL", "localhost:9092")
	cfg.KafkaStockRequestTopic = getEnvOrDefault("KAFKA_STOCK_REQUEST_TOPIC", "stock_check_requests")
	cfg.KafkaStockResponseTopic = getEnvOrDefault("KAFKA_STOCK_RESPONSE_TOPIC", "stock_check_responses")
	cfg.KafkaReservationTopic = getEnvOrDefault("KAFKA_RESERVATION_TOPIC", "stock_reservations")
	cfg.KafkaReleaseTopic = getEnvOrDefault("KAFKA_RELEASE_TOPIC", "stock_releases")
	cfg.KafkaOrderCreatedTopic = getEnvOrDefault("KAFKA_ORDER_CREATED_TOPIC", "order_created")
	cfg.KafkaDeliveryStatusTopic = getEnvOrDefault("KAFKA_DELIVERY_STATUS_TOPIC", "delivery_status_updates")
	cfg.KafkaDeadLetterTopic = getEnvOrDefault("KAFKA_DEAD_LETTER_TOPIC", "sales_dead_letters")
	cfg.KafkaConsumerGroup = getEnvOrDefault("KAFKA_CONSUMER_GROUP", "sales-service-group")

	stockCheckTimeoutStr := getEnvOrDefault("STOCK_CHECK_TIMEOUT", "10s")
	timeout, err := time.ParseDuration(stockCheckTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid STOCK_CHECK_TIMEOUT: %w", err)
	}
	cfg.StockCheckTimeout = timeout

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
