package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	HTTPPort int

	DBConfig struct {
		DBHost     string `env:"INVENTORY_DB_HOST"`
		DBPort     string `env:"INVENTORY_DB_PORT"`
		DBUser     string `env:"INVENTORY_DB_USER"`
		DBPassword string `env:"INVENTORY_DB_PASSWORD"`
		DBName     string `env:"INVENTORY_DB_NAME"`
		DBSSLMode  string `env:"INVENTORY_DB_SSLMODE"`
	}

	KafkaURL                string `env:"KAFKA_BROKER_URL"`
	KafkaStockRequestTopic  string `env:"KAFKA_STOCK_REQUEST_TOPIC"`
	KafkaStockResponseTopic string `env:"KAFKA_STOCK_RESPONSE_TOPIC"`
	KafkaReservationTopic   string `env:"KAFKA_RESERVATION_TOPIC"`
	KafkaReleaseTopic       string `env:"KAFKA_RELEASE_TOPIC"`
	KafkaDeadLetterTopic    string `env:"KAFKA_DEAD_LETTER_TOPIC"`
	KafkaConsumerGroup      string `env:"KAFKA_CONSUMER_GROUP"`
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}

	portStr := getEnvOrDefault("INVENTORY_HTTP_PORT", "8082")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid INVENTORY_HTTP_PORT: %w", err)
	}
	cfg.HTTPPort = port

	cfg.DBConfig.DBHost = getEnvOrDefault("INVENTORY_DB_HOST", "localhost")
	cfg.DBConfig.DBPort = getEnvOrDefault("INVENTORY_DB_PORT", "5432")
	cfg.DBConfig.DBUser = getEnvOrDefault("INVENTORY_DB_USER", "postgres")
	cfg.DBConfig.DBPassword = getEnvOrDefault("INVENTORY_DB_PASSWORD", "postgres")
	cfg.DBConfig.DBName = getEnvOrDefault("INVENTORY_DB_NAME", "inventory_db")
	cfg.DBConfig.DBSSLMode = getEnvOrDefault("INVENTORY_DB_SSLMODE", "disable")

	cfg.KafkaURL = getEnvOrDefault("KAFKA_BROKER_URL", "localhost:9092")
	cfg.KafkaStockRequestTopic = getEnvOrDefault("KAFKA_STOCK_REQUEST_TOPIC", "stock_check_requests")
	cfg.KafkaStockResponseTopic = getEnvOrDefault("KAFKA_STOCK_RESPONSE_TOPIC", "stock_check_responses")
	cfg.KafkaReservationTopic = getEnvOrDefault("KAFKA_RESERVATION_TOPIC", "stock_reservations")
	cfg.KafkaReleaseTopic = getEnvOrDefault("KAFKA_RELEASE_TOPIC", "stock_releases")
	cfg.KafkaDeadLetterTopic = getEnvOrDefault("KAFKA_DEAD_LETTER_TOPIC", "inventory_dead_letters")
	cfg.KafkaConsumerGroup = getEnvOrDefault("KAFKA_CONSUMER_GROUP", "inventory-service-group")

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
