package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	GatewayPort         int
	SalesServiceURL     string
	InventoryServiceURL string
	DeliveryServiceURL  string
	RedisAddr           string
	IdempotencyTTL      time.Duration
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}

	gatewayPortStr := os.Getenv("GATEWAY_PORT")
	if gatewayPortStr == "" {
		gatewayPortStr = "80"
	}
	port, err := strconv.Atoi(gatewayPortStr)
	if err != nil {
		return nil, fmt.Errorf("invalid GATEWAY_PORT: %w", err)
	}
	cfg.GatewayPort = port

	cfg.SalesServiceURL = os.Getenv("SALES_SERVICE_HOST")
	if cfg.SalesServiceURL == "" {
		cfg.SalesServiceURL = "http://localhost:8081"
	}

	cfg.InventoryServiceURL = os.Getenv("INVENTORY_SERVICE_HOST")
	if cfg.InventoryServiceURL == "" {
		cfg.InventoryServiceURL = "http://localhost:8082"
	}

	cfg.DeliveryServiceURL = os.Getenv("DELIVERY_SERVICE_HOST")
	if cfg.DeliveryServiceURL == "" {
		cfg.DeliveryServiceURL = "http://localhost:8083"
	}

	cfg.RedisAddr = os.Getenv("REDIS_ADDR")
	if cfg.RedisAddr == "" {
		cfg.RedisAddr = "localhost:6379"
	}

	ttlStr := os.Getenv("IDEMPOTENCY_TTL")
	if ttlStr == "" {
		ttlStr = "24h"
	}
	ttl, err := time.ParseDuration(ttlStr)
	if err != nil {
		return nil, fmt.Errorf("invalid IDEMPOTENCY_TTL: %w", err)
	}
	cfg.IdempotencyTTL = ttl

	return cfg, nil
}
