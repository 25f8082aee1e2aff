package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/myosher1/sales-delivery/internal/gateway/config"
	"github.com/myosher1/sales-delivery/internal/gateway/idempotency"
	"github.com/myosher1/sales-delivery/internal/gateway/router"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	zapConfig := zap.NewProductionConfig()
	zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapConfig.EncoderConfig.TimeKey = "timestamp"

	appLogger, err := zapConfig.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create zap logger: %v\n", err)
		os.Exit(1)
	}
	appLogger.Info("API Gateway starting...")

	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
	})
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer pingCancel()
	var store idempotency.Store
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		// Degrade to the process-local cache so the gateway still starts;
		// replay guarantees then hold per instance only.
		appLogger.Warn("Redis unavailable, falling back to in-memory idempotency store", zap.Error(err))
		store = idempotency.NewMemoryStore(cfg.IdempotencyTTL)
	} else {
		appLogger.Info("Connected to Redis", zap.String("addr", cfg.RedisAddr))
		store = idempotency.NewRedisStore(rdb, cfg.IdempotencyTTL)
	}

	r, err := router.NewRouter(cfg, store, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to create router", zap.Error(err))
	}

	addr := fmt.Sprintf(":%d", cfg.GatewayPort)
	appLogger.Info("API Gateway started", zap.Int("port", cfg.GatewayPort))
	if err := http.ListenAndServe(addr, r); err != nil {
		appLogger.Fatal("HTTP server failed", zap.Error(err))
	}
}
