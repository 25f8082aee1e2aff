package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/myosher1/sales-delivery/internal/database"
	deliveries_app "github.com/myosher1/sales-delivery/internal/delivery/app/deliveries"
	"github.com/myosher1/sales-delivery/internal/delivery/config"
	http_deliveries "github.com/myosher1/sales-delivery/internal/delivery/handler/http/deliveries"
	kafka_handler "github.com/myosher1/sales-delivery/internal/delivery/handler/kafka"
	postgres_delivery_repo "github.com/myosher1/sales-delivery/internal/delivery/repository/delivery_repo/postgres"
	postgres_outbox_repo "github.com/myosher1/sales-delivery/internal/delivery/repository/outbox_repo/postgres"
	"github.com/myosher1/sales-delivery/internal/kafka"
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
	appLogger.Info("Delivery Service starting...")

	appLogger.Info("Waiting for database to be available...")
	db, err := database.ConnectWithRetry(database.DBConfig{
		Host:     cfg.DBConfig.DBHost,
		Port:     cfg.DBConfig.DBPort,
		User:     cfg.DBConfig.DBUser,
		Password: cfg.DBConfig.DBPassword,
		DBName:   cfg.DBConfig.DBName,
		SSLMode:  cfg.DBConfig.DBSSLMode,
	}, 10, 5*time.Second, appLogger)
	if err != nil {
		appLogger.Fatal("Could not connect to database after multiple retries. Exiting.", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			appLogger.Error("Error closing database connection", zap.Error(err))
		} else {
			appLogger.Info("Database connection closed.")
		}
	}()

	appLogger.Info("Running database migrations...")
	migrateDSN := "postgres://" + cfg.GetDBMigrationConnectionString()
	m, err := migrate.New("file://migrations/delivery", migrateDSN)
	if err != nil {
		appLogger.Fatal("Failed to create migrate instance", zap.Error(err))
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		appLogger.Fatal("Failed to run database migrations", zap.Error(err))
	}
	appLogger.Info("Database migrations completed successfully (or no new migrations).")

	kafkaProducer, err := kafka.NewProducer(cfg.GetKafkaBrokers(), appLogger)
	if err != nil {
		appLogger.Fatal("Failed to create Kafka producer", zap.Error(err))
	}
	defer func() {
		if err := kafkaProducer.Close(); err != nil {
			appLogger.Error("Error closing Kafka producer", zap.Error(err))
		} else {
			appLogger.Info("Kafka producer closed.")
		}
	}()
	appLogger.Info("Kafka producer created successfully.")

	deliveryRepository := postgres_delivery_repo.NewDeliveryRepository(db, appLogger)
	outboxRepository := postgres_outbox_repo.NewOutboxRepository(db, appLogger)

	deliveryService := deliveries_app.NewDeliveryService(
		deliveryRepository, outboxRepository, kafkaProducer, cfg.KafkaDeliveryStatusTopic, appLogger)

	// Status updates are written to the outbox in the same transaction as
	// the delivery row and published from here, never synchronously.
	go func() {
		ticker := time.NewTicker(cfg.OutboxPollInterval)
		defer ticker.Stop()
		for range ticker.C {
			ctx, cancel := context.WithTimeout(context.Background(), cfg.OutboxPollTimeout)
			if err := deliveryService.ProcessOutbox(ctx); err != nil {
				appLogger.Error("Error processing outbox", zap.Error(err))
			}
			cancel()
		}
	}()
	appLogger.Info("Transactional Outbox sender started.")

	consumerCtx, stopConsumers := context.WithCancel(context.Background())
	defer stopConsumers()

	orderCreatedConsumer := kafka_handler.NewOrderCreatedConsumer(
		deliveryService, kafkaProducer, cfg.KafkaDeadLetterTopic, appLogger)
	kafka.StartConsumer(consumerCtx, cfg.GetKafkaBrokers(), cfg.KafkaOrderCreatedTopic,
		cfg.KafkaConsumerGroup, orderCreatedConsumer.HandleMessage, appLogger)
	appLogger.Info("Kafka order created consumer started!")

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	http_deliveries.RegisterRoutes(r, deliveryService, appLogger)

	serverAddr := fmt.Sprintf(":%d", cfg.HTTPPort)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()
	appLogger.Info("Delivery Service started", zap.String("address", serverAddr))

	<-sigChan

	appLogger.Info("Shutting down Delivery Service...")
	stopConsumers()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		appLogger.Fatal("Delivery Service graceful shutdown failed", zap.Error(err))
	}
	appLogger.Info("Delivery Service stopped.")
}
