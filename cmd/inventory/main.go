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
	stock_app "github.com/myosher1/sales-delivery/internal/inventory/app/stock"
	"github.com/myosher1/sales-delivery/internal/inventory/config"
	http_stock "github.com/myosher1/sales-delivery/internal/inventory/handler/http/stock"
	kafka_handler "github.com/myosher1/sales-delivery/internal/inventory/handler/kafka"
	postgres_stock_repo "github.com/myosher1/sales-delivery/internal/inventory/repository/stock_repo/postgres"
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
	appLogger.Info("Inventory Service starting...")

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
	m, err := migrate.New("file://migrations/inventory", migrateDSN)
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
		}
	}()
	appLogger.Info("Kafka producer created successfully.")

	stockRepository := postgres_stock_repo.NewStockRepository(db, appLogger)
	stockService := stock_app.NewStockService(stockRepository, appLogger)

	consumerCtx, stopConsumers := context.WithCancel(context.Background())
	defer stopConsumers()

	stockCheckConsumer := kafka_handler.NewStockCheckConsumer(
		stockService, kafkaProducer, cfg.KafkaStockResponseTopic, cfg.KafkaDeadLetterTopic, appLogger)
	kafka.StartConsumer(consumerCtx, cfg.GetKafkaBrokers(), cfg.KafkaStockRequestTopic,
		cfg.KafkaConsumerGroup, stockCheckConsumer.HandleMessage, appLogger)

	reservationConsumer := kafka_handler.NewReservationConsumer(
		stockService, kafkaProducer, cfg.KafkaDeadLetterTopic, appLogger)
	kafka.StartConsumer(consumerCtx, cfg.GetKafkaBrokers(), cfg.KafkaReservationTopic,
		cfg.KafkaConsumerGroup, reservationConsumer.HandleMessage, appLogger)

	releaseConsumer := kafka_handler.NewReleaseConsumer(
		stockService, kafkaProducer, cfg.KafkaDeadLetterTopic, appLogger)
	kafka.StartConsumer(consumerCtx, cfg.GetKafkaBrokers(), cfg.KafkaReleaseTopic,
		cfg.KafkaConsumerGroup, releaseConsumer.HandleMessage, appLogger)

	appLogger.Info("Kafka stock consumers started!")

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	http_stock.RegisterRoutes(r, stockService, appLogger)

	serverAddr := fmt.Sprintf(":%d", cfg.HTTPPort)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()
	appLogger.Info("Inventory Service started", zap.String("address", serverAddr))

	<-sigChan

	appLogger.Info("Shutting down Inventory Service...")
	stopConsumers()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		appLogger.Fatal("Inventory Service graceful shutdown failed", zap.Error(err))
	}
	appLogger.Info("Inventory Service stopped.")
}
