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
	"github.com/myosher1/sales-delivery/internal/kafka"
	orders_app "github.com/myosher1/sales-delivery/internal/sales/app/orders"
	"github.com/myosher1/sales-delivery/internal/sales/config"
	http_orders "github.com/myosher1/sales-delivery/internal/sales/handler/http/orders"
	kafka_handler "github.com/myosher1/sales-delivery/internal/sales/handler/kafka"
	postgres_order_repo "github.com/myosher1/sales-delivery/internal/sales/repository/order_repo/postgres"
	"github.com/myosher1/sales-delivery/internal/sales/stockrpc"
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
	appLogger.Info("Sales Service starting...")

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
	m, err := migrate.New("file://migrations/sales", migrateDSN)
	if err != nil {
		appLogger.Fatal("Failed to create migrate instance", zap.Error(err))
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		appLogger.Fatal("Failed to run database migrations", zap.Error(err))
	}
	appLogger.Info("Database migrations completed successfully (or no new migrations).")

	// Broker connectivity is required to accept new orders: without the
	// producer there is no availability check and no announcements.
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

	stockClient := stockrpc.NewClient(kafkaProducer, cfg.KafkaStockRequestTopic, cfg.StockCheckTimeout, appLogger)

	orderRepository := postgres_order_repo.NewOrderRepository(db, appLogger)
	orderService := orders_app.NewOrderService(orderRepository, stockClient, kafkaProducer, orders_app.Topics{
		Reservation:  cfg.KafkaReservationTopic,
		Release:      cfg.KafkaReleaseTopic,
		OrderCreated: cfg.KafkaOrderCreatedTopic,
	}, appLogger)

	consumerCtx, stopConsumers := context.WithCancel(context.Background())
	defer stopConsumers()

	kafka.StartConsumer(consumerCtx, cfg.GetKafkaBrokers(), cfg.KafkaStockResponseTopic,
		cfg.KafkaConsumerGroup, stockClient.HandleResponse, appLogger)
	appLogger.Info("Kafka stock check response consumer started!")

	deliveryStatusConsumer := kafka_handler.NewDeliveryStatusConsumer(
		orderService, kafkaProducer, cfg.KafkaDeadLetterTopic, appLogger)
	kafka.StartConsumer(consumerCtx, cfg.GetKafkaBrokers(), cfg.KafkaDeliveryStatusTopic,
		cfg.KafkaConsumerGroup, deliveryStatusConsumer.HandleMessage, appLogger)
	appLogger.Info("Kafka delivery status consumer started!")

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	http_orders.RegisterRoutes(r, orderService, appLogger)

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
	appLogger.Info("Sales Service started", zap.String("address", serverAddr))

	<-sigChan

	appLogger.Info("Shutting down Sales Service...")
	stopConsumers()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		appLogger.Fatal("Sales Service graceful shutdown failed", zap.Error(err))
	}
	appLogger.Info("Sales Service stopped.")
}
