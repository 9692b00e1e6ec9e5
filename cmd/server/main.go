package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rabbitmq/amqp091-go"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"storefront-order-service/internal/config"
	"storefront-order-service/internal/controller"
	"storefront-order-service/internal/payment"
	"storefront-order-service/internal/rabbit"
	"storefront-order-service/internal/repository"
	"storefront-order-service/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		panic(fmt.Sprintf("Failed to create logger: %v", err))
	}
	defer logger.Sync()

	// Conexión a MongoDB
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	if err := client.Ping(ctx, nil); err != nil {
		logger.Fatal("MongoDB ping failed", zap.Error(err))
	}
	db := client.Database(cfg.MongoDBName)

	orderRepo := repository.NewMongoOrderRepository(db)
	if err := orderRepo.EnsureIndexes(ctx); err != nil {
		logger.Warn("Failed to ensure order indexes", zap.Error(err))
	}
	users := repository.NewMongoUserDirectory(db)

	// Conexión a RabbitMQ (sink de mails)
	conn, err := amqp091.Dial(cfg.RabbitURL)
	if err != nil {
		logger.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
	}
	ch, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open RabbitMQ channel", zap.Error(err))
	}
	go func() {
		if err := <-ch.NotifyClose(make(chan *amqp091.Error, 1)); err != nil {
			logger.Error("RabbitMQ channel closed", zap.Error(err))
		}
	}()

	notifier, err := rabbit.SetupNotifications(ch, cfg.NotifyExchange, cfg.MailFrom, logger)
	if err != nil {
		logger.Fatal("Failed to set up notifications", zap.Error(err))
	}

	// Servicios
	orderService := service.NewOrderService(orderRepo, users, notifier, logger)
	authService := service.NewAuthService(cfg.AuthURL)
	gateway := payment.NewGateway(cfg.StripeSecretKey, cfg.PublicURL, cfg.ShipCountries, logger)
	verifier := payment.NewWebhookVerifier(cfg.StripeWebhookSecret)

	ctrl := controller.NewOrderController(orderService, gateway, verifier, logger)

	gin.SetMode(gin.ReleaseMode)
	health := func(ctx context.Context) error { return client.Ping(ctx, nil) }
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           setupRouter(ctrl, authService, health, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Order service listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		logger.Info("Received shutdown signal")
	case err := <-serverErr:
		logger.Error("Server error", zap.Error(err))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown failed", zap.Error(err))
	}
	if err := ch.Close(); err != nil {
		logger.Warn("Closing RabbitMQ channel", zap.Error(err))
	}
	if err := conn.Close(); err != nil {
		logger.Warn("Closing RabbitMQ connection", zap.Error(err))
	}
	if err := client.Disconnect(shutdownCtx); err != nil {
		logger.Warn("Disconnecting MongoDB", zap.Error(err))
	}

	logger.Info("Service stopped")
}

func newLogger(level string) (*zap.Logger, error) {
	if level == "debug" {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}
	return cfg.Build()
}
