package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/safarbet/safarbet/internal/pkg/config"
	"github.com/safarbet/safarbet/internal/pkg/database"
	"github.com/safarbet/safarbet/internal/pkg/health"
	"github.com/safarbet/safarbet/internal/pkg/logger"
	"github.com/safarbet/safarbet/internal/pkg/middleware"
	"github.com/safarbet/safarbet/internal/pkg/nats"
	bookingHandler "github.com/safarbet/safarbet/services/booking/handler"
	bookingRepository "github.com/safarbet/safarbet/services/booking/repository"
	bookingUsecase "github.com/safarbet/safarbet/services/booking/usecase"
	"github.com/safarbet/safarbet/services/notification/dispatcher"
	"github.com/safarbet/safarbet/services/notification/mailer"
	paymentGateway "github.com/safarbet/safarbet/services/payment/gateway"
	paymentHandler "github.com/safarbet/safarbet/services/payment/handler"
	paymentRepository "github.com/safarbet/safarbet/services/payment/repository"
	paymentUsecase "github.com/safarbet/safarbet/services/payment/usecase"
)

func main() {
	appName := "safarbet-api"
	configPath := "config/api.env"
	configs := config.InitConfig(configPath)

	zapLogger, err := logger.NewZapLogger(configs.Logger)
	if err != nil {
		log.Fatalf("Failed to create Zap logger: %v", err)
	}
	defer zapLogger.Close()

	logger.SetGlobalLogger(zapLogger)

	logger.Info("Starting application",
		logger.String("app", appName),
		logger.String("version", configs.App.Version),
		logger.String("environment", configs.App.Environment),
	)

	// Initialize PostgreSQL database connection
	postgresClient, err := database.NewPostgresClient(configs.Database)
	if err != nil {
		zapLogger.Fatal("Failed to connect to PostgreSQL", logger.Err(err))
	}
	defer postgresClient.Close()

	// Initialize Redis client
	redisClient, err := database.NewRedisClient(configs.Redis)
	if err != nil {
		zapLogger.Fatal("Failed to connect to Redis", logger.Err(err))
	}
	defer redisClient.Close()

	// Initialize NATS client
	natsClient, err := nats.NewClient(configs.NATS.URL)
	if err != nil {
		zapLogger.Fatal("Failed to connect to NATS", logger.Err(err))
	}
	defer natsClient.Close()

	// Initialize repositories
	bookingRepo := bookingRepository.NewBookingRepository(configs, postgresClient.GetDB())
	paymentRepo := paymentRepository.NewPaymentRepository(configs, postgresClient.GetDB())

	// Initialize gateways
	chapaGW := paymentGateway.NewChapaGW(configs.Chapa)
	notifyGW := paymentGateway.NewNotifyGW(natsClient, configs.Notification.Subject)

	// Initialize use cases
	bookingUC, err := bookingUsecase.NewBookingUC(configs, bookingRepo, paymentRepo)
	if err != nil {
		zapLogger.Fatal("Failed to initialize booking use case", logger.Err(err))
	}

	paymentUC, err := paymentUsecase.NewPaymentUC(configs, paymentRepo, bookingRepo, chapaGW, notifyGW)
	if err != nil {
		zapLogger.Fatal("Failed to initialize payment use case", logger.Err(err))
	}

	// Start the reconciliation sweeper
	sweeper := paymentUsecase.NewSweeper(configs, paymentRepo, chapaGW, paymentUC, redisClient)
	if err := sweeper.Start(); err != nil {
		zapLogger.Fatal("Failed to start reconciliation sweeper", logger.Err(err))
	}
	defer sweeper.Stop()

	// Start the notification dispatcher
	smtpMailer := mailer.NewSMTPMailer(configs.SMTP, configs.Notification.FromAddress)
	notificationDispatcher := dispatcher.NewDispatcher(configs, natsClient, paymentRepo, bookingRepo, smtpMailer)
	if err := notificationDispatcher.Start(); err != nil {
		zapLogger.Fatal("Failed to start notification dispatcher", logger.Err(err))
	}
	defer notificationDispatcher.Stop()

	// Initialize Echo server
	e := echo.New()
	e.HideBanner = true

	// Add middlewares (panic recovery should be first)
	e.Use(middleware.PanicRecoveryMiddleware(zapLogger))
	e.Use(middleware.RequestIDMiddleware())
	e.Use(logger.ZapEchoMiddleware(zapLogger))

	// Health endpoints
	healthService := health.NewHealthService()
	healthService.AddChecker("postgres", health.NewPostgresHealthChecker(postgresClient))
	healthService.AddChecker("redis", health.NewRedisHealthChecker(redisClient))
	healthService.AddChecker("nats", health.NewNATSHealthChecker(natsClient))
	health.RegisterHealthEndpoints(e, appName, configs.App.Version, healthService)

	// Register routes
	bookingHandler.NewHandler(configs, bookingUC).RegisterRoutes(e)
	paymentHandler.NewHandler(configs, paymentUC).RegisterRoutes(e)

	// Start server
	go func() {
		addr := fmt.Sprintf("%s:%d", configs.Server.Host, configs.Server.Port)
		logger.Info("HTTP server listening", logger.String("addr", addr))
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("HTTP server failed", logger.Err(err))
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down application")

	shutdownTimeout := time.Duration(configs.Server.ShutdownTimeout) * time.Second
	if shutdownTimeout == 0 {
		shutdownTimeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Failed to shut down HTTP server cleanly", logger.Err(err))
	}

	logger.Info("Application stopped")
}
