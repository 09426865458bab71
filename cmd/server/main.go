package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"marketplace/internal/app"
	"marketplace/internal/config"
	"marketplace/internal/handler"
	internalRedis "marketplace/internal/redis"
	"marketplace/internal/repository/postgres"
	"marketplace/internal/service"
	"marketplace/internal/stripe"
)

func main() {
	// Load configuration.
	cfg := config.Load()

	log := newLogger(cfg.Log)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before database so we can instrument DB).
	var nrApp *newrelic.Application
	var err error
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			log.WithError(err).Warn("failed to initialize New Relic")
		} else {
			log.WithField("app", cfg.NewRelic.AppName).Info("New Relic enabled")
		}
	}

	// Initialize database with New Relic instrumentation.
	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	defer db.Close()
	log.Info("connected to PostgreSQL")

	if err := app.RunMigrations(ctx, db, cfg.Database.MigrationsDir); err != nil {
		log.WithError(err).Fatal("failed to run migrations")
	}

	// Initialize Redis with New Relic instrumentation.
	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info("connected to Redis")

	// Wire dependencies.
	server := wireServer(db, redisClient, nrApp, cfg, log)

	// Start server in goroutine.
	go func() {
		log.WithField("port", cfg.Server.Port).Info("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server error")
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Fatal("server forced to shutdown")
	}

	log.Info("server exited")
}

// newLogger builds the process-wide logrus logger from config.
func newLogger(cfg config.LogConfig) *logrus.Logger {
	log := logrus.New()
	if cfg.JSON {
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	if level, err := logrus.ParseLevel(cfg.Level); err == nil {
		log.SetLevel(level)
	}
	return log
}

// wireServer wires all dependencies and returns the HTTP server.
func wireServer(db *sql.DB, redisClient *redis.Client, nrApp *newrelic.Application, cfg *config.Config, log *logrus.Logger) *http.Server {
	// Initialize Redis stores.
	lockStore := internalRedis.NewLockStore(redisClient)
	cacheStore := internalRedis.NewCacheStore(redisClient)

	// Initialize repositories.
	userRepo := postgres.NewUserRepository(db)
	walletRepo := postgres.NewWalletRepository(db)
	paymentRepo := postgres.NewPaymentRepository(db)
	bookingRepo := postgres.NewBookingRepository(db)
	orderRepo := postgres.NewOrderRepository(db)
	productRepo := postgres.NewProductRepository(db)
	businessRepo := postgres.NewBusinessRepository(db)

	// Initialize processor client.
	var stripeClient stripe.Client
	if cfg.Stripe.BaseURL != "" {
		stripeClient = stripe.NewHTTPClientWithBaseURL(cfg.Stripe.SecretKey, cfg.Stripe.BaseURL)
	} else {
		stripeClient = stripe.NewHTTPClient(cfg.Stripe.SecretKey)
	}

	// Initialize services.
	notificationService := service.NewNotificationService(log)
	dispatcher := service.NewDispatcher(walletRepo, userRepo, bookingRepo, orderRepo, productRepo, businessRepo, cacheStore, log)
	transactionService := service.NewTransactionService(paymentRepo, walletRepo, userRepo, stripeClient, dispatcher, lockStore, cacheStore, notificationService, log)
	subscriptionService := service.NewSubscriptionService(userRepo, stripeClient, log)
	webhookService := service.NewWebhookService(cfg.Stripe.WebhookSecret, paymentRepo, userRepo, stripeClient, log)

	// Initialize handlers.
	transactionHandler := handler.NewTransactionHandler(transactionService)
	subscriptionHandler := handler.NewSubscriptionHandler(subscriptionService)
	webhookHandler := handler.NewWebhookHandler(webhookService)

	// Create router.
	router := app.NewRouter(app.RouterDeps{
		TransactionHandler:  transactionHandler,
		SubscriptionHandler: subscriptionHandler,
		WebhookHandler:      webhookHandler,
		RedisClient:         redisClient,
		NewRelicApp:         nrApp,
		JWTSecret:           cfg.Auth.JWTSecret,
	})

	// Create HTTP server.
	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}
