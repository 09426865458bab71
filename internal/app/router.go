package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"marketplace/internal/handler"
	"marketplace/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	TransactionHandler  *handler.TransactionHandler
	SubscriptionHandler *handler.SubscriptionHandler
	WebhookHandler      *handler.WebhookHandler
	RedisClient         *redis.Client
	NewRelicApp         *newrelic.Application
	JWTSecret           string
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORSMiddleware())

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	router.Use(middleware.IdempotencyMiddleware(deps.RedisClient))

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Prometheus metrics.
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	auth := middleware.AuthMiddleware(deps.JWTSecret)

	// API v1 routes.
	v1 := router.Group("/v1")
	{
		// Transaction routes. The processor webhook stays outside the auth
		// group: it is authenticated by its signature, not a bearer token.
		transactions := v1.Group("/transactions")
		{
			transactions.POST("/stripe/webhook", deps.WebhookHandler.HandleStripeWebhook)

			authed := transactions.Group("")
			authed.Use(auth)
			{
				authed.POST("/create", deps.TransactionHandler.CreateTransaction)
				authed.GET("/verify-transaction/:id", deps.TransactionHandler.VerifyTransaction)
				authed.POST("/withdraw", deps.TransactionHandler.Withdraw)
				authed.GET("/wallet/:userId", deps.TransactionHandler.GetWallet)
				authed.GET("", deps.TransactionHandler.ListTransactions)

				authed.POST("/stripe/customer", deps.SubscriptionHandler.CreateCustomer)
				authed.POST("/subscriptions/start", deps.SubscriptionHandler.StartSubscription)
				authed.POST("/subscriptions/cancel", deps.SubscriptionHandler.CancelSubscription)
				authed.POST("/connect/account-link", deps.SubscriptionHandler.CreateAccountLink)
				authed.GET("/connect/status/:userId", deps.SubscriptionHandler.AccountStatus)
				authed.GET("/connect/accounts/:userId", deps.SubscriptionHandler.LinkedAccounts)
			}
		}
	}

	return router
}
