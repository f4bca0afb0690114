package cmd

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/plugins/migratecmd"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	pubnub "github.com/pubnub/go"

	"tickethub/config"
	"tickethub/internal/cache"
	"tickethub/internal/handlers"
	"tickethub/internal/services"
	"tickethub/internal/services/gateway"
	"tickethub/internal/store"
	_ "tickethub/migrations"
	"tickethub/monitoring"
	"tickethub/utils"
)

func Start() error {
	app := pocketbase.New()

	// Load configuration
	cfg := config.LoadConfig()

	// Initialize Redis
	redisClient := utils.NewRedisClient(cfg.RedisURL)
	defer redisClient.Close()

	// Initialize PubNub
	pnConfig := pubnub.NewConfig()
	pnConfig.PublishKey = cfg.PubNubPublishKey
	pnConfig.SubscribeKey = cfg.PubNubSubscribeKey
	pnConfig.SecretKey = cfg.PubNubSecretKey

	pn := pubnub.NewPubNub(pnConfig)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize payment gateway client
	gw, err := gateway.New(ctx, &cfg.Gateway)
	if err != nil {
		return err
	}

	// Initialize store, cache, and services
	st := store.New(app)
	sessionCache := cache.New(redisClient, cfg.CheckoutSessionTTL)
	notifier := services.NewSettlementNotifier(app, pn, st)

	purchaseService := services.NewPurchaseService(st, gw, sessionCache)
	settlementService := services.NewSettlementService(st, sessionCache, notifier, cfg.Gateway.SecretKey)

	// Initialize handlers
	purchaseHandler := handlers.NewPurchaseHandler(app, purchaseService, st, sessionCache, gw)
	webhookHandler := handlers.NewWebhookHandler(app, settlementService)

	// Enable migrations
	migratecmd.MustRegister(app, app.RootCmd, migratecmd.Config{
		Automigrate: true,
	})

	// Start background monitoring
	monitor := monitoring.NewMonitor(redisClient)
	go monitor.Start(ctx)

	// Setup graceful shutdown
	go handleShutdown(cancel)

	app.OnServe().BindFunc(func(e *core.ServeEvent) error {
		// Purchase endpoints
		e.Router.POST("/api/v1/purchases", purchaseHandler.InitiatePurchase)
		e.Router.GET("/api/v1/purchases/{reference}", purchaseHandler.GetPurchase)

		// Payment endpoints
		e.Router.POST("/api/v1/payments/webhook", webhookHandler.HandlePaymentWebhook)
		e.Router.GET("/api/v1/payments/verify/{reference}", purchaseHandler.VerifyPayment)

		// Metrics
		if cfg.EnableMetrics {
			e.Router.GET("/metrics", func(e *core.RequestEvent) error {
				promhttp.Handler().ServeHTTP(e.Response, e.Request)
				return nil
			})
		}

		// Health check
		e.Router.GET("/health", func(e *core.RequestEvent) error {
			if err := utils.RedisHealthCheck(redisClient); err != nil {
				return e.JSON(http.StatusServiceUnavailable, map[string]string{
					"status": "unhealthy",
					"error":  err.Error(),
				})
			}
			return e.JSON(http.StatusOK, map[string]string{"status": "healthy"})
		})

		log.Println("Server routes registered")

		return e.Next()
	})

	return app.Start()
}

// handleShutdown handles graceful shutdown
func handleShutdown(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Println("Shutdown signal received, cleaning up...")
	cancel()
}
