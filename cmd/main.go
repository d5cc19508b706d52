package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang-storefront-cart/configs"
	"golang-storefront-cart/internal/cartview"
	"golang-storefront-cart/internal/handlers"
	"golang-storefront-cart/internal/middleware"
	"golang-storefront-cart/internal/services"
	"golang-storefront-cart/pkg/auth"
	"golang-storefront-cart/pkg/backend"
	"golang-storefront-cart/pkg/cache"
	"golang-storefront-cart/pkg/logging"
	"golang-storefront-cart/pkg/messaging"
	"golang-storefront-cart/pkg/payment"

	"github.com/gin-gonic/gin"
)

// badgeTTL bounds how long a cart badge survives without a reload.
const badgeTTL = 24 * time.Hour

func main() {
	// Load configuration
	config := configs.LoadConfig()

	log := logging.NewLogger(config.LogLevel)

	// Set Gin mode
	gin.SetMode(config.Server.Mode)

	// Initialize Redis cache
	redisCache := cache.NewRedisCache(config.Redis.URL, config.Redis.Password, config.Redis.DB, log.WithField("component", "redis"))
	if redisCache == nil {
		log.Fatal("Failed to connect to Redis")
	}
	defer redisCache.Close()

	// Initialize Kafka
	kafkaProducer := messaging.NewKafkaProducer(config.Kafka.Brokers, config.Kafka.WriteAsync)
	defer kafkaProducer.Close()

	jwtManager := auth.NewJWTManager(config.JWT.SecretKey, config.JWT.ExpiryHours)

	// Storefront backend and hosted checkout
	backendClient := backend.NewClient(
		backend.Endpoints{
			CartItems:      backend.Endpoint(config.Backend.CartItems),
			UpdateCartItem: backend.Endpoint(config.Backend.UpdateCartItem),
			DeleteCartItem: backend.Endpoint(config.Backend.DeleteCartItem),
			Payment:        backend.Endpoint(config.Backend.Payment),
		},
		config.Backend.Timeout,
		backend.BreakerSettings{
			MaxRequests:      config.Breaker.MaxRequests,
			Interval:         config.Breaker.Interval,
			Timeout:          config.Breaker.Timeout,
			ConsecutiveFails: config.Breaker.ConsecutiveFails,
		},
		log.WithField("component", "backend"),
	)

	gateway := payment.NewStripeGateway(config.Payment.PublishableKey, config.Payment.CheckoutBaseURL)
	if err := gateway.Ready(); err != nil {
		log.WithError(err).Warn("hosted checkout is not configured, payment handoff will fail")
	}

	// Initialize services
	notificationService := services.NewNotificationService(redisCache, badgeTTL)
	cartContextService := services.NewCartContextService(kafkaProducer, config.Kafka.CartTopic)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	views := cartview.NewRegistry(config.Views.IdleTTL, log.WithField("component", "cartview"))
	go views.Run(ctx)

	deps := func(c *gin.Context, userID string) cartview.Deps {
		return cartview.Deps{
			API:         backendClient.WithCredentials(middleware.GetSessionCookies(c)),
			Notifier:    notificationService.ForUser(userID),
			CartContext: cartContextService.ForUser(userID),
			Gateway:     gateway,
		}
	}

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(jwtManager, config.JWT.CookieName)

	// Initialize handlers
	cartHandler := handlers.NewCartHandler(views, notificationService, deps, log.WithField("component", "handlers"))

	// Initialize Gin router
	router := gin.New()
	router.Use(middleware.CORSMiddleware(config.Server.AllowedOrigins))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggerMiddleware(log))
	router.Use(middleware.RecoveryMiddleware(log))
	router.SetHTMLTemplate(handlers.CartTemplate())

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "golang-storefront-cart",
		})
	})

	// Register routes
	cartHandler.RegisterRoutes(router.Group(""), router.Group("/api/v1"), authMiddleware)

	srv := &http.Server{
		Addr:    ":" + config.Server.Port,
		Handler: router,
	}

	go func() {
		log.WithField("port", config.Server.Port).Info("Server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down storefront cart...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}

	log.Info("Storefront cart stopped")
}
