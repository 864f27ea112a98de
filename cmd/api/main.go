package main

import (
	"fmt"
	"log"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"

	"github.com/dealbase/backend/internal/access"
	"github.com/dealbase/backend/internal/config"
	"github.com/dealbase/backend/internal/database"
	"github.com/dealbase/backend/internal/database/migrations"
	"github.com/dealbase/backend/internal/handlers"
	"github.com/dealbase/backend/internal/jobs"
	"github.com/dealbase/backend/internal/middleware"
	"github.com/dealbase/backend/internal/queue"
	"github.com/dealbase/backend/internal/routes"
	"github.com/dealbase/backend/internal/services/affiliate"
	"github.com/dealbase/backend/internal/services/billing"
	"github.com/dealbase/backend/internal/services/buyer"
	"github.com/dealbase/backend/internal/services/geo"
	"github.com/dealbase/backend/internal/services/property"
)

func main() {
	// Initialize configuration (loads .env for local development)
	cfg := config.LoadConfig()

	// Setup database connection
	db, err := database.InitDB(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run versioned migrations (seed data, raw SQL tables)
	if err := migrations.RunMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Redis backs the geocoding cache; the API works without it.
	redisClient := newRedisClient(cfg.Redis)

	// Initialize job queue and recurring schedule
	jobQueue := queue.NewQueue(db)
	provider := billing.NewHTTPProvider(cfg.Billing)

	jobs.RegisterJobs(jobQueue, db, provider)
	jobQueue.StartProcessing()

	scheduler := queue.NewScheduler(jobQueue)
	scheduler.Start()

	// Initialize services
	affiliateService := affiliate.NewService(affiliate.NewGormStore(db), jobs.NewPayoutScheduler(jobQueue))
	billingService := billing.NewService(db, provider, affiliateService)
	geocoder := geo.NewMapboxGeocoder(cfg.Geocoder, redisClient)
	propertyService := property.NewService(db, geocoder)
	buyerService := buyer.NewService(db)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(db, billingService, affiliateService)
	subscriptionHandler := handlers.NewSubscriptionHandler(db, billingService)
	propertyHandler := handlers.NewPropertyHandler(propertyService)
	buyerHandler := handlers.NewBuyerHandler(buyerService, propertyService)
	affiliateHandler := handlers.NewAffiliateHandler(affiliateService, cfg.FrontendURL)
	webhookHandler := handlers.NewWebhookHandler(billingService, cfg.Billing.WebhookSecret)

	// Initialize router
	router := gin.Default()

	// Configure CORS
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.FrontendURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	rateLimiter := middleware.NewRateLimiter(20, 10, 40, 5)
	router.Use(rateLimiter.IPRateLimiterMiddleware())

	// Every request flows through the session decoder and the access gate.
	router.Use(middleware.SessionMiddleware())
	router.Use(middleware.AccessGateMiddleware(access.NewGate(access.DefaultRules())))

	// Register routes
	routes.RegisterAuthRoutes(router, authHandler, rateLimiter)
	routes.RegisterSubscriptionRoutes(router, subscriptionHandler)
	routes.RegisterPropertyRoutes(router, propertyHandler, buyerHandler)
	routes.RegisterBuyerRoutes(router, buyerHandler)
	routes.RegisterAffiliateRoutes(router, affiliateHandler)
	routes.RegisterWebhookRoutes(router, webhookHandler)

	// Start server
	fmt.Printf("DealBase API server running on port %s\n", cfg.Server.Port)
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// newRedisClient connects to Redis, returning nil when unavailable so callers
// degrade to uncached behavior
func newRedisClient(cfg config.RedisConfig) *redis.Client {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		log.Printf("Invalid Redis URL, caching disabled: %v", err)
		return nil
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}
	opts.DB = cfg.DB
	return redis.NewClient(opts)
}
