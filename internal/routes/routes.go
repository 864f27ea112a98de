package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/dealbase/backend/internal/handlers"
	"github.com/dealbase/backend/internal/middleware"
)

// RegisterAuthRoutes registers authentication routes
func RegisterAuthRoutes(router *gin.Engine, authHandler *handlers.AuthHandler, rateLimiter *middleware.RateLimiter) {
	// Apply rate limiting to auth routes
	authGroup := router.Group("/api/auth")
	authGroup.Use(rateLimiter.AuthRateLimiterMiddleware())
	{
		authGroup.POST("/signup", authHandler.Signup)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/refresh", authHandler.RefreshToken)
		authGroup.POST("/google", authHandler.GoogleAuth)
	}
}

// RegisterSubscriptionRoutes registers plan and checkout routes
func RegisterSubscriptionRoutes(router *gin.Engine, subscriptionHandler *handlers.SubscriptionHandler) {
	// Plan catalog is public so the pricing page needs no session.
	router.GET("/api/plans", subscriptionHandler.Plans)

	subscriptionGroup := router.Group("/api/subscription")
	subscriptionGroup.Use(middleware.AuthMiddleware())
	{
		subscriptionGroup.GET("", subscriptionHandler.Current)
		subscriptionGroup.POST("/checkout", subscriptionHandler.Checkout)
		subscriptionGroup.POST("/cancel", subscriptionHandler.Cancel)
	}
}

// RegisterPropertyRoutes registers property listing routes
func RegisterPropertyRoutes(router *gin.Engine, propertyHandler *handlers.PropertyHandler, buyerHandler *handlers.BuyerHandler) {
	propertyGroup := router.Group("/api/properties")
	{
		propertyGroup.GET("", propertyHandler.Search)
		propertyGroup.GET("/slug/:slug", propertyHandler.GetBySlug)
		propertyGroup.GET("/:id", propertyHandler.Get)
	}

	ownerGroup := router.Group("/api/properties")
	ownerGroup.Use(middleware.AuthMiddleware())
	{
		ownerGroup.POST("", propertyHandler.Create)
		ownerGroup.GET("/export", propertyHandler.Export)
		ownerGroup.GET("/mine", propertyHandler.MyListings)
		ownerGroup.POST("/:id/publish", propertyHandler.Publish)
		ownerGroup.PATCH("/:id", propertyHandler.Update)
		ownerGroup.DELETE("/:id", propertyHandler.Delete)
		ownerGroup.GET("/:id/matches", buyerHandler.Match)
	}
}

// RegisterBuyerRoutes registers cash-buyer directory routes
func RegisterBuyerRoutes(router *gin.Engine, buyerHandler *handlers.BuyerHandler) {
	buyerGroup := router.Group("/api/cash-buyers")
	buyerGroup.Use(middleware.AuthMiddleware())
	{
		buyerGroup.GET("", buyerHandler.List)
		buyerGroup.PUT("/profile", buyerHandler.UpsertProfile)
		buyerGroup.POST("/intros", buyerHandler.RequestIntro)
	}
}

// RegisterAffiliateRoutes registers referral program routes
func RegisterAffiliateRoutes(router *gin.Engine, affiliateHandler *handlers.AffiliateHandler) {
	affiliateGroup := router.Group("/api/affiliate")
	affiliateGroup.Use(middleware.AuthMiddleware())
	{
		affiliateGroup.POST("/enroll", affiliateHandler.Enroll)
		affiliateGroup.GET("/dashboard", affiliateHandler.Dashboard)
		affiliateGroup.POST("/payouts", affiliateHandler.RequestPayout)
	}

	adminGroup := router.Group("/api/admin/affiliates")
	adminGroup.Use(middleware.AuthMiddleware(), middleware.AdminMiddleware())
	{
		adminGroup.PUT("/:id/approval", affiliateHandler.Approve)
	}
}
