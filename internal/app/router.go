package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"rumbo/internal/handler"
	"rumbo/internal/metrics"
	"rumbo/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	UserHandler        *handler.UserHandler
	TripHandler        *handler.TripHandler
	ReservationHandler *handler.ReservationHandler
	RatingHandler      *handler.RatingHandler
	Collector          *metrics.Collector
	RedisClient        *redis.Client
	NewRelicApp        *newrelic.Application
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
	router.GET("/metrics", gin.WrapH(deps.Collector.Handler()))

	api := router.Group("/api")
	{
		// User routes.
		users := api.Group("/users")
		{
			users.POST("/register", deps.UserHandler.Register)
			users.POST("/login", deps.UserHandler.Login)
			users.GET("/:id", deps.UserHandler.Get)
			users.PUT("/:id", deps.UserHandler.UpdateProfile)
			users.GET("/:id/trips", deps.TripHandler.ListForUser)
			users.POST("/:id/ratings", deps.RatingHandler.Submit)
			users.GET("/:id/ratings", deps.RatingHandler.ListForUser)
			users.GET("/:id/ratings/pending", deps.RatingHandler.Pending)
		}

		// Trip routes.
		trips := api.Group("/trips")
		{
			trips.POST("", deps.TripHandler.Create)
			trips.GET("", deps.TripHandler.List)
			trips.GET("/:id", deps.TripHandler.Get)
			trips.POST("/:id/select", deps.ReservationHandler.Reserve)
			trips.GET("/:id/passengers", deps.ReservationHandler.ListPassengers)
			trips.PATCH("/:id/start", deps.TripHandler.Start)
			trips.PATCH("/:id/complete", deps.TripHandler.Complete)
		}
	}

	return router
}
