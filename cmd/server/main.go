package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"rumbo/internal/app"
	"rumbo/internal/config"
	"rumbo/internal/handler"
	"rumbo/internal/metrics"
	internalRedis "rumbo/internal/redis"
	"rumbo/internal/repository/postgres"
	"rumbo/internal/service"
)

func main() {
	// Load configuration.
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
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
			log.Printf("failed to initialize New Relic: %v", err)
		} else {
			log.Printf("New Relic enabled: app=%s (with DB instrumentation)", cfg.NewRelic.AppName)
		}
	}

	// Initialize database with New Relic instrumentation; this also
	// applies pending migrations.
	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Connected to PostgreSQL")

	// Initialize Redis with New Relic instrumentation.
	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Connected to Redis")

	// Connect the event broker. A missing NATS_URL yields a log-only
	// publisher, so local runs work without a broker.
	notifier, err := service.NewNotificationService(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("failed to connect to nats: %v", err)
	}
	defer notifier.Close()

	// Wire dependencies.
	server := wireServer(db, redisClient, notifier, nrApp, cfg)

	// Start server in goroutine.
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

// wireServer wires all dependencies and returns the HTTP server.
func wireServer(db *sql.DB, redisClient *redis.Client, notifier *service.NotificationService, nrApp *newrelic.Application, cfg *config.Config) *http.Server {
	// Initialize Redis stores.
	lockStore := internalRedis.NewLockStore(redisClient)
	cacheStore := internalRedis.NewCacheStore(redisClient)

	// Initialize metrics.
	collector := metrics.NewCollector()

	// Initialize repositories.
	userRepo := postgres.NewUserRepository(db)
	tripRepo := postgres.NewTripRepository(db)
	reservationRepo := postgres.NewReservationRepository(db)
	ratingRepo := postgres.NewRatingRepository(db)
	txStore := service.NewSQLTxStore(db)

	// Initialize services.
	userService := service.NewUserService(userRepo, cacheStore)
	tripService := service.NewTripService(tripRepo, userRepo, reservationRepo, cacheStore, notifier, collector)
	reservationService := service.NewReservationService(txStore, tripRepo, reservationRepo, userRepo, lockStore, cacheStore, notifier, collector)
	ratingService := service.NewRatingService(txStore, ratingRepo, tripRepo, reservationRepo, userRepo, cacheStore, notifier, collector)

	// Initialize handlers.
	userHandler := handler.NewUserHandler(userService)
	tripHandler := handler.NewTripHandler(tripService)
	reservationHandler := handler.NewReservationHandler(reservationService)
	ratingHandler := handler.NewRatingHandler(ratingService)

	// Create router.
	router := app.NewRouter(app.RouterDeps{
		UserHandler:        userHandler,
		TripHandler:        tripHandler,
		ReservationHandler: reservationHandler,
		RatingHandler:      ratingHandler,
		Collector:          collector,
		RedisClient:        redisClient,
		NewRelicApp:        nrApp,
	})

	// Create HTTP server.
	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}
