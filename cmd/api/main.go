package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gobag/gobag-backend/internal/config"
	"github.com/gobag/gobag-backend/internal/database"
	"github.com/gobag/gobag-backend/internal/events"
	"github.com/gobag/gobag-backend/internal/handlers"
	"github.com/gobag/gobag-backend/internal/middleware"
	"github.com/gobag/gobag-backend/internal/repository"
	"github.com/gobag/gobag-backend/internal/services"
	"github.com/gobag/gobag-backend/internal/stores"
	"github.com/gobag/gobag-backend/pkg/utils"
)

func main() {
	// .env is optional outside local development
	_ = godotenv.Load()

	logger, _ := zap.NewProduction()
	defer logger.Sync()
	sugar := logger.Sugar()

	cfg, err := config.Parse()
	if err != nil {
		sugar.Fatalw("configuration error", "error", err)
	}

	db, err := database.InitDB(cfg.DSN())
	if err != nil {
		sugar.Fatalw("failed to initialize database", "error", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		sugar.Fatalw("failed to get database instance", "error", err)
	}

	// Configure connection pool
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	utils.InitJWT(cfg.JWTSecret)

	if err := services.InitRedis(cfg.RedisURL); err != nil {
		sugar.Warnw("redis unavailable, caching and logout blacklist disabled", "error", err)
	}

	// Initialize Storage (S3 or local fallback)
	if err := services.InitStorage(services.StorageConfig{
		AWSRegion:    cfg.AWSRegion,
		AWSAccessKey: cfg.AWSAccessKey,
		AWSSecretKey: cfg.AWSSecretKey,
		Bucket:       cfg.S3Bucket,
		UploadDir:    cfg.UploadDir,
		BaseURL:      cfg.BaseURL,
	}); err != nil {
		sugar.Fatalw("failed to initialize storage", "error", err)
	}

	repo := repository.NewPostgresRepository(db)

	pubSub := events.NewGoChannelPubSub(sugar)
	bus := events.NewBus(pubSub, sugar)

	authStore := stores.NewAuthStore(repo, sugar)
	tripStore := stores.NewTripStore(repo, bus, sugar)
	packageStore := stores.NewPackageStore(repo, bus, sugar)

	hub := services.NewHub()
	go hub.Run()

	notifier := events.NewNotifier(pubSub, hub, sugar)

	r := setupRouter(hub, authStore, tripStore, packageStore)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return notifier.Run(ctx)
	})

	g.Go(func() error {
		sugar.Infow("starting gobag server", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		pubSub.Close()
		sugar.Info("server stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		sugar.Fatalw("application terminated with error", "error", err)
	}
}

func setupRouter(
	hub *services.Hub,
	authStore *stores.AuthStore,
	tripStore *stores.TripStore,
	packageStore *stores.PackageStore,
) *gin.Engine {
	r := gin.Default()

	// Configure CORS
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	r.Use(cors.New(corsConfig))

	// Locally stored uploads; S3 serves its own URLs
	if dir := services.UploadDir(); dir != "" {
		r.Static("/uploads", dir)
	}

	api := r.Group("/api")
	{
		// Public routes
		auth := api.Group("/auth")
		{
			auth.POST("/register", handlers.Register(authStore))
			auth.POST("/login", handlers.Login(authStore))
		}

		// Protected routes
		protected := api.Group("/")
		protected.Use(middleware.AuthMiddleware())
		{
			protected.POST("/auth/logout", handlers.Logout(authStore))

			// WebSocket connection
			protected.GET("/ws", handlers.WebSocketHandler(hub))

			users := protected.Group("/users")
			{
				users.GET("/profile", handlers.GetProfile(authStore))
				users.PUT("/profile", handlers.UpdateProfile(authStore))
			}

			trips := protected.Group("/trips")
			{
				trips.GET("", handlers.GetTrips(tripStore))
				trips.POST("", middleware.RequireRole("traveller"), handlers.CreateTrip(tripStore))
				trips.GET("/traveller", middleware.RequireRole("traveller"), handlers.GetTravellerTrips(tripStore))
				trips.GET("/:id", handlers.GetTrip(tripStore))
				trips.POST("/:id/book", middleware.RequireRole("sender"), handlers.BookTrip(tripStore))
				trips.PATCH("/:id/status", handlers.UpdateTripStatus(tripStore))
			}

			bookings := protected.Group("/bookings")
			{
				bookings.GET("/sender", handlers.GetSenderBookings(tripStore))
				bookings.GET("/traveller", middleware.RequireRole("traveller"), handlers.GetTravellerBookings(tripStore))
				bookings.GET("/:id", handlers.GetBooking(tripStore))
				bookings.GET("/:id/status", handlers.GetBookingStatus(tripStore))
				bookings.PATCH("/:id/status", handlers.UpdateBookingStatus(tripStore))
				bookings.POST("/:id/pay", handlers.PayBooking(tripStore))
			}

			packages := protected.Group("/packages")
			{
				packages.GET("", handlers.GetPackages(packageStore))
				packages.POST("", middleware.RequireRole("sender"), handlers.CreatePackage(packageStore))
				packages.GET("/sender", handlers.GetSenderPackages(packageStore))
				packages.GET("/:id", handlers.GetPackage(packageStore))
				packages.PATCH("/:id/status", handlers.UpdatePackageStatus(packageStore))
			}
		}
	}

	return r
}
