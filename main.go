package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"research-review-portal/config"
	"research-review-portal/handlers"
	"research-review-portal/helper"
	"research-review-portal/middleware"
	"research-review-portal/notify"
	"research-review-portal/repositories"
	"research-review-portal/services"
	"research-review-portal/storage"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// Initialize database
	db, err := config.OpenDB(cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer config.CloseDB(db)

	blobs, err := storage.NewFileSystem(cfg.BlobDir, cfg.BlobBaseURL)
	if err != nil {
		return err
	}

	var notifier notify.Notifier = notify.NewLogNotifier(logger)
	var stream *notify.RedisStream
	if cfg.RedisURL != "" {
		stream, err = notify.NewRedisStream(cfg.RedisURL, cfg.NotifyStream)
		if err != nil {
			return err
		}
		defer stream.Close()
		notifier = stream
	}

	// Initialize services
	deps := services.Dependencies{
		Tx:                      repositories.NewTransactor(db),
		Users:                   repositories.NewUserRepository(db),
		Articles:                repositories.NewArticleRepository(db),
		Reviews:                 repositories.NewReviewRepository(db),
		Blobs:                   blobs,
		Notifier:                notifier,
		Logger:                  logger,
		AllowPlaceholderAuthors: cfg.AllowPlaceholderAuthors,
		SearchPageSize:          cfg.SearchPageSize,
	}
	userService := services.NewUserService(deps)

	// Initialize handlers
	h := helper.NewHTTPHelper()
	viewLimiter := middleware.NewPerMinuteLimiter(cfg.ViewRatePerMinute, h)

	// Setup router
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Metrics(),
		cors.New(cors.Config{
			AllowAllOrigins: true,
			AllowMethods:    []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:    []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
			ExposeHeaders:   []string{middleware.RequestIDHeader},
			MaxAge:          12 * time.Hour,
		}),
	)

	router.GET("/health", healthCheck(db, stream))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handlers.RegisterRoutes(router, handlers.Handlers{
		Articles: handlers.NewArticleHandler(services.NewArticleService(deps), h),
		Reviews:  handlers.NewReviewHandler(services.NewReviewService(deps), h),
		Users:    handlers.NewUserHandler(userService, h),
		Search:   handlers.NewSearchHandler(services.NewSearchService(deps), h),
		Admin:    handlers.NewAdminHandler(services.NewAdminService(deps), h),
	}, handlers.RouterOptions{
		Auth:           middleware.NewAuthenticator(cfg.JWTSecret, userService, h),
		ViewLimiter:    viewLimiter,
		MaxUploadBytes: cfg.MaxUploadBytes,
	})

	srv := &http.Server{
		Addr:              cfg.Address(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return viewLimiter.Sweep(ctx)
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func healthCheck(db *gorm.DB, stream *notify.RedisStream) gin.HandlerFunc {
	return func(c *gin.Context) {
		checks := gin.H{"database": "ok"}
		healthy := true

		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			checks["database"] = "unavailable"
			healthy = false
		}
		if stream != nil {
			checks["notifications"] = "ok"
			if err := stream.Ping(c.Request.Context()); err != nil {
				checks["notifications"] = "unavailable"
				healthy = false
			}
		}

		if !healthy {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "checks": checks})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "checks": checks})
	}
}
