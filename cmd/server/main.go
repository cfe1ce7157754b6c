package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"sleepface.app/engine/common/id"
	"sleepface.app/engine/common/logger"
	"sleepface.app/engine/common/otel"
	"sleepface.app/engine/core/config"
	"sleepface.app/engine/core/db"
	"sleepface.app/engine/internal/http/middleware"
	httprouter "sleepface.app/engine/internal/http/router"
	"sleepface.app/engine/internal/landmark"
	"sleepface.app/engine/internal/queue"
	"sleepface.app/engine/internal/service"
	"sleepface.app/engine/internal/store"
)

func main() {
	fmt.Printf("%s\n", banner)
	ctx := context.Background()

	cfg, err := config.Load(config.ServiceTypeServer)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	// OTel must init before logger (logger uses OTel provider in production)
	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		// Can't use slog yet — OTel failed before logger setup
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	if telemetry != nil {
		slog.InfoContext(ctx, "otel initialized", "endpoint", cfg.OTel.Endpoint)
	} else {
		slog.InfoContext(ctx, "otel disabled (no endpoint configured)")
	}

	slog.InfoContext(ctx, "engine starting", "env", cfg.Env, "service", cfg.OTel.ServiceName)
	if err := id.Init(cfg.NodeID); err != nil {
		slog.ErrorContext(ctx, "failed to initialize snowflake id generator", "error", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(cfg.Media.Dir, 0o755); err != nil {
		slog.ErrorContext(ctx, "failed to create media dir", "error", err, "dir", cfg.Media.Dir)
		os.Exit(1)
	}

	var database *db.DB
	if cfg.DB.DSN != "" {
		database, err = db.New(ctx, cfg.DB)
		if err != nil {
			slog.ErrorContext(ctx, "failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer database.Close()
		slog.InfoContext(ctx, "database connected")
	} else {
		slog.WarnContext(ctx, "no DATABASE_URL configured, using in-memory store")
	}

	redisOpts, err := redis.ParseURL(cfg.Pipeline.RedisURL)
	if err != nil {
		slog.ErrorContext(ctx, "failed to parse redis url", "error", err)
		os.Exit(1)
	}

	redisClient := redis.NewClient(redisOpts)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		slog.ErrorContext(ctx, "failed to connect to redis", "error", err)
		os.Exit(1)
	}
	slog.InfoContext(ctx, "redis connected", "stream", cfg.Pipeline.RedisStream)

	producer := queue.NewRedisProducer(redisClient, cfg.Pipeline.RedisStream, slog.Default())
	defer producer.Close()

	stores := store.NewStores(database, cfg.Analysis.LockWait)

	var landmarks landmark.Detector
	if cfg.Landmark.Endpoint != "" {
		landmarks = landmark.NewClient(cfg.Landmark.Endpoint, cfg.Landmark.Timeout)
		slog.InfoContext(ctx, "landmark client configured", "endpoint", cfg.Landmark.Endpoint)
	} else {
		slog.InfoContext(ctx, "no landmark endpoint configured, using geometric fallback")
	}

	services := service.NewServices(cfg, stores, landmarks, slog.Default())

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := setupRouter(cfg, services, producer)
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.InfoContext(ctx, "http server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.ErrorContext(ctx, "http server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "http server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(shutdownCtx, "shutdown complete")
}

func setupRouter(cfg config.Config, services *service.Services, producer queue.Producer) *gin.Engine {
	router := gin.New()

	// Order matters: OTel creates span → Recovery catches panics → Logger logs with trace context
	if cfg.OTel.Enabled() {
		router.Use(otelgin.Middleware(cfg.OTel.ServiceName))
	}
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())

	httprouter.SetupRoutes(router, services, producer, httprouter.RouterConfig{
		MediaDir: cfg.Media.Dir,
	})

	return router
}

const banner = `
███████╗██╗     ███████╗███████╗██████╗ ███████╗ █████╗  ██████╗███████╗
██╔════╝██║     ██╔════╝██╔════╝██╔══██╗██╔════╝██╔══██╗██╔════╝██╔════╝
███████╗██║     █████╗  █████╗  ██████╔╝█████╗  ███████║██║     █████╗
╚════██║██║     ██╔══╝  ██╔══╝  ██╔═══╝ ██╔══╝  ██╔══██║██║     ██╔══╝
███████║███████╗███████╗███████╗██║     ██║     ██║  ██║╚██████╗███████╗
╚══════╝╚══════╝╚══════╝╚══════╝╚═╝     ╚═╝     ╚═╝  ╚═╝ ╚═════╝╚══════╝
`
