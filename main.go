// api/main.go
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"nearme/api/analytics"
	"nearme/api/config"
	"nearme/api/database"
	"nearme/api/handlers"
	"nearme/api/logger"
	"nearme/api/middleware"
	"nearme/api/store"
	"nearme/api/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logger.Init(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	utils.SetJWTSecret(cfg.Auth.JWTSecret)

	if cfg.Server.GinMode == gin.ReleaseMode || cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// --- Owner accounts (PostgreSQL) ---
	var authHandlers *handlers.AuthHandlers
	dbClient, err := database.NewPostgresDB(cfg.Postgres.URL)
	if err != nil {
		logger.Warn("PostgreSQL unavailable, owner signup and login disabled", zap.Error(err))
	} else {
		defer dbClient.Close()
		if err := dbClient.EnsureSchema(ctx); err != nil {
			logger.Fatal("Failed to create users schema", zap.Error(err))
		}
		authHandlers = handlers.NewAuthHandlers(store.NewUserStore(dbClient.DB))
	}

	// --- Engagement events ---
	durable, closeDurable := openDurableStore(ctx, cfg)
	defer closeDurable()

	durableName := "none"
	if durable != nil {
		durableName = durable.Name()
	}

	service := analytics.NewService(
		durable,
		store.NewMemoryEventStore(cfg.EventStore.MemoryCapacity),
		analytics.WithDurableTimeout(cfg.EventStore.DurableTimeout),
		analytics.WithLocation(cfg.Analytics.Location),
	)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.LoggerMiddleware())
	r.Use(middleware.CORSMiddleware(cfg.Server.FEOrigin))

	handlers.SetupRoutes(r, handlers.RouteDeps{
		Auth:          authHandlers,
		Analytics:     handlers.NewAnalyticsHandlers(service),
		ServiceKey:    cfg.Auth.ServiceKey,
		DurableDriver: durableName,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		logger.Info("API server starting",
			zap.String("port", cfg.Server.Port),
			zap.String("event_store", durableName))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("API server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exiting.")
}

// openDurableStore connects the configured durable event store. When it
// cannot be reached the service runs on the memory store alone.
func openDurableStore(ctx context.Context, cfg *config.Config) (store.EventStore, func()) {
	noop := func() {}

	switch cfg.EventStore.Driver {
	case config.DriverMemory:
		return nil, noop

	case config.DriverClickHouse:
		chClient, err := database.NewClickHouseDB(cfg.ClickHouse)
		if err != nil {
			logger.Warn("ClickHouse unavailable, using memory event store", zap.Error(err))
			return nil, noop
		}
		events := store.NewClickHouseEventStore(chClient)
		if err := events.EnsureSchema(ctx); err != nil {
			logger.Warn("ClickHouse schema setup failed, using memory event store", zap.Error(err))
			chClient.Close()
			return nil, noop
		}
		return events, chClient.Close

	default:
		db, err := database.OpenEventDB(cfg)
		if err != nil {
			logger.Warn("event database unavailable, using memory event store",
				zap.String("driver", cfg.EventStore.Driver), zap.Error(err))
			return nil, noop
		}
		closeDB := func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}
		events := store.NewSQLEventStore(db)
		if err := events.Migrate(ctx); err != nil {
			logger.Warn("event table migration failed, using memory event store", zap.Error(err))
			closeDB()
			return nil, noop
		}
		return events, closeDB
	}
}
