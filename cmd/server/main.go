package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ikkim/udonggeum-basket/config"
	"github.com/ikkim/udonggeum-basket/internal/app/controller"
	"github.com/ikkim/udonggeum-basket/internal/app/service"
	"github.com/ikkim/udonggeum-basket/internal/checkout"
	"github.com/ikkim/udonggeum-basket/internal/confirm"
	"github.com/ikkim/udonggeum-basket/internal/middleware"
	"github.com/ikkim/udonggeum-basket/internal/router"
	"github.com/ikkim/udonggeum-basket/internal/scheduler"
	ws "github.com/ikkim/udonggeum-basket/internal/websocket"
	"github.com/ikkim/udonggeum-basket/pkg/checkoutapi"
	"github.com/ikkim/udonggeum-basket/pkg/logger"
	"github.com/ikkim/udonggeum-basket/pkg/redis"
)

const snapshotTTL = 24 * time.Hour

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel := "info"
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      "console", // Use "json" for production
		EnableColor: true,
	})

	logger.Info("Starting basket bridge", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   logLevel,
	})

	if cfg.Session.Secret == "" {
		logger.Fatal("SESSION_SECRET must be set", errors.New("empty session secret"))
	}

	// Snapshot store: Redis when reachable, memory otherwise
	var store checkout.SnapshotStore = checkout.NewMemorySnapshotStore()
	if cfg.Redis.Enabled {
		if err := redis.Init(&cfg.Redis); err != nil {
			logger.Warn("Redis unavailable, keeping snapshots in memory", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			store = checkout.NewRedisSnapshotStore(redis.GetClient(), cfg.Redis.SnapshotKey, snapshotTTL)
			defer func() {
				if err := redis.Close(); err != nil {
					logger.Error("Failed to close Redis connection", err)
				}
			}()
		}
	}

	client, err := checkoutapi.NewClient(checkoutapi.Config{
		BaseURL:        cfg.Checkout.BaseURL,
		ContentBaseURL: cfg.Checkout.ContentBaseURL,
		APIToken:       cfg.Checkout.APIToken,
		Timeout:        cfg.Checkout.Timeout,
	})
	if err != nil {
		logger.Fatal("Failed to create checkout API client", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// UI bridge
	hub := ws.NewHub()
	bridge := ws.NewBridge(hub)
	gates := confirm.NewRegistry(bridge, cfg.Gates.Expiry)

	// Snapshot cache
	cache := checkout.NewCache(client, client, bridge, store)
	if err := cache.Warm(ctx); err != nil {
		logger.Warn("Failed to warm checkout cache", map[string]interface{}{
			"error": err.Error(),
		})
	}
	if err := cache.LoadCheckout(ctx); err != nil {
		logger.Warn("Initial checkout load failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	// Engine
	basketService := service.NewBasketService(client, cache, client, bridge, gates, cfg.Views)

	// Background resync
	syncScheduler := scheduler.NewCheckoutSyncScheduler(cache, cfg.Sync.Schedule)
	if err := syncScheduler.Start(); err != nil {
		logger.Fatal("Failed to start checkout sync scheduler", err)
	}

	// Initialize controllers
	basketController := controller.NewBasketController(basketService)
	gateController := controller.NewGateController(gates)
	sessionController := controller.NewSessionController(cfg.Session.Secret, cfg.Session.TokenExpiry)
	websocketController := controller.NewWebSocketController(hub, gates, cfg.CORS.AllowedOrigins)

	// Setup router
	r := router.NewRouter(
		basketController,
		gateController,
		sessionController,
		websocketController,
		middleware.NewSessionMiddleware(cfg.Session.Secret),
		cfg,
	)

	go hub.Run(ctx)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r.Setup(),
	}

	go func() {
		logger.Info("Server started successfully", map[string]interface{}{
			"address": srv.Addr,
			"pid":     os.Getpid(),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")

	syncScheduler.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", err)
	}
	cancel()

	logger.Info("Server stopped successfully")
}
