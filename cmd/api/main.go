package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/quickplate/ordercore/api/routes"
	"github.com/quickplate/ordercore/internal/cart"
	checkoutsvc "github.com/quickplate/ordercore/internal/checkout"
	"github.com/quickplate/ordercore/internal/orders"
	"github.com/quickplate/ordercore/internal/tracking"
	"github.com/quickplate/ordercore/pkg/config"
	"github.com/quickplate/ordercore/pkg/instance"
	"github.com/quickplate/ordercore/pkg/logger"
	"github.com/quickplate/ordercore/pkg/metrics"
	"github.com/quickplate/ordercore/pkg/redis"
	"github.com/quickplate/ordercore/pkg/square"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	squareClient, err := square.NewClient(context.Background(), cfg.Square, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap square", err)
		os.Exit(1)
	}

	orderClient, err := orders.NewClient(cfg.OrderAPI, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create order api client", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()

	orderStore := orders.NewStore()

	cartService, err := cart.NewService(cart.NewCart(), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	checkoutService, err := checkoutsvc.NewService(
		cartService,
		squareClient,
		orderClient,
		orderStore,
		cfg.Fees,
		metrics.NewCheckoutMetrics(registry),
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	trackingService, err := tracking.NewService(
		tracking.NewRedisBroker(redisClient),
		orderClient,
		orderStore,
		cfg.Tracking,
		metrics.NewTrackingMetrics(registry),
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create tracking service", err)
		os.Exit(1)
	}
	defer trackingService.Close()

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			redisClient,
			cartService,
			checkoutService,
			orderStore,
			orderClient,
			trackingService,
			registry,
		),
	}

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-stopCtx.Done():
		logg.Info(ctx, "shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "error during shutdown", err)
		}
	}
}
