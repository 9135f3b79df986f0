package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/ticketeira/storefront/api/routes"
	cartsvc "github.com/ticketeira/storefront/internal/cart"
	checkoutsvc "github.com/ticketeira/storefront/internal/checkout"
	eventsvc "github.com/ticketeira/storefront/internal/events"
	sessionsvc "github.com/ticketeira/storefront/internal/session"
	"github.com/ticketeira/storefront/pkg/authapi"
	"github.com/ticketeira/storefront/pkg/config"
	"github.com/ticketeira/storefront/pkg/logger"
	"github.com/ticketeira/storefront/pkg/metrics"
	"github.com/ticketeira/storefront/pkg/redis"
	"github.com/ticketeira/storefront/pkg/ticketingapi"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "storefront"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "storefront",
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

	authClient, err := authapi.NewClient(cfg.AuthAPI.BaseURL, cfg.Tenant.ID,
		authapi.WithTimeout(cfg.AuthAPI.Timeout))
	if err != nil {
		logg.Error(context.Background(), "failed to build auth api client", err)
		os.Exit(1)
	}

	ticketingClient, err := ticketingapi.NewClient(cfg.TicketingAPI.BaseURL, cfg.Tenant.ID,
		ticketingapi.WithTimeout(cfg.TicketingAPI.Timeout))
	if err != nil {
		logg.Error(context.Background(), "failed to build ticketing api client", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	checkoutMetrics := metrics.NewCheckoutMetrics(registry)

	sessionStore, err := sessionsvc.NewStore(redisClient, cfg.SessionToken.TTL())
	if err != nil {
		logg.Error(context.Background(), "failed to build session store", err)
		os.Exit(1)
	}
	cartStore, err := cartsvc.NewStore(redisClient, cfg.SessionToken.TTL())
	if err != nil {
		logg.Error(context.Background(), "failed to build cart store", err)
		os.Exit(1)
	}

	sessionService, err := sessionsvc.NewService(sessionsvc.ServiceParams{
		AuthClient: authClient,
		Store:      sessionStore,
		Logger:     logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to build session service", err)
		os.Exit(1)
	}

	cartService, err := cartsvc.NewService(cartStore)
	if err != nil {
		logg.Error(context.Background(), "failed to build cart service", err)
		os.Exit(1)
	}

	eventsService, err := eventsvc.NewService(eventsvc.ServiceParams{
		Catalog:  ticketingClient,
		Cache:    redisClient,
		CacheTTL: cfg.Events.CacheTTL,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to build events service", err)
		os.Exit(1)
	}

	checkoutService, err := checkoutsvc.NewService(checkoutsvc.ServiceParams{
		Carts:     cartService,
		Sessions:  sessionService,
		Ticketing: ticketingClient,
		Logger:    logg,
		Metrics:   checkoutMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to build checkout service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting storefront server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			redisClient,
			registry,
			eventsService,
			cartService,
			sessionService,
			checkoutService,
			ticketingClient,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "storefront server stopped unexpectedly", err)
		os.Exit(1)
	}
}
