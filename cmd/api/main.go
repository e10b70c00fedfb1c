package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/checkout-flow/api/routes"
	"github.com/angelmondragon/checkout-flow/internal/cart"
	"github.com/angelmondragon/checkout-flow/internal/catalog"
	"github.com/angelmondragon/checkout-flow/internal/checkout"
	"github.com/angelmondragon/checkout-flow/internal/orders"
	"github.com/angelmondragon/checkout-flow/internal/users"
	"github.com/angelmondragon/checkout-flow/pkg/config"
	"github.com/angelmondragon/checkout-flow/pkg/db"
	"github.com/angelmondragon/checkout-flow/pkg/env"
	"github.com/angelmondragon/checkout-flow/pkg/logger"
	"github.com/angelmondragon/checkout-flow/pkg/metrics"
	"github.com/angelmondragon/checkout-flow/pkg/migrate"
	"github.com/angelmondragon/checkout-flow/pkg/redis"
	"github.com/angelmondragon/checkout-flow/pkg/simulate"
)

const (
	shutdownTimeout      = 15 * time.Second
	sessionSweepInterval = time.Minute
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) (err error) {
	var dbClient *db.Client
	if cfg.Store.Backend == config.StoreBackendDB || cfg.DB.DSN != "" {
		dbClient, err = db.New(ctx, cfg.DB, logg)
		if err != nil {
			return err
		}
		defer func() { err = multierr.Append(err, dbClient.Close()) }()

		if err := migrate.MaybeRun(ctx, cfg, logg, dbClient); err != nil {
			return err
		}
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return err
		}
		defer func() { err = multierr.Append(err, redisClient.Close()) }()
	}

	persister, err := newPersister(cfg, dbClient, redisClient)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	checkoutMetrics := metrics.NewCheckoutMetrics(reg)

	sim := cfg.Simulation
	outcomes := func() simulate.Outcomes {
		if sim.DisableFailures {
			return simulate.Fixed(1)
		}
		return simulate.Random()
	}

	cities := catalog.NewSimulatedSource(catalog.SourceOptions{
		Latency:     sim.CatalogLatency,
		FailureRate: sim.CatalogFailureRate,
		Outcomes:    outcomes(),
	})

	var recorder *orders.GormRecorder
	if dbClient != nil {
		if recorder, err = orders.NewGormRecorder(dbClient.DB()); err != nil {
			return err
		}
	}
	simOpts := orders.SimulatorOptions{
		Latency:   sim.OrderLatency,
		Outcomes:  outcomes(),
		Logger:    logg,
		ReplayTTL: cfg.Orders.ReplayTTL,
	}
	if recorder != nil {
		simOpts.Recorder = recorder
	}
	orderSim := orders.NewSimulator(simOpts)

	var boundary orders.Boundary = orderSim
	if cfg.Orders.Mode == config.OrdersModeHTTP {
		client, err := orders.NewHTTPClient(cfg.Orders.BaseURL, &http.Client{})
		if err != nil {
			return err
		}
		boundary = client
	}

	var seed []cart.CartItem
	if cfg.Store.SeedDemoCart {
		seed = cart.DemoItems()
	}
	registry, err := checkout.NewRegistry(checkout.SessionDeps{
		Persister: persister,
		SeedItems: seed,
		Catalog:   cities,
		Orders:    boundary,
		InfoVerifier: checkout.NewSimulatedVerifier(checkout.VerifierOptions{
			Latency:     sim.InfoLatency,
			FailureRate: sim.InfoFailureRate,
			Outcomes:    outcomes(),
		}),
		DeliveryVerifier: checkout.NewSimulatedVerifier(checkout.VerifierOptions{
			Latency:     sim.DeliveryLatency,
			FailureRate: sim.DeliveryFailureRate,
			Outcomes:    outcomes(),
		}),
		Metrics:         checkoutMetrics,
		Logger:          logg,
		ResetAfterOrder: cfg.Store.ResetAfterOrder,
		IdleTimeout:     cfg.Store.IdleTimeout,
	})
	if err != nil {
		return err
	}

	directory := users.NewDirectory(users.Options{
		LookupLatency: sim.UserLatency,
		LoginLatency:  sim.LoginLatency,
		LogoutLatency: sim.LogoutLatency,
	})

	addr := ":" + env.Get("PORT", cfg.App.Port)
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":           cfg.App.Env,
		"addr":          addr,
		"store_backend": cfg.Store.Backend,
		"orders_mode":   cfg.Orders.Mode,
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, dbClient, redisClient, reg, registry, directory, cities, orderSim, recorder),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logg.Info(logCtx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		registry.Run(gctx, sessionSweepInterval)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		logg.Info(logCtx, "shutting down api server")
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func newPersister(cfg *config.Config, dbClient *db.Client, redisClient *redis.Client) (cart.Persister, error) {
	switch cfg.Store.Backend {
	case config.StoreBackendRedis:
		return cart.NewRedisPersister(redisClient, cfg.Store.SessionTTL)
	case config.StoreBackendDB:
		return cart.NewGormPersister(dbClient.DB(), cfg.Store.SessionTTL)
	default:
		return cart.NewExpiringMemoryPersister(cfg.Store.SessionTTL, nil), nil
	}
}
