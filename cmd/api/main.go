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

	"github.com/angelmondragon/venueops-backend/api/routes"
	"github.com/angelmondragon/venueops-backend/internal/admissions"
	"github.com/angelmondragon/venueops-backend/internal/checkout"
	"github.com/angelmondragon/venueops-backend/internal/inventory"
	"github.com/angelmondragon/venueops-backend/internal/ledger"
	"github.com/angelmondragon/venueops-backend/internal/timeclock"
	"github.com/angelmondragon/venueops-backend/internal/transactions"
	"github.com/angelmondragon/venueops-backend/internal/users"
	"github.com/angelmondragon/venueops-backend/internal/voids"
	"github.com/angelmondragon/venueops-backend/pkg/config"
	"github.com/angelmondragon/venueops-backend/pkg/db"
	"github.com/angelmondragon/venueops-backend/pkg/enums"
	"github.com/angelmondragon/venueops-backend/pkg/logger"
	"github.com/angelmondragon/venueops-backend/pkg/metrics"
	"github.com/angelmondragon/venueops-backend/pkg/migrate"
	"github.com/angelmondragon/venueops-backend/pkg/outbox"
	"github.com/angelmondragon/venueops-backend/pkg/ratelimit"
	"github.com/angelmondragon/venueops-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

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
		logg.Error(ctx, "api stopped", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) error {
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	var limiter ratelimit.Limiter = ratelimit.Noop{}
	if cfg.RateLimit.Enabled {
		fixed, err := ratelimit.NewFixedWindow(redisClient, ratelimit.PolicyFromConfig(cfg.RateLimit), logg)
		if err != nil {
			return err
		}
		limiter = fixed
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	engineMetrics := metrics.NewEngineMetrics(registry)

	services, err := buildServices(cfg, logg, dbClient, limiter, engineMetrics)
	if err != nil {
		return err
	}
	services.DB = dbClient
	services.Cache = redisClient
	services.Idempotency = redisClient
	services.Gatherer = registry

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, services),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info(logCtx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func buildServices(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, limiter ratelimit.Limiter, m *metrics.EngineMetrics) (routes.Dependencies, error) {
	conn := dbClient.DB()

	inventoryRepo := inventory.NewRepository(conn)
	adjuster, err := inventory.NewStockAdjuster(inventoryRepo)
	if err != nil {
		return routes.Dependencies{}, err
	}
	ledgerService, err := ledger.NewService(ledger.NewRepository(conn))
	if err != nil {
		return routes.Dependencies{}, err
	}
	emitter := outbox.NewService(outbox.NewRepository(conn), logg)
	transactionsRepo := transactions.NewRepository(conn)

	policy, err := enums.ParseDuplicatePolicy(cfg.Checkout.DuplicatePolicy)
	if err != nil {
		return routes.Dependencies{}, err
	}

	checkoutService, err := checkout.NewService(checkout.ServiceParams{
		Tx:              dbClient,
		Inventory:       inventoryRepo,
		Adjuster:        adjuster,
		Transactions:    transactionsRepo,
		Ledger:          ledgerService,
		Outbox:          emitter,
		Limiter:         limiter,
		Metrics:         m,
		Logger:          logg,
		DuplicatePolicy: policy,
	})
	if err != nil {
		return routes.Dependencies{}, err
	}

	voidService, err := voids.NewService(voids.ServiceParams{
		Tx:           dbClient,
		Transactions: transactionsRepo,
		Admissions:   admissions.NewRepository(conn),
		Adjuster:     adjuster,
		Ledger:       ledgerService,
		Outbox:       emitter,
		Limiter:      limiter,
		Metrics:      m,
		Logger:       logg,
	})
	if err != nil {
		return routes.Dependencies{}, err
	}

	timeclockService, err := timeclock.NewService(timeclock.ServiceParams{
		Tx:          dbClient,
		Repo:        timeclock.NewRepository(conn),
		Users:       users.NewRepository(conn),
		Outbox:      emitter,
		Limiter:     limiter,
		Metrics:     m,
		Logger:      logg,
		Parallelism: cfg.Timeclock.Parallelism,
	})
	if err != nil {
		return routes.Dependencies{}, err
	}

	inventoryService, err := inventory.NewService(inventory.ServiceParams{
		Tx:       dbClient,
		Repo:     inventoryRepo,
		Adjuster: adjuster,
		Outbox:   emitter,
		Limiter:  limiter,
		Metrics:  m,
		Logger:   logg,
	})
	if err != nil {
		return routes.Dependencies{}, err
	}

	return routes.Dependencies{
		Checkout:  checkoutService,
		Voids:     voidService,
		Timeclock: timeclockService,
		Inventory: inventoryService,
	}, nil
}
