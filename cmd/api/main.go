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
	"go.uber.org/multierr"

	"github.com/angelmondragon/landedcost/api/controllers"
	"github.com/angelmondragon/landedcost/api/routes"
	"github.com/angelmondragon/landedcost/internal/cron"
	"github.com/angelmondragon/landedcost/internal/factories"
	"github.com/angelmondragon/landedcost/internal/landedcost"
	"github.com/angelmondragon/landedcost/internal/presets"
	"github.com/angelmondragon/landedcost/internal/rates"
	"github.com/angelmondragon/landedcost/internal/shipping"
	"github.com/angelmondragon/landedcost/pkg/config"
	"github.com/angelmondragon/landedcost/pkg/db"
	"github.com/angelmondragon/landedcost/pkg/enums"
	"github.com/angelmondragon/landedcost/pkg/exchangerate"
	"github.com/angelmondragon/landedcost/pkg/logger"
	"github.com/angelmondragon/landedcost/pkg/metrics"
	"github.com/angelmondragon/landedcost/pkg/migrate"
	pkgredis "github.com/angelmondragon/landedcost/pkg/redis"
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
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "api server shut down gracefully")
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) (err error) {
	var closers []func() error
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			err = multierr.Append(err, closers[i]())
		}
	}()

	dbClient, err := db.New(ctx, cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	if err != nil {
		return err
	}
	closers = append(closers, dbClient.Close)

	if err := migrate.MaybeRun(ctx, cfg, logg, dbClient, ""); err != nil {
		return err
	}

	readiness := map[string]controllers.Pinger{"database": dbClient}

	// Interface values stay nil when redis is disabled so the idempotency
	// middleware and the snapshot cache switch themselves off.
	var (
		idempotencyStore pkgredis.IdempotencyStore
		snapshotCache    pkgredis.SnapshotCache
	)
	if cfg.Redis.Enabled() {
		redisClient, err := pkgredis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return err
		}
		closers = append(closers, redisClient.Close)
		idempotencyStore, snapshotCache = redisClient, redisClient
		readiness["redis"] = redisClient
	} else {
		logg.Warn(ctx, "redis not configured; idempotency keys and the shared rate cache are disabled")
	}

	reference, err := enums.ParseCurrency(cfg.ExchangeRate.ReferenceCurrency)
	if err != nil {
		return err
	}
	rateClient, err := exchangerate.NewClient(cfg.ExchangeRate.URL,
		exchangerate.WithAPIKey(cfg.ExchangeRate.APIKey),
		exchangerate.WithTimeout(cfg.ExchangeRate.Timeout),
	)
	if err != nil {
		return err
	}
	rateService, err := rates.NewService(rates.ServiceParams{
		Fetcher:   rateClient,
		Cache:     snapshotCache,
		Reference: reference,
		TTL:       cfg.ExchangeRate.CacheTTL,
		Metrics:   metrics.NewExchangeRateMetrics(prometheus.DefaultRegisterer),
		Logger:    logg,
	})
	if err != nil {
		return err
	}

	catalogService, err := shipping.NewService(shipping.NewRepository(dbClient.DB()), logg)
	if err != nil {
		return err
	}
	factoryService, err := factories.NewService(factories.NewRepository(dbClient.DB()), logg)
	if err != nil {
		return err
	}
	presetService, err := presets.NewService(presets.NewRepository(dbClient.DB()), logg)
	if err != nil {
		return err
	}
	costService, err := landedcost.NewService(landedcost.ServiceParams{
		Factories: factoryService,
		RateTypes: catalogService,
		Rates:     rateService,
		Presets:   presetService,
		Metrics:   metrics.NewBreakdownMetrics(prometheus.DefaultRegisterer),
		Logger:    logg,
	})
	if err != nil {
		return err
	}

	if err := startRateRefresh(ctx, cfg, logg, rateService); err != nil {
		return err
	}

	addr := ":" + cfg.App.Port
	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Dependencies{
			Config:        cfg,
			Logger:        logg,
			Readiness:     readiness,
			Idempotency:   idempotencyStore,
			Gatherer:      prometheus.DefaultGatherer,
			Catalog:       catalogService,
			Factories:     factoryService,
			ExchangeRates: rateService,
			LandedCost:    costService,
			Presets:       presetService,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "addr": addr}), "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// startRateRefresh runs the refresh job in the background, or fetches once when
// the interval is zero. A failed first fetch leaves conversions unavailable
// until a later refresh succeeds; it does not stop the server.
func startRateRefresh(ctx context.Context, cfg *config.Config, logg *logger.Logger, rateService *rates.Service) error {
	if cfg.ExchangeRate.RefreshInterval <= 0 {
		if _, err := rateService.Refresh(ctx); err != nil {
			logg.Warn(logg.WithField(ctx, "error", err.Error()), "initial exchange rate fetch failed")
		}
		return nil
	}

	job, err := cron.NewExchangeRateRefreshJob(rateService, logg)
	if err != nil {
		return err
	}
	scheduler, err := cron.NewScheduler(cron.SchedulerParams{
		Logger:   logg,
		Jobs:     []cron.Job{job},
		Metrics:  metrics.NewJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.ExchangeRate.RefreshInterval,
	})
	if err != nil {
		return err
	}
	go func() {
		if err := scheduler.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logg.Error(ctx, "exchange rate scheduler stopped", err)
		}
	}()
	return nil
}
