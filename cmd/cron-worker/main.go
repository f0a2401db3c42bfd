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

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/shelfwatch-backend/internal/alerts"
	"github.com/angelmondragon/shelfwatch-backend/internal/cron"
	"github.com/angelmondragon/shelfwatch-backend/internal/expiry"
	"github.com/angelmondragon/shelfwatch-backend/internal/inventory"
	"github.com/angelmondragon/shelfwatch-backend/internal/notifications"
	"github.com/angelmondragon/shelfwatch-backend/internal/users"
	"github.com/angelmondragon/shelfwatch-backend/pkg/clock"
	"github.com/angelmondragon/shelfwatch-backend/pkg/config"
	"github.com/angelmondragon/shelfwatch-backend/pkg/db"
	"github.com/angelmondragon/shelfwatch-backend/pkg/logger"
	"github.com/angelmondragon/shelfwatch-backend/pkg/metrics"
	"github.com/angelmondragon/shelfwatch-backend/pkg/migrate"
	"github.com/angelmondragon/shelfwatch-backend/pkg/redis"
)

const serviceName = "cron-worker"

func main() {
	bootLog := logger.New(logger.Options{ServiceName: serviceName})
	if err := godotenv.Load(); err != nil {
		bootLog.Warn(context.Background(), "no .env file; using process environment")
	}

	cfg, err := config.Load()
	if err != nil {
		bootLog.Error(context.Background(), "config.load_failed", err)
		os.Exit(1)
	}
	cfg.Service.Kind = serviceName

	logg := logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       cfg.App.LogLevel,
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, cfg, logg)
	stop()
	if err != nil {
		logg.Error(context.Background(), "cron_worker.exit", err)
		os.Exit(1)
	}
}

// run owns every resource it opens, so deferred closes happen before main exits.
func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) error {
	loc, err := clock.LoadLocation(cfg.Expiry.Timezone)
	if err != nil {
		return fmt.Errorf("timezone: %w", err)
	}
	clk := clock.NewSystem(loc)

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer closeQuietly(logg, "database", dbClient.Close)

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return fmt.Errorf("dev migrations: %w", err)
	}

	var lock cron.Lock
	if cfg.Redis.Enabled() && cfg.Scheduler.DistributedLock {
		rdb, err := redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer closeQuietly(logg, "redis", rdb.Close)
		if lock, err = cron.NewRedisLock(rdb, rdb.LockKey(serviceName+":"+lockEnv(cfg.App.Env)), cfg.Scheduler.LockTTL); err != nil {
			return err
		}
	}

	schedulerMetrics := metrics.NewSchedulerMetrics(prometheus.DefaultRegisterer)
	domainMetrics := metrics.NewDomainMetrics(prometheus.DefaultRegisterer)

	jobs, err := alertJobs(cfg, dbClient, clk, logg, domainMetrics)
	if err != nil {
		return err
	}
	registry := cron.NewRegistry()
	for _, job := range jobs {
		if err := registry.Register(job); err != nil {
			return fmt.Errorf("register %s: %w", job.Name(), err)
		}
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  schedulerMetrics,
		Interval: cfg.Scheduler.Interval,
		Clock:    clk,
	})
	if err != nil {
		return err
	}

	ctx = logg.WithFields(ctx, map[string]any{
		"env":             cfg.App.Env,
		"service_kind":    cfg.Service.Kind,
		"interval":        cfg.Scheduler.Interval.String(),
		"distributed":     lock != nil,
		"generate_alerts": cfg.Scheduler.GenerateAlerts,
	})
	if cfg.Scheduler.MetricsAddr != "" {
		shutdown := serveMetrics(ctx, cfg.Scheduler.MetricsAddr, logg)
		defer shutdown()
	}

	logg.Info(ctx, "cron_worker.start")
	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logg.Info(ctx, "cron_worker.stop")
	return nil
}

// alertJobs builds the jobs of one cycle in execution order: generation first so
// alerts it creates can fire in the same cycle, then activation.
func alertJobs(cfg *config.Config, dbClient *db.Client, clk clock.System, logg *logger.Logger, m *metrics.DomainMetrics) ([]cron.Job, error) {
	conn := dbClient.DB()
	alertsRepo := alerts.NewRepository(conn)
	directory := users.NewDirectory(users.NewRepository(conn))

	dispatcher, err := notifications.NewDispatcher(notifications.NewRepository(conn), logg, m)
	if err != nil {
		return nil, err
	}
	activator, err := alerts.NewActivator(alerts.ActivatorParams{
		Repo:    alertsRepo,
		Tx:      dbClient,
		FanOut:  dispatcher,
		Logger:  logg,
		Metrics: m,
	})
	if err != nil {
		return nil, err
	}
	activation, err := cron.NewAlertActivationJob(cron.AlertActivationJobParams{Logger: logg, Activator: activator, Clock: clk})
	if err != nil {
		return nil, err
	}
	if !cfg.Scheduler.GenerateAlerts {
		return []cron.Job{activation}, nil
	}

	stock, err := inventory.NewService(inventory.ServiceParams{
		Repo:       inventory.NewRepository(conn),
		Tx:         dbClient,
		Actors:     directory,
		Clock:      clk,
		Classifier: expiry.NewClassifier(cfg.Expiry.UpcomingDays),
		Logger:     logg,
		Metrics:    m,
	})
	if err != nil {
		return nil, err
	}
	generator, err := alerts.NewGenerator(alerts.GeneratorParams{
		Repo:      alertsRepo,
		Tx:        dbClient,
		Inventory: stock,
		Directory: directory,
		Location:  clk.Location(),
		Logger:    logg,
		Metrics:   m,
	})
	if err != nil {
		return nil, err
	}
	generation, err := cron.NewAlertGenerationJob(cron.AlertGenerationJobParams{Logger: logg, Generator: generator, Clock: clk})
	if err != nil {
		return nil, err
	}
	return []cron.Job{generation, activation}, nil
}

func serveMetrics(ctx context.Context, addr string, logg *logger.Logger) func() {
	srv := &http.Server{
		Addr:              addr,
		Handler:           promhttp.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "metrics.listener_failed", err)
		}
	}()
	return func() { _ = srv.Close() }
}

func closeQuietly(logg *logger.Logger, what string, closeFn func() error) {
	if err := closeFn(); err != nil {
		logg.Error(logg.WithField(context.Background(), "resource", what), "close_failed", err)
	}
}

func lockEnv(env string) string {
	if env == "" {
		return "local"
	}
	return env
}
