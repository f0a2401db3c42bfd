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

	"github.com/angelmondragon/shelfwatch-backend/api/controllers"
	"github.com/angelmondragon/shelfwatch-backend/api/middleware"
	"github.com/angelmondragon/shelfwatch-backend/api/routes"
	"github.com/angelmondragon/shelfwatch-backend/internal/alerts"
	"github.com/angelmondragon/shelfwatch-backend/internal/expiry"
	"github.com/angelmondragon/shelfwatch-backend/internal/inventory"
	"github.com/angelmondragon/shelfwatch-backend/internal/notifications"
	"github.com/angelmondragon/shelfwatch-backend/internal/reports"
	"github.com/angelmondragon/shelfwatch-backend/internal/users"
	"github.com/angelmondragon/shelfwatch-backend/pkg/cache"
	"github.com/angelmondragon/shelfwatch-backend/pkg/clock"
	"github.com/angelmondragon/shelfwatch-backend/pkg/config"
	"github.com/angelmondragon/shelfwatch-backend/pkg/db"
	"github.com/angelmondragon/shelfwatch-backend/pkg/enums"
	"github.com/angelmondragon/shelfwatch-backend/pkg/logger"
	"github.com/angelmondragon/shelfwatch-backend/pkg/metrics"
	"github.com/angelmondragon/shelfwatch-backend/pkg/migrate"
	"github.com/angelmondragon/shelfwatch-backend/pkg/redis"
)

const (
	serviceName       = "api"
	shutdownTimeout   = 15 * time.Second
	readHeaderTimeout = 10 * time.Second
)

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
		logg.Error(context.Background(), "api.exit", err)
		os.Exit(1)
	}
}

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

	deps := routes.Deps{
		Config:   cfg,
		Logger:   logg,
		Location: loc,
		DB:       dbClient,
		Gatherer: prometheus.DefaultGatherer,
	}

	// Redis-backed deps stay nil interfaces when redis is not configured.
	var rdb *redis.Client
	if cfg.Redis.Enabled() {
		if rdb, err = redis.New(ctx, cfg.Redis, logg); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer closeQuietly(logg, "redis", rdb.Close)
		deps.Redis = controllers.Pinger(rdb)
		deps.Idempotency = middleware.IdempotencyStore(rdb)
	}

	if err := buildServices(&deps, cfg, dbClient, rdb, clk, logg); err != nil {
		return err
	}

	addr := ":" + listenPort(cfg)
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"timezone": loc.String(),
		"redis":    rdb != nil,
	})
	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(deps),
		ReadHeaderTimeout: readHeaderTimeout,
	}
	return serve(ctx, server, logg)
}

func buildServices(deps *routes.Deps, cfg *config.Config, dbClient *db.Client, rdb *redis.Client, clk clock.System, logg *logger.Logger) error {
	conn := dbClient.DB()
	loc := clk.Location()
	domainMetrics := metrics.NewDomainMetrics(prometheus.DefaultRegisterer)
	directory := users.NewDirectory(users.NewRepository(conn))

	filterCache, err := cache.New(cfg.Cache, rdb, clk)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}

	if deps.Inventory, err = inventory.NewService(inventory.ServiceParams{
		Repo:             inventory.NewRepository(conn),
		Tx:               dbClient,
		Actors:           directory,
		Clock:            clk,
		Classifier:       expiry.NewClassifier(cfg.Expiry.UpcomingDays),
		Cache:            filterCache,
		FilterOptionsTTL: cfg.Cache.FilterOptionsTTL,
		Renderers: map[enums.ReportFormat]inventory.ReportRenderer{
			enums.ReportFormatXLSX: reports.NewXLSXRenderer(loc),
			enums.ReportFormatPDF:  reports.NewPDFRenderer(loc, clk.Now),
		},
		Logger:  logg,
		Metrics: domainMetrics,
	}); err != nil {
		return fmt.Errorf("inventory service: %w", err)
	}

	if deps.Alerts, err = alerts.NewService(alerts.ServiceParams{
		Repo:      alerts.NewRepository(conn),
		Tx:        dbClient,
		Directory: directory,
		Clock:     clk,
	}); err != nil {
		return fmt.Errorf("alerts service: %w", err)
	}

	if deps.Notifications, err = notifications.NewService(notifications.NewRepository(conn), clk); err != nil {
		return fmt.Errorf("notifications service: %w", err)
	}
	return nil
}

// serve blocks until the listener fails or ctx is cancelled, then drains in-flight requests.
func serve(ctx context.Context, server *http.Server, logg *logger.Logger) error {
	errCh := make(chan error, 1)
	go func() { errCh <- server.ListenAndServe() }()
	logg.Info(ctx, "api.listening")

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logg.Info(ctx, "api.draining")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// listenPort prefers the platform-injected PORT over SHELFWATCH_APP_PORT.
func listenPort(cfg *config.Config) string {
	if port := os.Getenv("PORT"); port != "" {
		return port
	}
	return cfg.App.Port
}

func closeQuietly(logg *logger.Logger, what string, closeFn func() error) {
	if err := closeFn(); err != nil {
		logg.Error(logg.WithField(context.Background(), "resource", what), "close_failed", err)
	}
}
