package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/shelfwatch-backend/api/controllers"
	"github.com/angelmondragon/shelfwatch-backend/api/middleware"
	"github.com/angelmondragon/shelfwatch-backend/internal/alerts"
	"github.com/angelmondragon/shelfwatch-backend/internal/inventory"
	"github.com/angelmondragon/shelfwatch-backend/internal/notifications"
	"github.com/angelmondragon/shelfwatch-backend/pkg/config"
	"github.com/angelmondragon/shelfwatch-backend/pkg/logger"
)

// Deps collects what the router hands to controllers. DB is required for readiness;
// Redis and Idempotency are optional.
type Deps struct {
	Config        *config.Config
	Logger        *logger.Logger
	Location      *time.Location
	DB            controllers.Pinger
	Redis         controllers.Pinger
	Idempotency   middleware.IdempotencyStore
	Gatherer      prometheus.Gatherer
	Inventory     inventory.Service
	Alerts        alerts.Service
	Notifications notifications.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	readyDeps := map[string]controllers.Pinger{"db": deps.DB}
	if deps.Redis != nil {
		readyDeps["redis"] = deps.Redis
	}
	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg.App.Env))
		r.Get("/ready", controllers.HealthReady(cfg.App.Env, readyDeps, logg))
	})

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(deps.Idempotency, logg))

		r.Route("/inventory", func(r chi.Router) {
			r.Get("/items", controllers.InventoryList(deps.Inventory, deps.Location, logg))
			r.Post("/items", controllers.InventoryReceive(deps.Inventory, logg))
			r.Get("/items/count", controllers.InventoryCount(deps.Inventory, deps.Location, logg))
			r.Get("/items/pages", controllers.InventoryPageCount(deps.Inventory, deps.Location, logg))
			r.Delete("/items/{itemId}", controllers.InventoryRemove(deps.Inventory, logg))
			r.Post("/items/{itemId}/inspection", controllers.InspectItem(deps.Inventory, logg))
			r.Post("/inspections", controllers.InspectItems(deps.Inventory, logg))
			r.Get("/buckets/{bucket}", controllers.InventoryBucket(deps.Inventory, logg))
			r.Get("/filter-options", controllers.InventoryFilterOptions(deps.Inventory, logg))
			r.Get("/report", controllers.InventoryReport(deps.Inventory, deps.Location, logg))
		})

		r.Route("/alerts", func(r chi.Router) {
			r.Get("/", controllers.ListAlerts(deps.Alerts, logg))
			r.Post("/", controllers.CreateAlert(deps.Alerts, logg))
			r.Get("/{alertId}", controllers.GetAlert(deps.Alerts, logg))
			r.Patch("/{alertId}", controllers.UpdateAlert(deps.Alerts, logg))
			r.Delete("/{alertId}", controllers.DeleteAlert(deps.Alerts, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(deps.Notifications, logg))
			r.Get("/unread-count", controllers.UnreadNotificationCount(deps.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(deps.Notifications, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(deps.Notifications, logg))
		})
	})

	return r
}
