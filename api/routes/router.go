package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/venueops-backend/api/controllers"
	"github.com/angelmondragon/venueops-backend/api/middleware"
	checkoutsvc "github.com/angelmondragon/venueops-backend/internal/checkout"
	"github.com/angelmondragon/venueops-backend/internal/inventory"
	"github.com/angelmondragon/venueops-backend/internal/timeclock"
	"github.com/angelmondragon/venueops-backend/internal/voids"
	"github.com/angelmondragon/venueops-backend/pkg/config"
	"github.com/angelmondragon/venueops-backend/pkg/logger"
	"github.com/angelmondragon/venueops-backend/pkg/redis"
)

// Dependencies carries everything the router hands to controllers.
type Dependencies struct {
	DB          controllers.Pinger
	Cache       controllers.Pinger
	Idempotency redis.IdempotencyStore
	Gatherer    prometheus.Gatherer

	Checkout  checkoutsvc.Service
	Voids     voids.Service
	Timeclock timeclock.Service
	Inventory inventory.Service
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"db":    deps.DB,
			"redis": deps.Cache,
		}))
	})

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(deps.Idempotency, logg))

		r.Post("/checkout", controllers.Checkout(deps.Checkout, logg))
		r.Post("/transactions/{transactionId}/void", controllers.VoidTransaction(deps.Voids, logg))
		r.Post("/admissions/{admissionId}/void", controllers.VoidAdmission(deps.Voids, logg))

		r.Get("/timeclock/shifts", controllers.ShiftReport(deps.Timeclock, logg))
		r.Post("/timeclock/punch", controllers.Punch(deps.Timeclock, logg))

		r.Post("/inventory/items", controllers.CreateItem(deps.Inventory, logg))
		r.Get("/inventory/items/{itemId}", controllers.GetItem(deps.Inventory, logg))
		r.Get("/inventory/items/{itemId}/movements", controllers.ItemMovements(deps.Inventory, logg))
		r.Post("/inventory/items/{itemId}/restock", controllers.RestockItem(deps.Inventory, logg))
	})

	return r
}
