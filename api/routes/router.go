package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/landedcost/api/controllers"
	"github.com/angelmondragon/landedcost/api/middleware"
	"github.com/angelmondragon/landedcost/internal/factories"
	"github.com/angelmondragon/landedcost/internal/presets"
	"github.com/angelmondragon/landedcost/internal/shipping"
	"github.com/angelmondragon/landedcost/pkg/config"
	"github.com/angelmondragon/landedcost/pkg/logger"
	pkgredis "github.com/angelmondragon/landedcost/pkg/redis"
)

// Dependencies carries everything the HTTP surface needs. Idempotency may be
// nil, in which case Idempotency-Key headers are ignored.
type Dependencies struct {
	Config      *config.Config
	Logger      *logger.Logger
	Readiness   map[string]controllers.Pinger
	Idempotency pkgredis.IdempotencyStore
	Gatherer    prometheus.Gatherer

	Catalog       shipping.Service
	Factories     factories.Service
	ExchangeRates controllers.ExchangeRateService
	LandedCost    controllers.LandedCostService
	Presets       presets.Service
}

func NewRouter(deps Dependencies) http.Handler {
	cfg, logg := deps.Config, deps.Logger
	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSAllowedOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Readiness))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Idempotency(deps.Idempotency, cfg.Presets.IdempotencyTTL, logg))

		r.Route("/catalog", func(r chi.Router) {
			r.Get("/companies", controllers.CatalogListCompanies(deps.Catalog, logg))
			r.Post("/companies", controllers.CatalogCreateCompany(deps.Catalog, logg))
			r.Get("/companies/{companyId}/warehouses", controllers.CatalogListWarehouses(deps.Catalog, logg))
			r.Post("/companies/{companyId}/warehouses", controllers.CatalogCreateWarehouse(deps.Catalog, logg))
			r.Get("/warehouses/{warehouseId}/rate-types", controllers.CatalogListRateTypes(deps.Catalog, logg))
			r.Post("/warehouses/{warehouseId}/rate-types", controllers.CatalogCreateRateType(deps.Catalog, logg))
			r.Get("/warehouses/{warehouseId}/rate-types/resolve", controllers.CatalogResolveRateType(deps.Catalog, logg))
		})

		r.Route("/factories", func(r chi.Router) {
			r.Get("/", controllers.FactoriesList(deps.Factories, logg))
			r.Post("/", controllers.FactoriesCreate(deps.Factories, logg))
			r.Route("/{factoryId}", func(r chi.Router) {
				r.Get("/", controllers.FactoriesGet(deps.Factories, logg))
				r.Patch("/", controllers.FactoriesUpdate(deps.Factories, logg))
				r.Delete("/", controllers.FactoriesDelete(deps.Factories, logg))
				r.Get("/items", controllers.FactoryItemsList(deps.Factories, logg))
				r.Post("/items", controllers.FactoryItemsCreate(deps.Factories, logg))
				r.Patch("/items/{itemId}", controllers.FactoryItemsUpdate(deps.Factories, logg))
				r.Delete("/items/{itemId}", controllers.FactoryItemsDelete(deps.Factories, logg))
			})
		})

		r.Route("/exchange-rates", func(r chi.Router) {
			r.Get("/", controllers.ExchangeRatesCurrent(deps.ExchangeRates, logg))
			r.Post("/refresh", controllers.ExchangeRatesRefresh(deps.ExchangeRates, logg))
		})

		r.Post("/landed-cost", controllers.LandedCostCompute(deps.LandedCost, logg))

		r.Route("/presets", func(r chi.Router) {
			r.Get("/", controllers.PresetsList(deps.Presets, logg))
			r.Post("/", controllers.PresetsCreate(deps.Presets, logg))
			r.Put("/reorder", controllers.PresetsReorder(deps.Presets, logg))
			r.Route("/{presetId}", func(r chi.Router) {
				r.Get("/", controllers.PresetsGet(deps.Presets, logg))
				r.Patch("/", controllers.PresetsUpdate(deps.Presets, logg))
				r.Delete("/", controllers.PresetsDelete(deps.Presets, logg))
				r.Post("/replay", controllers.PresetsReplay(deps.LandedCost, logg))
			})
		})
	})

	return r
}
