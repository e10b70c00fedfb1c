package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/checkout-flow/api/controllers"
	ordercontrollers "github.com/angelmondragon/checkout-flow/api/controllers/orders"
	"github.com/angelmondragon/checkout-flow/api/middleware"
	"github.com/angelmondragon/checkout-flow/internal/catalog"
	"github.com/angelmondragon/checkout-flow/internal/checkout"
	"github.com/angelmondragon/checkout-flow/internal/orders"
	"github.com/angelmondragon/checkout-flow/internal/users"
	"github.com/angelmondragon/checkout-flow/pkg/config"
	"github.com/angelmondragon/checkout-flow/pkg/db"
	"github.com/angelmondragon/checkout-flow/pkg/logger"
	"github.com/angelmondragon/checkout-flow/pkg/redis"
)

// NewRouter wires every HTTP surface. dbClient, redisClient, orderSim,
// orderRecorder and gatherer are optional; the routes that need them degrade
// or are left out when they are nil.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbClient *db.Client,
	redisClient *redis.Client,
	gatherer prometheus.Gatherer,
	registry *checkout.Registry,
	directory *users.Directory,
	cities catalog.Fetcher,
	orderSim *orders.Simulator,
	orderRecorder *orders.GormRecorder,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	ready := map[string]controllers.Pinger{}
	if dbClient != nil {
		ready["db"] = dbClient
	}
	if redisClient != nil {
		ready["redis"] = redisClient
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, ready, logg))
	})
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	if orderSim != nil {
		r.Route("/api/orders", func(r chi.Router) {
			r.Post("/", ordercontrollers.Submit(orderSim, logg))
			r.Get("/{orderId}", ordercontrollers.Get(orderRecorder, logg))
		})
	}

	var idempotencyStore redis.IdempotencyStore
	var loginLimiter *redis.Client
	if redisClient != nil {
		idempotencyStore = redisClient
		loginLimiter = redisClient
	}
	loginPolicy := middleware.LoginRateLimitPolicy(cfg.RateLimit)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/session", controllers.CreateSession(cfg.JWT, registry, directory, logg))
		r.Get("/cities", controllers.CitiesList(cities, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Session(cfg.JWT, logg))
			r.Use(middleware.Idempotency(idempotencyStore, logg))

			r.Get("/me", controllers.Me(registry, logg))
			r.Route("/auth", func(r chi.Router) {
				if loginLimiter != nil {
					r.With(middleware.AuthRateLimit(loginPolicy, loginLimiter, logg)).Post("/login", controllers.AuthLogin(registry, directory, logg))
				} else {
					r.Post("/login", controllers.AuthLogin(registry, directory, logg))
				}
				r.Post("/logout", controllers.AuthLogout(registry, directory, logg))
			})

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartGet(registry, logg))
				r.Delete("/", controllers.CartClear(registry, logg))
				r.Post("/items", controllers.CartAddItem(registry, logg))
				r.Patch("/items/{itemId}", controllers.CartUpdateItem(registry, logg))
				r.Delete("/items/{itemId}", controllers.CartRemoveItem(registry, logg))
			})

			r.Route("/checkout", func(r chi.Router) {
				r.Get("/", controllers.CheckoutView(registry, logg))
				r.Post("/start", controllers.CheckoutStart(registry, logg))
				r.Patch("/information", controllers.CheckoutEditInformation(registry, logg))
				r.Post("/information", controllers.CheckoutSubmitInformation(registry, logg))
				r.Post("/back", controllers.CheckoutBack(registry, logg))
				r.Post("/catalog/reload", controllers.CheckoutReloadCatalog(registry, logg))
				r.Put("/delivery/city", controllers.CheckoutSelectCity(registry, logg))
				r.Put("/delivery/type", controllers.CheckoutSelectDeliveryType(registry, logg))
				r.Post("/delivery", controllers.CheckoutSubmitDelivery(registry, logg))
				r.Put("/consent", controllers.CheckoutSetConsent(registry, logg))
				r.Post("/order", controllers.CheckoutPlaceOrder(registry, logg))
				r.Delete("/errors/{step}", controllers.CheckoutDismissError(registry, logg))
				r.Post("/reset", controllers.CheckoutReset(registry, logg))
			})
		})
	})

	return r
}
