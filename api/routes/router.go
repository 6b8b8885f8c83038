package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/quickplate/ordercore/api/controllers"
	"github.com/quickplate/ordercore/api/middleware"
	"github.com/quickplate/ordercore/internal/cart"
	checkoutsvc "github.com/quickplate/ordercore/internal/checkout"
	"github.com/quickplate/ordercore/internal/orders"
	"github.com/quickplate/ordercore/internal/tracking"
	"github.com/quickplate/ordercore/pkg/config"
	"github.com/quickplate/ordercore/pkg/logger"
	"github.com/quickplate/ordercore/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	redisClient *redis.Client,
	cartService cart.Service,
	checkoutService checkoutsvc.Service,
	orderStore *orders.Store,
	orderClient *orders.Client,
	trackingService tracking.Service,
	registry *prometheus.Registry,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, redisClient))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartGet(cartService, logg))
			r.Delete("/", controllers.CartClear(cartService, logg))
			r.Post("/items", controllers.CartAddItem(cartService, logg))
			r.Patch("/items", controllers.CartUpdateItem(cartService, logg))
			r.Delete("/items", controllers.CartRemoveItem(cartService, logg))
		})

		r.Post("/checkout", controllers.CheckoutSubmit(checkoutService, logg))

		r.Route("/orders/{orderID}", func(r chi.Router) {
			r.Get("/", controllers.OrderGet(orderStore, orderClient, logg))
			r.Post("/status", controllers.OrderAdvanceStatus(orderStore, orderClient, orderClient, logg))
			r.Post("/track", controllers.OrderTrack(trackingService, logg))
			r.Delete("/track", controllers.OrderUntrack(trackingService, logg))
		})
	})

	return r
}
