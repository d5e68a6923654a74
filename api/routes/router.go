package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kevinvillajim/bcommerceBackEnd-sub000/api/controllers"
	webhookcontrollers "github.com/kevinvillajim/bcommerceBackEnd-sub000/api/controllers/webhooks"
	"github.com/kevinvillajim/bcommerceBackEnd-sub000/api/middleware"
	checkoutsvc "github.com/kevinvillajim/bcommerceBackEnd-sub000/internal/checkout"
	"github.com/kevinvillajim/bcommerceBackEnd-sub000/internal/payments"
	"github.com/kevinvillajim/bcommerceBackEnd-sub000/internal/payments/gateway"
	"github.com/kevinvillajim/bcommerceBackEnd-sub000/pkg/config"
	"github.com/kevinvillajim/bcommerceBackEnd-sub000/pkg/db"
	"github.com/kevinvillajim/bcommerceBackEnd-sub000/pkg/logger"
	"github.com/kevinvillajim/bcommerceBackEnd-sub000/pkg/redis"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Config          *config.Config
	Logger          *logger.Logger
	DB              *db.Client
	Redis           *redis.Client
	CheckoutService checkoutsvc.Service
	PaymentsService payments.Service
	DeUna           *gateway.DeUna
	Metrics         *prometheus.Registry
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	var database, cache controllers.Pinger
	if deps.DB != nil {
		database = deps.DB
	}
	if deps.Redis != nil {
		cache = deps.Redis
	}
	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, database, cache, logg))
	})
	r.Get("/healthz", controllers.HealthReady(cfg, database, cache, logg))

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/deuna", webhookcontrollers.DeUnaWebhook(deps.PaymentsService, deps.DeUna, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Post("/checkout", controllers.CreateCheckout(deps.CheckoutService, logg))

		r.Route("/payments", func(r chi.Router) {
			r.Post("/checkout", controllers.InitiatePayment(deps.PaymentsService, logg))
			r.Post("/verify", controllers.VerifyPayment(deps.PaymentsService, logg))
			r.Get("/{transactionID}/status", controllers.PaymentStatus(deps.PaymentsService, logg))
		})
	})

	return r
}
