package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/forgeformula/storefront-backend/api/controllers"
	cartcontrollers "github.com/forgeformula/storefront-backend/api/controllers/cart"
	catalogcontrollers "github.com/forgeformula/storefront-backend/api/controllers/catalog"
	ordercontrollers "github.com/forgeformula/storefront-backend/api/controllers/orders"
	pmcontrollers "github.com/forgeformula/storefront-backend/api/controllers/paymentmethods"
	webhookcontrollers "github.com/forgeformula/storefront-backend/api/controllers/webhooks"
	"github.com/forgeformula/storefront-backend/api/middleware"
	"github.com/forgeformula/storefront-backend/internal/cart"
	"github.com/forgeformula/storefront-backend/internal/catalog"
	checkoutsvc "github.com/forgeformula/storefront-backend/internal/checkout"
	"github.com/forgeformula/storefront-backend/internal/orders"
	"github.com/forgeformula/storefront-backend/internal/paymentmethods"
	stripewebhook "github.com/forgeformula/storefront-backend/internal/webhooks/stripe"
	"github.com/forgeformula/storefront-backend/pkg/config"
	"github.com/forgeformula/storefront-backend/pkg/logger"
	"github.com/forgeformula/storefront-backend/pkg/metrics"
	"github.com/forgeformula/storefront-backend/pkg/redis"
)

// Params collects everything the router hands to controllers. Nil services
// answer with an INTERNAL error; a nil StripeVerifier disables the webhook.
type Params struct {
	Config   *config.Config
	Logger   *logger.Logger
	Checks   []controllers.Check
	Gatherer prometheus.Gatherer
	Metrics  *metrics.HTTPMetrics

	Idempotency redis.IdempotencyStore

	Catalog        catalog.Service
	Cart           cart.Service
	Orders         orders.Service
	PaymentMethods paymentmethods.Service
	Checkout       checkoutsvc.Service

	StripeVerifier webhookcontrollers.EventVerifier
	StripeWebhooks *stripewebhook.Service
	StripeGuard    *stripewebhook.IdempotencyGuard
}

func NewRouter(p Params) http.Handler {
	cfg, logg := p.Config, p.Logger
	admins := middleware.AdminAllowList(cfg.Admin.AllowList())

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
		middleware.Metrics(p.Metrics),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.Checks...))
	})
	if p.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(p.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/webhooks/stripe", stripeWebhook(p))

		r.Group(func(r chi.Router) {
			r.Use(middleware.OptionalAuth(cfg.JWT, logg))
			if p.Idempotency != nil {
				r.Use(middleware.Idempotency(p.Idempotency, cfg.Checkout.IdempotencyTTL, logg))
			}

			r.Get("/categories", catalogcontrollers.Categories(p.Catalog, logg))
			r.Route("/products", func(r chi.Router) {
				r.Get("/", catalogcontrollers.Products(p.Catalog, logg))
				r.Get("/featured", catalogcontrollers.FeaturedProducts(p.Catalog, logg))
				r.Get("/{slug}", catalogcontrollers.ProductBySlug(p.Catalog, logg))
				r.Get("/{slug}/reviews", catalogcontrollers.ProductReviews(p.Catalog, logg))
				r.With(middleware.RequireAuth(logg)).Post("/{slug}/reviews", catalogcontrollers.CreateReview(p.Catalog, logg))
			})

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cartcontrollers.Get(p.Cart, logg))
				r.Delete("/", cartcontrollers.Clear(p.Cart, logg))
				r.Post("/items", cartcontrollers.AddItem(p.Cart, logg))
				r.Patch("/items/{productId}", cartcontrollers.UpdateItem(p.Cart, logg))
				r.Delete("/items/{productId}", cartcontrollers.RemoveItem(p.Cart, logg))
			})

			r.Route("/payment-methods", func(r chi.Router) {
				r.Get("/", pmcontrollers.List(p.PaymentMethods, logg))
				r.Get("/{methodId}", pmcontrollers.Get(p.PaymentMethods, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				// Guest orders are allowed unless the service requires sign-in.
				r.Post("/", ordercontrollers.Create(p.Orders, p.Cart, logg))
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireAuth(logg))
					r.Get("/", ordercontrollers.List(p.Orders, logg))
					r.Get("/{orderId}", ordercontrollers.Get(p.Orders, logg))
				})
			})

			r.Route("/checkout/sessions", func(r chi.Router) {
				r.Use(middleware.RequireAuth(logg))
				r.Post("/", ordercontrollers.CreateSession(p.Checkout, p.Cart, logg))
				r.Get("/{sessionId}", ordercontrollers.SessionStatus(p.Checkout, p.Cart, logg))
			})

			r.With(middleware.RequireAuth(logg)).Get("/auth/user", controllers.AuthUser(admins, logg))

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireAuth(logg))
				r.Get("/check", controllers.AdminCheck(admins, logg))
				r.Route("/payment-methods", func(r chi.Router) {
					r.Use(middleware.RequireAdmin(admins, logg))
					r.Get("/", pmcontrollers.AdminList(p.PaymentMethods, logg))
					r.Post("/", pmcontrollers.AdminCreate(p.PaymentMethods, logg))
					r.Get("/{methodId}", pmcontrollers.AdminGet(p.PaymentMethods, logg))
					r.Patch("/{methodId}", pmcontrollers.AdminUpdate(p.PaymentMethods, logg))
					r.Delete("/{methodId}", pmcontrollers.AdminDelete(p.PaymentMethods, logg))
				})
			})
		})
	})

	return r
}

func stripeWebhook(p Params) http.HandlerFunc {
	var svc webhookcontrollers.StripeWebhookService
	if p.StripeWebhooks != nil {
		svc = p.StripeWebhooks
	}
	if p.StripeGuard == nil {
		return webhookcontrollers.StripeWebhook(svc, p.StripeVerifier, nil, p.Logger)
	}
	return webhookcontrollers.StripeWebhook(svc, p.StripeVerifier, p.StripeGuard, p.Logger)
}
