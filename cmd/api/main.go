package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/forgeformula/storefront-backend/api"
	"github.com/forgeformula/storefront-backend/api/controllers"
	"github.com/forgeformula/storefront-backend/api/routes"
	"github.com/forgeformula/storefront-backend/internal/cart"
	"github.com/forgeformula/storefront-backend/internal/catalog"
	"github.com/forgeformula/storefront-backend/internal/checkout"
	"github.com/forgeformula/storefront-backend/internal/orders"
	"github.com/forgeformula/storefront-backend/internal/paymentmethods"
	"github.com/forgeformula/storefront-backend/internal/pricing"
	stripewebhook "github.com/forgeformula/storefront-backend/internal/webhooks/stripe"
	"github.com/forgeformula/storefront-backend/pkg/config"
	"github.com/forgeformula/storefront-backend/pkg/db"
	"github.com/forgeformula/storefront-backend/pkg/instance"
	"github.com/forgeformula/storefront-backend/pkg/logger"
	"github.com/forgeformula/storefront-backend/pkg/metrics"
	"github.com/forgeformula/storefront-backend/pkg/migrate"
	"github.com/forgeformula/storefront-backend/pkg/redis"
	"github.com/forgeformula/storefront-backend/pkg/stripe"
)

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
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) (err error) {
	dbClient, err := db.New(ctx, cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, dbClient.Close()) }()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, redisClient.Close()) }()

	var stripeClient *stripe.Client
	if cfg.Stripe.APIKey != "" {
		stripeClient, err = stripe.NewClient(ctx, cfg.Stripe, logg)
		if err != nil {
			return err
		}
	} else {
		logg.Warn(ctx, "stripe api key not set, card checkout disabled")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	calculator, err := pricing.FromConfig(cfg.Pricing)
	if err != nil {
		return err
	}

	catalogService, err := catalog.NewService(catalog.NewRepository(dbClient.DB()))
	if err != nil {
		return err
	}

	cartStore, err := cart.NewRedisStore(redisClient, cfg.Cart.TTL)
	if err != nil {
		return err
	}
	cartService, err := cart.NewService(cart.ServiceParams{
		Store:        cartStore,
		Products:     catalogService,
		Calculator:   calculator,
		ClampToStock: cfg.Checkout.ClampToStock,
		Logger:       logg,
	})
	if err != nil {
		return err
	}

	methodsService, err := paymentmethods.NewService(paymentmethods.NewRepository(dbClient.DB()), logg)
	if err != nil {
		return err
	}

	ordersService, err := orders.NewService(orders.ServiceParams{
		Repo:                orders.NewRepository(dbClient.DB()),
		Tx:                  dbClient,
		Methods:             methodsService,
		Calculator:          calculator,
		Metrics:             metrics.NewOrderMetrics(registry),
		Logger:              logg,
		RequireAuthForOrder: cfg.Checkout.RequireAuthForOrder,
		PriceTolerance:      cfg.Checkout.Tolerance(),
	})
	if err != nil {
		return err
	}

	checkoutParams := checkout.ServiceParams{
		Orders:     ordersService,
		Methods:    methodsService,
		SuccessURL: cfg.Checkout.SuccessURL,
		CancelURL:  cfg.Checkout.CancelURL,
		Logger:     logg,
	}
	if stripeClient != nil {
		checkoutParams.Sessions = stripeClient
	}
	checkoutService, err := checkout.NewService(checkoutParams)
	if err != nil {
		return err
	}

	webhookService, err := stripewebhook.NewService(stripewebhook.ServiceParams{Orders: ordersService, Logger: logg})
	if err != nil {
		return err
	}
	webhookGuard, err := stripewebhook.NewIdempotencyGuard(redisClient, cfg.Stripe.EventTTL, "stripe")
	if err != nil {
		return err
	}

	params := routes.Params{
		Config: cfg,
		Logger: logg,
		Checks: []controllers.Check{
			{Name: "database", Pinger: dbClient},
			{Name: "redis", Pinger: redisClient},
		},
		Gatherer:       registry,
		Metrics:        metrics.NewHTTPMetrics(registry),
		Idempotency:    redisClient,
		Catalog:        catalogService,
		Cart:           cartService,
		Orders:         ordersService,
		PaymentMethods: methodsService,
		Checkout:       checkoutService,
		StripeWebhooks: webhookService,
		StripeGuard:    webhookGuard,
	}
	if stripeClient != nil {
		params.StripeVerifier = stripeClient
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
	})
	logg.Info(ctx, "starting api server")

	return api.Serve(ctx, api.NewServer(addr, routes.NewRouter(params)), logg)
}
