package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/kevinvillajim/bcommerceBackEnd-sub000/api/routes"
	checkoutsvc "github.com/kevinvillajim/bcommerceBackEnd-sub000/internal/checkout"
	"github.com/kevinvillajim/bcommerceBackEnd-sub000/internal/checkoutsession"
	"github.com/kevinvillajim/bcommerceBackEnd-sub000/internal/discounts"
	"github.com/kevinvillajim/bcommerceBackEnd-sub000/internal/orders"
	"github.com/kevinvillajim/bcommerceBackEnd-sub000/internal/payments"
	"github.com/kevinvillajim/bcommerceBackEnd-sub000/internal/payments/gateway"
	"github.com/kevinvillajim/bcommerceBackEnd-sub000/internal/pricing"
	"github.com/kevinvillajim/bcommerceBackEnd-sub000/pkg/config"
	"github.com/kevinvillajim/bcommerceBackEnd-sub000/pkg/db"
	"github.com/kevinvillajim/bcommerceBackEnd-sub000/pkg/enums"
	"github.com/kevinvillajim/bcommerceBackEnd-sub000/pkg/logger"
	"github.com/kevinvillajim/bcommerceBackEnd-sub000/pkg/metrics"
	"github.com/kevinvillajim/bcommerceBackEnd-sub000/pkg/migrate"
	"github.com/kevinvillajim/bcommerceBackEnd-sub000/pkg/redis"
)

const shutdownGrace = 15 * time.Second

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

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	engine, err := pricing.NewEngine(cfg.Pricing)
	if err != nil {
		logg.Error(context.Background(), "failed to build pricing engine", err)
		os.Exit(1)
	}

	snapshotStore, err := checkoutsession.NewStore(redisClient, cfg.Checkout)
	if err != nil {
		logg.Error(context.Background(), "failed to build snapshot store", err)
		os.Exit(1)
	}

	datafast, err := gateway.NewDatafast(cfg.Datafast)
	if err != nil {
		logg.Error(context.Background(), "failed to build datafast client", err)
		os.Exit(1)
	}
	deuna, err := gateway.NewDeUna(cfg.DeUna)
	if err != nil {
		logg.Error(context.Background(), "failed to build deuna client", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	paymentMetrics := metrics.NewPaymentMetrics(registry)

	discountsRepo := discounts.NewRepository(dbClient.DB())
	ordersRepo := orders.NewRepository(dbClient.DB())
	paymentsRepo := payments.NewRepository(dbClient.DB())

	checkoutService, err := checkoutsvc.NewService(engine, snapshotStore, discountsRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	paymentsService, err := payments.NewService(payments.ServiceDeps{
		Repo:          paymentsRepo,
		OrdersService: orders.NewService(),
		OrdersRepo:    ordersRepo,
		Discounts:     discountsRepo,
		Tx:            dbClient,
		Snapshots:     snapshotStore,
		Engine:        engine,
		Verifiers: map[enums.PaymentGateway]gateway.Verifier{
			enums.PaymentGatewayDatafast: datafast,
			enums.PaymentGatewayDeUna:    deuna,
		},
		Datafast: datafast,
		DeUna:    deuna,
		Leases:   redisClient,
		Metrics:  paymentMetrics,
		Logger:   logg,
		Config:   cfg.Checkout,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create payments service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:          cfg,
			Logger:          logg,
			DB:              dbClient,
			Redis:           redisClient,
			CheckoutService: checkoutService,
			PaymentsService: paymentsService,
			DeUna:           deuna,
			Metrics:         registry,
		}),
	}

	stopCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-stopCtx.Done():
		logg.Info(ctx, "shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}
