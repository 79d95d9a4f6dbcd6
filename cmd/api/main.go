package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mfigueroa/retailhub-backend/api/routes"
	"github.com/mfigueroa/retailhub-backend/internal/analytics"
	"github.com/mfigueroa/retailhub-backend/internal/auth"
	"github.com/mfigueroa/retailhub-backend/internal/authz"
	"github.com/mfigueroa/retailhub-backend/internal/customers"
	"github.com/mfigueroa/retailhub-backend/internal/employees"
	"github.com/mfigueroa/retailhub-backend/internal/identity"
	"github.com/mfigueroa/retailhub-backend/internal/inventory"
	"github.com/mfigueroa/retailhub-backend/internal/media"
	"github.com/mfigueroa/retailhub-backend/internal/orders"
	"github.com/mfigueroa/retailhub-backend/internal/products"
	"github.com/mfigueroa/retailhub-backend/internal/stores"
	"github.com/mfigueroa/retailhub-backend/pkg/config"
	"github.com/mfigueroa/retailhub-backend/pkg/db"
	"github.com/mfigueroa/retailhub-backend/pkg/logger"
	"github.com/mfigueroa/retailhub-backend/pkg/metrics"
	"github.com/mfigueroa/retailhub-backend/pkg/migrate"
	"github.com/mfigueroa/retailhub-backend/pkg/redis"
	"github.com/mfigueroa/retailhub-backend/pkg/storage/r2"
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

	r2Client, err := r2.New(context.Background(), cfg.R2)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap object storage", err)
		os.Exit(1)
	}
	if !r2Client.Enabled() {
		logg.Warn(context.Background(), "object storage not configured, media uploads disabled")
	}

	conn := dbClient.DB()

	identityService, err := identity.NewService(identity.NewRepository(conn))
	if err != nil {
		fatal(logg, "identity service", err)
	}
	authzService, err := authz.NewService(authz.NewRepository(conn))
	if err != nil {
		fatal(logg, "authz service", err)
	}
	ledger, err := inventory.NewLedger(logg)
	if err != nil {
		fatal(logg, "inventory ledger", err)
	}

	authService, err := auth.NewService(
		auth.NewRepository(conn),
		dbClient,
		identityService,
		redisClient,
		cfg.JWT,
		cfg.Password,
		cfg.AuthRateLimit,
	)
	if err != nil {
		fatal(logg, "auth service", err)
	}
	customerService, err := customers.NewService(customers.NewRepository(conn), dbClient, authzService)
	if err != nil {
		fatal(logg, "customer service", err)
	}
	employeeService, err := employees.NewService(employees.NewRepository(conn), dbClient, authzService, cfg.Password)
	if err != nil {
		fatal(logg, "employee service", err)
	}
	storeService, err := stores.NewService(stores.NewRepository(conn), dbClient, authzService)
	if err != nil {
		fatal(logg, "store service", err)
	}
	productService, err := products.NewService(products.NewRepository(conn), dbClient)
	if err != nil {
		fatal(logg, "product service", err)
	}
	inventoryService, err := inventory.NewService(inventory.NewRepository(conn), dbClient, authzService)
	if err != nil {
		fatal(logg, "inventory service", err)
	}
	orderService, err := orders.NewService(orders.NewRepository(conn), dbClient, ledger, authzService, cfg.Pricing, nil)
	if err != nil {
		fatal(logg, "order service", err)
	}
	analyticsService, err := analytics.NewService(analytics.NewRepository(conn), cfg.Analytics)
	if err != nil {
		fatal(logg, "analytics service", err)
	}
	mediaService, err := media.NewService(r2Client, cfg.Media)
	if err != nil {
		fatal(logg, "media service", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics := metrics.NewHTTPMetrics(registry)
	metricsHandler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	router := routes.NewRouter(cfg, logg, httpMetrics, metricsHandler, dbClient, redisClient, routes.Services{
		Identity:  identityService,
		Auth:      authService,
		Customers: customerService,
		Employees: employeeService,
		Stores:    storeService,
		Products:  productService,
		Inventory: inventoryService,
		Orders:    orderService,
		Analytics: analyticsService,
		Media:     mediaService,
	})

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
		Addr:    addr,
		Handler: router,
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func fatal(logg *logger.Logger, what string, err error) {
	logg.Error(context.Background(), "failed to create "+what, err)
	os.Exit(1)
}
