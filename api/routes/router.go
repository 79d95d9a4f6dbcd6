package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mfigueroa/retailhub-backend/api/controllers"
	"github.com/mfigueroa/retailhub-backend/api/middleware"
	"github.com/mfigueroa/retailhub-backend/internal/analytics"
	"github.com/mfigueroa/retailhub-backend/internal/auth"
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
	"github.com/mfigueroa/retailhub-backend/pkg/redis"
)

// Services bundles the domain services the router binds to HTTP.
type Services struct {
	Identity  identity.Service
	Auth      auth.Service
	Customers customers.Service
	Employees employees.Service
	Stores    stores.Service
	Products  products.Service
	Inventory inventory.Service
	Orders    orders.Service
	Analytics analytics.Service
	Media     media.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	httpMetrics *metrics.HTTPMetrics,
	metricsHandler http.Handler,
	dbP db.Pinger,
	redisP redis.Pinger,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", controllers.AuthRegister(svcs.Auth, logg))
			r.Post("/login", controllers.AuthLogin(svcs.Auth, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.Auth(cfg.JWT, svcs.Identity, logg))
				r.Get("/profile", controllers.AuthProfile(svcs.Auth, logg))
				r.Put("/profile", controllers.AuthUpdateProfile(svcs.Auth, logg))
			})
		})

		// The catalog and the store directory are browsable without an
		// account; credentials still narrow what region managers see.
		r.Group(func(r chi.Router) {
			r.Use(middleware.OptionalAuth(cfg.JWT, svcs.Identity, logg))
			r.Get("/stores", controllers.StoreList(svcs.Stores, logg))
			r.Get("/stores/{storeId}", controllers.StoreDetail(svcs.Stores, logg))
			r.Get("/stores/{storeId}/inventory", controllers.StoreInventory(svcs.Stores, logg))
			r.Get("/stores/{storeId}/inventory/{productId}", controllers.StoreProductStock(svcs.Stores, logg))
			r.Get("/products", controllers.ProductList(svcs.Products, logg))
			r.Get("/products/categories", controllers.ProductCategories(svcs.Products, logg))
			r.Get("/products/{productId}", controllers.ProductDetail(svcs.Products, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, svcs.Identity, logg))

			r.Post("/stores", controllers.StoreCreate(svcs.Stores, logg))
			r.Put("/stores/{storeId}", controllers.StoreUpdate(svcs.Stores, logg))
			r.Delete("/stores/{storeId}", controllers.StoreDelete(svcs.Stores, logg))

			r.Post("/products", controllers.ProductCreate(svcs.Products, logg))
			r.Put("/products/{productId}", controllers.ProductUpdate(svcs.Products, logg))
			r.Delete("/products/{productId}", controllers.ProductDelete(svcs.Products, logg))

			r.Route("/customers", func(r chi.Router) {
				r.Get("/", controllers.CustomerList(svcs.Customers, logg))
				r.Get("/sales-options", controllers.CustomerSalesOptions(svcs.Customers, logg))
				r.Get("/{customerId}", controllers.CustomerDetail(svcs.Customers, logg))
				r.Put("/{customerId}", controllers.CustomerUpdate(svcs.Customers, logg))
			})

			r.Route("/employees", func(r chi.Router) {
				r.Get("/", controllers.EmployeeList(svcs.Employees, logg))
				r.Post("/", controllers.EmployeeCreate(svcs.Employees, logg))
				r.Put("/{employeeId}", controllers.EmployeeUpdate(svcs.Employees, logg))
				r.Delete("/{employeeId}", controllers.EmployeeDelete(svcs.Employees, logg))
			})

			r.Route("/inventory", func(r chi.Router) {
				r.Get("/", controllers.InventoryList(svcs.Inventory, logg))
				r.Put("/{storeId}/{productId}", controllers.InventorySetStock(svcs.Inventory, logg))
				r.Delete("/{storeId}/{productId}", controllers.InventoryDelete(svcs.Inventory, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.Post("/", controllers.OrderCreate(svcs.Orders, logg))
				r.Get("/", controllers.OrderList(svcs.Orders, logg))
				r.Get("/{orderId}", controllers.OrderDetail(svcs.Orders, logg))
				r.Post("/{orderId}/cancel", controllers.OrderCancel(svcs.Orders, logg))
				r.Post("/{orderId}/status", controllers.OrderUpdateStatus(svcs.Orders, logg))
				r.Post("/{orderId}/payment", controllers.OrderSetPayment(svcs.Orders, logg))
				r.Post("/{orderId}/pay", controllers.OrderProcessPayment(svcs.Orders, logg))
			})

			r.Get("/analytics/dashboard", controllers.AnalyticsDashboard(svcs.Analytics, logg))

			r.Post("/media/images", controllers.MediaUploadImage(svcs.Media, cfg.Media, logg))
		})
	})

	return r
}
