package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mfigueroa/retailhub-backend/internal/identity"
	"github.com/mfigueroa/retailhub-backend/internal/orders"
	"github.com/mfigueroa/retailhub-backend/internal/products"
	pkgauth "github.com/mfigueroa/retailhub-backend/pkg/auth"
	"github.com/mfigueroa/retailhub-backend/pkg/config"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubIdentity struct {
	fact identity.RoleFact
}

func (s stubIdentity) Resolve(ctx context.Context, accountID int64) (identity.RoleFact, error) {
	fact := s.fact
	fact.AccountID = accountID
	return fact, nil
}

type stubProducts struct {
	listed bool
}

func (s *stubProducts) List(ctx context.Context, input products.ListInput) ([]products.ProductDTO, error) {
	s.listed = true
	return []products.ProductDTO{}, nil
}

func (s *stubProducts) Get(ctx context.Context, productID int64) (*products.ProductDTO, error) {
	panic("unreachable")
}

func (s *stubProducts) Categories(ctx context.Context) ([]string, error) {
	return []string{"tools"}, nil
}

func (s *stubProducts) Create(ctx context.Context, fact identity.RoleFact, input products.CreateInput) (*products.ProductDTO, error) {
	panic("unreachable")
}

func (s *stubProducts) Update(ctx context.Context, fact identity.RoleFact, productID int64, input products.UpdateInput) (*products.ProductDTO, error) {
	panic("unreachable")
}

func (s *stubProducts) Delete(ctx context.Context, fact identity.RoleFact, productID int64) error {
	panic("unreachable")
}

type stubOrders struct {
	lastFact identity.RoleFact
}

func (s *stubOrders) Create(ctx context.Context, fact identity.RoleFact, input orders.CreateInput) (*orders.OrderDTO, error) {
	panic("unreachable")
}

func (s *stubOrders) Get(ctx context.Context, fact identity.RoleFact, orderID int64) (*orders.OrderDTO, error) {
	panic("unreachable")
}

func (s *stubOrders) List(ctx context.Context, fact identity.RoleFact, input orders.ListInput) (*orders.ListResult, error) {
	s.lastFact = fact
	return &orders.ListResult{Orders: []orders.Summary{}, Page: 1, Pages: 0}, nil
}

func (s *stubOrders) Cancel(ctx context.Context, fact identity.RoleFact, orderID int64) (*orders.OrderDTO, error) {
	panic("unreachable")
}

func (s *stubOrders) UpdateStatus(ctx context.Context, fact identity.RoleFact, orderID int64, status int) (*orders.OrderDTO, error) {
	panic("unreachable")
}

func (s *stubOrders) SetPayment(ctx context.Context, fact identity.RoleFact, orderID int64, paid bool) (*orders.OrderDTO, error) {
	panic("unreachable")
}

func (s *stubOrders) ProcessPayment(ctx context.Context, fact identity.RoleFact, orderID int64, card orders.CardInput) (*orders.OrderDTO, error) {
	panic("unreachable")
}

func testRouterConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:            "router-test-secret",
			Issuer:            "retailhub-test",
			ExpirationMinutes: 15,
		},
	}
}

func newTestRouter(t *testing.T, svcs Services) http.Handler {
	t.Helper()
	return NewRouter(testRouterConfig(), nil, nil, nil, stubPinger{}, stubPinger{}, svcs)
}

func TestHealthAndPublicCatalog(t *testing.T) {
	prods := &stubProducts{}
	router := newTestRouter(t, Services{
		Identity: stubIdentity{},
		Products: prods,
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/products", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, prods.listed, "anonymous catalog request should reach the service")

	var envelope struct {
		Data []any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	ords := &stubOrders{}
	router := newTestRouter(t, Services{
		Identity: stubIdentity{},
		Orders:   ords,
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/orders/", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBearerTokenResolvesRoleFact(t *testing.T) {
	ords := &stubOrders{}
	router := newTestRouter(t, Services{
		Identity: stubIdentity{fact: identity.RoleFact{
			Kind:       identity.KindCustomer,
			CustomerID: 7,
		}},
		Orders: ords,
	})

	token, err := pkgauth.MintAccessToken(testRouterConfig().JWT, time.Now(), pkgauth.AccessTokenPayload{
		AccountID: 42,
		Email:     "alice@example.com",
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	require.Equal(t, int64(42), ords.lastFact.AccountID)
	require.Equal(t, int64(7), ords.lastFact.CustomerID)
}

// Compile-time checks that the stubs keep tracking the service interfaces.
var (
	_ identity.Service = stubIdentity{}
	_ products.Service = (*stubProducts)(nil)
	_ orders.Service   = (*stubOrders)(nil)
)
