package analytics

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/mfigueroa/retailhub-backend/internal/identity"
	"github.com/mfigueroa/retailhub-backend/pkg/config"
	"github.com/mfigueroa/retailhub-backend/pkg/db/models"
	"github.com/mfigueroa/retailhub-backend/pkg/enums"
	pkgerrors "github.com/mfigueroa/retailhub-backend/pkg/errors"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var testConfig = config.AnalyticsConfig{
	TrendDays:          30,
	DeadStockMinStock:  20,
	DeadStockMaxSold:   5,
	TopProductsLimit:   10,
	RegionRankingLimit: 10,
}

type fixture struct {
	svc  *service
	conn *gorm.DB
	now  time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(
		&models.Account{},
		&models.Employee{},
		&models.Salesperson{},
		&models.Region{},
		&models.Store{},
		&models.Customer{},
		&models.HomeProfile{},
		&models.BusinessProfile{},
		&models.Product{},
		&models.StoreInventory{},
		&models.Order{},
		&models.OrderItem{},
	); err != nil {
		t.Fatalf("failed to migrate sqlite: %v", err)
	}

	svc, err := NewService(NewRepository(conn), testConfig)
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	concrete := svc.(*service)
	now := time.Date(2026, 8, 20, 15, 0, 0, 0, time.UTC)
	concrete.now = func() time.Time { return now }
	return &fixture{svc: concrete, conn: conn, now: now}
}

func (f *fixture) seedWorld(t *testing.T) (customerID, storeID, salesID, productID int64) {
	t.Helper()
	chiefAccount := models.Account{Email: "chief@example.com", PasswordHash: "x", Name: "chief"}
	if err := f.conn.Create(&chiefAccount).Error; err != nil {
		t.Fatalf("seed account: %v", err)
	}
	chief := models.Employee{AccountID: chiefAccount.ID, JobTitle: "Region Manager", Salary: 100}
	if err := f.conn.Create(&chief).Error; err != nil {
		t.Fatalf("seed employee: %v", err)
	}
	region := models.Region{Name: "North", ManagerID: &chief.ID}
	if err := f.conn.Create(&region).Error; err != nil {
		t.Fatalf("seed region: %v", err)
	}
	store := models.Store{Name: "Alpha", RegionID: &region.ID}
	if err := f.conn.Create(&store).Error; err != nil {
		t.Fatalf("seed store: %v", err)
	}

	sellerAccount := models.Account{Email: "seller@example.com", PasswordHash: "x", Name: "seller"}
	if err := f.conn.Create(&sellerAccount).Error; err != nil {
		t.Fatalf("seed account: %v", err)
	}
	seller := models.Employee{AccountID: sellerAccount.ID, JobTitle: "Sales Associate", Salary: 50}
	if err := f.conn.Create(&seller).Error; err != nil {
		t.Fatalf("seed employee: %v", err)
	}
	if err := f.conn.Create(&models.Salesperson{StoreID: store.ID, EmployeeID: seller.ID}).Error; err != nil {
		t.Fatalf("seed salesperson: %v", err)
	}

	buyerAccount := models.Account{Email: "buyer@example.com", PasswordHash: "x", Name: "buyer"}
	if err := f.conn.Create(&buyerAccount).Error; err != nil {
		t.Fatalf("seed account: %v", err)
	}
	customer := models.Customer{AccountID: buyerAccount.ID, Kind: enums.CustomerKindHome}
	if err := f.conn.Create(&customer).Error; err != nil {
		t.Fatalf("seed customer: %v", err)
	}
	if err := f.conn.Create(&models.HomeProfile{CustomerID: customer.ID, Age: 30}).Error; err != nil {
		t.Fatalf("seed home profile: %v", err)
	}

	product := models.Product{Name: "Widget", Price: 1999, Kind: "tools"}
	if err := f.conn.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return customer.ID, store.ID, seller.ID, product.ID
}

func (f *fixture) seedOrder(t *testing.T, customerID, storeID, salesID, productID int64, total int64, qty int, paid bool, daysAgo int) {
	t.Helper()
	when := f.now.AddDate(0, 0, -daysAgo)
	order := models.Order{
		CustomerID:    customerID,
		StoreID:       storeID,
		SalesID:       salesID,
		OrderDate:     when,
		PickupDate:    when,
		TotalAmount:   total,
		PaymentStatus: paid,
	}
	if err := f.conn.Create(&order).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}
	item := models.OrderItem{OrderID: order.ID, ProductID: productID, Quantity: qty, SubPrice: total}
	if err := f.conn.Create(&item).Error; err != nil {
		t.Fatalf("seed order item: %v", err)
	}
}

func managerFact() identity.RoleFact {
	return identity.RoleFact{
		Kind:           identity.KindEmployee,
		EmployeeID:     1,
		IsStoreManager: true,
		ManagedStoreID: 1,
	}
}

func TestDashboardRequiresManager(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Dashboard(context.Background(), identity.RoleFact{Kind: identity.KindCustomer, CustomerID: 1}, 30)
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestDashboardPaidOrdersOnlyAndScaling(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	customerID, storeID, salesID, productID := f.seedWorld(t)

	f.seedOrder(t, customerID, storeID, salesID, productID, 1999, 1, true, 1)
	f.seedOrder(t, customerID, storeID, salesID, productID, 2999, 1, true, 2)
	// Unpaid and out-of-window orders must be invisible.
	f.seedOrder(t, customerID, storeID, salesID, productID, 100_000, 1, false, 1)
	f.seedOrder(t, customerID, storeID, salesID, productID, 100_000, 1, true, 90)

	dto, err := f.svc.Dashboard(ctx, managerFact(), 30)
	if err != nil {
		t.Fatalf("Dashboard failed: %v", err)
	}

	if len(dto.Trend.Dates) != 2 {
		t.Fatalf("expected 2 trend days, got %+v", dto.Trend)
	}
	if dto.Trend.Values[0] != 29.99 || dto.Trend.Values[1] != 19.99 {
		t.Fatalf("expected major-unit trend values, got %+v", dto.Trend.Values)
	}

	if len(dto.TopProducts.Names) != 1 || dto.TopProducts.Names[0] != "Widget" {
		t.Fatalf("unexpected top products: %+v", dto.TopProducts)
	}
	if dto.TopProducts.Values[0] != 49.98 {
		t.Fatalf("expected 49.98, got %v", dto.TopProducts.Values[0])
	}

	if len(dto.Segments) != 1 || dto.Segments[0].Name != "Home (B2C)" || dto.Segments[0].Value != 49.98 {
		t.Fatalf("unexpected segments: %+v", dto.Segments)
	}
	if len(dto.Categories) != 1 || dto.Categories[0].Name != "tools" {
		t.Fatalf("unexpected categories: %+v", dto.Categories)
	}
	if len(dto.Demographics) != 1 || dto.Demographics[0].Name != "25 - 35" {
		t.Fatalf("unexpected demographics: %+v", dto.Demographics)
	}
	if len(dto.RegionalSales.Names) != 1 || dto.RegionalSales.Names[0] != "North" {
		t.Fatalf("unexpected regional sales: %+v", dto.RegionalSales)
	}

	if len(dto.CustomerTypes) != 1 {
		t.Fatalf("unexpected customer types: %+v", dto.CustomerTypes)
	}
	summary := dto.CustomerTypes[0]
	if summary.TotalOrders != 2 || summary.TotalRevenue != 49.98 || summary.AvgOrderValue != 24.99 {
		t.Fatalf("unexpected customer type summary: %+v", summary)
	}

	if len(dto.RegionalRankings) != 1 {
		t.Fatalf("unexpected rankings: %+v", dto.RegionalRankings)
	}
	ranking := dto.RegionalRankings[0]
	if ranking.RegionName != "North" || ranking.ManagerName != "chief" || ranking.StoreCount != 1 || ranking.SalesCount != 2 {
		t.Fatalf("unexpected ranking: %+v", ranking)
	}
}

func TestDashboardDeadStockAndEfficiency(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	customerID, storeID, salesID, productID := f.seedWorld(t)

	// Overstocked with only one recent sale: dead stock.
	if err := f.conn.Create(&models.StoreInventory{StoreID: storeID, ProductID: productID, Stock: 50}).Error; err != nil {
		t.Fatalf("seed stock: %v", err)
	}
	// A mover with healthy turnover stays off the report.
	mover := models.Product{Name: "Gadget", Price: 999, Kind: "toys"}
	if err := f.conn.Create(&mover).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	if err := f.conn.Create(&models.StoreInventory{StoreID: storeID, ProductID: mover.ID, Stock: 50}).Error; err != nil {
		t.Fatalf("seed stock: %v", err)
	}

	f.seedOrder(t, customerID, storeID, salesID, productID, 1999, 1, true, 1)
	f.seedOrder(t, customerID, storeID, salesID, mover.ID, 9990, 10, true, 1)
	// An old sale must not rescue the widget from the report.
	f.seedOrder(t, customerID, storeID, salesID, productID, 19990, 10, true, 90)

	dto, err := f.svc.Dashboard(ctx, managerFact(), 30)
	if err != nil {
		t.Fatalf("Dashboard failed: %v", err)
	}

	if len(dto.DeadStock) != 1 {
		t.Fatalf("expected one dead stock row, got %+v", dto.DeadStock)
	}
	dead := dto.DeadStock[0]
	if dead.ProductName != "Widget" || dead.CurrentStock != 50 || dead.UnitsSold != 1 || dead.Revenue != 19.99 {
		t.Fatalf("unexpected dead stock row: %+v", dead)
	}

	if len(dto.SalesEfficiency) != 1 {
		t.Fatalf("expected one efficiency row, got %+v", dto.SalesEfficiency)
	}
	eff := dto.SalesEfficiency[0]
	if eff.Name != "seller" || eff.StoreLocation != "Alpha" {
		t.Fatalf("unexpected efficiency row: %+v", eff)
	}
	// 119.89 in revenue against a salary of 50.
	if eff.Revenue != 119.89 || eff.SalaryMultiplier == nil || *eff.SalaryMultiplier != 2.4 {
		t.Fatalf("unexpected efficiency math: %+v", eff)
	}
}

func TestDashboardBusinessCategories(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, storeID, salesID, productID := f.seedWorld(t)

	account := models.Account{Email: "corp@example.com", PasswordHash: "x", Name: "corp"}
	if err := f.conn.Create(&account).Error; err != nil {
		t.Fatalf("seed account: %v", err)
	}
	business := models.Customer{AccountID: account.ID, Kind: enums.CustomerKindBusiness}
	if err := f.conn.Create(&business).Error; err != nil {
		t.Fatalf("seed customer: %v", err)
	}
	if err := f.conn.Create(&models.BusinessProfile{CustomerID: business.ID, CompanyName: "Corp", Category: "logistics"}).Error; err != nil {
		t.Fatalf("seed business profile: %v", err)
	}
	f.seedOrder(t, business.ID, storeID, salesID, productID, 5000, 1, true, 3)

	dto, err := f.svc.Dashboard(ctx, managerFact(), 30)
	if err != nil {
		t.Fatalf("Dashboard failed: %v", err)
	}
	if len(dto.BusinessCategories) != 1 || dto.BusinessCategories[0].Name != "logistics" || dto.BusinessCategories[0].Value != 50.0 {
		t.Fatalf("unexpected business categories: %+v", dto.BusinessCategories)
	}
	if len(dto.Segments) != 1 || dto.Segments[0].Name != "Business (B2B)" {
		t.Fatalf("unexpected segments: %+v", dto.Segments)
	}
}
