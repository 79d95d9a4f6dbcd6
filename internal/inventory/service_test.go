package inventory

import (
	"context"
	"testing"

	"github.com/mfigueroa/retailhub-backend/internal/authz"
	"github.com/mfigueroa/retailhub-backend/internal/identity"
	"github.com/mfigueroa/retailhub-backend/pkg/db"
	"github.com/mfigueroa/retailhub-backend/pkg/db/models"
	pkgerrors "github.com/mfigueroa/retailhub-backend/pkg/errors"
	"github.com/mfigueroa/retailhub-backend/pkg/pagination"
	"gorm.io/gorm"
)

func newAdminService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	conn := newTestDB(t)
	if err := conn.AutoMigrate(&models.Region{}, &models.Salesperson{}, &models.Customer{}, &models.HomeProfile{}, &models.BusinessProfile{}); err != nil {
		t.Fatalf("failed to migrate sqlite: %v", err)
	}
	scopes, err := authz.NewService(authz.NewRepository(conn))
	if err != nil {
		t.Fatalf("authz.NewService failed: %v", err)
	}
	svc, err := NewService(NewRepository(conn), db.NewWithConn(conn), scopes)
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	return svc, conn
}

func managerFact(employeeID, storeID int64) identity.RoleFact {
	return identity.RoleFact{
		Kind:           identity.KindEmployee,
		EmployeeID:     employeeID,
		IsStoreManager: true,
		ManagedStoreID: storeID,
	}
}

func regionFact(employeeID, regionID int64) identity.RoleFact {
	return identity.RoleFact{
		Kind:            identity.KindEmployee,
		EmployeeID:      employeeID,
		IsRegionManager: true,
		ManagedRegionID: regionID,
	}
}

func seedStore(t *testing.T, conn *gorm.DB, name string, regionID *int64) int64 {
	t.Helper()
	store := models.Store{Name: name, RegionID: regionID}
	if err := conn.Create(&store).Error; err != nil {
		t.Fatalf("seed store: %v", err)
	}
	return store.ID
}

func seedProduct(t *testing.T, conn *gorm.DB, name string, price int64) int64 {
	t.Helper()
	product := models.Product{Name: name, Price: price, Kind: "beverage"}
	if err := conn.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product.ID
}

func TestSetStockCreatesAndUpdates(t *testing.T) {
	svc, conn := newAdminService(t)
	ctx := context.Background()

	storeID := seedStore(t, conn, "Downtown", nil)
	productID := seedProduct(t, conn, "Cold Brew", 450)
	fact := managerFact(1, storeID)

	row, err := svc.SetStock(ctx, fact, storeID, productID, 12)
	if err != nil {
		t.Fatalf("SetStock create failed: %v", err)
	}
	if row.Stock != 12 {
		t.Fatalf("expected stock 12, got %d", row.Stock)
	}

	row, err = svc.SetStock(ctx, fact, storeID, productID, 4)
	if err != nil {
		t.Fatalf("SetStock update failed: %v", err)
	}
	if row.Stock != 4 {
		t.Fatalf("expected stock 4, got %d", row.Stock)
	}

	var count int64
	if err := conn.Model(&models.StoreInventory{}).Count(&count).Error; err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if count != 1 {
		t.Fatalf("upsert must keep a single row, found %d", count)
	}
}

func TestSetStockChecksStoreAndProduct(t *testing.T) {
	svc, conn := newAdminService(t)
	ctx := context.Background()

	storeID := seedStore(t, conn, "Downtown", nil)
	productID := seedProduct(t, conn, "Cold Brew", 450)

	if _, err := svc.SetStock(ctx, regionFact(1, 1), 999, productID, 5); pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected store not found, got %v", err)
	}
	if _, err := svc.SetStock(ctx, regionFact(1, 1), storeID, 999, 5); pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected product not found, got %v", err)
	}
	if _, err := svc.SetStock(ctx, regionFact(1, 1), storeID, productID, -1); pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSetStockForeignStoreForbidden(t *testing.T) {
	svc, conn := newAdminService(t)
	ctx := context.Background()

	mine := seedStore(t, conn, "Mine", nil)
	other := seedStore(t, conn, "Other", nil)
	productID := seedProduct(t, conn, "Cold Brew", 450)

	_, err := svc.SetStock(ctx, managerFact(1, mine), other, productID, 5)
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestDeleteRequiresRegionRole(t *testing.T) {
	svc, conn := newAdminService(t)
	ctx := context.Background()

	storeID := seedStore(t, conn, "Downtown", nil)
	productID := seedProduct(t, conn, "Cold Brew", 450)
	seedStock(t, conn, storeID, productID, 40)

	err := svc.Delete(ctx, managerFact(1, storeID), storeID, productID)
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden for manager, got %v", err)
	}

	// Region role may delete even with stock remaining.
	if err := svc.Delete(ctx, regionFact(2, 1), storeID, productID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	err = svc.Delete(ctx, regionFact(2, 1), storeID, productID)
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

func TestListScopesToManagedStore(t *testing.T) {
	svc, conn := newAdminService(t)
	ctx := context.Background()

	regionID := int64(1)
	if err := conn.Create(&models.Region{Name: "North"}).Error; err != nil {
		t.Fatalf("seed region: %v", err)
	}
	mine := seedStore(t, conn, "Mine", &regionID)
	other := seedStore(t, conn, "Other", &regionID)
	productID := seedProduct(t, conn, "Cold Brew", 450)
	seedStock(t, conn, mine, productID, 7)
	seedStock(t, conn, other, productID, 9)

	res, err := svc.List(ctx, managerFact(1, mine), ListInput{Page: pagination.Params{Page: 1, Limit: 20}})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if res.Total != 1 || len(res.Rows) != 1 {
		t.Fatalf("expected one row for managed store, got %+v", res)
	}
	if res.Rows[0].StoreID != mine || res.Rows[0].Stock != 7 {
		t.Fatalf("unexpected row %+v", res.Rows[0])
	}
	if res.Rows[0].ProductName != "Cold Brew" || res.Rows[0].Price != 450 {
		t.Fatalf("expected product join fields, got %+v", res.Rows[0])
	}

	// The region facet widens the listing to every store in the region.
	res, err = svc.List(ctx, regionFact(2, regionID), ListInput{Page: pagination.Params{Page: 1, Limit: 20}})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if res.Total != 2 {
		t.Fatalf("expected both stores for region manager, got %+v", res)
	}
}

func TestListDeniesCustomers(t *testing.T) {
	svc, _ := newAdminService(t)

	fact := identity.RoleFact{Kind: identity.KindCustomer, CustomerID: 4}
	_, err := svc.List(context.Background(), fact, ListInput{})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}
