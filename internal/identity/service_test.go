package identity

import (
	"context"
	"fmt"
	"testing"

	"github.com/mfigueroa/retailhub-backend/pkg/db/models"
	"github.com/mfigueroa/retailhub-backend/pkg/enums"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
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
		&models.Customer{},
		&models.Employee{},
		&models.Salesperson{},
		&models.Store{},
		&models.Region{},
	); err != nil {
		t.Fatalf("failed to migrate sqlite: %v", err)
	}
	return conn
}

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	conn := newTestDB(t)
	svc, err := NewService(NewRepository(conn))
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	return svc, conn
}

func TestResolveCustomer(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	account := models.Account{Email: "jane@example.com", PasswordHash: "x", Name: "Jane"}
	if err := conn.Create(&account).Error; err != nil {
		t.Fatalf("seed account: %v", err)
	}
	customer := models.Customer{AccountID: account.ID, Kind: enums.CustomerKindBusiness}
	if err := conn.Create(&customer).Error; err != nil {
		t.Fatalf("seed customer: %v", err)
	}

	fact, err := svc.Resolve(ctx, account.ID)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !fact.IsCustomer() {
		t.Fatalf("expected customer fact, got kind %d", fact.Kind)
	}
	if fact.CustomerID != customer.ID {
		t.Fatalf("expected customer id %d, got %d", customer.ID, fact.CustomerID)
	}
	if fact.CustomerKind != enums.CustomerKindBusiness {
		t.Fatalf("expected business kind, got %v", fact.CustomerKind)
	}
	if got := fact.PrimaryRole(); got != enums.ActorRoleCustomer {
		t.Fatalf("expected customer role, got %q", got)
	}
}

func TestResolveCustomerWinsOverEmployee(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	account := models.Account{Email: "dual@example.com", PasswordHash: "x", Name: "Dual"}
	if err := conn.Create(&account).Error; err != nil {
		t.Fatalf("seed account: %v", err)
	}
	if err := conn.Create(&models.Employee{AccountID: account.ID, JobTitle: "Sales Associate"}).Error; err != nil {
		t.Fatalf("seed employee: %v", err)
	}
	if err := conn.Create(&models.Customer{AccountID: account.ID, Kind: enums.CustomerKindHome}).Error; err != nil {
		t.Fatalf("seed customer: %v", err)
	}

	fact, err := svc.Resolve(ctx, account.ID)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !fact.IsCustomer() {
		t.Fatalf("customer row must take precedence, got kind %d", fact.Kind)
	}
}

func TestResolveEmployeeFacets(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	account := models.Account{Email: "lead@example.com", PasswordHash: "x", Name: "Lead"}
	if err := conn.Create(&account).Error; err != nil {
		t.Fatalf("seed account: %v", err)
	}
	employee := models.Employee{AccountID: account.ID, JobTitle: "Store Manager", Salary: 9_000_000}
	if err := conn.Create(&employee).Error; err != nil {
		t.Fatalf("seed employee: %v", err)
	}
	store := models.Store{Name: "Downtown", ManagerID: &employee.ID}
	if err := conn.Create(&store).Error; err != nil {
		t.Fatalf("seed store: %v", err)
	}
	sp := models.Salesperson{StoreID: store.ID, EmployeeID: employee.ID}
	if err := conn.Create(&sp).Error; err != nil {
		t.Fatalf("seed salesperson: %v", err)
	}
	region := models.Region{Name: "North", ManagerID: &employee.ID}
	if err := conn.Create(&region).Error; err != nil {
		t.Fatalf("seed region: %v", err)
	}

	fact, err := svc.Resolve(ctx, account.ID)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !fact.IsEmployee() {
		t.Fatalf("expected employee fact, got kind %d", fact.Kind)
	}
	if !fact.IsSalesperson || fact.SalesStoreID != store.ID {
		t.Fatalf("expected salesperson facet at store %d, got %+v", store.ID, fact)
	}
	if !fact.IsStoreManager || fact.ManagedStoreID != store.ID {
		t.Fatalf("expected store manager facet, got %+v", fact)
	}
	if !fact.IsRegionManager || fact.ManagedRegionID != region.ID {
		t.Fatalf("expected region manager facet, got %+v", fact)
	}
	if !fact.IsStaff() {
		t.Fatal("expected staff fact")
	}
	// Salesperson still wins the display role even with manager facets.
	if got := fact.PrimaryRole(); got != enums.ActorRoleSalesperson {
		t.Fatalf("expected salesperson role, got %q", got)
	}
}

func TestResolveEmployeeWithoutFacets(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	account := models.Account{Email: "hr@example.com", PasswordHash: "x", Name: "HR"}
	if err := conn.Create(&account).Error; err != nil {
		t.Fatalf("seed account: %v", err)
	}
	if err := conn.Create(&models.Employee{AccountID: account.ID, JobTitle: "HR Specialist"}).Error; err != nil {
		t.Fatalf("seed employee: %v", err)
	}

	fact, err := svc.Resolve(ctx, account.ID)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !fact.IsEmployee() || fact.IsStaff() {
		t.Fatalf("expected facet-less employee, got %+v", fact)
	}
}

func TestResolveUnknownAccount(t *testing.T) {
	svc, _ := newTestService(t)

	fact, err := svc.Resolve(context.Background(), 424242)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !fact.IsNone() {
		t.Fatalf("expected none fact, got kind %d", fact.Kind)
	}
}
