package employees

import (
	"context"
	"fmt"
	"testing"

	"github.com/mfigueroa/retailhub-backend/internal/authz"
	"github.com/mfigueroa/retailhub-backend/internal/identity"
	"github.com/mfigueroa/retailhub-backend/pkg/config"
	"github.com/mfigueroa/retailhub-backend/pkg/db"
	"github.com/mfigueroa/retailhub-backend/pkg/db/models"
	pkgerrors "github.com/mfigueroa/retailhub-backend/pkg/errors"
	"github.com/mfigueroa/retailhub-backend/pkg/pagination"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Fast argon parameters keep hashing cheap in tests.
var testPassword = config.PasswordConfig{
	ArgonMemoryKB:    8 * 1024,
	ArgonTime:        1,
	ArgonParallelism: 1,
	ArgonSaltLen:     16,
	ArgonKeyLen:      32,
}

type fixture struct {
	svc  Service
	conn *gorm.DB
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
		&models.Store{},
		&models.Region{},
		&models.Customer{},
		&models.HomeProfile{},
		&models.BusinessProfile{},
	); err != nil {
		t.Fatalf("failed to migrate sqlite: %v", err)
	}

	scopes, err := authz.NewService(authz.NewRepository(conn))
	if err != nil {
		t.Fatalf("authz.NewService failed: %v", err)
	}
	svc, err := NewService(NewRepository(conn), db.NewWithConn(conn), scopes, testPassword)
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	return &fixture{svc: svc, conn: conn}
}

func (f *fixture) seedEmployee(t *testing.T, name, title string) int64 {
	t.Helper()
	account := models.Account{Email: name + "@example.com", PasswordHash: "x", Name: name}
	if err := f.conn.Create(&account).Error; err != nil {
		t.Fatalf("seed account: %v", err)
	}
	employee := models.Employee{AccountID: account.ID, JobTitle: title, Salary: 5_000_000}
	if err := f.conn.Create(&employee).Error; err != nil {
		t.Fatalf("seed employee: %v", err)
	}
	return employee.ID
}

func (f *fixture) seedRegion(t *testing.T, name string, managerID *int64) int64 {
	t.Helper()
	region := models.Region{Name: name, ManagerID: managerID}
	if err := f.conn.Create(&region).Error; err != nil {
		t.Fatalf("seed region: %v", err)
	}
	return region.ID
}

func (f *fixture) seedStore(t *testing.T, name string, regionID, managerID *int64) int64 {
	t.Helper()
	store := models.Store{Name: name, RegionID: regionID, ManagerID: managerID}
	if err := f.conn.Create(&store).Error; err != nil {
		t.Fatalf("seed store: %v", err)
	}
	return store.ID
}

func (f *fixture) seedSalesperson(t *testing.T, storeID, employeeID int64) {
	t.Helper()
	sp := models.Salesperson{StoreID: storeID, EmployeeID: employeeID}
	if err := f.conn.Create(&sp).Error; err != nil {
		t.Fatalf("seed salesperson: %v", err)
	}
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

func page() pagination.Params { return pagination.Params{Page: 1, Limit: 50} }

func TestListScopedToStore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	boss := f.seedEmployee(t, "boss", "Store Manager")
	storeA := f.seedStore(t, "A", nil, &boss)
	storeB := f.seedStore(t, "B", nil, nil)
	seller := f.seedEmployee(t, "seller", "Sales Associate")
	outsider := f.seedEmployee(t, "outsider", "Sales Associate")
	f.seedSalesperson(t, storeA, seller)
	f.seedSalesperson(t, storeB, outsider)

	res, err := f.svc.List(ctx, managerFact(boss, storeA), ListInput{Page: page()})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if res.Total != 2 {
		t.Fatalf("manager should see store staff plus self, got %+v", res)
	}
	byID := map[int64]EmployeeDTO{}
	for _, emp := range res.Employees {
		byID[emp.ID] = emp
	}
	if _, ok := byID[outsider]; ok {
		t.Fatal("staff of other stores must not appear")
	}
	if dto := byID[seller]; !dto.IsSalesperson || dto.StoreName != "A" {
		t.Fatalf("expected salesperson facet at store A, got %+v", dto)
	}
	if dto := byID[boss]; !dto.IsManager {
		t.Fatalf("expected manager facet, got %+v", dto)
	}
}

func TestListScopedToRegion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	chief := f.seedEmployee(t, "chief", "Region Manager")
	regionID := f.seedRegion(t, "North", &chief)
	otherRegion := f.seedRegion(t, "South", nil)

	boss := f.seedEmployee(t, "boss", "Store Manager")
	inStore := f.seedStore(t, "A", &regionID, &boss)
	outStore := f.seedStore(t, "B", &otherRegion, nil)
	seller := f.seedEmployee(t, "seller", "Sales Associate")
	outsider := f.seedEmployee(t, "outsider", "Sales Associate")
	f.seedSalesperson(t, inStore, seller)
	f.seedSalesperson(t, outStore, outsider)

	res, err := f.svc.List(ctx, regionFact(chief, regionID), ListInput{Page: page()})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	// Region staff: the seller, the store manager and the chief.
	if res.Total != 3 {
		t.Fatalf("expected 3 region staff, got %+v", res)
	}
	for _, emp := range res.Employees {
		if emp.ID == outsider {
			t.Fatal("staff of other regions must not appear")
		}
		if emp.ID == chief && !emp.IsRegionManager {
			t.Fatalf("expected region facet on chief, got %+v", emp)
		}
	}
}

func TestListDeniesSalespeople(t *testing.T) {
	f := newFixture(t)

	fact := identity.RoleFact{
		Kind:          identity.KindEmployee,
		EmployeeID:    1,
		IsSalesperson: true,
		SalesStoreID:  1,
	}
	_, err := f.svc.List(context.Background(), fact, ListInput{Page: page()})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestCreateByStoreManagerLandsAtOwnStore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	boss := f.seedEmployee(t, "boss", "Store Manager")
	storeID := f.seedStore(t, "A", nil, &boss)

	id, err := f.svc.Create(ctx, managerFact(boss, storeID), CreateInput{
		Name:          "newbie",
		Email:         "Newbie@Example.com",
		Password:      "secret123",
		JobTitle:      "Sales Associate",
		Salary:        4_000_000,
		IsSalesperson: true,
		// A store manager cannot smuggle the hire elsewhere.
		StoreID:   999,
		IsManager: true,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	var sp models.Salesperson
	if err := f.conn.First(&sp, "employee_id = ?", id).Error; err != nil {
		t.Fatalf("load salesperson: %v", err)
	}
	if sp.StoreID != storeID {
		t.Fatalf("hire must land at the manager's store, got %d", sp.StoreID)
	}
	var account models.Account
	if err := f.conn.First(&account, "email = ?", "newbie@example.com").Error; err != nil {
		t.Fatalf("email must be lowercased: %v", err)
	}
	var store models.Store
	if err := f.conn.First(&store, "id = ?", storeID).Error; err != nil {
		t.Fatalf("load store: %v", err)
	}
	if store.ManagerID == nil || *store.ManagerID != boss {
		t.Fatal("store manager hires cannot reassign the store's manager")
	}
}

func TestCreateByRegionChecksOwnershipAndManagerConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	chief := f.seedEmployee(t, "chief", "Region Manager")
	regionID := f.seedRegion(t, "North", &chief)
	otherRegion := f.seedRegion(t, "South", nil)

	boss := f.seedEmployee(t, "boss", "Store Manager")
	managed := f.seedStore(t, "A", &regionID, &boss)
	foreign := f.seedStore(t, "B", &otherRegion, nil)
	fact := regionFact(chief, regionID)

	_, err := f.svc.Create(ctx, fact, CreateInput{
		Name: "x", Email: "x@example.com", Password: "secret123", JobTitle: "Sales Associate",
		IsSalesperson: true, StoreID: foreign,
	})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden for foreign store, got %v", err)
	}

	_, err = f.svc.Create(ctx, fact, CreateInput{
		Name: "y", Email: "y@example.com", Password: "secret123", JobTitle: "Store Manager",
		IsSalesperson: true, StoreID: managed, IsManager: true,
	})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected manager conflict, got %v", err)
	}
	details, ok := appErr.Details().(map[string]any)
	if !ok || details["manager_name"] != "boss" {
		t.Fatalf("conflict must surface the current manager, got %+v", appErr.Details())
	}

	// The failed hire must not leave partial rows behind.
	var count int64
	if err := f.conn.Model(&models.Account{}).Where("email = ?", "y@example.com").Count(&count).Error; err != nil {
		t.Fatalf("count accounts: %v", err)
	}
	if count != 0 {
		t.Fatal("failed hire must roll back the account")
	}
}

func TestCreateDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	chief := f.seedEmployee(t, "chief", "Region Manager")
	regionID := f.seedRegion(t, "North", &chief)

	_, err := f.svc.Create(ctx, regionFact(chief, regionID), CreateInput{
		Name: "dupe", Email: "chief@example.com", Password: "secret123", JobTitle: "Sales Associate",
	})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestUpdateFacetTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	chief := f.seedEmployee(t, "chief", "Region Manager")
	regionID := f.seedRegion(t, "North", &chief)
	storeID := f.seedStore(t, "A", &regionID, nil)
	worker := f.seedEmployee(t, "worker", "Sales Associate")
	fact := regionFact(chief, regionID)

	// Promote to salesperson, then to manager.
	yes := true
	err := f.svc.Update(ctx, fact, worker, UpdateInput{IsSalesperson: &yes, StoreID: &storeID})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	err = f.svc.Update(ctx, fact, worker, UpdateInput{IsManager: &yes})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	var store models.Store
	if err := f.conn.First(&store, "id = ?", storeID).Error; err != nil {
		t.Fatalf("load store: %v", err)
	}
	if store.ManagerID == nil || *store.ManagerID != worker {
		t.Fatalf("expected worker promoted to manager, got %+v", store.ManagerID)
	}

	// Dropping the sales facet clears the manager post too.
	no := false
	err = f.svc.Update(ctx, fact, worker, UpdateInput{IsSalesperson: &no})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if err := f.conn.First(&store, "id = ?", storeID).Error; err != nil {
		t.Fatalf("load store: %v", err)
	}
	if store.ManagerID != nil {
		t.Fatal("demotion must clear the manager post")
	}
	var count int64
	if err := f.conn.Model(&models.Salesperson{}).Where("employee_id = ?", worker).Count(&count).Error; err != nil {
		t.Fatalf("count salespeople: %v", err)
	}
	if count != 0 {
		t.Fatal("salesperson facet must be removed")
	}
}

func TestUpdateBasicsByStoreManager(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	boss := f.seedEmployee(t, "boss", "Store Manager")
	storeID := f.seedStore(t, "A", nil, &boss)
	seller := f.seedEmployee(t, "seller", "Sales Associate")
	f.seedSalesperson(t, storeID, seller)

	title := "Senior Sales Associate"
	salary := int64(6_000_000)
	yes := true
	err := f.svc.Update(ctx, managerFact(boss, storeID), seller, UpdateInput{
		JobTitle: &title,
		Salary:   &salary,
		// Facet changes from a store manager are ignored.
		IsManager: &yes,
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	var emp models.Employee
	if err := f.conn.First(&emp, "id = ?", seller).Error; err != nil {
		t.Fatalf("load employee: %v", err)
	}
	if emp.JobTitle != title || emp.Salary != salary {
		t.Fatalf("expected basics updated, got %+v", emp)
	}
	var store models.Store
	if err := f.conn.First(&store, "id = ?", storeID).Error; err != nil {
		t.Fatalf("load store: %v", err)
	}
	if store.ManagerID == nil || *store.ManagerID != boss {
		t.Fatal("facet change must be ignored for store managers")
	}
}

func TestDeleteRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	chief := f.seedEmployee(t, "chief", "Region Manager")
	regionID := f.seedRegion(t, "North", &chief)
	boss := f.seedEmployee(t, "boss", "Store Manager")
	storeID := f.seedStore(t, "A", &regionID, &boss)
	seller := f.seedEmployee(t, "seller", "Sales Associate")
	f.seedSalesperson(t, storeID, seller)
	fact := regionFact(chief, regionID)

	err := f.svc.Delete(ctx, managerFact(boss, storeID), seller)
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden for manager, got %v", err)
	}

	err = f.svc.Delete(ctx, fact, boss)
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict for store manager target, got %v", err)
	}

	if err := f.svc.Delete(ctx, fact, seller); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	var count int64
	if err := f.conn.Model(&models.Employee{}).Where("id = ?", seller).Count(&count).Error; err != nil {
		t.Fatalf("count employees: %v", err)
	}
	if count != 0 {
		t.Fatal("employee row must be gone")
	}
	if err := f.conn.Model(&models.Salesperson{}).Where("employee_id = ?", seller).Count(&count).Error; err != nil {
		t.Fatalf("count salespeople: %v", err)
	}
	if count != 0 {
		t.Fatal("salesperson facet must be gone")
	}
	if err := f.conn.Model(&models.Account{}).Where("email = ?", "seller@example.com").Count(&count).Error; err != nil {
		t.Fatalf("count accounts: %v", err)
	}
	if count != 0 {
		t.Fatal("account must be gone")
	}

	err = f.svc.Delete(ctx, fact, 4242)
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
