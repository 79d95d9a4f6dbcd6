package stores

import (
	"context"
	"errors"

	"github.com/mfigueroa/retailhub-backend/pkg/db/models"
	pkgerrors "github.com/mfigueroa/retailhub-backend/pkg/errors"
	"gorm.io/gorm"
)

// Repository persists store rows, their addresses and inventory reads.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// ListFilter narrows store listings.
type ListFilter struct {
	RegionID *int64
}

type listRow struct {
	ID          int64
	Name        string
	AddressID   *int64
	ManagerID   *int64
	ManagerName *string
	RegionID    *int64
	RegionName  *string
}

// List returns stores decorated with manager and region names.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]listRow, error) {
	query := r.db.WithContext(ctx).
		Table("stores s").
		Joins("LEFT JOIN employees e ON e.id = s.manager_id").
		Joins("LEFT JOIN accounts a ON a.id = e.account_id").
		Joins("LEFT JOIN regions rg ON rg.id = s.region_id")
	if filter.RegionID != nil {
		query = query.Where("s.region_id = ?", *filter.RegionID)
	}

	var rows []listRow
	err := query.
		Select("s.id, s.name, s.address_id, s.manager_id, a.name AS manager_name, s.region_id, rg.name AS region_name").
		Order("s.id").
		Scan(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list stores")
	}
	return rows, nil
}

// FindByID loads a store row, nil when absent.
func (r *Repository) FindByID(ctx context.Context, id int64) (*models.Store, error) {
	var store models.Store
	err := r.db.WithContext(ctx).First(&store, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: find store")
	}
	return &store, nil
}

// FindAddress loads an address row, nil when absent.
func (r *Repository) FindAddress(ctx context.Context, addressID int64) (*models.Address, error) {
	var address models.Address
	err := r.db.WithContext(ctx).First(&address, "id = ?", addressID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: find address")
	}
	return &address, nil
}

// SaveAddress inserts or updates an address row.
func (r *Repository) SaveAddress(ctx context.Context, address *models.Address) error {
	if err := r.db.WithContext(ctx).Save(address).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: save address")
	}
	return nil
}

// SaveStore writes the store row.
func (r *Repository) SaveStore(ctx context.Context, store *models.Store) error {
	if err := r.db.WithContext(ctx).Save(store).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: save store")
	}
	return nil
}

// DeleteStore removes the store row.
func (r *Repository) DeleteStore(ctx context.Context, store *models.Store) error {
	if err := r.db.WithContext(ctx).Delete(store).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete store")
	}
	return nil
}

// EmployeeExists reports whether an employee row exists.
func (r *Repository) EmployeeExists(ctx context.Context, employeeID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Employee{}).Where("id = ?", employeeID).Count(&count).Error
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: employee exists")
	}
	return count > 0, nil
}

// EmployeeName returns the account name behind an employee id, empty when
// the chain is broken.
func (r *Repository) EmployeeName(ctx context.Context, employeeID int64) (string, error) {
	var name string
	err := r.db.WithContext(ctx).
		Raw(`SELECT a.name FROM employees e JOIN accounts a ON a.id = e.account_id WHERE e.id = ?`, employeeID).
		Scan(&name).Error
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: employee name")
	}
	return name, nil
}

// RegionName returns the region row name, empty when absent.
func (r *Repository) RegionName(ctx context.Context, regionID int64) (string, error) {
	var name string
	err := r.db.WithContext(ctx).
		Raw(`SELECT name FROM regions WHERE id = ?`, regionID).
		Scan(&name).Error
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: region name")
	}
	return name, nil
}

type inventoryRow struct {
	ProductID   int64
	ProductName string
	Price       int64
	Kind        string
	ImageURL    *string
	Stock       int
}

// InventoryRows returns every stocked product at a store, catalog info joined.
func (r *Repository) InventoryRows(ctx context.Context, storeID int64) ([]inventoryRow, error) {
	var rows []inventoryRow
	err := r.db.WithContext(ctx).
		Table("store_inventory si").
		Joins("JOIN products p ON p.id = si.product_id").
		Select("si.product_id, p.name AS product_name, p.price, p.kind, p.image_url, si.stock").
		Where("si.store_id = ?", storeID).
		Order("si.product_id").
		Scan(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: store inventory")
	}
	return rows, nil
}

// InventoryRow loads one (store, product) stock row, nil when absent.
func (r *Repository) InventoryRow(ctx context.Context, storeID, productID int64) (*models.StoreInventory, error) {
	var row models.StoreInventory
	err := r.db.WithContext(ctx).
		First(&row, "store_id = ? AND product_id = ?", storeID, productID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: store inventory row")
	}
	return &row, nil
}

// InventoryCount counts stock rows at a store.
func (r *Repository) InventoryCount(ctx context.Context, storeID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.StoreInventory{}).Where("store_id = ?", storeID).Count(&count).Error
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: inventory count")
	}
	return count, nil
}

// SalespersonCount counts salespeople assigned to a store.
func (r *Repository) SalespersonCount(ctx context.Context, storeID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Salesperson{}).Where("store_id = ?", storeID).Count(&count).Error
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: salesperson count")
	}
	return count, nil
}
