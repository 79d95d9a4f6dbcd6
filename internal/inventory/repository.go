package inventory

import (
	"context"
	"errors"

	"github.com/mfigueroa/retailhub-backend/pkg/db/models"
	pkgerrors "github.com/mfigueroa/retailhub-backend/pkg/errors"
	"github.com/mfigueroa/retailhub-backend/pkg/pagination"
	"gorm.io/gorm"
)

// Repository persists store inventory rows.
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

// DecrementStock atomically takes qty units off the shelf. The stock guard
// sits inside the UPDATE itself so two concurrent reservations cannot both
// pass a read check and oversell. Returns the number of rows affected.
func (r *Repository) DecrementStock(ctx context.Context, storeID, productID int64, qty int) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.StoreInventory{}).
		Where("store_id = ? AND product_id = ? AND stock >= ?", storeID, productID, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "db: decrement stock")
	}
	return res.RowsAffected, nil
}

// IncrementStock puts qty units back on the shelf. Returns the number of rows
// affected; zero means no inventory row exists for the pair.
func (r *Repository) IncrementStock(ctx context.Context, storeID, productID int64, qty int) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.StoreInventory{}).
		Where("store_id = ? AND product_id = ?", storeID, productID).
		UpdateColumn("stock", gorm.Expr("stock + ?", qty))
	if res.Error != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "db: increment stock")
	}
	return res.RowsAffected, nil
}

// Find loads the inventory row for a (store, product) pair, nil when absent.
func (r *Repository) Find(ctx context.Context, storeID, productID int64) (*models.StoreInventory, error) {
	var row models.StoreInventory
	err := r.db.WithContext(ctx).
		Where("store_id = ? AND product_id = ?", storeID, productID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: find inventory")
	}
	return &row, nil
}

// Save upserts the absolute stock level for a (store, product) pair.
func (r *Repository) Save(ctx context.Context, storeID, productID int64, stock int) (*models.StoreInventory, error) {
	existing, err := r.Find(ctx, storeID, productID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		row := models.StoreInventory{StoreID: storeID, ProductID: productID, Stock: stock}
		if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: create inventory")
		}
		return &row, nil
	}
	existing.Stock = stock
	if err := r.db.WithContext(ctx).Save(existing).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update inventory")
	}
	return existing, nil
}

// Delete removes the inventory row for a (store, product) pair.
func (r *Repository) Delete(ctx context.Context, storeID, productID int64) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("store_id = ? AND product_id = ?", storeID, productID).
		Delete(&models.StoreInventory{})
	if res.Error != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "db: delete inventory")
	}
	return res.RowsAffected, nil
}

// StoreExists reports whether a store row exists.
func (r *Repository) StoreExists(ctx context.Context, storeID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Store{}).Where("id = ?", storeID).Count(&count).Error
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: store exists")
	}
	return count > 0, nil
}

// ProductExists reports whether a product row exists.
func (r *Repository) ProductExists(ctx context.Context, productID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", productID).Count(&count).Error
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: product exists")
	}
	return count > 0, nil
}

// ListFilter narrows inventory listings.
type ListFilter struct {
	StoreID   int64
	StoreIDs  []int64
	RegionID  int64
	ProductID int64
}

// Row is an inventory line joined with its product and store names.
type Row struct {
	ID          int64  `json:"id"`
	StoreID     int64  `json:"store_id"`
	StoreName   string `json:"store_name"`
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name"`
	Price       int64  `json:"price"`
	Stock       int    `json:"stock"`
}

// List returns inventory rows matching the filter, newest first, plus the
// total row count for pagination.
func (r *Repository) List(ctx context.Context, filter ListFilter, page pagination.Params) ([]Row, int64, error) {
	query := r.db.WithContext(ctx).
		Table("store_inventory si").
		Joins("JOIN stores s ON s.id = si.store_id").
		Joins("JOIN products p ON p.id = si.product_id")
	if filter.StoreID > 0 {
		query = query.Where("si.store_id = ?", filter.StoreID)
	}
	if len(filter.StoreIDs) > 0 {
		query = query.Where("si.store_id IN ?", filter.StoreIDs)
	}
	if filter.RegionID > 0 {
		query = query.Where("s.region_id = ?", filter.RegionID)
	}
	if filter.ProductID > 0 {
		query = query.Where("si.product_id = ?", filter.ProductID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: count inventory")
	}

	var rows []Row
	err := query.
		Select("si.id, si.store_id, s.name AS store_name, si.product_id, p.name AS product_name, p.price, si.stock").
		Order("si.id DESC").
		Limit(page.Limit).
		Offset(page.Offset()).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list inventory")
	}
	return rows, total, nil
}
