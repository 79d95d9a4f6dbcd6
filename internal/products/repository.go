package products

import (
	"context"
	"errors"

	"github.com/mfigueroa/retailhub-backend/pkg/db/models"
	pkgerrors "github.com/mfigueroa/retailhub-backend/pkg/errors"
	"gorm.io/gorm"
)

// Repository persists catalog rows and reads their per-store availability.
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

// List returns catalog rows, optionally only those in stock at one store.
func (r *Repository) List(ctx context.Context, inStockStoreID *int64) ([]models.Product, error) {
	query := r.db.WithContext(ctx).Model(&models.Product{})
	if inStockStoreID != nil {
		query = query.Where(
			"id IN (?)",
			r.db.Model(&models.StoreInventory{}).
				Select("product_id").
				Where("store_id = ? AND stock > 0", *inStockStoreID),
		)
	}

	var rows []models.Product
	if err := query.Order("id").Find(&rows).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list products")
	}
	return rows, nil
}

// FindByID loads a catalog row, nil when absent.
func (r *Repository) FindByID(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: find product")
	}
	return &product, nil
}

// Categories returns the distinct non-empty category names, sorted.
func (r *Repository) Categories(ctx context.Context) ([]string, error) {
	var categories []string
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Distinct("kind").
		Where("kind IS NOT NULL AND kind <> ''").
		Order("kind").
		Pluck("kind", &categories).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: product categories")
	}
	return categories, nil
}

type availabilityRow struct {
	ProductID int64
	StoreID   int64
	StoreName string
	Stock     int
}

// Availability returns per-store stock rows. A nil productID covers the whole
// catalog for listing decoration.
func (r *Repository) Availability(ctx context.Context, productID *int64) ([]availabilityRow, error) {
	query := r.db.WithContext(ctx).
		Table("store_inventory si").
		Joins("JOIN stores s ON s.id = si.store_id").
		Select("si.product_id, si.store_id, s.name AS store_name, si.stock")
	if productID != nil {
		query = query.Where("si.product_id = ?", *productID)
	}

	var rows []availabilityRow
	if err := query.Order("si.store_id").Scan(&rows).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: product availability")
	}
	return rows, nil
}

// Save writes the catalog row.
func (r *Repository) Save(ctx context.Context, product *models.Product) error {
	if err := r.db.WithContext(ctx).Save(product).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: save product")
	}
	return nil
}

// Delete removes the catalog row.
func (r *Repository) Delete(ctx context.Context, product *models.Product) error {
	if err := r.db.WithContext(ctx).Delete(product).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete product")
	}
	return nil
}

// DeleteInventoryFor removes every stock row referencing a product.
func (r *Repository) DeleteInventoryFor(ctx context.Context, productID int64) error {
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Delete(&models.StoreInventory{}).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete product inventory")
	}
	return nil
}
