package authz

import (
	"context"

	pkgerrors "github.com/mfigueroa/retailhub-backend/pkg/errors"
	"gorm.io/gorm"
)

// Repository runs the row lookups scope computation needs.
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

// CustomerIDsBySalesIDs returns ids of customers whose home or business
// profile is assigned to any of the given salesperson employee ids.
func (r *Repository) CustomerIDsBySalesIDs(ctx context.Context, salesEmployeeIDs []int64) ([]int64, error) {
	if len(salesEmployeeIDs) == 0 {
		return nil, nil
	}
	var ids []int64
	err := r.db.WithContext(ctx).Raw(
		`SELECT customer_id FROM home_profiles WHERE sales_id IN ?
		 UNION
		 SELECT customer_id FROM business_profiles WHERE sales_id IN ?`,
		salesEmployeeIDs, salesEmployeeIDs,
	).Scan(&ids).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: customer ids by sales")
	}
	return ids, nil
}

// SalespersonEmployeeIDsByStore returns the employee ids of every salesperson
// assigned to the store.
func (r *Repository) SalespersonEmployeeIDsByStore(ctx context.Context, storeID int64) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).
		Raw(`SELECT employee_id FROM salespeople WHERE store_id = ?`, storeID).
		Scan(&ids).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: salespeople by store")
	}
	return ids, nil
}

// StoreIDsByRegion returns the ids of every store in the region.
func (r *Repository) StoreIDsByRegion(ctx context.Context, regionID int64) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).
		Raw(`SELECT id FROM stores WHERE region_id = ?`, regionID).
		Scan(&ids).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: stores by region")
	}
	return ids, nil
}

// StoreRegionID returns the region id of a store, or zero when the store is
// unassigned or absent.
func (r *Repository) StoreRegionID(ctx context.Context, storeID int64) (int64, error) {
	var regionID *int64
	err := r.db.WithContext(ctx).
		Raw(`SELECT region_id FROM stores WHERE id = ?`, storeID).
		Scan(&regionID).Error
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: store region")
	}
	if regionID == nil {
		return 0, nil
	}
	return *regionID, nil
}
