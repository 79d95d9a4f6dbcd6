package identity

import (
	"context"
	"errors"

	"github.com/mfigueroa/retailhub-backend/pkg/db/models"
	pkgerrors "github.com/mfigueroa/retailhub-backend/pkg/errors"
	"gorm.io/gorm"
)

// Repository reads the identity rows a role fact is assembled from. Lookups
// return (nil, nil) when the row does not exist; absence is a normal outcome
// here, not a failure.
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

// FindCustomerByAccountID loads the customer row for an account, if any.
func (r *Repository) FindCustomerByAccountID(ctx context.Context, accountID int64) (*models.Customer, error) {
	var customer models.Customer
	err := r.db.WithContext(ctx).Where("account_id = ?", accountID).First(&customer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: find customer by account")
	}
	return &customer, nil
}

// FindEmployeeByAccountID loads the employee row for an account, if any.
func (r *Repository) FindEmployeeByAccountID(ctx context.Context, accountID int64) (*models.Employee, error) {
	var employee models.Employee
	err := r.db.WithContext(ctx).Where("account_id = ?", accountID).First(&employee).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: find employee by account")
	}
	return &employee, nil
}

// FindSalespersonByEmployeeID loads the salesperson facet for an employee.
func (r *Repository) FindSalespersonByEmployeeID(ctx context.Context, employeeID int64) (*models.Salesperson, error) {
	var sp models.Salesperson
	err := r.db.WithContext(ctx).Where("employee_id = ?", employeeID).First(&sp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: find salesperson by employee")
	}
	return &sp, nil
}

// FindStoreByManagerID loads the store an employee manages, if any.
func (r *Repository) FindStoreByManagerID(ctx context.Context, employeeID int64) (*models.Store, error) {
	var store models.Store
	err := r.db.WithContext(ctx).Where("manager_id = ?", employeeID).First(&store).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: find store by manager")
	}
	return &store, nil
}

// FindRegionByManagerID loads the region an employee manages, if any.
func (r *Repository) FindRegionByManagerID(ctx context.Context, employeeID int64) (*models.Region, error) {
	var region models.Region
	err := r.db.WithContext(ctx).Where("manager_id = ?", employeeID).First(&region).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: find region by manager")
	}
	return &region, nil
}
