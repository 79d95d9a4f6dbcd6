package customers

import (
	"context"
	"errors"
	"strings"

	"github.com/mfigueroa/retailhub-backend/pkg/db/models"
	pkgerrors "github.com/mfigueroa/retailhub-backend/pkg/errors"
	"github.com/mfigueroa/retailhub-backend/pkg/pagination"
	"gorm.io/gorm"
)

// Repository persists customer rows and their profile subtables.
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

// ListFilter narrows customer listings.
type ListFilter struct {
	Kind        *int
	CustomerIDs []int64
	Search      string
}

type listRow struct {
	ID        int64
	AccountID int64
	Name      string
	Email     string
	Kind      int
	AddressID *int64
}

// List returns customer rows joined with their account, plus the total count.
func (r *Repository) List(ctx context.Context, filter ListFilter, page pagination.Params) ([]listRow, int64, error) {
	query := r.db.WithContext(ctx).
		Table("customers c").
		Joins("JOIN accounts a ON a.id = c.account_id")
	if filter.Kind != nil {
		query = query.Where("c.kind = ?", *filter.Kind)
	}
	if len(filter.CustomerIDs) > 0 {
		query = query.Where("c.id IN ?", filter.CustomerIDs)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(a.name) LIKE ? OR LOWER(a.email) LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: count customers")
	}

	var rows []listRow
	err := query.
		Select("c.id, c.account_id, a.name, a.email, c.kind, c.address_id").
		Order("c.id").
		Limit(page.Limit).
		Offset(page.Offset()).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list customers")
	}
	return rows, total, nil
}

// FindByID loads the customer row, nil when absent.
func (r *Repository) FindByID(ctx context.Context, id int64) (*models.Customer, error) {
	var customer models.Customer
	err := r.db.WithContext(ctx).First(&customer, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: find customer")
	}
	return &customer, nil
}

// FindAccount loads the login account for a customer.
func (r *Repository) FindAccount(ctx context.Context, accountID int64) (*models.Account, error) {
	var account models.Account
	err := r.db.WithContext(ctx).First(&account, "id = ?", accountID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: find account")
	}
	return &account, nil
}

// FindHomeProfile loads the home subtable row for a customer.
func (r *Repository) FindHomeProfile(ctx context.Context, customerID int64) (*models.HomeProfile, error) {
	var profile models.HomeProfile
	err := r.db.WithContext(ctx).First(&profile, "customer_id = ?", customerID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: find home profile")
	}
	return &profile, nil
}

// FindBusinessProfile loads the business subtable row for a customer.
func (r *Repository) FindBusinessProfile(ctx context.Context, customerID int64) (*models.BusinessProfile, error) {
	var profile models.BusinessProfile
	err := r.db.WithContext(ctx).First(&profile, "customer_id = ?", customerID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: find business profile")
	}
	return &profile, nil
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

// SaveCustomer writes the customer row.
func (r *Repository) SaveCustomer(ctx context.Context, customer *models.Customer) error {
	if err := r.db.WithContext(ctx).Save(customer).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: save customer")
	}
	return nil
}

// SaveHomeProfile writes the home subtable row.
func (r *Repository) SaveHomeProfile(ctx context.Context, profile *models.HomeProfile) error {
	if err := r.db.WithContext(ctx).Save(profile).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: save home profile")
	}
	return nil
}

// SaveBusinessProfile writes the business subtable row.
func (r *Repository) SaveBusinessProfile(ctx context.Context, profile *models.BusinessProfile) error {
	if err := r.db.WithContext(ctx).Save(profile).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: save business profile")
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

// PaidSpending sums the total of the customer's paid orders.
func (r *Repository) PaidSpending(ctx context.Context, customerID int64) (int64, error) {
	var total *int64
	err := r.db.WithContext(ctx).
		Raw(`SELECT SUM(total_amount) FROM orders WHERE customer_id = ? AND payment_status = ?`, customerID, true).
		Scan(&total).Error
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: paid spending")
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}

// OrderCount counts every order the customer has placed, paid or not.
func (r *Repository) OrderCount(ctx context.Context, customerID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Order{}).Where("customer_id = ?", customerID).Count(&count).Error
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: order count")
	}
	return count, nil
}

// SalesRef is one assignable salesperson with their display name.
type SalesRef struct {
	EmployeeID int64  `json:"employee_id"`
	Name       string `json:"name"`
	StoreID    int64  `json:"store_id"`
}

// SalesList returns every salesperson with a resolvable account name.
func (r *Repository) SalesList(ctx context.Context) ([]SalesRef, error) {
	var rows []SalesRef
	err := r.db.WithContext(ctx).
		Raw(`SELECT sp.employee_id, a.name, sp.store_id
		     FROM salespeople sp
		     JOIN employees e ON e.id = sp.employee_id
		     JOIN accounts a ON a.id = e.account_id
		     ORDER BY sp.employee_id`).
		Scan(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: sales list")
	}
	return rows, nil
}
