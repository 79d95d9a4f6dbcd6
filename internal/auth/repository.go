package auth

import (
	"context"
	"errors"

	"github.com/mfigueroa/retailhub-backend/pkg/db/models"
	pkgerrors "github.com/mfigueroa/retailhub-backend/pkg/errors"
	"gorm.io/gorm"
)

// Repository persists accounts and reads the rows behind login and profiles.
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

// FindAccountByEmail loads an account by exact email, nil when absent.
func (r *Repository) FindAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	var account models.Account
	err := r.db.WithContext(ctx).First(&account, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: find account by email")
	}
	return &account, nil
}

// FindAccountByID loads an account row, nil when absent.
func (r *Repository) FindAccountByID(ctx context.Context, id int64) (*models.Account, error) {
	var account models.Account
	err := r.db.WithContext(ctx).First(&account, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: find account")
	}
	return &account, nil
}

// EmailTaken reports whether another account already owns the email.
func (r *Repository) EmailTaken(ctx context.Context, email string, excludeAccountID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("email = ? AND id <> ?", email, excludeAccountID).
		Count(&count).Error
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: email taken")
	}
	return count > 0, nil
}

// CreateAccount inserts the account row.
func (r *Repository) CreateAccount(ctx context.Context, account *models.Account) error {
	if err := r.db.WithContext(ctx).Create(account).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: create account")
	}
	return nil
}

// SaveAccount writes the account row.
func (r *Repository) SaveAccount(ctx context.Context, account *models.Account) error {
	if err := r.db.WithContext(ctx).Save(account).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: save account")
	}
	return nil
}

// CreateCustomer inserts the customer row.
func (r *Repository) CreateCustomer(ctx context.Context, customer *models.Customer) error {
	if err := r.db.WithContext(ctx).Create(customer).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: create customer")
	}
	return nil
}

// CreateHomeProfile inserts the household profile row.
func (r *Repository) CreateHomeProfile(ctx context.Context, profile *models.HomeProfile) error {
	if err := r.db.WithContext(ctx).Create(profile).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: create home profile")
	}
	return nil
}

// CreateBusinessProfile inserts the company profile row.
func (r *Repository) CreateBusinessProfile(ctx context.Context, profile *models.BusinessProfile) error {
	if err := r.db.WithContext(ctx).Create(profile).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: create business profile")
	}
	return nil
}

// FindCustomerByAccount loads the customer row for an account, nil when
// absent.
func (r *Repository) FindCustomerByAccount(ctx context.Context, accountID int64) (*models.Customer, error) {
	var customer models.Customer
	err := r.db.WithContext(ctx).First(&customer, "account_id = ?", accountID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: find customer by account")
	}
	return &customer, nil
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

// SaveHomeProfile writes the household profile row.
func (r *Repository) SaveHomeProfile(ctx context.Context, profile *models.HomeProfile) error {
	if err := r.db.WithContext(ctx).Save(profile).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: save home profile")
	}
	return nil
}

// SaveBusinessProfile writes the company profile row.
func (r *Repository) SaveBusinessProfile(ctx context.Context, profile *models.BusinessProfile) error {
	if err := r.db.WithContext(ctx).Save(profile).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: save business profile")
	}
	return nil
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

// SalesContactRow is the assigned salesperson's contact card.
type SalesContactRow struct {
	EmployeeID int64
	Name       string
	Email      string
	StoreID    int64
	StoreName  string
}

// SalesContact resolves an assigned salesperson's contact card, nil when the
// chain is broken.
func (r *Repository) SalesContact(ctx context.Context, salesEmployeeID int64) (*SalesContactRow, error) {
	var row SalesContactRow
	result := r.db.WithContext(ctx).
		Raw(`SELECT sp.employee_id, a.name, a.email, sp.store_id, s.name AS store_name
		     FROM salespeople sp
		     JOIN employees e ON e.id = sp.employee_id
		     JOIN accounts a ON a.id = e.account_id
		     JOIN stores s ON s.id = sp.store_id
		     WHERE sp.employee_id = ?`, salesEmployeeID).
		Scan(&row)
	if result.Error != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, result.Error, "db: sales contact")
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return &row, nil
}

// FindStore loads a store row, nil when absent.
func (r *Repository) FindStore(ctx context.Context, storeID int64) (*models.Store, error) {
	var store models.Store
	err := r.db.WithContext(ctx).First(&store, "id = ?", storeID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: find store")
	}
	return &store, nil
}

// FindRegion loads a region row, nil when absent.
func (r *Repository) FindRegion(ctx context.Context, regionID int64) (*models.Region, error) {
	var region models.Region
	err := r.db.WithContext(ctx).First(&region, "id = ?", regionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: find region")
	}
	return &region, nil
}

// EmployeeContactRow is a lightweight employee contact card.
type EmployeeContactRow struct {
	EmployeeID int64
	Name       string
	Email      string
}

// EmployeeContact resolves an employee's contact card, nil when absent.
func (r *Repository) EmployeeContact(ctx context.Context, employeeID int64) (*EmployeeContactRow, error) {
	var row EmployeeContactRow
	result := r.db.WithContext(ctx).
		Raw(`SELECT e.id AS employee_id, a.name, a.email
		     FROM employees e
		     JOIN accounts a ON a.id = e.account_id
		     WHERE e.id = ?`, employeeID).
		Scan(&row)
	if result.Error != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, result.Error, "db: employee contact")
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return &row, nil
}
