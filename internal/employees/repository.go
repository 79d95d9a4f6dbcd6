package employees

import (
	"context"
	"errors"
	"strings"

	"github.com/mfigueroa/retailhub-backend/pkg/db/models"
	pkgerrors "github.com/mfigueroa/retailhub-backend/pkg/errors"
	"github.com/mfigueroa/retailhub-backend/pkg/pagination"
	"gorm.io/gorm"
)

// Repository persists employee rows and their staffing facets.
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

// EmployeeIDsForStore collects the store's staff: its salespeople plus its
// manager when one is set.
func (r *Repository) EmployeeIDsForStore(ctx context.Context, storeID int64) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).
		Raw(`SELECT employee_id FROM salespeople WHERE store_id = ?
		     UNION
		     SELECT manager_id FROM stores WHERE id = ? AND manager_id IS NOT NULL`,
			storeID, storeID).
		Scan(&ids).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: store staff")
	}
	return ids, nil
}

// EmployeeIDsForRegion collects every salesperson and store manager across
// the region's stores plus the region manager.
func (r *Repository) EmployeeIDsForRegion(ctx context.Context, regionID int64) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).
		Raw(`SELECT sp.employee_id FROM salespeople sp
		     JOIN stores s ON s.id = sp.store_id
		     WHERE s.region_id = ?
		     UNION
		     SELECT manager_id FROM stores WHERE region_id = ? AND manager_id IS NOT NULL
		     UNION
		     SELECT manager_id FROM regions WHERE id = ? AND manager_id IS NOT NULL`,
			regionID, regionID, regionID).
		Scan(&ids).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: region staff")
	}
	return ids, nil
}

// ListFilter narrows employee listings.
type ListFilter struct {
	EmployeeIDs []int64
	StoreID     int64
	Search      string
}

type listRow struct {
	ID        int64
	AccountID int64
	Name      string
	Email     string
	JobTitle  string
	Salary    int64
}

// List returns employee rows joined with their account, plus the total count.
func (r *Repository) List(ctx context.Context, filter ListFilter, page pagination.Params) ([]listRow, int64, error) {
	query := r.db.WithContext(ctx).
		Table("employees e").
		Joins("JOIN accounts a ON a.id = e.account_id")
	if len(filter.EmployeeIDs) > 0 {
		query = query.Where("e.id IN ?", filter.EmployeeIDs)
	}
	if filter.StoreID > 0 {
		query = query.Where("e.id IN (SELECT employee_id FROM salespeople WHERE store_id = ?)", filter.StoreID)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(a.name) LIKE ? OR LOWER(a.email) LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: count employees")
	}

	var rows []listRow
	err := query.
		Select("e.id, e.account_id, a.name, a.email, e.job_title, e.salary").
		Order("e.id").
		Limit(page.Limit).
		Offset(page.Offset()).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list employees")
	}
	return rows, total, nil
}

// FindByID loads an employee row, nil when absent.
func (r *Repository) FindByID(ctx context.Context, id int64) (*models.Employee, error) {
	var employee models.Employee
	err := r.db.WithContext(ctx).First(&employee, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: find employee")
	}
	return &employee, nil
}

// EmailTaken reports whether an account already uses the email.
func (r *Repository) EmailTaken(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Account{}).Where("email = ?", email).Count(&count).Error
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: email taken")
	}
	return count > 0, nil
}

// CreateAccount inserts a login account.
func (r *Repository) CreateAccount(ctx context.Context, account *models.Account) error {
	if err := r.db.WithContext(ctx).Create(account).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: create account")
	}
	return nil
}

// CreateEmployee inserts an employee row.
func (r *Repository) CreateEmployee(ctx context.Context, employee *models.Employee) error {
	if err := r.db.WithContext(ctx).Create(employee).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: create employee")
	}
	return nil
}

// SaveEmployee writes the employee row.
func (r *Repository) SaveEmployee(ctx context.Context, employee *models.Employee) error {
	if err := r.db.WithContext(ctx).Save(employee).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: save employee")
	}
	return nil
}

// SalespersonByEmployee loads an employee's salesperson facet, nil when absent.
func (r *Repository) SalespersonByEmployee(ctx context.Context, employeeID int64) (*models.Salesperson, error) {
	var sp models.Salesperson
	err := r.db.WithContext(ctx).Where("employee_id = ?", employeeID).First(&sp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: salesperson by employee")
	}
	return &sp, nil
}

// CreateSalesperson inserts a salesperson facet.
func (r *Repository) CreateSalesperson(ctx context.Context, sp *models.Salesperson) error {
	if err := r.db.WithContext(ctx).Create(sp).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: create salesperson")
	}
	return nil
}

// SaveSalesperson writes a salesperson facet.
func (r *Repository) SaveSalesperson(ctx context.Context, sp *models.Salesperson) error {
	if err := r.db.WithContext(ctx).Save(sp).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: save salesperson")
	}
	return nil
}

// DeleteSalesperson removes a salesperson facet.
func (r *Repository) DeleteSalesperson(ctx context.Context, id int64) error {
	if err := r.db.WithContext(ctx).Delete(&models.Salesperson{}, "id = ?", id).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete salesperson")
	}
	return nil
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

// StoreManagedBy loads the store an employee manages, nil when none.
func (r *Repository) StoreManagedBy(ctx context.Context, employeeID int64) (*models.Store, error) {
	var store models.Store
	err := r.db.WithContext(ctx).Where("manager_id = ?", employeeID).First(&store).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: store managed by")
	}
	return &store, nil
}

// RegionManagedBy loads the region an employee manages, nil when none.
func (r *Repository) RegionManagedBy(ctx context.Context, employeeID int64) (*models.Region, error) {
	var region models.Region
	err := r.db.WithContext(ctx).Where("manager_id = ?", employeeID).First(&region).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: region managed by")
	}
	return &region, nil
}

// SaveStore writes a store row.
func (r *Repository) SaveStore(ctx context.Context, store *models.Store) error {
	if err := r.db.WithContext(ctx).Save(store).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: save store")
	}
	return nil
}

// AccountName returns the display name behind an account id.
func (r *Repository) AccountName(ctx context.Context, accountID int64) (string, error) {
	var name string
	err := r.db.WithContext(ctx).
		Raw(`SELECT name FROM accounts WHERE id = ?`, accountID).
		Scan(&name).Error
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: account name")
	}
	return name, nil
}

// DeleteEmployee removes the employee and its login account.
func (r *Repository) DeleteEmployee(ctx context.Context, employee *models.Employee) error {
	if err := r.db.WithContext(ctx).Delete(&models.Employee{}, "id = ?", employee.ID).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete employee")
	}
	if err := r.db.WithContext(ctx).Delete(&models.Account{}, "id = ?", employee.AccountID).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete account")
	}
	return nil
}
