package employees

import (
	"context"
	"fmt"
	"strings"

	"github.com/mfigueroa/retailhub-backend/internal/authz"
	"github.com/mfigueroa/retailhub-backend/internal/identity"
	"github.com/mfigueroa/retailhub-backend/pkg/config"
	"github.com/mfigueroa/retailhub-backend/pkg/db"
	"github.com/mfigueroa/retailhub-backend/pkg/db/models"
	pkgerrors "github.com/mfigueroa/retailhub-backend/pkg/errors"
	"github.com/mfigueroa/retailhub-backend/pkg/pagination"
	"github.com/mfigueroa/retailhub-backend/pkg/security"
	"gorm.io/gorm"
)

// Service administers the staff roster. Listing is scoped to the caller's
// store or region; facet changes are a region privilege.
type Service interface {
	List(ctx context.Context, fact identity.RoleFact, input ListInput) (*ListResult, error)
	Create(ctx context.Context, fact identity.RoleFact, input CreateInput) (int64, error)
	Update(ctx context.Context, fact identity.RoleFact, employeeID int64, input UpdateInput) error
	Delete(ctx context.Context, fact identity.RoleFact, employeeID int64) error
}

// ListInput narrows and pages an employee listing.
type ListInput struct {
	Search  string
	StoreID int64
	Page    pagination.Params
}

// EmployeeDTO is one staff member with resolved facet flags.
type EmployeeDTO struct {
	ID              int64  `json:"id"`
	AccountID       int64  `json:"account_id"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	JobTitle        string `json:"job_title"`
	Salary          int64  `json:"salary"`
	IsSalesperson   bool   `json:"is_salesperson"`
	IsManager       bool   `json:"is_manager"`
	IsRegionManager bool   `json:"is_region_manager"`
	StoreID         *int64 `json:"store_id,omitempty"`
	StoreName       string `json:"store_name,omitempty"`
}

// ListResult is a page of employees.
type ListResult struct {
	Employees []EmployeeDTO `json:"employees"`
	Total     int64         `json:"total"`
	Page      int           `json:"page"`
	Pages     int           `json:"pages"`
}

// CreateInput is the validated payload to hire an employee. StoreID and
// IsManager only apply to region callers; a store manager's hires land at
// their own store.
type CreateInput struct {
	Name          string
	Email         string
	Password      string
	JobTitle      string
	Salary        int64
	IsSalesperson bool
	StoreID       int64
	IsManager     bool
}

// UpdateInput carries optional staff mutations. The facet fields only apply
// to region callers.
type UpdateInput struct {
	JobTitle *string
	Salary   *int64

	IsSalesperson *bool
	StoreID       *int64
	IsManager     *bool
}

type service struct {
	repo     *Repository
	dbClient *db.Client
	scopes   authz.Service
	password config.PasswordConfig
}

// NewService constructs an employee administration service.
func NewService(repo *Repository, dbClient *db.Client, scopes authz.Service, password config.PasswordConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("employee repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if scopes == nil {
		return nil, fmt.Errorf("authz service required")
	}
	return &service{repo: repo, dbClient: dbClient, scopes: scopes, password: password}, nil
}

func (s *service) List(ctx context.Context, fact identity.RoleFact, input ListInput) (*ListResult, error) {
	pred, err := s.scopes.Scope(ctx, fact, authz.ResourceEmployees)
	if err != nil {
		return nil, err
	}
	if pred.Denied() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "employee access requires a manager role")
	}

	page := pagination.Normalize(input.Page)
	empty := &ListResult{Employees: []EmployeeDTO{}, Total: 0, Page: page.Page, Pages: 0}
	if pred.Empty() {
		return empty, nil
	}

	filter := ListFilter{Search: input.Search, StoreID: input.StoreID}
	switch pred.Kind {
	case authz.PredicateStoreID:
		ids, idsErr := s.repo.EmployeeIDsForStore(ctx, pred.StoreID)
		if idsErr != nil {
			return nil, idsErr
		}
		if len(ids) == 0 {
			return empty, nil
		}
		filter.EmployeeIDs = ids
	case authz.PredicateRegionID:
		ids, idsErr := s.repo.EmployeeIDsForRegion(ctx, pred.RegionID)
		if idsErr != nil {
			return nil, idsErr
		}
		if len(ids) == 0 {
			return empty, nil
		}
		filter.EmployeeIDs = ids
	}

	rows, total, err := s.repo.List(ctx, filter, page)
	if err != nil {
		return nil, err
	}

	result := make([]EmployeeDTO, 0, len(rows))
	for _, row := range rows {
		dto := EmployeeDTO{
			ID:        row.ID,
			AccountID: row.AccountID,
			Name:      row.Name,
			Email:     row.Email,
			JobTitle:  row.JobTitle,
			Salary:    row.Salary,
		}
		if err := s.fillFacets(ctx, &dto); err != nil {
			return nil, err
		}
		result = append(result, dto)
	}
	return &ListResult{Employees: result, Total: total, Page: page.Page, Pages: page.Pages(total)}, nil
}

func (s *service) fillFacets(ctx context.Context, dto *EmployeeDTO) error {
	region, err := s.repo.RegionManagedBy(ctx, dto.ID)
	if err != nil {
		return err
	}
	dto.IsRegionManager = region != nil

	sp, err := s.repo.SalespersonByEmployee(ctx, dto.ID)
	if err != nil {
		return err
	}
	if sp != nil {
		dto.IsSalesperson = true
		storeID := sp.StoreID
		dto.StoreID = &storeID
		store, storeErr := s.repo.FindStore(ctx, sp.StoreID)
		if storeErr != nil {
			return storeErr
		}
		if store != nil {
			dto.StoreName = store.Name
			dto.IsManager = store.ManagerID != nil && *store.ManagerID == dto.ID
		}
		return nil
	}

	managed, err := s.repo.StoreManagedBy(ctx, dto.ID)
	if err != nil {
		return err
	}
	if managed != nil {
		dto.IsManager = true
		storeID := managed.ID
		dto.StoreID = &storeID
		dto.StoreName = managed.Name
	}
	return nil
}

func (s *service) Create(ctx context.Context, fact identity.RoleFact, input CreateInput) (int64, error) {
	if !fact.IsEmployee() || (!fact.IsStoreManager && !fact.IsRegionManager) {
		return 0, pkgerrors.New(pkgerrors.CodeForbidden, "hiring requires a manager role")
	}
	input.Email = strings.TrimSpace(strings.ToLower(input.Email))
	if input.Name == "" || input.Email == "" || input.Password == "" || input.JobTitle == "" {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "name, email, password and job title are required")
	}

	taken, err := s.repo.EmailTaken(ctx, input.Email)
	if err != nil {
		return 0, err
	}
	if taken {
		return 0, pkgerrors.New(pkgerrors.CodeConflict, "email already exists")
	}

	hash, err := security.HashPassword(input.Password, s.password)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	var employeeID int64
	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		account := &models.Account{Email: input.Email, PasswordHash: hash, Name: input.Name}
		if txErr := repo.CreateAccount(ctx, account); txErr != nil {
			return txErr
		}
		employee := &models.Employee{AccountID: account.ID, JobTitle: input.JobTitle, Salary: input.Salary}
		if txErr := repo.CreateEmployee(ctx, employee); txErr != nil {
			return txErr
		}
		employeeID = employee.ID

		if !input.IsSalesperson {
			return nil
		}
		// Store managers can only staff their own store; region managers
		// choose any store inside their region.
		if fact.IsRegionManager {
			return s.assignForRegion(ctx, repo, fact, employee.ID, input)
		}
		return repo.CreateSalesperson(ctx, &models.Salesperson{EmployeeID: employee.ID, StoreID: fact.ManagedStoreID})
	})
	if err != nil {
		return 0, err
	}
	return employeeID, nil
}

func (s *service) assignForRegion(ctx context.Context, repo *Repository, fact identity.RoleFact, employeeID int64, input CreateInput) error {
	if input.StoreID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "store id required for a salesperson assignment")
	}
	store, err := repo.FindStore(ctx, input.StoreID)
	if err != nil {
		return err
	}
	if store == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid store")
	}
	if store.RegionID == nil || *store.RegionID != fact.ManagedRegionID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "you can only assign employees to stores in your region")
	}
	if err := repo.CreateSalesperson(ctx, &models.Salesperson{EmployeeID: employeeID, StoreID: store.ID}); err != nil {
		return err
	}
	if !input.IsManager {
		return nil
	}
	return s.promoteToManager(ctx, repo, store, employeeID)
}

// promoteToManager enforces the one-manager-per-store rule and surfaces the
// current holder in the conflict details.
func (s *service) promoteToManager(ctx context.Context, repo *Repository, store *models.Store, employeeID int64) error {
	if store.ManagerID != nil && *store.ManagerID != employeeID {
		existing, err := repo.FindByID(ctx, *store.ManagerID)
		if err != nil {
			return err
		}
		managerName := "Unknown"
		if existing != nil {
			name, nameErr := repo.AccountName(ctx, existing.AccountID)
			if nameErr != nil {
				return nameErr
			}
			if name != "" {
				managerName = name
			}
		}
		return pkgerrors.New(pkgerrors.CodeConflict, "store already has a manager").WithDetails(map[string]any{
			"store_id":         store.ID,
			"store_name":       store.Name,
			"manager_id":       *store.ManagerID,
			"manager_name":     managerName,
			"managers_allowed": 1,
		})
	}
	store.ManagerID = &employeeID
	return repo.SaveStore(ctx, store)
}

func (s *service) Update(ctx context.Context, fact identity.RoleFact, employeeID int64, input UpdateInput) error {
	if !fact.IsEmployee() || (!fact.IsStoreManager && !fact.IsRegionManager) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "employee updates require a manager role")
	}

	employee, err := s.repo.FindByID(ctx, employeeID)
	if err != nil {
		return err
	}
	if employee == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "employee not found")
	}

	return s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if input.JobTitle != nil {
			employee.JobTitle = *input.JobTitle
		}
		if input.Salary != nil {
			employee.Salary = *input.Salary
		}
		if txErr := repo.SaveEmployee(ctx, employee); txErr != nil {
			return txErr
		}

		// Facet transitions are a region privilege.
		if !fact.IsRegionManager {
			return nil
		}
		return s.applyFacetChanges(ctx, repo, employeeID, input)
	})
}

func (s *service) applyFacetChanges(ctx context.Context, repo *Repository, employeeID int64, input UpdateInput) error {
	sp, err := repo.SalespersonByEmployee(ctx, employeeID)
	if err != nil {
		return err
	}

	if input.IsSalesperson != nil {
		switch {
		case *input.IsSalesperson && sp == nil:
			if input.StoreID == nil {
				return pkgerrors.New(pkgerrors.CodeValidation, "store id required to make employee a salesperson")
			}
			sp = &models.Salesperson{EmployeeID: employeeID, StoreID: *input.StoreID}
			if txErr := repo.CreateSalesperson(ctx, sp); txErr != nil {
				return txErr
			}
		case !*input.IsSalesperson && sp != nil:
			// Dropping the sales facet also drops any manager post there.
			store, storeErr := repo.FindStore(ctx, sp.StoreID)
			if storeErr != nil {
				return storeErr
			}
			if store != nil && store.ManagerID != nil && *store.ManagerID == employeeID {
				store.ManagerID = nil
				if txErr := repo.SaveStore(ctx, store); txErr != nil {
					return txErr
				}
			}
			if txErr := repo.DeleteSalesperson(ctx, sp.ID); txErr != nil {
				return txErr
			}
			sp = nil
		}
	}

	if sp != nil && input.StoreID != nil && sp.StoreID != *input.StoreID {
		oldStore, storeErr := repo.FindStore(ctx, sp.StoreID)
		if storeErr != nil {
			return storeErr
		}
		if oldStore != nil && oldStore.ManagerID != nil && *oldStore.ManagerID == employeeID {
			oldStore.ManagerID = nil
			if txErr := repo.SaveStore(ctx, oldStore); txErr != nil {
				return txErr
			}
		}
		sp.StoreID = *input.StoreID
		if txErr := repo.SaveSalesperson(ctx, sp); txErr != nil {
			return txErr
		}
	}

	if input.IsManager != nil && sp != nil {
		store, storeErr := repo.FindStore(ctx, sp.StoreID)
		if storeErr != nil {
			return storeErr
		}
		if store == nil {
			return nil
		}
		if *input.IsManager {
			return s.promoteToManager(ctx, repo, store, employeeID)
		}
		if store.ManagerID != nil && *store.ManagerID == employeeID {
			store.ManagerID = nil
			return repo.SaveStore(ctx, store)
		}
	}
	return nil
}

func (s *service) Delete(ctx context.Context, fact identity.RoleFact, employeeID int64) error {
	if !fact.IsEmployee() || !fact.IsRegionManager {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only region managers can delete employees")
	}

	employee, err := s.repo.FindByID(ctx, employeeID)
	if err != nil {
		return err
	}
	if employee == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "employee not found")
	}

	managed, err := s.repo.StoreManagedBy(ctx, employeeID)
	if err != nil {
		return err
	}
	if managed != nil {
		return pkgerrors.New(pkgerrors.CodeConflict, "cannot delete a store manager, reassign the store first").
			WithDetails(map[string]any{"store_id": managed.ID, "store_name": managed.Name})
	}

	return s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		sp, txErr := repo.SalespersonByEmployee(ctx, employeeID)
		if txErr != nil {
			return txErr
		}
		if sp != nil {
			if txErr := repo.DeleteSalesperson(ctx, sp.ID); txErr != nil {
				return txErr
			}
		}
		return repo.DeleteEmployee(ctx, employee)
	})
}
