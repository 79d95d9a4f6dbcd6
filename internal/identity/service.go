package identity

import (
	"context"
	"fmt"
)

// Service resolves an account id into the role facts the authorization layer
// consumes. Resolution is a pure read; it never mutates state.
type Service interface {
	Resolve(ctx context.Context, accountID int64) (RoleFact, error)
}

type service struct {
	repo *Repository
}

// NewService constructs an identity resolver.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("identity repository required")
	}
	return &service{repo: repo}, nil
}

// Resolve probes the customer row first, then the employee row and its
// facets. An account with neither row resolves to KindNone with a nil error.
func (s *service) Resolve(ctx context.Context, accountID int64) (RoleFact, error) {
	fact := RoleFact{AccountID: accountID}
	if accountID <= 0 {
		return fact, nil
	}

	customer, err := s.repo.FindCustomerByAccountID(ctx, accountID)
	if err != nil {
		return RoleFact{}, err
	}
	if customer != nil {
		fact.Kind = KindCustomer
		fact.CustomerID = customer.ID
		fact.CustomerKind = customer.Kind
		return fact, nil
	}

	employee, err := s.repo.FindEmployeeByAccountID(ctx, accountID)
	if err != nil {
		return RoleFact{}, err
	}
	if employee == nil {
		return fact, nil
	}
	fact.Kind = KindEmployee
	fact.EmployeeID = employee.ID
	fact.JobTitle = employee.JobTitle

	sp, err := s.repo.FindSalespersonByEmployeeID(ctx, employee.ID)
	if err != nil {
		return RoleFact{}, err
	}
	if sp != nil {
		fact.IsSalesperson = true
		fact.SalespersonID = sp.ID
		fact.SalesStoreID = sp.StoreID
	}

	store, err := s.repo.FindStoreByManagerID(ctx, employee.ID)
	if err != nil {
		return RoleFact{}, err
	}
	if store != nil {
		fact.IsStoreManager = true
		fact.ManagedStoreID = store.ID
	}

	region, err := s.repo.FindRegionByManagerID(ctx, employee.ID)
	if err != nil {
		return RoleFact{}, err
	}
	if region != nil {
		fact.IsRegionManager = true
		fact.ManagedRegionID = region.ID
	}

	return fact, nil
}
