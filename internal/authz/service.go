package authz

import (
	"context"
	"fmt"

	"github.com/mfigueroa/retailhub-backend/internal/identity"
	pkgerrors "github.com/mfigueroa/retailhub-backend/pkg/errors"
)

// Service computes the row filter a resolved principal gets on a resource.
// Facets are checked broadest first, so an employee who both manages a region
// and sells at a store reads with the region grant where one exists.
type Service interface {
	Scope(ctx context.Context, fact identity.RoleFact, resource Resource) (Predicate, error)
	CanWriteInventory(ctx context.Context, fact identity.RoleFact, storeID int64) error
}

type service struct {
	repo *Repository
}

// NewService constructs a scope engine.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("authz repository required")
	}
	return &service{repo: repo}, nil
}

// OwnStore resolves "the caller's store": the salesperson assignment wins,
// then the managed store. The second result is false when neither facet
// carries a store.
func OwnStore(fact identity.RoleFact) (int64, bool) {
	switch {
	case fact.IsSalesperson:
		return fact.SalesStoreID, true
	case fact.IsStoreManager:
		return fact.ManagedStoreID, true
	default:
		return 0, false
	}
}

func (s *service) Scope(ctx context.Context, fact identity.RoleFact, resource Resource) (Predicate, error) {
	if fact.IsNone() && resource != ResourceStores {
		return DenyAll(), nil
	}

	switch resource {
	case ResourceCustomers:
		return s.customerScope(ctx, fact)
	case ResourceEmployees:
		return s.employeeScope(fact), nil
	case ResourceOrders:
		return s.orderScope(ctx, fact)
	case ResourceInventory:
		return s.inventoryScope(fact), nil
	case ResourceStores:
		return s.storeScope(fact), nil
	default:
		return DenyAll(), pkgerrors.New(pkgerrors.CodeInternal, fmt.Sprintf("unknown resource %q", resource))
	}
}

func (s *service) customerScope(ctx context.Context, fact identity.RoleFact) (Predicate, error) {
	if !fact.IsEmployee() {
		return DenyAll(), nil
	}
	switch {
	case fact.IsRegionManager:
		return AllowAll(), nil
	case fact.IsStoreManager:
		salesIDs, err := s.repo.SalespersonEmployeeIDsByStore(ctx, fact.ManagedStoreID)
		if err != nil {
			return DenyAll(), err
		}
		ids, err := s.repo.CustomerIDsBySalesIDs(ctx, salesIDs)
		if err != nil {
			return DenyAll(), err
		}
		return ByCustomerIDs(ids), nil
	case fact.IsSalesperson:
		ids, err := s.repo.CustomerIDsBySalesIDs(ctx, []int64{fact.EmployeeID})
		if err != nil {
			return DenyAll(), err
		}
		return ByCustomerIDs(ids), nil
	default:
		return EmptySet(), nil
	}
}

func (s *service) employeeScope(fact identity.RoleFact) Predicate {
	if !fact.IsEmployee() {
		return DenyAll()
	}
	switch {
	case fact.IsRegionManager:
		return ByRegionID(fact.ManagedRegionID)
	case fact.IsStoreManager:
		return ByStoreID(fact.ManagedStoreID)
	case fact.IsSalesperson:
		return DenyAll()
	default:
		return EmptySet()
	}
}

func (s *service) orderScope(ctx context.Context, fact identity.RoleFact) (Predicate, error) {
	_ = ctx
	if fact.IsCustomer() {
		return ByCustomerIDs([]int64{fact.CustomerID}), nil
	}
	if !fact.IsEmployee() {
		return DenyAll(), nil
	}
	switch {
	case fact.IsRegionManager:
		return AllowAll(), nil
	case fact.IsStoreManager:
		return ByStoreID(fact.ManagedStoreID), nil
	case fact.IsSalesperson:
		return BySalesID(fact.EmployeeID), nil
	default:
		return EmptySet(), nil
	}
}

func (s *service) inventoryScope(fact identity.RoleFact) Predicate {
	if !fact.IsEmployee() {
		return DenyAll()
	}
	switch {
	case fact.IsRegionManager:
		return ByRegionID(fact.ManagedRegionID)
	case fact.IsStoreManager:
		return ByStoreID(fact.ManagedStoreID)
	default:
		return EmptySet()
	}
}

func (s *service) storeScope(fact identity.RoleFact) Predicate {
	// Store reads are public; only the region facet narrows the listing.
	if fact.IsEmployee() && fact.IsRegionManager {
		return ByRegionID(fact.ManagedRegionID)
	}
	return AllowAll()
}

// CanWriteInventory gates stock mutations. A store manager may only touch the
// managed store; a mismatch is a hard authorization failure rather than an
// empty result. A region manager may write at any store.
func (s *service) CanWriteInventory(ctx context.Context, fact identity.RoleFact, storeID int64) error {
	_ = ctx
	if !fact.IsEmployee() {
		return pkgerrors.New(pkgerrors.CodeForbidden, "inventory write requires a manager role")
	}
	switch {
	case fact.IsRegionManager:
		return nil
	case fact.IsStoreManager:
		if fact.ManagedStoreID != storeID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "store managers may only modify their own store's inventory")
		}
		return nil
	default:
		return pkgerrors.New(pkgerrors.CodeForbidden, "inventory write requires a manager role")
	}
}
