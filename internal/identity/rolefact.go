package identity

import (
	"github.com/mfigueroa/retailhub-backend/pkg/enums"
)

// Kind classifies the principal behind an account id.
type Kind int

const (
	// KindNone means no customer or employee row exists for the account.
	KindNone Kind = iota
	KindCustomer
	KindEmployee
)

// RoleFact is the resolved identity of an authenticated account. For
// employees the facets are not exclusive: the same employee can appear as a
// salesperson, manage a store and manage a region at the same time, and the
// authorization layer consumes whichever facets apply to the resource.
type RoleFact struct {
	AccountID int64
	Kind      Kind

	// Customer facts.
	CustomerID   int64
	CustomerKind enums.CustomerKind

	// Employee facts.
	EmployeeID int64
	JobTitle   string

	IsSalesperson bool
	SalespersonID int64
	SalesStoreID  int64

	IsStoreManager bool
	ManagedStoreID int64

	IsRegionManager bool
	ManagedRegionID int64
}

// IsNone reports whether the account resolved to no known principal.
func (f RoleFact) IsNone() bool {
	return f.Kind == KindNone
}

// IsCustomer reports whether the principal is a customer.
func (f RoleFact) IsCustomer() bool {
	return f.Kind == KindCustomer
}

// IsEmployee reports whether the principal is an employee.
func (f RoleFact) IsEmployee() bool {
	return f.Kind == KindEmployee
}

// IsStaff reports whether the principal holds any employee facet.
func (f RoleFact) IsStaff() bool {
	return f.Kind == KindEmployee && (f.IsSalesperson || f.IsStoreManager || f.IsRegionManager)
}

// PrimaryRole collapses the fact into a single display role. Salesperson wins
// over the manager facets, matching how login has always labelled accounts.
func (f RoleFact) PrimaryRole() enums.ActorRole {
	switch {
	case f.Kind == KindCustomer:
		return enums.ActorRoleCustomer
	case f.Kind != KindEmployee:
		return ""
	case f.IsSalesperson:
		return enums.ActorRoleSalesperson
	case f.IsStoreManager:
		return enums.ActorRoleStoreManager
	case f.IsRegionManager:
		return enums.ActorRoleRegionManager
	default:
		return ""
	}
}
