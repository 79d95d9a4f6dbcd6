package enums

import "fmt"

// ActorRole is the request-scoped role resolved for an authenticated account.
// It names who the caller is acting as, not a stored attribute; the same
// account can resolve to different roles as staffing records change.
type ActorRole string

const (
	ActorRoleCustomer      ActorRole = "customer"
	ActorRoleSalesperson   ActorRole = "salesperson"
	ActorRoleStoreManager  ActorRole = "store_manager"
	ActorRoleRegionManager ActorRole = "region_manager"
)

var validActorRoles = []ActorRole{
	ActorRoleCustomer,
	ActorRoleSalesperson,
	ActorRoleStoreManager,
	ActorRoleRegionManager,
}

// String implements fmt.Stringer.
func (a ActorRole) String() string {
	return string(a)
}

// IsValid reports whether the value is a known ActorRole.
func (a ActorRole) IsValid() bool {
	for _, candidate := range validActorRoles {
		if candidate == a {
			return true
		}
	}
	return false
}

// IsEmployee reports whether the role belongs to the staff hierarchy.
func (a ActorRole) IsEmployee() bool {
	return a == ActorRoleSalesperson || a == ActorRoleStoreManager || a == ActorRoleRegionManager
}

// ParseActorRole converts raw input into an ActorRole.
func ParseActorRole(value string) (ActorRole, error) {
	for _, candidate := range validActorRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid actor role %q", value)
}
