package authz

// Resource names the row families the scope engine can gate.
type Resource string

const (
	ResourceCustomers Resource = "customers"
	ResourceEmployees Resource = "employees"
	ResourceOrders    Resource = "orders"
	ResourceInventory Resource = "inventory"
	ResourceStores    Resource = "stores"
)

// PredicateKind enumerates the row filters a caller can be granted.
type PredicateKind int

const (
	// PredicateDenyAll rejects the caller outright (unknown principal, or a
	// role that can never touch the resource).
	PredicateDenyAll PredicateKind = iota
	// PredicateEmptySet means the caller is authenticated but holds no facet
	// granting rows here. Queries succeed and return nothing.
	PredicateEmptySet
	PredicateAllowAll
	PredicateCustomerIDs
	PredicateStoreID
	PredicateStoreIDs
	PredicateRegionID
	PredicateSalesID
)

// Predicate is the computed row filter for one caller on one resource. Only
// the field matching Kind is meaningful.
type Predicate struct {
	Kind        PredicateKind
	CustomerIDs []int64
	StoreID     int64
	StoreIDs    []int64
	RegionID    int64
	SalesID     int64
}

func DenyAll() Predicate  { return Predicate{Kind: PredicateDenyAll} }
func EmptySet() Predicate { return Predicate{Kind: PredicateEmptySet} }
func AllowAll() Predicate { return Predicate{Kind: PredicateAllowAll} }

func ByCustomerIDs(ids []int64) Predicate {
	return Predicate{Kind: PredicateCustomerIDs, CustomerIDs: ids}
}

func ByStoreID(id int64) Predicate {
	return Predicate{Kind: PredicateStoreID, StoreID: id}
}

func ByStoreIDs(ids []int64) Predicate {
	return Predicate{Kind: PredicateStoreIDs, StoreIDs: ids}
}

func ByRegionID(id int64) Predicate {
	return Predicate{Kind: PredicateRegionID, RegionID: id}
}

func BySalesID(employeeID int64) Predicate {
	return Predicate{Kind: PredicateSalesID, SalesID: employeeID}
}

// Denied reports whether the predicate rejects the caller outright.
func (p Predicate) Denied() bool {
	return p.Kind == PredicateDenyAll
}

// Empty reports whether the predicate can never match a row. A CustomerIDs
// grant over zero ids behaves like EmptySet.
func (p Predicate) Empty() bool {
	switch p.Kind {
	case PredicateEmptySet:
		return true
	case PredicateCustomerIDs:
		return len(p.CustomerIDs) == 0
	case PredicateStoreIDs:
		return len(p.StoreIDs) == 0
	default:
		return false
	}
}
