package enums

import "fmt"

// CustomerKind distinguishes household customers from business customers.
type CustomerKind int

const (
	CustomerKindHome     CustomerKind = 0
	CustomerKindBusiness CustomerKind = 1
)

var customerKindNames = map[CustomerKind]string{
	CustomerKindHome:     "home",
	CustomerKindBusiness: "business",
}

// String implements fmt.Stringer.
func (c CustomerKind) String() string {
	if name, ok := customerKindNames[c]; ok {
		return name
	}
	return fmt.Sprintf("customer_kind(%d)", int(c))
}

// IsValid reports whether the value is a known CustomerKind.
func (c CustomerKind) IsValid() bool {
	_, ok := customerKindNames[c]
	return ok
}

// ParseCustomerKind converts raw input into a CustomerKind.
func ParseCustomerKind(value int) (CustomerKind, error) {
	kind := CustomerKind(value)
	if !kind.IsValid() {
		return 0, fmt.Errorf("invalid customer kind %d", value)
	}
	return kind, nil
}
