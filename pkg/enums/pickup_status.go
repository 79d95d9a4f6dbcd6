package enums

import "fmt"

// PickupStatus tracks the lifecycle of an order. The values are stored as
// integers; transitions only ever move forward or into Cancelled.
type PickupStatus int

const (
	PickupStatusOrdered   PickupStatus = 0
	PickupStatusPending   PickupStatus = 1
	PickupStatusComplete  PickupStatus = 2
	PickupStatusCancelled PickupStatus = 3
)

var validPickupStatuses = []PickupStatus{
	PickupStatusOrdered,
	PickupStatusPending,
	PickupStatusComplete,
	PickupStatusCancelled,
}

var pickupStatusNames = map[PickupStatus]string{
	PickupStatusOrdered:   "ordered",
	PickupStatusPending:   "pending",
	PickupStatusComplete:  "complete",
	PickupStatusCancelled: "cancelled",
}

// String implements fmt.Stringer.
func (p PickupStatus) String() string {
	if name, ok := pickupStatusNames[p]; ok {
		return name
	}
	return fmt.Sprintf("pickup_status(%d)", int(p))
}

// IsValid reports whether the value is a known PickupStatus.
func (p PickupStatus) IsValid() bool {
	for _, candidate := range validPickupStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are allowed.
func (p PickupStatus) IsTerminal() bool {
	return p == PickupStatusComplete || p == PickupStatusCancelled
}

// ParsePickupStatus converts raw input into a PickupStatus.
func ParsePickupStatus(value int) (PickupStatus, error) {
	status := PickupStatus(value)
	if !status.IsValid() {
		return 0, fmt.Errorf("invalid pickup status %d", value)
	}
	return status, nil
}
