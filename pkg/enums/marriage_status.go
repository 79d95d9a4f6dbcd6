package enums

import "fmt"

// MarriageStatus is a demographic attribute on household customer profiles.
type MarriageStatus int

const (
	MarriageStatusSingle   MarriageStatus = 0
	MarriageStatusMarried  MarriageStatus = 1
	MarriageStatusDivorced MarriageStatus = 2
	MarriageStatusWidowed  MarriageStatus = 3
)

var marriageStatusNames = map[MarriageStatus]string{
	MarriageStatusSingle:   "single",
	MarriageStatusMarried:  "married",
	MarriageStatusDivorced: "divorced",
	MarriageStatusWidowed:  "widowed",
}

// String implements fmt.Stringer.
func (m MarriageStatus) String() string {
	if name, ok := marriageStatusNames[m]; ok {
		return name
	}
	return fmt.Sprintf("marriage_status(%d)", int(m))
}

// IsValid reports whether the value is a known MarriageStatus.
func (m MarriageStatus) IsValid() bool {
	_, ok := marriageStatusNames[m]
	return ok
}

// ParseMarriageStatus converts raw input into a MarriageStatus.
func ParseMarriageStatus(value int) (MarriageStatus, error) {
	status := MarriageStatus(value)
	if !status.IsValid() {
		return 0, fmt.Errorf("invalid marriage status %d", value)
	}
	return status, nil
}
