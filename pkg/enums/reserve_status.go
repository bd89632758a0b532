package enums

import "fmt"

// ReserveStatus tracks a held risk-reserve slice through release.
type ReserveStatus string

const (
	ReserveStatusHeld     ReserveStatus = "held"
	ReserveStatusReleased ReserveStatus = "released"
	ReserveStatusCanceled ReserveStatus = "canceled"
)

var validReserveStatuses = []ReserveStatus{
	ReserveStatusHeld,
	ReserveStatusReleased,
	ReserveStatusCanceled,
}

// IsValid reports whether the value is a known ReserveStatus.
func (s ReserveStatus) IsValid() bool {
	for _, candidate := range validReserveStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseReserveStatus converts raw input into a ReserveStatus.
func ParseReserveStatus(value string) (ReserveStatus, error) {
	for _, candidate := range validReserveStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid reserve status %q", value)
}
