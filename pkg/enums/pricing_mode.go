package enums

import "fmt"

// PricingMode selects how a product line is priced.
type PricingMode string

const (
	PricingModePerUnit  PricingMode = "per_unit"
	PricingModePerKgBox PricingMode = "per_kg_box"
)

var validPricingModes = []PricingMode{
	PricingModePerUnit,
	PricingModePerKgBox,
}

// IsValid reports whether the value is a known PricingMode.
func (m PricingMode) IsValid() bool {
	for _, candidate := range validPricingModes {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParsePricingMode converts raw input into a PricingMode.
func ParsePricingMode(value string) (PricingMode, error) {
	for _, candidate := range validPricingModes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid pricing mode %q", value)
}
