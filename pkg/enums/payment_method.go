package enums

import "fmt"

// PaymentMethod is the instrument the buyer paid with.
type PaymentMethod string

const (
	PaymentMethodCard PaymentMethod = "card"
	PaymentMethodPix  PaymentMethod = "pix"
)

var validPaymentMethods = []PaymentMethod{
	PaymentMethodCard,
	PaymentMethodPix,
}

// IsValid reports whether the value is a known PaymentMethod.
func (m PaymentMethod) IsValid() bool {
	for _, candidate := range validPaymentMethods {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParsePaymentMethod converts raw input into a PaymentMethod.
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	for _, candidate := range validPaymentMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment method %q", value)
}
