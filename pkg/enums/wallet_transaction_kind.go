package enums

import "fmt"

// WalletTransactionKind maps to the wallet_transaction_kind enum in Postgres.
type WalletTransactionKind string

const (
	WalletTransactionKindTopup            WalletTransactionKind = "topup"
	WalletTransactionKindWeightAdjustment WalletTransactionKind = "weight_adjustment"
)

var validWalletTransactionKinds = []WalletTransactionKind{
	WalletTransactionKindTopup,
	WalletTransactionKindWeightAdjustment,
}

// IsValid reports whether the value matches the canonical wallet transaction enum.
func (k WalletTransactionKind) IsValid() bool {
	for _, candidate := range validWalletTransactionKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseWalletTransactionKind converts raw input into WalletTransactionKind.
func ParseWalletTransactionKind(value string) (WalletTransactionKind, error) {
	for _, candidate := range validWalletTransactionKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid wallet transaction kind %q", value)
}
