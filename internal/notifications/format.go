package notifications

import "fmt"

// FormatBRL renders cents as a Brazilian real amount, e.g. "R$ 105,00".
func FormatBRL(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%sR$ %d,%02d", sign, cents/100, cents%100)
}
