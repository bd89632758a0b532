package fees

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var defaultPolicy = Policy{CommissionBps: 500, ProcessingBps: 399}

func TestComputeDefaultPolicy(t *testing.T) {
	// R$100.00 goods + R$5.00 shipping.
	b := Compute(10000, 10500, 500, defaultPolicy)

	assert.Equal(t, int64(500), b.CommissionCents)
	assert.Equal(t, int64(419), b.ProcessingCents) // 10500 * 399 / 10000 = 418.95, rounds up
	assert.Equal(t, int64(919), b.PlatformFeeCents)
	assert.Equal(t, int64(500), b.ReserveCents)
	assert.Equal(t, int64(9081), b.PayoutCents)
	assert.Equal(t, b.PayoutCents, 10500-b.PlatformFeeCents-b.ReserveCents)
}

func TestComputeNoReservePolicy(t *testing.T) {
	b := Compute(10000, 10000, 0, defaultPolicy)

	assert.Equal(t, int64(0), b.ReserveCents)
	assert.Equal(t, int64(500), b.CommissionCents)
	assert.Equal(t, int64(399), b.ProcessingCents)
	assert.Equal(t, int64(9101), b.PayoutCents)
}

func TestComputePayoutNeverNegative(t *testing.T) {
	// Absurd reserve policy eats the whole total.
	b := Compute(100, 100, 10000, Policy{CommissionBps: 500, ProcessingBps: 399})

	assert.Equal(t, int64(100), b.ReserveCents)
	assert.Equal(t, int64(0), b.PayoutCents)
}

func TestComputeHalfUpRounding(t *testing.T) {
	// 1990 * 500 / 10000 = 99.5 -> 100
	b := Compute(1990, 1990, 0, Policy{CommissionBps: 500})
	assert.Equal(t, int64(100), b.CommissionCents)

	// 1980 * 500 / 10000 = 99.0 -> 99
	b = Compute(1980, 1980, 0, Policy{CommissionBps: 500})
	assert.Equal(t, int64(99), b.CommissionCents)
}

func TestComputeZeroAmounts(t *testing.T) {
	b := Compute(0, 0, 500, defaultPolicy)
	assert.Zero(t, b.CommissionCents)
	assert.Zero(t, b.ProcessingCents)
	assert.Zero(t, b.ReserveCents)
	assert.Zero(t, b.PayoutCents)
}
