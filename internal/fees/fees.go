package fees

// Policy carries the platform-wide fee basis points. Values are injected from
// configuration so the calculator stays a pure function.
type Policy struct {
	CommissionBps int
	ProcessingBps int
}

// Breakdown is the monetary split of one order, locked at creation time.
type Breakdown struct {
	CommissionCents  int64
	ProcessingCents  int64
	PlatformFeeCents int64
	ReserveCents     int64
	PayoutCents      int64
}

// Compute splits an order total into platform commission, processing fee,
// risk reserve and the net seller payout. Commission and reserve apply to the
// goods subtotal; processing applies to the charged total. The payout never
// goes negative.
func Compute(subtotalCents, totalCents int64, riskReserveBps int, policy Policy) Breakdown {
	commission := roundBps(subtotalCents, policy.CommissionBps)
	processing := roundBps(totalCents, policy.ProcessingBps)
	fee := commission + processing
	reserve := roundBps(subtotalCents, riskReserveBps)

	payout := totalCents - fee - reserve
	if payout < 0 {
		payout = 0
	}

	return Breakdown{
		CommissionCents:  commission,
		ProcessingCents:  processing,
		PlatformFeeCents: fee,
		ReserveCents:     reserve,
		PayoutCents:      payout,
	}
}

// roundBps applies basis points with half-up rounding in integer arithmetic.
func roundBps(amountCents int64, bps int) int64 {
	if amountCents <= 0 || bps <= 0 {
		return 0
	}
	return (amountCents*int64(bps) + 5000) / 10000
}
