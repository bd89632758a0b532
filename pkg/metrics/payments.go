package metrics

import "github.com/prometheus/client_golang/prometheus"

// PaymentMetrics counts webhook traffic and reserve settlement activity.
type PaymentMetrics struct {
	webhookEvents   *prometheus.CounterVec
	reserveReleases *prometheus.CounterVec
	reserveCents    *prometheus.CounterVec
}

// NewPaymentMetrics registers the payment metrics on the provided registerer.
func NewPaymentMetrics(reg prometheus.Registerer) *PaymentMetrics {
	if reg == nil {
		return &PaymentMetrics{}
	}
	webhookEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stripe_webhook_events_total",
		Help: "Stripe webhook events by type and outcome.",
	}, []string{"type", "outcome"})
	reserveReleases := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reserve_releases_total",
		Help: "Risk reserve release attempts by outcome.",
	}, []string{"outcome"})
	reserveCents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reserve_released_cents_total",
		Help: "Total cents transferred back to sellers from released reserves.",
	}, []string{"outcome"})
	reg.MustRegister(webhookEvents, reserveReleases, reserveCents)
	return &PaymentMetrics{
		webhookEvents:   webhookEvents,
		reserveReleases: reserveReleases,
		reserveCents:    reserveCents,
	}
}

// IncWebhookEvent counts one processed webhook event.
func (p *PaymentMetrics) IncWebhookEvent(eventType, outcome string) {
	if p == nil || p.webhookEvents == nil {
		return
	}
	p.webhookEvents.WithLabelValues(normalizeLabel(eventType), normalizeLabel(outcome)).Inc()
}

// ObserveReserveRelease counts one reserve release attempt and its amount.
func (p *PaymentMetrics) ObserveReserveRelease(outcome string, amountCents int64) {
	if p == nil || p.reserveReleases == nil {
		return
	}
	p.reserveReleases.WithLabelValues(normalizeLabel(outcome)).Inc()
	if amountCents > 0 {
		p.reserveCents.WithLabelValues(normalizeLabel(outcome)).Add(float64(amountCents))
	}
}
