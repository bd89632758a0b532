package orders

import (
	"context"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/refund"

	pkgstripe "github.com/lotepro/lotepro-backend/pkg/stripe"
)

// StripeRefundClient exposes the refund operation the cancellation flow needs.
type StripeRefundClient interface {
	CreateRefund(ctx context.Context, params *stripe.RefundParams) (*stripe.Refund, error)
}

type stripeClientWrapper struct{}

// NewStripeClient wraps the provided Stripe client so the order service can
// be tested.
func NewStripeClient(api *pkgstripe.Client) StripeRefundClient {
	if api == nil {
		return nil
	}
	return &stripeClientWrapper{}
}

func (w *stripeClientWrapper) CreateRefund(ctx context.Context, params *stripe.RefundParams) (*stripe.Refund, error) {
	if params != nil {
		params.Context = ctx
	}
	return refund.New(params)
}
