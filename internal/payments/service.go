package payments

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"

	"github.com/lotepro/lotepro-backend/internal/buyers"
	"github.com/lotepro/lotepro-backend/internal/orders"
	"github.com/lotepro/lotepro-backend/internal/sellers"
	"github.com/lotepro/lotepro-backend/pkg/db/models"
	"github.com/lotepro/lotepro-backend/pkg/enums"
	pkgerrors "github.com/lotepro/lotepro-backend/pkg/errors"
	"github.com/lotepro/lotepro-backend/pkg/logger"
)

const (
	chargeCurrency = "brl"
	pixExpirySecs  = 3600
)

// Config holds the client-facing Stripe settings.
type Config struct {
	PublishableKey string
}

// Service initiates Stripe charges for pending orders.
type Service interface {
	PaymentSheet(ctx context.Context, input PaymentSheetInput) (*PaymentSheetOutput, error)
	Pix(ctx context.Context, input PixInput) (*PixOutput, error)
}

type service struct {
	ordersRepo  orders.Repository
	buyersRepo  buyers.Repository
	sellersRepo sellers.Repository
	stripe      StripePaymentClient
	logg        *logger.Logger
	cfg         Config
}

// NewService wires a payment service with the provided dependencies.
func NewService(ordersRepo orders.Repository, buyersRepo buyers.Repository, sellersRepo sellers.Repository, stripeClient StripePaymentClient, logg *logger.Logger, cfg Config) (Service, error) {
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if buyersRepo == nil {
		return nil, fmt.Errorf("buyers repository required")
	}
	if sellersRepo == nil {
		return nil, fmt.Errorf("sellers repository required")
	}
	if stripeClient == nil {
		return nil, fmt.Errorf("stripe payment client required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		ordersRepo:  ordersRepo,
		buyersRepo:  buyersRepo,
		sellersRepo: sellersRepo,
		stripe:      stripeClient,
		logg:        logg,
		cfg:         cfg,
	}, nil
}

// PaymentSheet prepares a card payment for the mobile payment sheet: the
// buyer's Stripe customer, an ephemeral key and a destination-charge payment
// intent carrying the platform fee.
func (s *service) PaymentSheet(ctx context.Context, input PaymentSheetInput) (*PaymentSheetOutput, error) {
	order, seller, err := s.payableOrder(ctx, input.OrderID, input.BuyerID)
	if err != nil {
		return nil, err
	}

	customerID, err := s.ensureCustomer(ctx, input.BuyerID)
	if err != nil {
		return nil, err
	}

	keyParams := &stripe.EphemeralKeyParams{
		Customer:      stripe.String(customerID),
		StripeVersion: stripe.String(stripe.APIVersion),
	}
	key, err := s.stripe.CreateEphemeralKey(ctx, keyParams)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating ephemeral key")
	}

	params := s.intentParams(order, seller, input.BuyerID)
	params.Customer = stripe.String(customerID)
	params.PaymentMethodTypes = stripe.StringSlice([]string{"card"})
	params.Description = stripe.String(fmt.Sprintf("Pedido %s - LotePro", order.ID))

	pi, err := s.stripe.CreatePaymentIntent(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating payment intent")
	}

	if err := s.markProcessing(ctx, order.ID, pi.ID, enums.PaymentMethodCard); err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"order_id":          order.ID.String(),
		"payment_intent_id": pi.ID,
	}), "card payment initiated")

	return &PaymentSheetOutput{
		PaymentIntentClientSecret:  pi.ClientSecret,
		CustomerID:                 customerID,
		CustomerEphemeralKeySecret: key.Secret,
		PublishableKey:             s.cfg.PublishableKey,
	}, nil
}

// Pix creates a Pix payment intent for the order and returns the QR code the
// client renders.
func (s *service) Pix(ctx context.Context, input PixInput) (*PixOutput, error) {
	order, seller, err := s.payableOrder(ctx, input.OrderID, input.BuyerID)
	if err != nil {
		return nil, err
	}

	params := s.intentParams(order, seller, input.BuyerID)
	params.PaymentMethodTypes = stripe.StringSlice([]string{"pix"})
	params.Description = stripe.String(fmt.Sprintf("Pedido %s - LotePro (Pix)", order.ID))
	params.PaymentMethodOptions = &stripe.PaymentIntentPaymentMethodOptionsParams{
		Pix: &stripe.PaymentIntentPaymentMethodOptionsPixParams{
			ExpiresAfterSeconds: stripe.Int64(pixExpirySecs),
		},
	}

	pi, err := s.stripe.CreatePaymentIntent(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating pix payment intent")
	}

	if err := s.markProcessing(ctx, order.ID, pi.ID, enums.PaymentMethodPix); err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"order_id":          order.ID.String(),
		"payment_intent_id": pi.ID,
	}), "pix payment initiated")

	out := &PixOutput{
		PaymentIntentID: pi.ID,
		ClientSecret:    pi.ClientSecret,
		SubtotalCents:   order.SubtotalCents,
		ShippingCents:   order.ShippingCents,
		TotalCents:      order.TotalCents,
	}
	if pi.NextAction != nil && pi.NextAction.PixDisplayQRCode != nil {
		qr := pi.NextAction.PixDisplayQRCode
		out.Pix = &PixQRCode{
			Data:                  qr.Data,
			ExpiresAt:             qr.ExpiresAt,
			HostedInstructionsURL: qr.HostedInstructionsURL,
			ImageURLPNG:           qr.ImageURLPNG,
			ImageURLSVG:           qr.ImageURLSVG,
		}
	}
	return out, nil
}

// payableOrder loads the buyer's order and its seller and enforces the
// charge preconditions.
func (s *service) payableOrder(ctx context.Context, orderID, buyerID uuid.UUID) (*models.Order, *models.Seller, error) {
	if orderID == uuid.Nil {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.ordersRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "order not found")
	}
	if order.BuyerID != buyerID {
		return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if order.Status != enums.OrderStatusPendingPayment {
		return nil, nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is not payable")
	}

	seller, err := s.sellersRepo.FindByID(ctx, order.SellerID)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading seller")
	}
	if !seller.PayoutReady() {
		return nil, nil, pkgerrors.New(pkgerrors.CodeBusinessRule, "seller is not ready to receive payouts")
	}
	return order, seller, nil
}

func (s *service) intentParams(order *models.Order, seller *models.Seller, buyerID uuid.UUID) *stripe.PaymentIntentParams {
	params := &stripe.PaymentIntentParams{
		Amount:               stripe.Int64(order.TotalCents),
		Currency:             stripe.String(chargeCurrency),
		ApplicationFeeAmount: stripe.Int64(order.PlatformFeeCents),
		TransferData: &stripe.PaymentIntentTransferDataParams{
			Destination: stripe.String(*seller.StripeAccountID),
			Amount:      stripe.Int64(order.SellerPayoutCents),
		},
	}
	params.AddMetadata("order_id", order.ID.String())
	params.AddMetadata("seller_id", order.SellerID.String())
	params.AddMetadata("buyer_id", buyerID.String())
	params.AddMetadata("buyer_channel", string(order.BuyerChannel))
	params.AddMetadata("platform_fee_cents", strconv.FormatInt(order.PlatformFeeCents, 10))
	params.AddMetadata("risk_reserve_cents", strconv.FormatInt(order.RiskReserveCents, 10))
	params.AddMetadata("seller_payout_cents", strconv.FormatInt(order.SellerPayoutCents, 10))
	return params
}

// ensureCustomer returns the buyer's Stripe customer, creating and storing
// one on first use.
func (s *service) ensureCustomer(ctx context.Context, buyerID uuid.UUID) (string, error) {
	buyer, err := s.buyersRepo.FindByID(ctx, buyerID)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "buyer profile not found")
	}
	if buyer.StripeCustomerID != nil && *buyer.StripeCustomerID != "" {
		return *buyer.StripeCustomerID, nil
	}

	params := &stripe.CustomerParams{Email: stripe.String(buyer.Email)}
	params.AddMetadata("buyer_id", buyerID.String())
	cus, err := s.stripe.CreateCustomer(ctx, params)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating stripe customer")
	}
	if err := s.buyersRepo.UpdateStripeCustomerID(ctx, buyerID, cus.ID); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "storing stripe customer id")
	}
	return cus.ID, nil
}

func (s *service) markProcessing(ctx context.Context, orderID uuid.UUID, paymentIntentID string, method enums.PaymentMethod) error {
	updates := map[string]any{
		"payment_method":           method,
		"stripe_payment_intent_id": paymentIntentID,
		"payment_status":           enums.PaymentStatusProcessing,
	}
	if err := s.ordersRepo.UpdateOrder(ctx, orderID, updates); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating order payment state")
	}
	return nil
}
