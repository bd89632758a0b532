package stripewebhook

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/lotepro/lotepro-backend/internal/buyers"
	"github.com/lotepro/lotepro-backend/internal/idempotency"
	"github.com/lotepro/lotepro-backend/internal/notifications"
	"github.com/lotepro/lotepro-backend/internal/orders"
	"github.com/lotepro/lotepro-backend/internal/reserves"
	"github.com/lotepro/lotepro-backend/internal/sellers"
	"github.com/lotepro/lotepro-backend/internal/wallet"
	"github.com/lotepro/lotepro-backend/pkg/enums"
	pkgerrors "github.com/lotepro/lotepro-backend/pkg/errors"
	"github.com/lotepro/lotepro-backend/pkg/logger"
	"github.com/lotepro/lotepro-backend/pkg/metrics"
)

const eventSource = "stripe"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams bundles the webhook service dependencies.
type ServiceParams struct {
	OrdersRepo        orders.Repository
	BuyersRepo        buyers.Repository
	SellersRepo       sellers.Repository
	Sellers           sellers.Service
	Wallet            wallet.Service
	Reserves          reserves.Service
	Idempotency       idempotency.Repository
	Notifier          notifications.Notifier
	TransactionRunner txRunner
	Logger            *logger.Logger
	Metrics           *metrics.PaymentMetrics
}

// Service applies Stripe events to the order, wallet and reserve state.
type Service struct {
	ordersRepo  orders.Repository
	buyersRepo  buyers.Repository
	sellersRepo sellers.Repository
	sellers     sellers.Service
	wallet      wallet.Service
	reserves    reserves.Service
	idempotency idempotency.Repository
	notifier    notifications.Notifier
	txRunner    txRunner
	logg        *logger.Logger
	metrics     *metrics.PaymentMetrics
	now         func() time.Time
}

// NewService wires the webhook processor.
func NewService(params ServiceParams) (*Service, error) {
	if params.OrdersRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "orders repo required")
	}
	if params.BuyersRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "buyers repo required")
	}
	if params.SellersRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "sellers repo required")
	}
	if params.Sellers == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "sellers service required")
	}
	if params.Wallet == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "wallet service required")
	}
	if params.Reserves == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "reserves service required")
	}
	if params.Idempotency == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "idempotency repo required")
	}
	if params.Notifier == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "notifier required")
	}
	if params.TransactionRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &Service{
		ordersRepo:  params.OrdersRepo,
		buyersRepo:  params.BuyersRepo,
		sellersRepo: params.SellersRepo,
		sellers:     params.Sellers,
		wallet:      params.Wallet,
		reserves:    params.Reserves,
		idempotency: params.Idempotency,
		notifier:    params.Notifier,
		txRunner:    params.TransactionRunner,
		logg:        params.Logger,
		metrics:     params.Metrics,
		now:         time.Now,
	}, nil
}

// HandleEvent routes a verified Stripe event. Unknown event types are
// acknowledged without action so Stripe stops retrying them.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}
	ctx = s.logg.WithFields(ctx, map[string]any{
		"event_id":   event.ID,
		"event_type": string(event.Type),
	})

	var err error
	outcome := "handled"
	switch event.Type {
	case stripe.EventTypePaymentIntentSucceeded:
		outcome, err = s.handleSucceeded(ctx, event)
	case stripe.EventTypePaymentIntentPaymentFailed:
		outcome, err = s.handleOrderPaymentState(ctx, event, enums.OrderStatusPendingPayment, enums.PaymentStatusFailed)
	case stripe.EventTypePaymentIntentCanceled:
		outcome, err = s.handleOrderPaymentState(ctx, event, enums.OrderStatusCanceled, enums.PaymentStatusCanceled)
	case stripe.EventTypeAccountUpdated:
		var account stripe.Account
		if decodeErr := json.Unmarshal(event.Data.Raw, &account); decodeErr != nil {
			err = pkgerrors.Wrap(pkgerrors.CodeDependency, decodeErr, "decode account event")
			break
		}
		err = s.sellers.SyncAccountStatus(ctx, &account)
	default:
		outcome = "ignored"
	}
	if err != nil {
		outcome = "error"
	}
	s.metrics.IncWebhookEvent(string(event.Type), outcome)
	return err
}

// handleSucceeded credits a wallet topup or marks the order paid. Both
// branches run under a single transaction keyed on the event id so a Stripe
// retry cannot apply the money twice.
func (s *Service) handleSucceeded(ctx context.Context, event *stripe.Event) (string, error) {
	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return "error", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode payment intent event")
	}

	outcome := "handled"
	var paidOrderID *uuid.UUID
	err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		claimed, err := s.idempotency.WithTx(tx).Claim(ctx, eventSource, event.ID)
		if err != nil {
			return err
		}
		if !claimed {
			outcome = "duplicate"
			return nil
		}

		if pi.Metadata["wallet_topup"] == "true" {
			return s.applyWalletTopup(ctx, tx, &pi)
		}
		orderID, err := s.orderIDFromMetadata(&pi)
		if err != nil || orderID == uuid.Nil {
			return err
		}
		if err := s.markOrderPaid(ctx, tx, orderID, &pi); err != nil {
			return err
		}
		paidOrderID = &orderID
		return nil
	})
	if err != nil {
		return "error", err
	}

	if paidOrderID != nil {
		// Notification failures never fail the webhook; Stripe would retry
		// an already committed payment.
		if notifyErr := s.notifySellerOrderPaid(ctx, *paidOrderID); notifyErr != nil {
			s.logg.Error(ctx, "order paid notification failed", notifyErr)
		}
	}
	return outcome, nil
}

func (s *Service) orderIDFromMetadata(pi *stripe.PaymentIntent) (uuid.UUID, error) {
	raw := pi.Metadata["order_id"]
	if raw == "" {
		return uuid.Nil, nil
	}
	orderID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id metadata")
	}
	return orderID, nil
}

func (s *Service) applyWalletTopup(ctx context.Context, tx *gorm.DB, pi *stripe.PaymentIntent) error {
	raw := pi.Metadata["buyer_id"]
	if raw == "" {
		s.logg.Warn(ctx, "wallet topup without buyer metadata, ignoring")
		return nil
	}
	buyerID, err := uuid.Parse(raw)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid buyer id metadata")
	}
	if pi.Amount <= 0 {
		return nil
	}
	credited, err := s.wallet.Topup(ctx, tx, wallet.TopupInput{
		BuyerID:         buyerID,
		AmountCents:     pi.Amount,
		PaymentIntentID: pi.ID,
	})
	if err != nil {
		return err
	}
	if !credited {
		s.logg.Info(ctx, "wallet topup already credited for this payment intent")
	}
	return nil
}

func (s *Service) markOrderPaid(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, pi *stripe.PaymentIntent) error {
	repo := s.ordersRepo.WithTx(tx)
	order, err := repo.FindByID(ctx, orderID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "order for payment not found")
	}

	paidAt := s.now()
	updates := map[string]any{
		"status":                   enums.OrderStatusPaid,
		"payment_status":           enums.PaymentStatusSucceeded,
		"stripe_payment_intent_id": pi.ID,
		"paid_at":                  paidAt,
	}
	if pi.LatestCharge != nil && pi.LatestCharge.ID != "" {
		updates["stripe_charge_id"] = pi.LatestCharge.ID
	}
	if err := repo.UpdateOrder(ctx, orderID, updates); err != nil {
		return err
	}

	if order.RiskReserveCents > 0 {
		seller, err := s.sellersRepo.WithTx(tx).FindByID(ctx, order.SellerID)
		if err != nil {
			return err
		}
		releaseAt := paidAt.AddDate(0, 0, seller.RiskReserveDays)
		if _, err := s.reserves.HoldForOrder(ctx, tx, order, releaseAt); err != nil {
			return err
		}
	}

	s.logg.Info(s.logg.WithOrderID(ctx, orderID.String()), "order marked paid")
	return nil
}

// handleOrderPaymentState applies the terminal state for failed and canceled
// payment intents. Both writes are idempotent state sets.
func (s *Service) handleOrderPaymentState(ctx context.Context, event *stripe.Event, status enums.OrderStatus, paymentStatus enums.PaymentStatus) (string, error) {
	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return "error", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode payment intent event")
	}
	orderID, err := s.orderIDFromMetadata(&pi)
	if err != nil {
		return "error", err
	}
	if orderID == uuid.Nil {
		return "ignored", nil
	}
	updates := map[string]any{
		"status":         status,
		"payment_status": paymentStatus,
	}
	if err := s.ordersRepo.UpdateOrder(ctx, orderID, updates); err != nil {
		return "error", err
	}
	return "handled", nil
}

func (s *Service) notifySellerOrderPaid(ctx context.Context, orderID uuid.UUID) error {
	order, err := s.ordersRepo.FindByID(ctx, orderID)
	if err != nil {
		return err
	}
	seller, err := s.sellersRepo.FindByID(ctx, order.SellerID)
	if err != nil {
		return err
	}
	items, err := s.ordersRepo.FindItemsByOrder(ctx, orderID)
	if err != nil {
		return err
	}
	buyer, err := s.buyersRepo.FindByID(ctx, order.BuyerID)
	if err != nil {
		return err
	}

	note := notifications.OrderPaidNotification{
		SellerEmail:  seller.OrderEmail,
		SellerName:   seller.DisplayName,
		OrderID:      order.ID.String(),
		BuyerName:    buyer.FullName,
		BuyerEmail:   buyer.Email,
		DeliveryDate: order.DeliveryDate.Format("2006-01-02"),
		Total:        notifications.FormatBRL(order.TotalCents),
	}
	for _, item := range items {
		note.Items = append(note.Items, notifications.OrderPaidItem{
			Name:      item.ProductNameSnapshot,
			Quantity:  item.Quantity,
			Unit:      string(item.PricingModeSnapshot),
			UnitPrice: notifications.FormatBRL(item.UnitPriceCentsSnapshot),
		})
	}
	return s.notifier.OrderPaid(ctx, note)
}

