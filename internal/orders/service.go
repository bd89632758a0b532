package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/lotepro/lotepro-backend/internal/buyers"
	"github.com/lotepro/lotepro-backend/internal/fees"
	"github.com/lotepro/lotepro-backend/internal/scheduling"
	"github.com/lotepro/lotepro-backend/internal/sellers"
	"github.com/lotepro/lotepro-backend/pkg/db/models"
	"github.com/lotepro/lotepro-backend/pkg/enums"
	pkgerrors "github.com/lotepro/lotepro-backend/pkg/errors"
)

const (
	minItemsPerOrder = 1
	maxItemsPerOrder = 50
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ReserveCanceler releases the hold on an order's risk reserve when the
// order is canceled.
type ReserveCanceler interface {
	CancelForOrder(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) error
}

// Service defines buyer-facing order operations.
type Service interface {
	Create(ctx context.Context, input CreateOrderInput) (*CreateOrderOutput, error)
	Cancel(ctx context.Context, input CancelOrderInput) (*CancelOrderOutput, error)
	GetForBuyer(ctx context.Context, orderID, buyerID uuid.UUID) (*models.Order, error)
}

// Config carries the injected policy knobs so the service stays testable.
type Config struct {
	Fees              fees.Policy
	HoursBeforeCutoff int
}

type service struct {
	repo     Repository
	buyers   buyers.Service
	sellers  sellers.Service
	tx       txRunner
	refunds  StripeRefundClient
	reserves ReserveCanceler
	cfg      Config
	now      func() time.Time
}

// NewService wires an order service with the provided dependencies.
func NewService(repo Repository, buyerSvc buyers.Service, sellerSvc sellers.Service, tx txRunner, refunds StripeRefundClient, reserves ReserveCanceler, cfg Config) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if buyerSvc == nil {
		return nil, fmt.Errorf("buyers service required")
	}
	if sellerSvc == nil {
		return nil, fmt.Errorf("sellers service required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if refunds == nil {
		return nil, fmt.Errorf("stripe refund client required")
	}
	if reserves == nil {
		return nil, fmt.Errorf("reserve canceler required")
	}
	return &service{
		repo:     repo,
		buyers:   buyerSvc,
		sellers:  sellerSvc,
		tx:       tx,
		refunds:  refunds,
		reserves: reserves,
		cfg:      cfg,
		now:      time.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateOrderInput) (*CreateOrderOutput, error) {
	if len(input.Items) < minItemsPerOrder || len(input.Items) > maxItemsPerOrder {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("orders must have between %d and %d items", minItemsPerOrder, maxItemsPerOrder))
	}

	buyer, err := s.buyers.Get(ctx, input.BuyerID)
	if err != nil {
		return nil, err
	}
	channel := buyer.Channel()

	seller, err := s.sellers.Get(ctx, input.SellerID)
	if err != nil {
		return nil, err
	}
	if !seller.Active {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "seller is not accepting orders")
	}
	if channel == enums.BuyerChannelB2C && !seller.B2CEnabled {
		return nil, pkgerrors.New(pkgerrors.CodeBusinessRule, "seller does not sell to consumers")
	}

	items, subtotal, containsFresh, err := s.buildItems(ctx, seller, input.Items)
	if err != nil {
		return nil, err
	}

	if subtotal < seller.MinOrderCents {
		return nil, pkgerrors.New(pkgerrors.CodeBusinessRule, fmt.Sprintf("order subtotal is below the seller minimum of %d cents", seller.MinOrderCents))
	}

	shipping := seller.ShippingFeeCents
	total := subtotal + shipping
	breakdown := fees.Compute(subtotal, total, seller.RiskReserveBps, s.cfg.Fees)

	deliveryDate, err := s.resolveDeliveryDate(seller, input.DeliveryDate)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		BuyerID:                 buyer.ID,
		SellerID:                seller.ID,
		BuyerChannel:            channel,
		Status:                  enums.OrderStatusPendingPayment,
		PaymentStatus:           enums.PaymentStatusUnpaid,
		SubtotalCents:           subtotal,
		ShippingCents:           shipping,
		TotalCents:              total,
		PlatformCommissionCents: breakdown.CommissionCents,
		PlatformProcessingCents: breakdown.ProcessingCents,
		PlatformFeeCents:        breakdown.PlatformFeeCents,
		RiskReserveCents:        breakdown.ReserveCents,
		SellerPayoutCents:       breakdown.PayoutCents,
		ContainsFresh:           containsFresh,
		DeliveryDate:            deliveryDate,
		DeliveryAddress:         input.DeliveryAddress,
		DeliveryNotes:           input.DeliveryNotes,
	}

	// Order and items commit or roll back together.
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateOrder(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persisting order")
		}
		for i := range items {
			items[i].OrderID = order.ID
		}
		if err := repo.CreateOrderItems(ctx, items); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persisting order items")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &CreateOrderOutput{
		OrderID:       order.ID,
		SubtotalCents: subtotal,
		ShippingCents: shipping,
		TotalCents:    total,
		DeliveryDate:  deliveryDate,
		BuyerChannel:  channel,
	}, nil
}

func (s *service) buildItems(ctx context.Context, seller *models.Seller, inputs []CreateOrderItemInput) ([]models.OrderItem, int64, bool, error) {
	items := make([]models.OrderItem, 0, len(inputs))
	var subtotal int64
	containsFresh := false

	for _, line := range inputs {
		product, err := s.repo.FindProduct(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, 0, false, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return nil, 0, false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading product")
		}
		if product.SellerID != seller.ID {
			return nil, 0, false, pkgerrors.New(pkgerrors.CodeStateConflict, "product belongs to a different seller")
		}
		if !product.Active {
			return nil, 0, false, pkgerrors.New(pkgerrors.CodeStateConflict, "product is inactive")
		}

		unitPrice := product.BasePriceCents
		minExpiry := product.MinExpiryDate
		var variantName *string
		if line.VariantID != nil {
			variant, err := s.repo.FindVariant(ctx, *line.VariantID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return nil, 0, false, pkgerrors.New(pkgerrors.CodeNotFound, "product variant not found")
				}
				return nil, 0, false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading product variant")
			}
			if variant.ProductID != product.ID {
				return nil, 0, false, pkgerrors.New(pkgerrors.CodeStateConflict, "variant belongs to a different product")
			}
			if !variant.Active {
				return nil, 0, false, pkgerrors.New(pkgerrors.CodeStateConflict, "product variant is inactive")
			}
			if variant.PriceCents != nil {
				unitPrice = *variant.PriceCents
			}
			if variant.MinExpiryDate != nil {
				minExpiry = variant.MinExpiryDate
			}
			variantName = &variant.Name
		}

		pricer, err := newLinePricer(product.PricingMode, unitPrice, line.Quantity, product.EstimatedBoxWeightKg)
		if err != nil {
			return nil, 0, false, err
		}
		priced, err := pricer.Price()
		if err != nil {
			return nil, 0, false, err
		}

		if product.Fresh {
			containsFresh = true
		}
		subtotal += priced.LineTotalCents

		items = append(items, models.OrderItem{
			ProductID:                      product.ID,
			VariantID:                      line.VariantID,
			ProductNameSnapshot:            product.Name,
			VariantNameSnapshot:            variantName,
			PricingModeSnapshot:            product.PricingMode,
			UnitPriceCentsSnapshot:         unitPrice,
			Quantity:                       line.Quantity,
			EstimatedTotalWeightKgSnapshot: priced.EstimatedTotalWeightKg,
			FreshSnapshot:                  product.Fresh,
			MinExpiryDateSnapshot:          minExpiry,
			LineTotalCentsSnapshot:         priced.LineTotalCents,
		})
	}

	return items, subtotal, containsFresh, nil
}

func (s *service) resolveDeliveryDate(seller *models.Seller, requested *time.Time) (time.Time, error) {
	if requested != nil {
		// Buyer-supplied dates bypass the cutoff computation.
		return *requested, nil
	}
	date, err := scheduling.DeliveryDate(s.now(), seller.CutoffTime, seller.Timezone)
	if err != nil {
		return time.Time{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "computing delivery date")
	}
	return date, nil
}

func (s *service) Cancel(ctx context.Context, input CancelOrderInput) (*CancelOrderOutput, error) {
	order, err := s.GetForBuyer(ctx, input.OrderID, input.BuyerID)
	if err != nil {
		return nil, err
	}

	if order.Status == enums.OrderStatusCanceled {
		return &CancelOrderOutput{
			OrderID:       order.ID,
			Status:        order.Status,
			PaymentStatus: order.PaymentStatus,
		}, nil
	}

	if order.ContainsFresh {
		return nil, pkgerrors.New(pkgerrors.CodeBusinessRule, "orders with fresh goods cannot be canceled")
	}

	seller, err := s.sellers.Get(ctx, order.SellerID)
	if err != nil {
		return nil, err
	}

	allowed, err := scheduling.CanCancel(s.now(), order.DeliveryDate, seller.CutoffTime, seller.Timezone, s.cfg.HoursBeforeCutoff, order.ContainsFresh)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "computing cancel deadline")
	}
	if !allowed {
		return nil, pkgerrors.New(pkgerrors.CodeBusinessRule, "the cancellation window for this order has closed")
	}

	refunded := false
	if order.PaymentStatus == enums.PaymentStatusSucceeded && order.StripePaymentIntentID != nil {
		// Unwind the transfer and the application fee together. A refund
		// failure leaves the order untouched.
		params := &stripe.RefundParams{
			PaymentIntent:        stripe.String(*order.StripePaymentIntentID),
			ReverseTransfer:      stripe.Bool(true),
			RefundApplicationFee: stripe.Bool(true),
		}
		params.AddMetadata("order_id", order.ID.String())
		if _, err := s.refunds.CreateRefund(ctx, params); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "refunding payment")
		}
		refunded = true
	}

	paymentStatus := enums.PaymentStatusCanceled
	if refunded {
		paymentStatus = enums.PaymentStatusRefunded
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		now := s.now()
		if err := repo.UpdateOrder(ctx, order.ID, map[string]any{
			"status":         enums.OrderStatusCanceled,
			"payment_status": paymentStatus,
			"canceled_at":    now,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "canceling order")
		}
		if err := s.reserves.CancelForOrder(ctx, tx, order.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "canceling held reserve")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &CancelOrderOutput{
		OrderID:       order.ID,
		Status:        enums.OrderStatusCanceled,
		PaymentStatus: paymentStatus,
		Refunded:      refunded,
	}, nil
}

func (s *service) GetForBuyer(ctx context.Context, orderID, buyerID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "buyer identity missing")
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
	}
	if order.BuyerID != buyerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to a different buyer")
	}
	return order, nil
}
