package weights

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/lotepro/lotepro-backend/internal/orders"
	"github.com/lotepro/lotepro-backend/internal/wallet"
	"github.com/lotepro/lotepro-backend/pkg/db/models"
	"github.com/lotepro/lotepro-backend/pkg/enums"
	pkgerrors "github.com/lotepro/lotepro-backend/pkg/errors"
	"github.com/lotepro/lotepro-backend/pkg/types"
)

const (
	minItems = 1
	maxItems = 50
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// WeightItem is one measured line of an order.
type WeightItem struct {
	OrderItemID         uuid.UUID `json:"order_item_id"`
	ActualTotalWeightKg float64   `json:"actual_total_weight_kg"`
}

// ReconcileInput carries the measured weights a seller submits for an order.
type ReconcileInput struct {
	OrderID       uuid.UUID
	ActorSellerID uuid.UUID
	Items         []WeightItem
}

// ReconcileOutput reports the settlement result, including the buyer's
// wallet balance after the adjustment landed.
type ReconcileOutput struct {
	OrderID                uuid.UUID `json:"order_id"`
	DeltaCents             int64     `json:"delta_cents"`
	WalletApplied          bool      `json:"wallet_applied"`
	WalletTransactionCents int64     `json:"wallet_transaction_cents"`
	NewBalanceCents        int64     `json:"new_balance_cents"`
}

// Service converts estimated-vs-actual weight differences into wallet
// movements for company buyers.
type Service interface {
	Reconcile(ctx context.Context, input ReconcileInput) (*ReconcileOutput, error)
}

type service struct {
	orders  orders.Repository
	wallets wallet.Service
	tx      txRunner
}

// NewService wires a weight reconciliation service.
func NewService(ordersRepo orders.Repository, walletSvc wallet.Service, tx txRunner) (Service, error) {
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if walletSvc == nil {
		return nil, fmt.Errorf("wallet service required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{orders: ordersRepo, wallets: walletSvc, tx: tx}, nil
}

func (s *service) Reconcile(ctx context.Context, input ReconcileInput) (*ReconcileOutput, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if len(input.Items) < minItems || len(input.Items) > maxItems {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("between %d and %d weight items required", minItems, maxItems))
	}

	order, err := s.orders.FindByID(ctx, input.OrderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
	}
	if input.ActorSellerID != uuid.Nil && order.SellerID != input.ActorSellerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to a different seller")
	}

	items, err := s.orders.FindItemsByOrder(ctx, order.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order items")
	}
	byID := make(map[uuid.UUID]*models.OrderItem, len(items))
	for i := range items {
		byID[items[i].ID] = &items[i]
	}

	type weighedItem struct {
		item   *models.OrderItem
		actual float64
		delta  int64
	}
	weighed := make([]weighedItem, 0, len(input.Items))
	var totalDelta int64

	for _, entry := range input.Items {
		item, ok := byID[entry.OrderItemID]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order item not found on this order")
		}
		if item.PricingModeSnapshot != enums.PricingModePerKgBox {
			return nil, pkgerrors.New(pkgerrors.CodeBusinessRule, "item is not priced by weight")
		}
		if item.EstimatedTotalWeightKgSnapshot == nil || *item.EstimatedTotalWeightKgSnapshot <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeBusinessRule, "item is missing its estimated weight")
		}
		if item.ActualTotalWeightKg != nil {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "item weight was already reconciled")
		}
		if entry.ActualTotalWeightKg <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "actual weight must be positive")
		}

		deltaKg := decimal.NewFromFloat(entry.ActualTotalWeightKg).
			Sub(decimal.NewFromFloat(*item.EstimatedTotalWeightKgSnapshot))
		deltaCents := deltaKg.
			Mul(decimal.NewFromInt(item.UnitPriceCentsSnapshot)).
			Round(0).
			IntPart()

		totalDelta += deltaCents
		weighed = append(weighed, weighedItem{item: item, actual: entry.ActualTotalWeightKg, delta: deltaCents})
	}

	// Positive delta means the buyer owes more, so the wallet is debited.
	walletAmount := -totalDelta

	applied := false
	var newBalance int64
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.orders.WithTx(tx)
		for _, w := range weighed {
			if err := repo.UpdateItemActualWeight(ctx, w.item.ID, w.actual); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persisting actual weight")
			}
		}

		if order.BuyerChannel != enums.BuyerChannelB2B {
			return nil
		}

		note := fmt.Sprintf("weight adjustment for order %s", order.ID)
		res, err := s.wallets.ApplyTx(ctx, tx, wallet.ApplyInput{
			BuyerID:     order.BuyerID,
			Kind:        enums.WalletTransactionKindWeightAdjustment,
			AmountCents: walletAmount,
			OrderID:     &order.ID,
			Note:        note,
			Metadata:    types.JSONMap{"total_delta_cents": totalDelta},
		})
		if err != nil {
			return err
		}
		applied = true
		newBalance = res.BalanceCents
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := &ReconcileOutput{
		OrderID:       order.ID,
		DeltaCents:    totalDelta,
		WalletApplied: applied,
	}
	if applied {
		out.WalletTransactionCents = walletAmount
		out.NewBalanceCents = newBalance
	}
	return out, nil
}
