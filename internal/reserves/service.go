package reserves

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/lotepro/lotepro-backend/internal/sellers"
	"github.com/lotepro/lotepro-backend/pkg/db/models"
	"github.com/lotepro/lotepro-backend/pkg/enums"
	pkgerrors "github.com/lotepro/lotepro-backend/pkg/errors"
	"github.com/lotepro/lotepro-backend/pkg/logger"
	"github.com/lotepro/lotepro-backend/pkg/metrics"
)

const payoutCurrency = "brl"

// Config bounds one release sweep.
type Config struct {
	BatchSize int
}

// ReleaseSummary reports one sweep's outcome.
type ReleaseSummary struct {
	Checked  int `json:"checked"`
	Released int `json:"released"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

// Service holds and releases seller risk reserves.
type Service interface {
	HoldForOrder(ctx context.Context, tx *gorm.DB, order *models.Order, releaseAt time.Time) (bool, error)
	CancelForOrder(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) error
	ReleaseDue(ctx context.Context) (*ReleaseSummary, error)
}

type service struct {
	repo        Repository
	sellersRepo sellers.Repository
	stripe      StripeTransferClient
	logg        *logger.Logger
	metrics     *metrics.PaymentMetrics
	cfg         Config
	now         func() time.Time
}

// NewService wires a reserve service with the provided dependencies.
func NewService(repo Repository, sellersRepo sellers.Repository, stripeClient StripeTransferClient, logg *logger.Logger, paymentMetrics *metrics.PaymentMetrics, cfg Config) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("reserves repository required")
	}
	if sellersRepo == nil {
		return nil, fmt.Errorf("sellers repository required")
	}
	if stripeClient == nil {
		return nil, fmt.Errorf("stripe transfer client required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:        repo,
		sellersRepo: sellersRepo,
		stripe:      stripeClient,
		logg:        logg,
		metrics:     paymentMetrics,
		cfg:         cfg,
		now:         time.Now,
	}, nil
}

// HoldForOrder creates at most one reserve per order. It reports whether this
// call created the row.
func (s *service) HoldForOrder(ctx context.Context, tx *gorm.DB, order *models.Order, releaseAt time.Time) (bool, error) {
	if order == nil {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "order required")
	}
	if order.RiskReserveCents <= 0 {
		return false, nil
	}
	created, err := s.repo.WithTx(tx).CreateIfAbsent(ctx, &models.SellerReserve{
		OrderID:     order.ID,
		SellerID:    order.SellerID,
		AmountCents: order.RiskReserveCents,
		Status:      enums.ReserveStatusHeld,
		ReleaseAt:   releaseAt,
	})
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "holding reserve")
	}
	return created, nil
}

func (s *service) CancelForOrder(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) error {
	if orderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	return s.repo.WithTx(tx).CancelHeldForOrder(ctx, orderID)
}

// ReleaseDue sweeps one batch of due reserves. Each reserve is settled
// independently: a failure is logged, counted and left held for the next run.
func (s *service) ReleaseDue(ctx context.Context) (*ReleaseSummary, error) {
	due, err := s.repo.FindDueHeld(ctx, s.now(), s.cfg.BatchSize)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing due reserves")
	}

	summary := &ReleaseSummary{Checked: len(due)}
	for i := range due {
		reserve := &due[i]
		lctx := s.logg.WithFields(ctx, map[string]any{
			"reserve_id": reserve.ID.String(),
			"order_id":   reserve.OrderID.String(),
			"seller_id":  reserve.SellerID.String(),
		})

		released, err := s.releaseOne(lctx, reserve)
		switch {
		case err != nil:
			summary.Failed++
			s.metrics.ObserveReserveRelease("failed", 0)
			s.logg.Error(lctx, "reserve release failed", err)
		case released:
			summary.Released++
			s.metrics.ObserveReserveRelease("released", reserve.AmountCents)
		default:
			summary.Skipped++
			s.metrics.ObserveReserveRelease("skipped", 0)
		}
	}
	return summary, nil
}

func (s *service) releaseOne(ctx context.Context, reserve *models.SellerReserve) (bool, error) {
	seller, err := s.sellersRepo.FindByID(ctx, reserve.SellerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Leave held; a missing seller row is an operator problem.
			s.logg.Warn(ctx, "reserve seller not found, leaving held")
			return false, nil
		}
		return false, err
	}
	if !seller.PayoutReady() {
		s.logg.Info(ctx, "seller has no payout account yet, leaving reserve held")
		return false, nil
	}

	params := &stripe.TransferParams{
		Amount:      stripe.Int64(reserve.AmountCents),
		Currency:    stripe.String(payoutCurrency),
		Destination: stripe.String(*seller.StripeAccountID),
	}
	params.AddMetadata("reserve_id", reserve.ID.String())
	params.AddMetadata("order_id", reserve.OrderID.String())

	tr, err := s.stripe.CreateTransfer(ctx, params)
	if err != nil {
		return false, err
	}

	won, err := s.repo.MarkReleased(ctx, reserve.ID, tr.ID, s.now())
	if err != nil {
		return false, err
	}
	if !won {
		// A concurrent sweep got there first.
		s.logg.Warn(ctx, "reserve already released by another run")
		return false, nil
	}
	s.logg.Info(ctx, "reserve released to seller")
	return true, nil
}
