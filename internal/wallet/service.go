package wallet

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lotepro/lotepro-backend/pkg/db/models"
	"github.com/lotepro/lotepro-backend/pkg/enums"
	pkgerrors "github.com/lotepro/lotepro-backend/pkg/errors"
	"github.com/lotepro/lotepro-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service maintains buyer wallets: every balance change is recorded as an
// append-only transaction first, then applied to the running balance.
type Service interface {
	Apply(ctx context.Context, input ApplyInput) (*ApplyOutput, error)
	ApplyTx(ctx context.Context, tx *gorm.DB, input ApplyInput) (*ApplyOutput, error)
	Topup(ctx context.Context, tx *gorm.DB, input TopupInput) (bool, error)
	Balance(ctx context.Context, buyerID uuid.UUID) (*BalanceOutput, error)
}

// ApplyInput is one signed wallet movement.
type ApplyInput struct {
	BuyerID     uuid.UUID
	Kind        enums.WalletTransactionKind
	AmountCents int64
	OrderID     *uuid.UUID
	Note        string
	Metadata    types.JSONMap
}

// ApplyOutput pairs the recorded transaction with the balance it left behind.
type ApplyOutput struct {
	Transaction  *models.WalletTransaction
	BalanceCents int64
}

// TopupInput credits a wallet from a succeeded topup payment.
type TopupInput struct {
	BuyerID         uuid.UUID
	AmountCents     int64
	PaymentIntentID string
}

// BalanceOutput pairs the wallet balance with recent ledger entries.
type BalanceOutput struct {
	BalanceCents int64                      `json:"balance_cents"`
	Transactions []models.WalletTransaction `json:"transactions"`
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService wires a wallet service with the provided dependencies.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("wallet repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) Apply(ctx context.Context, input ApplyInput) (*ApplyOutput, error) {
	var out *ApplyOutput
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		applied, err := s.ApplyTx(ctx, tx, input)
		if err != nil {
			return err
		}
		out = applied
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ApplyTx joins the caller's transaction so wallet movements commit together
// with the domain change that caused them.
func (s *service) ApplyTx(ctx context.Context, tx *gorm.DB, input ApplyInput) (*ApplyOutput, error) {
	if input.BuyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id required")
	}
	if !input.Kind.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid wallet transaction kind %q", input.Kind))
	}

	repo := s.repo.WithTx(tx)
	if _, err := repo.EnsureWallet(ctx, input.BuyerID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "ensuring wallet")
	}

	txn := &models.WalletTransaction{
		BuyerID:     input.BuyerID,
		Kind:        input.Kind,
		AmountCents: input.AmountCents,
		OrderID:     input.OrderID,
		Note:        input.Note,
		Metadata:    input.Metadata,
	}
	if err := repo.CreateTransaction(ctx, txn); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "recording wallet transaction")
	}
	if err := repo.IncrementBalance(ctx, input.BuyerID, input.AmountCents); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating wallet balance")
	}
	updated, err := repo.FindWallet(ctx, input.BuyerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reading wallet balance")
	}
	return &ApplyOutput{Transaction: txn, BalanceCents: updated.BalanceCents}, nil
}

// Topup credits the wallet once per payment intent. It reports whether the
// credit was applied (false means the payment was already credited).
func (s *service) Topup(ctx context.Context, tx *gorm.DB, input TopupInput) (bool, error) {
	if input.PaymentIntentID == "" {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "payment intent id required")
	}
	if input.AmountCents <= 0 {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "topup amount must be positive")
	}

	repo := s.repo.WithTx(tx)
	exists, err := repo.HasTopupForPaymentIntent(ctx, input.PaymentIntentID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checking topup history")
	}
	if exists {
		return false, nil
	}

	_, err = s.ApplyTx(ctx, tx, ApplyInput{
		BuyerID:     input.BuyerID,
		Kind:        enums.WalletTransactionKindTopup,
		AmountCents: input.AmountCents,
		Note:        "wallet topup",
		Metadata:    types.JSONMap{"payment_intent_id": input.PaymentIntentID},
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *service) Balance(ctx context.Context, buyerID uuid.UUID) (*BalanceOutput, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id required")
	}
	wallet, err := s.repo.EnsureWallet(ctx, buyerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading wallet")
	}
	txns, err := s.repo.ListTransactions(ctx, buyerID, 50)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing wallet transactions")
	}
	return &BalanceOutput{BalanceCents: wallet.BalanceCents, Transactions: txns}, nil
}
