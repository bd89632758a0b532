package wallet

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lotepro/lotepro-backend/pkg/db/models"
)

// Repository manages persistence for buyer wallets and their ledger.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	EnsureWallet(ctx context.Context, buyerID uuid.UUID) (*models.BuyerWallet, error)
	IncrementBalance(ctx context.Context, buyerID uuid.UUID, deltaCents int64) error
	CreateTransaction(ctx context.Context, txn *models.WalletTransaction) error
	HasTopupForPaymentIntent(ctx context.Context, paymentIntentID string) (bool, error)
	SumTransactions(ctx context.Context, buyerID uuid.UUID) (int64, error)
	ListTransactions(ctx context.Context, buyerID uuid.UUID, limit int) ([]models.WalletTransaction, error)
	FindWallet(ctx context.Context, buyerID uuid.UUID) (*models.BuyerWallet, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a wallet repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// EnsureWallet lazily creates the wallet row on first use.
func (r *repository) EnsureWallet(ctx context.Context, buyerID uuid.UUID) (*models.BuyerWallet, error) {
	wallet := models.BuyerWallet{BuyerID: buyerID}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "buyer_id"}},
			DoNothing: true,
		}).
		Create(&wallet).Error; err != nil {
		return nil, err
	}
	return r.FindWallet(ctx, buyerID)
}

// IncrementBalance applies the signed delta with a single atomic update, so
// concurrent reconciliations never lose increments.
func (r *repository) IncrementBalance(ctx context.Context, buyerID uuid.UUID, deltaCents int64) error {
	return r.db.WithContext(ctx).
		Model(&models.BuyerWallet{}).
		Where("buyer_id = ?", buyerID).
		Update("balance_cents", gorm.Expr("balance_cents + ?", deltaCents)).Error
}

func (r *repository) CreateTransaction(ctx context.Context, txn *models.WalletTransaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *repository) HasTopupForPaymentIntent(ctx context.Context, paymentIntentID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.WalletTransaction{}).
		Where("kind = ? AND metadata->>'payment_intent_id' = ?", "topup", paymentIntentID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) SumTransactions(ctx context.Context, buyerID uuid.UUID) (int64, error) {
	var sum *int64
	err := r.db.WithContext(ctx).
		Model(&models.WalletTransaction{}).
		Where("buyer_id = ?", buyerID).
		Select("SUM(amount_cents)").
		Scan(&sum).Error
	if err != nil {
		return 0, err
	}
	if sum == nil {
		return 0, nil
	}
	return *sum, nil
}

func (r *repository) ListTransactions(ctx context.Context, buyerID uuid.UUID, limit int) ([]models.WalletTransaction, error) {
	if limit <= 0 {
		limit = 50
	}
	var txns []models.WalletTransaction
	if err := r.db.WithContext(ctx).
		Where("buyer_id = ?", buyerID).
		Order("created_at DESC").
		Limit(limit).
		Find(&txns).Error; err != nil {
		return nil, err
	}
	return txns, nil
}

func (r *repository) FindWallet(ctx context.Context, buyerID uuid.UUID) (*models.BuyerWallet, error) {
	var wallet models.BuyerWallet
	if err := r.db.WithContext(ctx).First(&wallet, "buyer_id = ?", buyerID).Error; err != nil {
		return nil, err
	}
	return &wallet, nil
}
