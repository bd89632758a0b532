package sellers

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lotepro/lotepro-backend/pkg/db/models"
)

// Repository defines persistence operations for sellers.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id uuid.UUID) (*models.Seller, error)
	FindByStripeAccountID(ctx context.Context, accountID string) (*models.Seller, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a seller repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Seller, error) {
	var seller models.Seller
	if err := r.db.WithContext(ctx).First(&seller, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &seller, nil
}

func (r *repository) FindByStripeAccountID(ctx context.Context, accountID string) (*models.Seller, error) {
	var seller models.Seller
	if err := r.db.WithContext(ctx).First(&seller, "stripe_account_id = ?", accountID).Error; err != nil {
		return nil, err
	}
	return &seller, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Seller{}).
		Where("id = ?", id).
		Updates(updates).Error
}
