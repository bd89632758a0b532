package buyers

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lotepro/lotepro-backend/pkg/db/models"
)

// Repository defines persistence operations for buyer profiles.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id uuid.UUID) (*models.BuyerProfile, error)
	UpdateStripeCustomerID(ctx context.Context, id uuid.UUID, customerID string) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a buyer repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.BuyerProfile, error) {
	var buyer models.BuyerProfile
	if err := r.db.WithContext(ctx).First(&buyer, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &buyer, nil
}

func (r *repository) UpdateStripeCustomerID(ctx context.Context, id uuid.UUID, customerID string) error {
	return r.db.WithContext(ctx).
		Model(&models.BuyerProfile{}).
		Where("id = ?", id).
		Update("stripe_customer_id", customerID).Error
}
