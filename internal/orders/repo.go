package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lotepro/lotepro-backend/pkg/db/models"
)

// Repository defines persistence operations for orders and their lines.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) error
	CreateOrderItems(ctx context.Context, items []models.OrderItem) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByPaymentIntentID(ctx context.Context, paymentIntentID string) (*models.Order, error)
	UpdateOrder(ctx context.Context, id uuid.UUID, updates map[string]any) error
	FindItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error)
	UpdateItemActualWeight(ctx context.Context, itemID uuid.UUID, actualKg float64) error
	FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindVariant(ctx context.Context, id uuid.UUID) (*models.ProductVariant, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an orders repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Omit("Items").Create(order).Error
}

func (r *repository) CreateOrderItems(ctx context.Context, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindByPaymentIntentID(ctx context.Context, paymentIntentID string) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).First(&order, "stripe_payment_intent_id = ?", paymentIntentID).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) UpdateOrder(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) FindItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error) {
	var items []models.OrderItem
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) UpdateItemActualWeight(ctx context.Context, itemID uuid.UUID, actualKg float64) error {
	return r.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Where("id = ?", itemID).
		Update("actual_total_weight_kg", actualKg).Error
}

func (r *repository) FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) FindVariant(ctx context.Context, id uuid.UUID) (*models.ProductVariant, error) {
	var variant models.ProductVariant
	if err := r.db.WithContext(ctx).First(&variant, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &variant, nil
}
