package reserves

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lotepro/lotepro-backend/pkg/db/models"
	"github.com/lotepro/lotepro-backend/pkg/enums"
)

// Repository manages persistence for seller risk reserves.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateIfAbsent(ctx context.Context, reserve *models.SellerReserve) (bool, error)
	FindDueHeld(ctx context.Context, now time.Time, limit int) ([]models.SellerReserve, error)
	MarkReleased(ctx context.Context, id uuid.UUID, transferID string, releasedAt time.Time) (bool, error)
	CancelHeldForOrder(ctx context.Context, orderID uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a reserve repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// CreateIfAbsent inserts the reserve unless the order already has one. The
// unique index on order_id resolves webhook replays.
func (r *repository) CreateIfAbsent(ctx context.Context, reserve *models.SellerReserve) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "order_id"}},
			DoNothing: true,
		}).
		Create(reserve)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) FindDueHeld(ctx context.Context, now time.Time, limit int) ([]models.SellerReserve, error) {
	if limit <= 0 {
		limit = 100
	}
	var due []models.SellerReserve
	if err := r.db.WithContext(ctx).
		Where("status = ? AND release_at <= ?", enums.ReserveStatusHeld, now).
		Order("release_at ASC").
		Limit(limit).
		Find(&due).Error; err != nil {
		return nil, err
	}
	return due, nil
}

// MarkReleased flips a held reserve to released. The status guard makes the
// sweep safe to re-run concurrently: only one caller wins the transition.
func (r *repository) MarkReleased(ctx context.Context, id uuid.UUID, transferID string, releasedAt time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.SellerReserve{}).
		Where("id = ? AND status = ?", id, enums.ReserveStatusHeld).
		Updates(map[string]any{
			"status":             enums.ReserveStatusReleased,
			"stripe_transfer_id": transferID,
			"released_at":        releasedAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) CancelHeldForOrder(ctx context.Context, orderID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.SellerReserve{}).
		Where("order_id = ? AND status = ?", orderID, enums.ReserveStatusHeld).
		Update("status", enums.ReserveStatusCanceled).Error
}
