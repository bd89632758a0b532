package idempotency

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lotepro/lotepro-backend/pkg/db/models"
)

// Repository claims external event ids exactly once.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Claim(ctx context.Context, source, eventID string) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an idempotency repository bound to the database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Claim inserts the (source, event_id) pair, relying on the unique index to
// resolve races. It reports true when this call won the claim.
func (r *repository) Claim(ctx context.Context, source, eventID string) (bool, error) {
	record := models.IdempotencyKey{Source: source, EventID: eventID}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "source"}, {Name: "event_id"}},
			DoNothing: true,
		}).
		Create(&record)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
