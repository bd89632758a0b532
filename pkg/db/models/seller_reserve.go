package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/lotepro/lotepro-backend/pkg/enums"
)

// SellerReserve is the risk-reserve slice withheld from a paid order's
// payout. At most one reserve exists per order.
type SellerReserve struct {
	ID               uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID          uuid.UUID           `gorm:"column:order_id;type:uuid;not null;uniqueIndex"`
	SellerID         uuid.UUID           `gorm:"column:seller_id;type:uuid;not null;index"`
	AmountCents      int64               `gorm:"column:amount_cents;not null"`
	Status           enums.ReserveStatus `gorm:"column:status;type:text;not null;default:'held';index"`
	ReleaseAt        time.Time           `gorm:"column:release_at;not null;index"`
	ReleasedAt       *time.Time          `gorm:"column:released_at"`
	StripeTransferID *string             `gorm:"column:stripe_transfer_id;type:text"`
	CreatedAt        time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
