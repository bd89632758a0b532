package models

import (
	"time"

	"github.com/google/uuid"
)

// BuyerWallet holds the running balance for one buyer. The balance always
// equals the sum of that buyer's wallet transactions.
type BuyerWallet struct {
	BuyerID      uuid.UUID `gorm:"column:buyer_id;type:uuid;primaryKey"`
	BalanceCents int64     `gorm:"column:balance_cents;not null;default:0"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
