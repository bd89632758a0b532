package models

import (
	"time"

	"github.com/google/uuid"
)

// ProductVariant is an optional refinement of a product (e.g. a size or
// packaging option). A set price or expiry overrides the product's.
type ProductVariant struct {
	ID            uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID     uuid.UUID  `gorm:"column:product_id;type:uuid;not null;index"`
	Name          string     `gorm:"column:name;type:text;not null"`
	PriceCents    *int64     `gorm:"column:price_cents"`
	MinExpiryDate *time.Time `gorm:"column:min_expiry_date"`
	Active        bool       `gorm:"column:active;not null;default:true"`
	CreatedAt     time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
