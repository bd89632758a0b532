package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/lotepro/lotepro-backend/pkg/enums"
)

// Product is a sellable item in a seller's catalog. Orders snapshot the
// priced fields so later edits never change existing orders.
type Product struct {
	ID                    uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SellerID              uuid.UUID         `gorm:"column:seller_id;type:uuid;not null;index"`
	Name                  string            `gorm:"column:name;type:text;not null"`
	PricingMode           enums.PricingMode `gorm:"column:pricing_mode;type:text;not null;default:'per_unit'"`
	BasePriceCents        int64             `gorm:"column:base_price_cents;not null"`
	EstimatedBoxWeightKg  *float64          `gorm:"column:estimated_box_weight_kg"`
	MaxWeightVariationPct *float64          `gorm:"column:max_weight_variation_pct"`
	Fresh                 bool              `gorm:"column:fresh;not null;default:false"`
	MinExpiryDate         *time.Time        `gorm:"column:min_expiry_date"`
	Active                bool              `gorm:"column:active;not null;default:true"`
	Variants              []ProductVariant  `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt             time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
