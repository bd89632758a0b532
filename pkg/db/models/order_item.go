package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/lotepro/lotepro-backend/pkg/enums"
)

// OrderItem is an immutable priced snapshot of one cart line. Only
// ActualTotalWeightKg is written after creation, exactly once, by weight
// reconciliation.
type OrderItem struct {
	ID                             uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID                        uuid.UUID         `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID                      uuid.UUID         `gorm:"column:product_id;type:uuid;not null"`
	VariantID                      *uuid.UUID        `gorm:"column:variant_id;type:uuid"`
	ProductNameSnapshot            string            `gorm:"column:product_name_snapshot;type:text;not null"`
	VariantNameSnapshot            *string           `gorm:"column:variant_name_snapshot;type:text"`
	PricingModeSnapshot            enums.PricingMode `gorm:"column:pricing_mode_snapshot;type:text;not null"`
	UnitPriceCentsSnapshot         int64             `gorm:"column:unit_price_cents_snapshot;not null"`
	Quantity                       float64           `gorm:"column:quantity;not null"`
	EstimatedTotalWeightKgSnapshot *float64          `gorm:"column:estimated_total_weight_kg_snapshot"`
	ActualTotalWeightKg            *float64          `gorm:"column:actual_total_weight_kg"`
	FreshSnapshot                  bool              `gorm:"column:fresh_snapshot;not null;default:false"`
	MinExpiryDateSnapshot          *time.Time        `gorm:"column:min_expiry_date_snapshot;type:date"`
	LineTotalCentsSnapshot         int64             `gorm:"column:line_total_cents_snapshot;not null"`
	CreatedAt                      time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt                      time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
