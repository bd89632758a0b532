package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/lotepro/lotepro-backend/pkg/enums"
)

// Order is a priced, settled purchase from one buyer to one seller. The
// monetary breakdown is locked at creation time and never recomputed.
type Order struct {
	ID                      uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BuyerID                 uuid.UUID            `gorm:"column:buyer_id;type:uuid;not null;index"`
	SellerID                uuid.UUID            `gorm:"column:seller_id;type:uuid;not null;index"`
	BuyerChannel            enums.BuyerChannel   `gorm:"column:buyer_channel;type:text;not null"`
	Status                  enums.OrderStatus    `gorm:"column:status;type:text;not null;default:'pending_payment'"`
	PaymentStatus           enums.PaymentStatus  `gorm:"column:payment_status;type:text;not null;default:'unpaid'"`
	PaymentMethod           *enums.PaymentMethod `gorm:"column:payment_method;type:text"`
	SubtotalCents           int64                `gorm:"column:subtotal_cents;not null"`
	ShippingCents           int64                `gorm:"column:shipping_cents;not null;default:0"`
	TotalCents              int64                `gorm:"column:total_cents;not null"`
	PlatformCommissionCents int64                `gorm:"column:platform_commission_cents;not null;default:0"`
	PlatformProcessingCents int64                `gorm:"column:platform_processing_cents;not null;default:0"`
	PlatformFeeCents        int64                `gorm:"column:platform_fee_cents;not null;default:0"`
	RiskReserveCents        int64                `gorm:"column:risk_reserve_cents;not null;default:0"`
	SellerPayoutCents       int64                `gorm:"column:seller_payout_cents;not null;default:0"`
	ContainsFresh           bool                 `gorm:"column:contains_fresh;not null;default:false"`
	DeliveryDate            time.Time            `gorm:"column:delivery_date;type:date;not null"`
	DeliveryAddress         *string              `gorm:"column:delivery_address;type:text"`
	DeliveryNotes           *string              `gorm:"column:delivery_notes;type:text"`
	StripePaymentIntentID   *string              `gorm:"column:stripe_payment_intent_id;type:text;index"`
	StripeChargeID          *string              `gorm:"column:stripe_charge_id;type:text"`
	PaidAt                  *time.Time           `gorm:"column:paid_at"`
	CanceledAt              *time.Time           `gorm:"column:canceled_at"`
	Items                   []OrderItem          `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt               time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt               time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
