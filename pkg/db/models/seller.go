package models

import (
	"time"

	"github.com/google/uuid"
)

// Seller is a marketplace vendor selling through its own storefront.
type Seller struct {
	ID                   uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	DisplayName          string    `gorm:"column:display_name;type:text;not null"`
	OrderEmail           string    `gorm:"column:order_email;type:text;not null"`
	CNPJ                 *string   `gorm:"column:cnpj;type:text"`
	CutoffTime           string    `gorm:"column:cutoff_time;type:text;not null;default:'16:00'"`
	Timezone             string    `gorm:"column:timezone;type:text;not null;default:'America/Sao_Paulo'"`
	MinOrderCents        int64     `gorm:"column:min_order_cents;not null;default:0"`
	ShippingFeeCents     int64     `gorm:"column:shipping_fee_cents;not null;default:0"`
	B2CEnabled           bool      `gorm:"column:b2c_enabled;not null;default:false"`
	RiskReserveBps       int       `gorm:"column:risk_reserve_bps;not null;default:0"`
	RiskReserveDays      int       `gorm:"column:risk_reserve_days;not null;default:60"`
	StripeAccountID      *string   `gorm:"column:stripe_account_id;type:text;uniqueIndex"`
	StripeChargesEnabled bool      `gorm:"column:stripe_charges_enabled;not null;default:false"`
	StripePayoutsEnabled bool      `gorm:"column:stripe_payouts_enabled;not null;default:false"`
	Active               bool      `gorm:"column:active;not null;default:true"`
	CreatedAt            time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// PayoutReady reports whether the seller can receive transfers.
func (s Seller) PayoutReady() bool {
	return s.StripeAccountID != nil && *s.StripeAccountID != "" && s.StripePayoutsEnabled
}
