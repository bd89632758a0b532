package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/lotepro/lotepro-backend/pkg/enums"
)

// BuyerProfile is the purchasing identity attached to an authenticated user.
// A profile registered with a CNPJ buys as a company; CPF-only profiles buy
// as consumers.
type BuyerProfile struct {
	ID               uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	FullName         string    `gorm:"column:full_name;type:text;not null"`
	Email            string    `gorm:"column:email;type:text;not null;uniqueIndex"`
	Phone            *string   `gorm:"column:phone;type:text"`
	CNPJ             *string   `gorm:"column:cnpj;type:text"`
	CPF              *string   `gorm:"column:cpf;type:text"`
	SellerID         uuid.UUID `gorm:"column:seller_id;type:uuid;not null;index"`
	StripeCustomerID *string   `gorm:"column:stripe_customer_id;type:text"`
	Active           bool      `gorm:"column:active;not null;default:true"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// Channel derives the buyer channel from the registered document type.
func (b BuyerProfile) Channel() enums.BuyerChannel {
	if b.CNPJ != nil && *b.CNPJ != "" {
		return enums.BuyerChannelB2B
	}
	return enums.BuyerChannelB2C
}
