package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/lotepro/lotepro-backend/pkg/enums"
	"github.com/lotepro/lotepro-backend/pkg/types"
)

// WalletTransaction is one append-only ledger entry. AmountCents is signed:
// credits are positive, debits negative.
type WalletTransaction struct {
	ID          uuid.UUID                   `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BuyerID     uuid.UUID                   `gorm:"column:buyer_id;type:uuid;not null;index"`
	Kind        enums.WalletTransactionKind `gorm:"column:kind;type:text;not null"`
	AmountCents int64                       `gorm:"column:amount_cents;not null"`
	OrderID     *uuid.UUID                  `gorm:"column:order_id;type:uuid"`
	Note        string                      `gorm:"column:note;type:text;not null;default:''"`
	Metadata    types.JSONMap               `gorm:"column:metadata;type:jsonb"`
	CreatedAt   time.Time                   `gorm:"column:created_at;autoCreateTime"`
}
