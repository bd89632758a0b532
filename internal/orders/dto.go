package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/lotepro/lotepro-backend/pkg/enums"
)

// CreateOrderItemInput is one cart line as submitted by the buyer.
type CreateOrderItemInput struct {
	ProductID uuid.UUID  `json:"product_id"`
	VariantID *uuid.UUID `json:"variant_id,omitempty"`
	Quantity  float64    `json:"quantity"`
}

// CreateOrderInput carries everything needed to price and persist an order.
type CreateOrderInput struct {
	BuyerID         uuid.UUID
	SellerID        uuid.UUID
	Items           []CreateOrderItemInput
	DeliveryAddress *string
	DeliveryNotes   *string
	DeliveryDate    *time.Time
}

// CreateOrderOutput is the priced summary returned after creation.
type CreateOrderOutput struct {
	OrderID       uuid.UUID          `json:"order_id"`
	SubtotalCents int64              `json:"subtotal_cents"`
	ShippingCents int64              `json:"shipping_cents"`
	TotalCents    int64              `json:"total_cents"`
	DeliveryDate  time.Time          `json:"delivery_date"`
	BuyerChannel  enums.BuyerChannel `json:"buyer_channel"`
}

// CancelOrderInput identifies the order a buyer wants to cancel.
type CancelOrderInput struct {
	OrderID uuid.UUID
	BuyerID uuid.UUID
}

// CancelOrderOutput reports the resulting lifecycle state.
type CancelOrderOutput struct {
	OrderID       uuid.UUID           `json:"order_id"`
	Status        enums.OrderStatus   `json:"status"`
	PaymentStatus enums.PaymentStatus `json:"payment_status"`
	Refunded      bool                `json:"refunded"`
}
