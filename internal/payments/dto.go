package payments

import "github.com/google/uuid"

// PaymentSheetInput identifies the order the buyer wants to pay by card.
type PaymentSheetInput struct {
	OrderID uuid.UUID `json:"orderId" validate:"required"`
	BuyerID uuid.UUID `json:"-"`
}

// PaymentSheetOutput carries everything the mobile payment sheet needs.
type PaymentSheetOutput struct {
	PaymentIntentClientSecret  string `json:"paymentIntentClientSecret"`
	CustomerID                 string `json:"customerId"`
	CustomerEphemeralKeySecret string `json:"customerEphemeralKeySecret"`
	PublishableKey             string `json:"publishableKey"`
}

// PixInput identifies the order the buyer wants to pay with Pix.
type PixInput struct {
	OrderID uuid.UUID `json:"orderId" validate:"required"`
	BuyerID uuid.UUID `json:"-"`
}

// PixQRCode mirrors Stripe's pix_display_qr_code next action.
type PixQRCode struct {
	Data                  string `json:"data"`
	ExpiresAt             int64  `json:"expiresAt"`
	HostedInstructionsURL string `json:"hostedInstructionsUrl"`
	ImageURLPNG           string `json:"imageUrlPng"`
	ImageURLSVG           string `json:"imageUrlSvg"`
}

// PixOutput carries the Pix charge details back to the client.
type PixOutput struct {
	PaymentIntentID string     `json:"paymentIntentId"`
	ClientSecret    string     `json:"clientSecret"`
	Pix             *PixQRCode `json:"pix"`
	SubtotalCents   int64      `json:"subtotalCents"`
	ShippingCents   int64      `json:"shippingCents"`
	TotalCents      int64      `json:"totalCents"`
}
