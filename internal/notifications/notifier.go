package notifications

import (
	"context"
	"fmt"

	"github.com/lotepro/lotepro-backend/pkg/logger"
)

// OrderPaidItem is one order line rendered into the seller notification.
type OrderPaidItem struct {
	Name      string
	Variant   string
	Quantity  float64
	Unit      string
	UnitPrice string
}

// OrderPaidNotification carries everything the seller needs to prepare an
// order once payment lands.
type OrderPaidNotification struct {
	SellerEmail  string
	SellerName   string
	OrderID      string
	BuyerName    string
	BuyerEmail   string
	DeliveryDate string
	Total        string
	Items        []OrderPaidItem
}

// Notifier delivers order notifications to sellers.
type Notifier interface {
	OrderPaid(ctx context.Context, n OrderPaidNotification) error
}

type logNotifier struct {
	logg *logger.Logger
	from string
}

// NewLogNotifier returns a notifier that writes notifications to the
// structured log. It stands in for a mail transport outside production.
func NewLogNotifier(logg *logger.Logger, from string) (Notifier, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &logNotifier{logg: logg, from: from}, nil
}

func (n *logNotifier) OrderPaid(ctx context.Context, note OrderPaidNotification) error {
	if note.SellerEmail == "" {
		n.logg.Warn(ctx, "seller order email missing, skipping notification")
		return nil
	}
	ctx = n.logg.WithFields(ctx, map[string]any{
		"from":          n.from,
		"to":            note.SellerEmail,
		"order_id":      note.OrderID,
		"delivery_date": note.DeliveryDate,
		"total":         note.Total,
		"item_count":    len(note.Items),
	})
	n.logg.Info(ctx, "order paid notification sent")
	return nil
}
