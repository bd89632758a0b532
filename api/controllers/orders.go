package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/lotepro/lotepro-backend/api/middleware"
	"github.com/lotepro/lotepro-backend/api/responses"
	"github.com/lotepro/lotepro-backend/api/validators"
	internalorders "github.com/lotepro/lotepro-backend/internal/orders"
	"github.com/lotepro/lotepro-backend/internal/weights"
	"github.com/lotepro/lotepro-backend/pkg/enums"
	pkgerrors "github.com/lotepro/lotepro-backend/pkg/errors"
	"github.com/lotepro/lotepro-backend/pkg/logger"
)

type createOrderRequest struct {
	SellerID        uuid.UUID              `json:"seller_id" validate:"required"`
	Items           []createOrderItemInput `json:"items" validate:"required,min=1,max=50,dive"`
	DeliveryAddress *string                `json:"delivery_address,omitempty"`
	DeliveryNotes   *string                `json:"delivery_notes,omitempty"`
	DeliveryDate    *time.Time             `json:"delivery_date,omitempty"`
}

type createOrderItemInput struct {
	ProductID uuid.UUID  `json:"product_id" validate:"required"`
	VariantID *uuid.UUID `json:"variant_id,omitempty"`
	Quantity  float64    `json:"quantity" validate:"required,gt=0"`
}

// CreateOrder prices and persists a buyer's order against a single seller.
func CreateOrder(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		buyerID, err := actorBuyerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]internalorders.CreateOrderItemInput, 0, len(payload.Items))
		for _, item := range payload.Items {
			items = append(items, internalorders.CreateOrderItemInput{
				ProductID: item.ProductID,
				VariantID: item.VariantID,
				Quantity:  item.Quantity,
			})
		}

		out, err := svc.Create(r.Context(), internalorders.CreateOrderInput{
			BuyerID:         buyerID,
			SellerID:        payload.SellerID,
			Items:           items,
			DeliveryAddress: payload.DeliveryAddress,
			DeliveryNotes:   payload.DeliveryNotes,
			DeliveryDate:    payload.DeliveryDate,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, out)
	}
}

// CancelOrder cancels a pending order before the delivery cutoff. Paid orders
// are refunded through Stripe, reversing the transfer and the application fee.
func CancelOrder(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		buyerID, err := actorBuyerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := parseOrderIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out, err := svc.Cancel(r.Context(), internalorders.CancelOrderInput{
			OrderID: orderID,
			BuyerID: buyerID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, out)
	}
}

type reconcileWeightsRequest struct {
	Items []weightItemInput `json:"items" validate:"required,min=1,max=50,dive"`
}

type weightItemInput struct {
	OrderItemID         uuid.UUID `json:"order_item_id" validate:"required"`
	ActualTotalWeightKg float64   `json:"actual_total_weight_kg" validate:"required,gt=0"`
}

// ReconcileWeights records measured weights for a delivered order and settles
// the estimated-vs-actual difference against the buyer wallet.
func ReconcileWeights(svc weights.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "weights service unavailable"))
			return
		}

		// Admins may reconcile any order; sellers only their own.
		sellerID := uuid.Nil
		if middleware.RoleFromContext(r.Context()) != string(enums.ActorRoleAdmin) {
			id, err := actorSellerID(r)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			sellerID = id
		}

		orderID, err := parseOrderIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload reconcileWeightsRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lines := make([]weights.WeightItem, 0, len(payload.Items))
		for _, item := range payload.Items {
			lines = append(lines, weights.WeightItem{
				OrderItemID:         item.OrderItemID,
				ActualTotalWeightKg: item.ActualTotalWeightKg,
			})
		}

		out, err := svc.Reconcile(r.Context(), weights.ReconcileInput{
			OrderID:       orderID,
			ActorSellerID: sellerID,
			Items:         lines,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, out)
	}
}
