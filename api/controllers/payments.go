package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/lotepro/lotepro-backend/api/responses"
	"github.com/lotepro/lotepro-backend/api/validators"
	"github.com/lotepro/lotepro-backend/internal/payments"
	pkgerrors "github.com/lotepro/lotepro-backend/pkg/errors"
	"github.com/lotepro/lotepro-backend/pkg/logger"
)

type paymentOrderRequest struct {
	OrderID uuid.UUID `json:"orderId" validate:"required"`
}

// PaymentSheet creates the Stripe material the mobile payment sheet needs for
// a pending order: payment intent, customer and ephemeral key.
func PaymentSheet(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		buyerID, err := actorBuyerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload paymentOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out, err := svc.PaymentSheet(r.Context(), payments.PaymentSheetInput{
			OrderID: payload.OrderID,
			BuyerID: buyerID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, out)
	}
}

// Pix creates a Pix payment intent for a pending order and returns the QR
// code material when Stripe has already produced it.
func Pix(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		buyerID, err := actorBuyerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload paymentOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out, err := svc.Pix(r.Context(), payments.PixInput{
			OrderID: payload.OrderID,
			BuyerID: buyerID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, out)
	}
}
