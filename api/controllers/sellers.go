package controllers

import (
	"net/http"

	"github.com/lotepro/lotepro-backend/api/responses"
	"github.com/lotepro/lotepro-backend/api/validators"
	"github.com/lotepro/lotepro-backend/internal/sellers"
	pkgerrors "github.com/lotepro/lotepro-backend/pkg/errors"
	"github.com/lotepro/lotepro-backend/pkg/logger"
)

type onboardingLinkRequest struct {
	RefreshURL string `json:"refresh_url" validate:"required,url"`
	ReturnURL  string `json:"return_url" validate:"required,url"`
}

// OnboardingLink creates (if needed) the seller's Stripe connected account
// and returns a hosted onboarding URL.
func OnboardingLink(svc sellers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sellers service unavailable"))
			return
		}

		sellerID, err := actorSellerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload onboardingLinkRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out, err := svc.OnboardingLink(r.Context(), sellers.OnboardingLinkInput{
			SellerID:   sellerID,
			RefreshURL: payload.RefreshURL,
			ReturnURL:  payload.ReturnURL,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, out)
	}
}
