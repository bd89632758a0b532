package controllers

import (
	"net/http"

	"github.com/lotepro/lotepro-backend/api/responses"
	"github.com/lotepro/lotepro-backend/internal/wallet"
	pkgerrors "github.com/lotepro/lotepro-backend/pkg/errors"
	"github.com/lotepro/lotepro-backend/pkg/logger"
)

// WalletBalance returns the authenticated buyer's credit balance.
func WalletBalance(svc wallet.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "wallet service unavailable"))
			return
		}

		buyerID, err := actorBuyerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out, err := svc.Balance(r.Context(), buyerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, out)
	}
}
