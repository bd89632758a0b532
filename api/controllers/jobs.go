package controllers

import (
	"net/http"

	"github.com/lotepro/lotepro-backend/api/responses"
	"github.com/lotepro/lotepro-backend/internal/reserves"
	pkgerrors "github.com/lotepro/lotepro-backend/pkg/errors"
	"github.com/lotepro/lotepro-backend/pkg/logger"
)

// ReleaseReserves runs one risk-reserve sweep on demand. The scheduler's
// X-Job-Secret middleware guards the route.
func ReleaseReserves(svc reserves.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reserves service unavailable"))
			return
		}

		summary, err := svc.ReleaseDue(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, summary)
	}
}
