package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/lotepro/lotepro-backend/api/responses"
	pkgerrors "github.com/lotepro/lotepro-backend/pkg/errors"
	"github.com/lotepro/lotepro-backend/pkg/logger"
)

const jobSecretHeader = "X-Job-Secret"

// JobSecret protects internal job endpoints with a shared secret. A missing
// server-side secret disables the surface entirely.
func JobSecret(secret string, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "job endpoint disabled"))
				return
			}
			provided := r.Header.Get(jobSecretHeader)
			if subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid job secret"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
