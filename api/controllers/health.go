package controllers

import (
	"context"
	"net/http"

	"github.com/lotepro/lotepro-backend/api/responses"
	"github.com/lotepro/lotepro-backend/pkg/config"
	"github.com/lotepro/lotepro-backend/pkg/db"
	pkgerrors "github.com/lotepro/lotepro-backend/pkg/errors"
	"github.com/lotepro/lotepro-backend/pkg/logger"
)

type RedisPinger interface {
	Ping(context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-LotePro-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports readiness only when both backing stores answer a ping.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP RedisPinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-LotePro-Env", cfg.App.Env)

		if dbP != nil {
			if err := dbP.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database unavailable"))
				return
			}
		}
		if redisP != nil {
			if err := redisP.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis unavailable"))
				return
			}
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
