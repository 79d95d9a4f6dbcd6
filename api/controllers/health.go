package controllers

import (
	"net/http"

	"github.com/mfigueroa/retailhub-backend/api/responses"
	"github.com/mfigueroa/retailhub-backend/pkg/config"
	"github.com/mfigueroa/retailhub-backend/pkg/db"
	pkgerrors "github.com/mfigueroa/retailhub-backend/pkg/errors"
	"github.com/mfigueroa/retailhub-backend/pkg/logger"
	"github.com/mfigueroa/retailhub-backend/pkg/redis"
)

const envHeader = "X-RetailHub-Env"

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports readiness only when every backing dependency answers a
// ping.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		if dbP != nil {
			if err := dbP.Ping(r.Context()); err != nil {
				wrapped := pkgerrors.Wrap(pkgerrors.CodeDependency, err, "dependency unavailable").
					WithDetails(map[string]any{"dependency": "database"})
				responses.WriteError(r.Context(), logg, w, wrapped)
				return
			}
		}
		if redisP != nil {
			if err := redisP.Ping(r.Context()); err != nil {
				wrapped := pkgerrors.Wrap(pkgerrors.CodeDependency, err, "dependency unavailable").
					WithDetails(map[string]any{"dependency": "redis"})
				responses.WriteError(r.Context(), logg, w, wrapped)
				return
			}
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
