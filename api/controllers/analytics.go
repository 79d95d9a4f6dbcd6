package controllers

import (
	"net/http"

	"github.com/mfigueroa/retailhub-backend/api/middleware"
	"github.com/mfigueroa/retailhub-backend/api/responses"
	"github.com/mfigueroa/retailhub-backend/api/validators"
	"github.com/mfigueroa/retailhub-backend/internal/analytics"
	pkgerrors "github.com/mfigueroa/retailhub-backend/pkg/errors"
	"github.com/mfigueroa/retailhub-backend/pkg/logger"
)

// AnalyticsDashboard returns the manager dashboard rollups over a trailing
// window of days.
func AnalyticsDashboard(svc analytics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "analytics service unavailable"))
			return
		}

		rangeDays, err := validators.ParseQueryInt(r, "range", 0, 1, 365)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		fact := middleware.FactFromContext(r.Context())
		dashboard, err := svc.Dashboard(r.Context(), fact, rangeDays)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, dashboard)
	}
}
