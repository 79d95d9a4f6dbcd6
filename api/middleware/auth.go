package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/mfigueroa/retailhub-backend/api/responses"
	"github.com/mfigueroa/retailhub-backend/internal/identity"
	pkgauth "github.com/mfigueroa/retailhub-backend/pkg/auth"
	"github.com/mfigueroa/retailhub-backend/pkg/config"
	pkgerrors "github.com/mfigueroa/retailhub-backend/pkg/errors"
	"github.com/mfigueroa/retailhub-backend/pkg/logger"
)

// Auth validates a bearer token, resolves the account's current role facets
// from staffing records and seeds both into the request context. Roles are
// never trusted from the token itself.
func Auth(cfg config.JWTConfig, resolver identity.Service, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			ctx, err := authenticate(r, cfg, resolver, logg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth resolves credentials when present and lets anonymous requests
// through untouched. A malformed token is still rejected.
func OptionalAuth(cfg config.JWTConfig, resolver identity.Service, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx, err := authenticate(r, cfg, resolver, logg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(raw), "bearer ") {
		return strings.TrimSpace(raw[7:])
	}
	return raw
}

func authenticate(r *http.Request, cfg config.JWTConfig, resolver identity.Service, logg *logger.Logger, token string) (context.Context, error) {
	claims, err := pkgauth.ParseAccessToken(cfg, token)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token")
	}
	if claims.AccountID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid token subject")
	}

	ctx := r.Context()

	fact := identity.RoleFact{AccountID: claims.AccountID}
	if resolver != nil {
		fact, err = resolver.Resolve(ctx, claims.AccountID)
		if err != nil {
			return nil, err
		}
	}

	ctx = WithAccountID(ctx, claims.AccountID)
	ctx = WithRoleFact(ctx, fact)

	if logg != nil {
		ctx = logg.WithAccountID(ctx, claims.AccountID)
		ctx = logg.WithActorRole(ctx, fact.PrimaryRole().String())
		if fact.IsSalesperson {
			ctx = logg.WithStoreID(ctx, fact.SalesStoreID)
		}
	}

	return ctx, nil
}
