package middleware

import (
	"context"

	"github.com/mfigueroa/retailhub-backend/internal/identity"
)

type contextKey string

const (
	ctxAccountID contextKey = "account_id"
	ctxRoleFact  contextKey = "role_fact"
)

// AccountIDFromContext returns the authenticated account id, or 0 when the
// request carried no credentials.
func AccountIDFromContext(ctx context.Context) int64 {
	if ctx == nil {
		return 0
	}
	if v, ok := ctx.Value(ctxAccountID).(int64); ok {
		return v
	}
	return 0
}

// FactFromContext returns the resolved role fact. The zero value means an
// anonymous caller.
func FactFromContext(ctx context.Context) identity.RoleFact {
	if ctx == nil {
		return identity.RoleFact{}
	}
	if v, ok := ctx.Value(ctxRoleFact).(identity.RoleFact); ok {
		return v
	}
	return identity.RoleFact{}
}

// WithAccountID injects the account identifier into the context.
func WithAccountID(ctx context.Context, accountID int64) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxAccountID, accountID)
}

// WithRoleFact injects the resolved role fact into the context.
func WithRoleFact(ctx context.Context, fact identity.RoleFact) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxRoleFact, fact)
}
