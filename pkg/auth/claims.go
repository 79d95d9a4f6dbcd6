package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// AccessTokenPayload captures the data available when minting a JWT. Only the
// account identity goes into the token: the caller's effective role is
// re-resolved from staffing records on every request, so stale role claims
// cannot grant access.
type AccessTokenPayload struct {
	AccountID int64
	Email     string
	JTI       string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	AccountID int64  `json:"account_id"`
	Email     string `json:"email,omitempty"`
	jwt.RegisteredClaims
}
