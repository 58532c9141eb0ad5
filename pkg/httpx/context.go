package httpx

import (
	"context"

	"github.com/aussiebroadwan/medoffice/pkg/jwtx"
)

type authKey struct{}

type authInfo struct {
	accountID int64
	claims    jwtx.Claims
}

// WithAccountID marks ctx as authenticated for accountID without any claims.
// Used by internal callers and tests that bypass AuthnMiddleware.
func WithAccountID(ctx context.Context, accountID int64) context.Context {
	return context.WithValue(ctx, authKey{}, authInfo{accountID: accountID})
}

func contextWithAuth(ctx context.Context, c jwtx.Claims, accountID int64) context.Context {
	return context.WithValue(ctx, authKey{}, authInfo{accountID: accountID, claims: c})
}

func authFrom(ctx context.Context) (authInfo, bool) {
	a, ok := ctx.Value(authKey{}).(authInfo)
	return a, ok
}

// AccountIDFromContext returns the authenticated account id, if any.
func AccountIDFromContext(ctx context.Context) (int64, bool) {
	a, ok := authFrom(ctx)
	return a.accountID, ok && a.accountID > 0
}

// RoleFromContext returns the role claim of the caller, or "".
func RoleFromContext(ctx context.Context) string {
	a, _ := authFrom(ctx)
	return a.claims.Role
}

// ClaimsFromContext returns the verified claims of the caller.
func ClaimsFromContext(ctx context.Context) (jwtx.Claims, bool) {
	a, ok := authFrom(ctx)
	return a.claims, ok && a.claims.Subject != ""
}
