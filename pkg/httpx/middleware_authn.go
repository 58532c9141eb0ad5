package httpx

import (
	"net/http"
	"strings"

	"github.com/aussiebroadwan/medoffice/pkg/jwtx"
	"github.com/aussiebroadwan/medoffice/pkg/slogx"
)

// BearerToken returns the token of an "Authorization: Bearer" header, or ""
// when the header is absent or uses another scheme.
func BearerToken(r *http.Request) string {
	authz := r.Header.Get("Authorization")
	if len(authz) < len("Bearer ") || !strings.EqualFold(authz[:len("Bearer ")], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(authz[len("Bearer "):])
}

// AuthnMiddleware admits requests carrying a valid session token. Temporary
// verification tokens are refused: they only unlock the second-factor
// verification endpoint, which reads the bearer token itself.
func AuthnMiddleware(v jwtx.Verifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			raw := BearerToken(r)
			if raw == "" {
				writeBearerError(w, "missing_token", "missing bearer token")
				return
			}

			claims, err := v.Verify(raw)
			if err != nil {
				writeBearerError(w, "invalid_token", "token verification failed")
				log.Warn("jwt verify failed", "err", err)
				return
			}

			if claims.Pending {
				writeBearerError(w, "invalid_token", "second factor verification pending")
				log.Warn("pending token used on protected route", "path", r.URL.Path)
				return
			}

			accountID, err := claims.AccountID()
			if err != nil {
				writeBearerError(w, "invalid_token", "token subject invalid")
				return
			}

			ctx = contextWithAuth(ctx, claims, accountID)
			ctx = slogx.WithAccount(ctx, accountID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RFC 6750-style challenge with the service's JSON error body.
func writeBearerError(w http.ResponseWriter, code, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="`+desc+`"`)
	WriteJSON(w, http.StatusUnauthorized, errorBody{Success: false, Error: code, Message: desc})
}
