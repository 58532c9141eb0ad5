package httpx

import (
	"net/http"
	"slices"
)

// RequireRole the caller's role claim must be one of the provided roles.
// Must sit behind AuthnMiddleware.
func RequireRole(roles ...string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if slices.Contains(roles, RoleFromContext(r.Context())) {
				next.ServeHTTP(w, r)
				return
			}

			WriteJSON(w, http.StatusForbidden, errorBody{
				Success: false,
				Error:   "forbidden",
				Message: "insufficient role for this operation",
			})
		})
	}
}
