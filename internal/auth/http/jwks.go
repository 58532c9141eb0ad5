package http

import (
	"encoding/json"
	"net/http"

	"github.com/aussiebroadwan/medoffice/pkg/authsdk"
	"github.com/aussiebroadwan/medoffice/pkg/jwtx"
)

// JWKSHandler exposes the public keys that verify session tokens.
//
//	@Summary		Get JWKS
//	@Description	Returns the JSON Web Key Set used to verify session tokens. Keys only change on restart, so the response may be cached for five minutes.
//	@Tags			well-known
//	@Produce		json
//	@Success		200	{object}	authsdk.JWKSResponse	"The JSON Web Key Set"
//	@Router			/.well-known/jwks.json [get].
func JWKSHandler(keys *jwtx.KeySet) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := json.Marshal(authsdk.JWKSResponse(keys.PublicJWKS()))
		if err != nil {
			authsdk.ErrServerError.WriteError(w)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "public, max-age=300")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
	}
}
