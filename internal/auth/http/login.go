package http

import (
	"net/http"

	"github.com/aussiebroadwan/medoffice/internal/auth/service"
	"github.com/aussiebroadwan/medoffice/pkg/authsdk"
	"github.com/aussiebroadwan/medoffice/pkg/httpx"
)

type LoginHandler struct {
	AuthService *service.AuthService
}

// ServeHTTP handles password login.
//
//	@Summary		Log in with email and password
//	@Description	Checks the credentials. Roles that require a second factor receive a temporary token (15 minutes) for /v1/auth/2fa/verify; all other roles receive a session token directly.
//	@Description	Unknown email and wrong password produce the same response.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.LoginRequest	true	"Credentials"
//	@Success		200		{object}	authsdk.LoginResponse	"Session token, or temporary token when requires_2fa is true"
//	@Failure		400		{object}	authsdk.ErrorResponse	"Missing email or password"
//	@Failure		401		{object}	authsdk.ErrorResponse	"Invalid credentials"
//	@Failure		429		{object}	authsdk.ErrorResponse	"Rate limit exceeded"
//	@Failure		500		{object}	authsdk.ErrorResponse	"Internal server error"
//	@Router			/v1/auth/login [post].
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req authsdk.LoginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	res, err := h.AuthService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.LoginResponse{
		Success:              true,
		RequiresSecondFactor: res.RequiresSecondFactor,
		TemporaryToken:       res.TemporaryToken,
		Token:                res.SessionToken,
		User:                 toProfile(res.Profile),
	})
}
