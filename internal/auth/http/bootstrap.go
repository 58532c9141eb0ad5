package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/medoffice/internal/auth/domain"
	"github.com/aussiebroadwan/medoffice/internal/auth/service"
	"github.com/aussiebroadwan/medoffice/pkg/authsdk"
	"github.com/aussiebroadwan/medoffice/pkg/httpx"
	"github.com/aussiebroadwan/medoffice/pkg/slogx"
)

type BootstrapHandler struct {
	BootstrapService *service.BootstrapService
}

// ServeHTTP handles the bootstrap endpoint for initial system setup.
//
//	@Summary		Bootstrap the authentication system
//	@Description	Creates the first administrator account. Only available when a bootstrap token is configured, and only while no accounts exist.
//	@Tags			Bootstrap
//	@Accept			json
//	@Produce		json
//	@Param			X-Bootstrap-Token	header		string							true	"Bootstrap token for authorization"
//	@Param			request				body		authsdk.BootstrapRequest		true	"First administrator"
//	@Success		201					{object}	authsdk.BootstrapResponse		"Administrator created"
//	@Failure		400					{object}	authsdk.ValidationErrorResponse	"Invalid request body or validation failed"
//	@Failure		401					{object}	authsdk.ErrorResponse			"Missing or invalid bootstrap token, or system already bootstrapped"
//	@Failure		404					{object}	authsdk.ErrorResponse			"Bootstrap not enabled (no token configured)"
//	@Failure		500					{object}	authsdk.ErrorResponse			"Failed to create admin account"
//	@Router			/v1/bootstrap [post].
func (h *BootstrapHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	l := slogx.FromContext(r.Context())
	l.Info("Starting to bootstrap")

	// 1. Check if enabled
	if h.BootstrapService.Token == "" {
		authsdk.ErrNotFound.WithMessage("bootstrap endpoint is not enabled").WriteError(w)
		return
	}

	// 2. Require bootstrap token header
	token := r.Header.Get("X-Bootstrap-Token")
	if token == "" {
		authsdk.ErrUnauthorized.WithMessage("bootstrap token is required in X-Bootstrap-Token header").WriteError(w)
		return
	}

	// 3. Parse request body and validate
	var req authsdk.BootstrapRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if errs := req.Validate(); errs != nil {
		writeValidation(w, errs)
		return
	}

	// 4. Perform bootstrap
	adminID, err := h.BootstrapService.Bootstrap(r.Context(), token, domain.NewAccount{
		Name:     req.AdminName,
		Email:    req.AdminEmail,
		Password: req.AdminPassword,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBootstrapAlready):
			authsdk.ErrUnauthorized.WithMessage("system has already been bootstrapped").WriteError(w)
		case errors.Is(err, service.ErrBootstrapUnauthorized):
			authsdk.ErrUnauthorized.WithMessage("invalid bootstrap token").WriteError(w)
		case errors.Is(err, service.ErrBootstrapFailedToCreateAdmin):
			authsdk.ErrServerError.WithMessage("failed to create admin account").WriteError(w)
		default:
			writeServiceError(w, r, err)
		}
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, authsdk.BootstrapResponse{
		Success:        true,
		AdminAccountID: adminID,
	})
}
