package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/medoffice/internal/auth/domain"
	"github.com/aussiebroadwan/medoffice/internal/auth/service"
	"github.com/aussiebroadwan/medoffice/pkg/authsdk"
	"github.com/aussiebroadwan/medoffice/pkg/httpx"
	"github.com/aussiebroadwan/medoffice/pkg/slogx"
)

// serviceErrors maps auth flow sentinels onto their API errors. Anything not
// listed is a server error.
var serviceErrors = []struct {
	err error
	api *authsdk.APIError
}{
	{service.ErrInvalidCredentials, authsdk.ErrInvalidCredentials},
	{service.ErrAccountNotFound, authsdk.ErrAccountNotFound},
	{service.ErrMissingTemporaryToken, authsdk.ErrMissingToken},
	{service.ErrInvalidOrExpiredToken, authsdk.ErrInvalidToken},
	{service.ErrSecondFactorNotConfigured, authsdk.ErrSecondFactorNotConfigured},
	{service.ErrInvalidCode, authsdk.ErrInvalidCode},
	{service.ErrPasswordRequired, authsdk.ErrPasswordRequired},
	{service.ErrInvalidPassword, authsdk.ErrInvalidPassword},
	{service.ErrTooManyAttempts, authsdk.ErrTooManyAttempts},
	{service.ErrEmailTaken, authsdk.ErrEmailTaken},
}

// writeServiceError writes the API error for err. Validation errors keep
// their detail message; unexpected errors are logged and hidden.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, service.ErrValidation) {
		msg := strings.TrimPrefix(err.Error(), service.ErrValidation.Error()+": ")
		if msg == service.ErrValidation.Error() {
			msg = authsdk.ErrValidation.Message
		}
		authsdk.ErrValidation.WithMessage(msg).WriteError(w)
		return
	}

	for _, m := range serviceErrors {
		if errors.Is(err, m.err) {
			m.api.WriteError(w)
			return
		}
	}

	slogx.FromContext(r.Context()).Error("request failed", slog.Any("error", err))
	authsdk.ErrServerError.WriteError(w)
}

// decodeBody reads a JSON request body and writes a validation error when
// it cannot.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := httpx.DecodeJSON(w, r, v); err != nil {
		authsdk.ErrValidation.WithMessage("request body must be valid JSON").WriteError(w)
		return false
	}
	return true
}

func writeValidation(w http.ResponseWriter, details map[string]string) {
	httpx.WriteJSON(w, http.StatusBadRequest, authsdk.ValidationErrorResponse{
		Success: false,
		Error:   authsdk.ErrorCodeValidation,
		Message: "validation failed for some fields",
		Details: details,
	})
}

func toProfile(p domain.Profile) authsdk.Profile {
	return authsdk.Profile{
		ID:           p.ID,
		Name:         p.Name,
		Email:        p.Email,
		Phone:        p.Phone,
		Address:      p.Address,
		Avatar:       p.Avatar,
		TwoFAEnabled: p.TwoFAEnabled,
	}
}
