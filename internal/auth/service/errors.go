package service

import "errors"

// Errors returned by the auth flow. Handlers map them onto API error codes;
// anything else is an infrastructure failure.
var (
	ErrValidation                = errors.New("validation_error")
	ErrInvalidCredentials        = errors.New("invalid_credentials")
	ErrAccountNotFound           = errors.New("account_not_found")
	ErrMissingTemporaryToken     = errors.New("missing_token")
	ErrInvalidOrExpiredToken     = errors.New("invalid_token")
	ErrSecondFactorNotConfigured = errors.New("twofa_not_configured")
	ErrInvalidCode               = errors.New("invalid_code")
	ErrPasswordRequired          = errors.New("password_required")
	ErrInvalidPassword           = errors.New("invalid_password")
	ErrTooManyAttempts           = errors.New("too_many_attempts")
	ErrEmailTaken                = errors.New("email_taken")
)
