package authsdk

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/aussiebroadwan/medoffice/pkg/httpx"
)

// ============================================================================
// Error Codes
// ============================================================================

const (
	ErrorCodeValidation                = "validation_error"
	ErrorCodeInvalidCredentials        = "invalid_credentials"
	ErrorCodeAccountNotFound           = "account_not_found"
	ErrorCodeMissingToken              = "missing_token"
	ErrorCodeInvalidToken              = "invalid_token"
	ErrorCodeSecondFactorNotConfigured = "twofa_not_configured"
	ErrorCodeInvalidCode               = "invalid_code"
	ErrorCodePasswordRequired          = "password_required"
	ErrorCodeInvalidPassword           = "invalid_password"
	ErrorCodeTooManyAttempts           = "too_many_attempts"
	ErrorCodeEmailTaken                = "email_taken"
	ErrorCodeForbidden                 = "forbidden"
	ErrorCodeUnauthorized              = "unauthorized"
	ErrorCodeNotFound                  = "not_found"
	ErrorCodeServerError               = "server_error"
)

// ============================================================================
// APIError - failure envelope
// ============================================================================

// APIError is the failure body every endpoint returns:
//
//	{"success": false, "error": "<code>", "message": "<text>"}
//
// It implements the error interface so the server can write it and the SDK
// client can return it.
type APIError struct {
	// StatusCode is the HTTP status code for this error
	StatusCode int `json:"-"`

	// Code is the machine readable error code (e.g., "invalid_code")
	Code string `json:"error"`

	// Message is a human-readable description of the error
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches on the error code so callers can errors.Is against the
// predefined values regardless of message or status.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	return ok && t.Code == e.Code
}

// WriteError writes this APIError to an HTTP response writer.
func (e *APIError) WriteError(w http.ResponseWriter) {
	httpx.NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.StatusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Success: false,
		Error:   e.Code,
		Message: e.Message,
	})
}

// WithMessage returns a copy with a different message.
func (e *APIError) WithMessage(msg string) *APIError {
	return &APIError{StatusCode: e.StatusCode, Code: e.Code, Message: msg}
}

// ============================================================================
// Predefined Errors
// ============================================================================

var (
	ErrValidation = &APIError{
		StatusCode: http.StatusBadRequest,
		Code:       ErrorCodeValidation,
		Message:    "the request is malformed or missing required fields",
	}

	// ErrInvalidCredentials covers both unknown email and wrong password.
	ErrInvalidCredentials = &APIError{
		StatusCode: http.StatusUnauthorized,
		Code:       ErrorCodeInvalidCredentials,
		Message:    "invalid email or password",
	}

	ErrAccountNotFound = &APIError{
		StatusCode: http.StatusNotFound,
		Code:       ErrorCodeAccountNotFound,
		Message:    "account not found",
	}

	ErrMissingToken = &APIError{
		StatusCode: http.StatusUnauthorized,
		Code:       ErrorCodeMissingToken,
		Message:    "a bearer token is required",
	}

	ErrInvalidToken = &APIError{
		StatusCode: http.StatusUnauthorized,
		Code:       ErrorCodeInvalidToken,
		Message:    "the token is invalid or expired, log in again",
	}

	ErrSecondFactorNotConfigured = &APIError{
		StatusCode: http.StatusBadRequest,
		Code:       ErrorCodeSecondFactorNotConfigured,
		Message:    "two-factor authentication is not set up for this account",
	}

	ErrInvalidCode = &APIError{
		StatusCode: http.StatusUnauthorized,
		Code:       ErrorCodeInvalidCode,
		Message:    "invalid verification code",
	}

	ErrPasswordRequired = &APIError{
		StatusCode: http.StatusBadRequest,
		Code:       ErrorCodePasswordRequired,
		Message:    "the current password is required",
	}

	ErrInvalidPassword = &APIError{
		StatusCode: http.StatusUnauthorized,
		Code:       ErrorCodeInvalidPassword,
		Message:    "invalid password",
	}

	ErrTooManyAttempts = &APIError{
		StatusCode: http.StatusTooManyRequests,
		Code:       ErrorCodeTooManyAttempts,
		Message:    "too many failed attempts, try again later",
	}

	ErrEmailTaken = &APIError{
		StatusCode: http.StatusConflict,
		Code:       ErrorCodeEmailTaken,
		Message:    "an account with this email already exists",
	}

	ErrUnauthorized = &APIError{
		StatusCode: http.StatusUnauthorized,
		Code:       ErrorCodeUnauthorized,
		Message:    "unauthorized",
	}

	ErrNotFound = &APIError{
		StatusCode: http.StatusNotFound,
		Code:       ErrorCodeNotFound,
		Message:    "not found",
	}

	// ErrServerError is the only failure that is not user-correctable.
	ErrServerError = &APIError{
		StatusCode: http.StatusInternalServerError,
		Code:       ErrorCodeServerError,
		Message:    "internal server error, retry later",
	}
)

// NewAPIError creates a new APIError with the given status code, error code, and message.
func NewAPIError(statusCode int, code, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		Code:       code,
		Message:    message,
	}
}

// ============================================================================
// Error Parsing Helpers
// ============================================================================

// parseErrorResponse turns a non-2xx response into an *APIError.
func parseErrorResponse(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		return &APIError{
			StatusCode: resp.StatusCode,
			Code:       errResp.Error,
			Message:    errResp.Message,
		}
	}

	// Fallback: create generic error from status code
	return &APIError{
		StatusCode: resp.StatusCode,
		Code:       ErrorCodeServerError,
		Message:    fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
	}
}
