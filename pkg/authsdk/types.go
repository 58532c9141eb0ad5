package authsdk

import "github.com/aussiebroadwan/medoffice/pkg/jwtx"

// ============================================================================
// Envelope Types
// ============================================================================

// ErrorResponse is the wire form of an APIError.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error" example:"invalid_code"`
	Message string `json:"message" example:"invalid verification code"`
}

// ValidationErrorResponse is an ErrorResponse with per-field reasons.
type ValidationErrorResponse struct {
	Success bool              `json:"success"`
	Error   string            `json:"error" example:"validation_error"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// SuccessResponse is returned by operations with nothing else to say.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// Profile is the public view of an account.
type Profile struct {
	ID           int64  `json:"id" example:"42"`
	Name         string `json:"name" example:"Dr Jane Lee"`
	Email        string `json:"email" example:"doctor@example.com"`
	Phone        string `json:"phone,omitempty"`
	Address      string `json:"address,omitempty"`
	Avatar       string `json:"avatar,omitempty"`
	TwoFAEnabled bool   `json:"twofa_enabled"`
}

// ============================================================================
// Login Types
// ============================================================================

type LoginRequest struct {
	Email    string `json:"email" example:"doctor@example.com"`
	Password string `json:"password" example:"Secret123"`
}

// LoginResponse carries either a session token or, when RequiresSecondFactor
// is set, a temporary token for the verify endpoint.
type LoginResponse struct {
	Success              bool    `json:"success"`
	RequiresSecondFactor bool    `json:"requires_2fa"`
	TemporaryToken       string  `json:"temp_token,omitempty"`
	Token                string  `json:"token,omitempty"`
	User                 Profile `json:"user"`
}

// ============================================================================
// Second Factor Types
// ============================================================================

// SetupRequest asks for a new TOTP secret. Password is only needed when the
// account already has an active second factor.
type SetupRequest struct {
	Email    string `json:"email" example:"doctor@example.com"`
	Password string `json:"password,omitempty"`
}

type SetupResponse struct {
	Success    bool   `json:"success"`
	Secret     string `json:"secret" example:"JBSWY3DPEHPK3PXP"`
	OTPAuthURL string `json:"otpauth_url" example:"otpauth://totp/MedOffice:doctor@example.com?secret=JBSWY3DPEHPK3PXP&issuer=MedOffice"`
	// QRCode is a data:image/png;base64 URL of the otpauth URI.
	QRCode string `json:"qr_code"`
}

type VerifyRequest struct {
	Code    string `json:"code" example:"123456"`
	IsSetup bool   `json:"isSetup"`
}

type VerifyResponse struct {
	Success      bool    `json:"success"`
	Token        string  `json:"token"`
	User         Profile `json:"user"`
	TwoFAEnabled bool    `json:"twofa_enabled"`
	// BackupCodes is only present the first time the second factor is
	// activated. They are never shown again.
	BackupCodes    []string `json:"backup_codes,omitempty"`
	UsedBackupCode bool     `json:"used_backup_code,omitempty"`
}

type DisableRequest struct {
	Password string `json:"password"`
}

type BackupCodesRequest struct {
	Code string `json:"code" example:"123456"` // current TOTP code
}

type BackupCodesResponse struct {
	Success bool     `json:"success"`
	Codes   []string `json:"codes"`
}

// ============================================================================
// Account Types
// ============================================================================

type MeResponse struct {
	Success bool    `json:"success"`
	User    Profile `json:"user"`
}

type CreateAccountRequest struct {
	Name     string `json:"name" example:"Sam Front"`
	Email    string `json:"email" example:"desk@example.com"`
	Password string `json:"password"`
	Role     string `json:"role" example:"secretary"`
	Phone    string `json:"phone,omitempty"`
	Address  string `json:"address,omitempty"`
	Avatar   string `json:"avatar,omitempty"`
}

type CreateAccountResponse struct {
	Success bool    `json:"success"`
	User    Profile `json:"user"`
}

// ============================================================================
// Bootstrap Types
// ============================================================================

// BootstrapRequest creates the first administrator.
type BootstrapRequest struct {
	AdminName     string `json:"admin_name" example:"Office Admin"`
	AdminEmail    string `json:"admin_email" example:"admin@example.com"`
	AdminPassword string `json:"admin_password"`
}

type BootstrapResponse struct {
	Success        bool  `json:"success"`
	AdminAccountID int64 `json:"admin_account_id"`
}

// ============================================================================
// Health Types
// ============================================================================

// HealthResponse represents the response structure for health check endpoints.
// Used by both /livez and /readyz endpoints (readyz includes additional Checks field).
type HealthResponse struct {
	// Status indicates the overall health status (e.g., "ok")
	Status string `json:"status"`

	// Uptime is the service uptime duration as a string (e.g., "1h23m45s")
	Uptime string `json:"uptime,omitempty"`

	// Version is the service version string
	Version string `json:"version,omitempty"`

	// Checks contains readiness check results for critical dependencies (only for /readyz)
	Checks *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks represents the status of critical service dependencies.
type HealthChecks struct {
	Database string `json:"database"`
	Signer   string `json:"signer"`
	// Limiter is omitted when no attempt limiter is configured.
	Limiter string `json:"limiter,omitempty"`
}

// ============================================================================
// JWKS Types
// ============================================================================

// JWKSResponse contains the JSON Web Key Set.
// This is returned from the GET /.well-known/jwks.json endpoint and contains
// public keys used to verify JWT signatures.
type JWKSResponse jwtx.JWKS
