package http

import (
	"net/http"

	"github.com/aussiebroadwan/medoffice/internal/auth/service"
	"github.com/aussiebroadwan/medoffice/pkg/authsdk"
	"github.com/aussiebroadwan/medoffice/pkg/httpx"
	"github.com/aussiebroadwan/medoffice/pkg/totpx"
)

// SecondFactorHandler handles the TOTP lifecycle endpoints.
type SecondFactorHandler struct {
	AuthService *service.AuthService
}

// HandleSetup handles POST /v1/auth/2fa/setup
//
//	@Summary		Provision a TOTP secret
//	@Description	Generates a new TOTP secret for the account and returns it with an otpauth URI and a PNG QR code (data URL). Any previous secret stops working.
//	@Description	Replacing an active second factor requires the current password and clears the backup codes.
//	@Tags			Second Factor
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.SetupRequest	true	"Account email and, for active accounts, password"
//	@Success		200		{object}	authsdk.SetupResponse	"Secret, otpauth URI and QR code"
//	@Failure		400		{object}	authsdk.ErrorResponse	"Missing email or password"
//	@Failure		401		{object}	authsdk.ErrorResponse	"Invalid password"
//	@Failure		404		{object}	authsdk.ErrorResponse	"Account not found"
//	@Failure		500		{object}	authsdk.ErrorResponse	"Internal server error"
//	@Router			/v1/auth/2fa/setup [post].
func (h *SecondFactorHandler) HandleSetup(w http.ResponseWriter, r *http.Request) {
	var req authsdk.SetupRequest
	if !decodeBody(w, r, &req) {
		return
	}

	p, err := h.AuthService.ProvisionSecondFactor(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.SetupResponse{
		Success:    true,
		Secret:     p.Secret,
		OTPAuthURL: p.OTPAuthURL,
		QRCode:     totpx.DataURL(p.QRCodePNG),
	})
}

// HandleVerify handles POST /v1/auth/2fa/verify
//
//	@Summary		Verify a second-factor code
//	@Description	Completes a pending login. Authenticated with the temporary token from /v1/auth/login. The code may be a TOTP code or an unused backup code.
//	@Description	With isSetup=true a provisioned secret becomes active and backup codes are returned once.
//	@Tags			Second Factor
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.VerifyRequest	true	"Code and setup flag"
//	@Success		200		{object}	authsdk.VerifyResponse	"Session token and profile"
//	@Failure		400		{object}	authsdk.ErrorResponse	"Missing code or second factor not configured"
//	@Failure		401		{object}	authsdk.ErrorResponse	"Missing, invalid or expired token, or invalid code"
//	@Failure		404		{object}	authsdk.ErrorResponse	"Account not found"
//	@Failure		429		{object}	authsdk.ErrorResponse	"Too many attempts"
//	@Failure		500		{object}	authsdk.ErrorResponse	"Internal server error"
//	@Router			/v1/auth/2fa/verify [post].
func (h *SecondFactorHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	var req authsdk.VerifyRequest
	if !decodeBody(w, r, &req) {
		return
	}

	res, err := h.AuthService.VerifySecondFactor(r.Context(), httpx.BearerToken(r), req.Code, req.IsSetup)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.VerifyResponse{
		Success:        true,
		Token:          res.SessionToken,
		User:           toProfile(res.Profile),
		TwoFAEnabled:   res.TwoFAEnabled,
		BackupCodes:    res.BackupCodes,
		UsedBackupCode: res.UsedBackupCode,
	})
}

// HandleDisable handles POST /v1/auth/2fa/disable
//
//	@Summary		Disable the second factor
//	@Description	Clears the TOTP secret, the enabled flag and all backup codes after checking the current password.
//	@Tags			Second Factor
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.DisableRequest	true	"Current password"
//	@Success		200		{object}	authsdk.SuccessResponse	"Second factor disabled"
//	@Failure		400		{object}	authsdk.ErrorResponse	"Password required or second factor not configured"
//	@Failure		401		{object}	authsdk.ErrorResponse	"Invalid session token or password"
//	@Failure		404		{object}	authsdk.ErrorResponse	"Account not found"
//	@Failure		500		{object}	authsdk.ErrorResponse	"Internal server error"
//	@Router			/v1/auth/2fa/disable [post].
func (h *SecondFactorHandler) HandleDisable(w http.ResponseWriter, r *http.Request) {
	accountID, ok := httpx.AccountIDFromContext(r.Context())
	if !ok {
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}

	var req authsdk.DisableRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.AuthService.DisableSecondFactor(r.Context(), accountID, req.Password); err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.SuccessResponse{
		Success: true,
		Message: "two-factor authentication disabled",
	})
}

// HandleBackupCodes handles POST /v1/auth/2fa/backup-codes
//
//	@Summary		Regenerate backup codes
//	@Description	Replaces every backup code of an account with an active second factor. Requires a current TOTP code.
//	@Tags			Second Factor
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.BackupCodesRequest	true	"Current TOTP code"
//	@Success		200		{object}	authsdk.BackupCodesResponse	"New backup codes (shown once)"
//	@Failure		400		{object}	authsdk.ErrorResponse		"Missing code or second factor not active"
//	@Failure		401		{object}	authsdk.ErrorResponse		"Invalid session token or code"
//	@Failure		429		{object}	authsdk.ErrorResponse		"Too many attempts"
//	@Failure		500		{object}	authsdk.ErrorResponse		"Internal server error"
//	@Router			/v1/auth/2fa/backup-codes [post].
func (h *SecondFactorHandler) HandleBackupCodes(w http.ResponseWriter, r *http.Request) {
	accountID, ok := httpx.AccountIDFromContext(r.Context())
	if !ok {
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}

	var req authsdk.BackupCodesRequest
	if !decodeBody(w, r, &req) {
		return
	}

	codes, err := h.AuthService.RegenerateBackupCodes(r.Context(), accountID, req.Code)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.BackupCodesResponse{
		Success: true,
		Codes:   codes,
	})
}
