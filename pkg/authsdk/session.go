package authsdk

import (
	"context"
	"net/http"
)

// Session wraps a session token for the authenticated endpoints. There is
// no refresh; log in again once the token expires.
type Session struct {
	client *SDKClient
	token  string
	user   Profile
}

// NewSession creates a Session from an existing session token.
func (c *SDKClient) NewSession(token string, user Profile) *Session {
	return &Session{client: c, token: token, user: user}
}

// Token returns the raw bearer token.
func (s *Session) Token() string { return s.token }

// User returns the profile captured when the session was created.
func (s *Session) User() Profile { return s.user }

// Me fetches the current profile.
func (s *Session) Me(ctx context.Context) (*Profile, error) {
	resp, err := s.client.doRequest(ctx, http.MethodGet, "/v1/me", nil, s.authHeader())
	if err != nil {
		return nil, err
	}

	var out MeResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	s.user = out.User
	return &out.User, nil
}

// DisableSecondFactor turns TOTP off for the account after a password check.
func (s *Session) DisableSecondFactor(ctx context.Context, password string) error {
	var out SuccessResponse
	return s.client.postJSON(ctx, "/v1/auth/2fa/disable", s.token, DisableRequest{Password: password}, &out, http.StatusOK)
}

// RegenerateBackupCodes replaces the account's backup codes. code is a
// current TOTP code.
func (s *Session) RegenerateBackupCodes(ctx context.Context, code string) ([]string, error) {
	var out BackupCodesResponse
	err := s.client.postJSON(ctx, "/v1/auth/2fa/backup-codes", s.token, BackupCodesRequest{Code: code}, &out, http.StatusOK)
	if err != nil {
		return nil, err
	}
	return out.Codes, nil
}

// CreateAccount registers a new account. Requires an admin session.
func (s *Session) CreateAccount(ctx context.Context, req CreateAccountRequest) (*Profile, error) {
	var out CreateAccountResponse
	err := s.client.postJSON(ctx, "/v1/accounts", s.token, req, &out, http.StatusCreated)
	if err != nil {
		return nil, err
	}
	return &out.User, nil
}

func (s *Session) authHeader() map[string]string {
	return map[string]string{"Authorization": "Bearer " + s.token}
}
