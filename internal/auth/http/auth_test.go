package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/aussiebroadwan/medoffice/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

func post(t *testing.T, url, bearer, body string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodPost, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func readBody(t *testing.T, resp *http.Response) []byte {
	t.Helper()

	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return b
}

func TestLoginWithoutSecondFactor(t *testing.T) {
	srv := newTestServer(t)
	admin := srv.adminSession(t)
	srv.addAccount(t, admin, "sec@clinic.test", "secretary")

	login, err := srv.client.Login(context.Background(), "SEC@clinic.test", testPassword)
	require.NoError(t, err)
	require.True(t, login.Success)
	require.False(t, login.RequiresSecondFactor)
	require.NotEmpty(t, login.Token)
	require.Empty(t, login.TemporaryToken)
	require.Equal(t, "sec@clinic.test", login.User.Email)
	require.False(t, login.User.TwoFAEnabled)

	// The profile is role-stripped; the role travels in the token.
	resp := post(t, srv.URL+"/v1/auth/login", "", `{"email":"sec@clinic.test","password":"`+testPassword+`"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var raw struct {
		User map[string]any `json:"user"`
	}
	require.NoError(t, json.Unmarshal(readBody(t, resp), &raw))
	require.Contains(t, raw.User, "email")
	require.NotContains(t, raw.User, "role")
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	srv := newTestServer(t)
	admin := srv.adminSession(t)
	srv.addAccount(t, admin, "sec@clinic.test", "secretary")

	unknown := post(t, srv.URL+"/v1/auth/login", "", `{"email":"ghost@clinic.test","password":"whatever1"}`)
	wrong := post(t, srv.URL+"/v1/auth/login", "", `{"email":"sec@clinic.test","password":"whatever1"}`)

	require.Equal(t, http.StatusUnauthorized, unknown.StatusCode)
	require.Equal(t, http.StatusUnauthorized, wrong.StatusCode)
	require.Equal(t, readBody(t, unknown), readBody(t, wrong))
}

func TestLoginValidation(t *testing.T) {
	srv := newTestServer(t)

	resp := post(t, srv.URL+"/v1/auth/login", "", `{"email":"","password":""}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body authsdk.ErrorResponse
	require.NoError(t, json.Unmarshal(readBody(t, resp), &body))
	require.False(t, body.Success)
	require.Equal(t, authsdk.ErrorCodeValidation, body.Error)
	require.NotEmpty(t, body.Message)

	resp = post(t, srv.URL+"/v1/auth/login", "", `{"email":`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDoctorEnrolmentAndLogin(t *testing.T) {
	ctx := context.Background()
	srv := newTestServer(t)
	admin := srv.adminSession(t)
	srv.addAccount(t, admin, "doc@clinic.test", "doctor")

	setup, err := srv.client.SetupSecondFactor(ctx, "doc@clinic.test", "")
	require.NoError(t, err)
	require.NotEmpty(t, setup.Secret)
	require.Contains(t, setup.OTPAuthURL, "otpauth://totp/")
	require.True(t, strings.HasPrefix(setup.QRCode, "data:image/png;base64,"))

	login, err := srv.client.Login(ctx, "doc@clinic.test", testPassword)
	require.NoError(t, err)
	require.True(t, login.RequiresSecondFactor)
	require.Empty(t, login.Token)

	// A temporary token cannot reach protected endpoints.
	_, err = srv.client.NewSession(login.TemporaryToken, login.User).Me(ctx)
	require.ErrorIs(t, err, authsdk.ErrInvalidToken)

	res, err := srv.client.VerifySecondFactor(ctx, login.TemporaryToken, currentCode(t, setup.Secret), true)
	require.NoError(t, err)
	require.True(t, res.TwoFAEnabled)
	require.True(t, res.User.TwoFAEnabled)
	require.Len(t, res.BackupCodes, 10)

	me, err := srv.client.NewSession(res.Token, res.User).Me(ctx)
	require.NoError(t, err)
	require.Equal(t, "doc@clinic.test", me.Email)
	require.True(t, me.TwoFAEnabled)

	// Later logins run the same flow without isSetup.
	session, err := srv.client.Authenticate(ctx, "doc@clinic.test", testPassword, func() (string, error) {
		return currentCode(t, setup.Secret), nil
	})
	require.NoError(t, err)
	require.NotEmpty(t, session.Token())
}

func TestVerifyErrors(t *testing.T) {
	ctx := context.Background()
	srv := newTestServer(t)
	admin := srv.adminSession(t)
	srv.addAccount(t, admin, "doc@clinic.test", "doctor")

	t.Run("missing token", func(t *testing.T) {
		_, err := srv.client.VerifySecondFactor(ctx, "", "123456", false)
		require.ErrorIs(t, err, authsdk.ErrMissingToken)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := srv.client.VerifySecondFactor(ctx, "not.a.jwt", "123456", false)
		require.ErrorIs(t, err, authsdk.ErrInvalidToken)
	})

	t.Run("session token is not a temporary token", func(t *testing.T) {
		_, err := srv.client.VerifySecondFactor(ctx, admin.Token(), "123456", false)
		require.ErrorIs(t, err, authsdk.ErrInvalidToken)
	})

	t.Run("not configured", func(t *testing.T) {
		login, err := srv.client.Login(ctx, "doc@clinic.test", testPassword)
		require.NoError(t, err)

		_, err = srv.client.VerifySecondFactor(ctx, login.TemporaryToken, "123456", true)
		require.ErrorIs(t, err, authsdk.ErrSecondFactorNotConfigured)

		var apiErr *authsdk.APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	})

	t.Run("wrong code", func(t *testing.T) {
		secret, _ := srv.enrol(t, "doc@clinic.test")
		login, err := srv.client.Login(ctx, "doc@clinic.test", testPassword)
		require.NoError(t, err)

		code := "000000"
		if currentCode(t, secret) == code {
			code = "111111"
		}
		_, err = srv.client.VerifySecondFactor(ctx, login.TemporaryToken, code, false)
		require.ErrorIs(t, err, authsdk.ErrInvalidCode)
	})
}

func TestBackupCodeLogin(t *testing.T) {
	ctx := context.Background()
	srv := newTestServer(t)
	admin := srv.adminSession(t)
	srv.addAccount(t, admin, "doc@clinic.test", "doctor")
	_, codes := srv.enrol(t, "doc@clinic.test")

	login, err := srv.client.Login(ctx, "doc@clinic.test", testPassword)
	require.NoError(t, err)

	res, err := srv.client.VerifySecondFactor(ctx, login.TemporaryToken, strings.ToLower(codes[0]), false)
	require.NoError(t, err)
	require.True(t, res.UsedBackupCode)
	require.NotEmpty(t, res.Token)

	// Single use.
	login, err = srv.client.Login(ctx, "doc@clinic.test", testPassword)
	require.NoError(t, err)
	_, err = srv.client.VerifySecondFactor(ctx, login.TemporaryToken, codes[0], false)
	require.ErrorIs(t, err, authsdk.ErrInvalidCode)
}

func TestResetRequiresPassword(t *testing.T) {
	ctx := context.Background()
	srv := newTestServer(t)
	admin := srv.adminSession(t)
	srv.addAccount(t, admin, "doc@clinic.test", "doctor")
	srv.enrol(t, "doc@clinic.test")

	_, err := srv.client.SetupSecondFactor(ctx, "doc@clinic.test", "")
	require.ErrorIs(t, err, authsdk.ErrPasswordRequired)

	_, err = srv.client.SetupSecondFactor(ctx, "doc@clinic.test", "wrong-password")
	require.ErrorIs(t, err, authsdk.ErrInvalidPassword)

	setup, err := srv.client.SetupSecondFactor(ctx, "doc@clinic.test", testPassword)
	require.NoError(t, err)
	require.NotEmpty(t, setup.Secret)

	_, err = srv.client.SetupSecondFactor(ctx, "ghost@clinic.test", "")
	require.ErrorIs(t, err, authsdk.ErrAccountNotFound)
}

func TestDisableAndRegenerate(t *testing.T) {
	ctx := context.Background()
	srv := newTestServer(t)
	admin := srv.adminSession(t)
	srv.addAccount(t, admin, "doc@clinic.test", "doctor")
	secret, first := srv.enrol(t, "doc@clinic.test")

	session, err := srv.client.Authenticate(ctx, "doc@clinic.test", testPassword, func() (string, error) {
		return currentCode(t, secret), nil
	})
	require.NoError(t, err)

	codes, err := session.RegenerateBackupCodes(ctx, currentCode(t, secret))
	require.NoError(t, err)
	require.Len(t, codes, 10)
	require.NotEqual(t, first, codes)

	_, err = session.RegenerateBackupCodes(ctx, "")
	require.ErrorIs(t, err, authsdk.ErrValidation)

	require.ErrorIs(t, session.DisableSecondFactor(ctx, ""), authsdk.ErrPasswordRequired)
	require.ErrorIs(t, session.DisableSecondFactor(ctx, "wrong-password"), authsdk.ErrInvalidPassword)
	require.NoError(t, session.DisableSecondFactor(ctx, testPassword))

	me, err := session.Me(ctx)
	require.NoError(t, err)
	require.False(t, me.TwoFAEnabled)

	// Doctors still need a second factor, so the next verify has nothing to check.
	login, err := srv.client.Login(ctx, "doc@clinic.test", testPassword)
	require.NoError(t, err)
	_, err = srv.client.VerifySecondFactor(ctx, login.TemporaryToken, currentCode(t, secret), false)
	require.ErrorIs(t, err, authsdk.ErrSecondFactorNotConfigured)
}

func TestProtectedEndpointsNeedSession(t *testing.T) {
	srv := newTestServer(t)

	resp := post(t, srv.URL+"/v1/auth/2fa/disable", "", `{"password":"x"}`)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/v1/me", nil)
	require.NoError(t, err)
	me, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer me.Body.Close()
	require.Equal(t, http.StatusUnauthorized, me.StatusCode)
}

func TestErrorEnvelope(t *testing.T) {
	srv := newTestServer(t)

	resp := post(t, srv.URL+"/v1/auth/2fa/verify", "", `{"code":"123456"}`)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var raw map[string]any
	require.NoError(t, json.NewDecoder(bytes.NewReader(readBody(t, resp))).Decode(&raw))
	require.Equal(t, false, raw["success"])
	require.Equal(t, authsdk.ErrorCodeMissingToken, raw["error"])
	require.NotEmpty(t, raw["message"])
}
