//go:build e2e

package auth_test

import (
	"testing"

	"github.com/aussiebroadwan/medoffice/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

// TestDoctorSecondFactorFlow walks a doctor from account creation through
// enrolment, a TOTP login, a backup code login and disabling the factor.
func TestDoctorSecondFactorFlow(t *testing.T) {
	baseURL, cleanup := setupAuthContainer(t)
	defer cleanup()

	client := authsdk.NewSDKClient(baseURL)
	ctx := t.Context()
	admin := bootstrapService(t, client)

	const email = "lee@clinic.test"
	createDoctor(t, admin, email)

	// Password alone is not enough for a doctor.
	login, err := client.Login(ctx, email, doctorPassword)
	require.NoError(t, err)
	require.True(t, login.RequiresSecondFactor)
	require.Empty(t, login.Token)

	secret, backupCodes := enrolDoctor(t, client, email)
	require.Len(t, backupCodes, 10)

	session, err := client.Authenticate(ctx, email, doctorPassword, func() (string, error) {
		return generateTOTP(t, secret), nil
	})
	require.NoError(t, err)
	require.True(t, session.User().TwoFAEnabled)

	// Backup codes work once.
	login, err = client.Login(ctx, email, doctorPassword)
	require.NoError(t, err)
	res, err := client.VerifySecondFactor(ctx, login.TemporaryToken, backupCodes[0], false)
	require.NoError(t, err)
	require.True(t, res.UsedBackupCode)

	login, err = client.Login(ctx, email, doctorPassword)
	require.NoError(t, err)
	_, err = client.VerifySecondFactor(ctx, login.TemporaryToken, backupCodes[0], false)
	require.ErrorIs(t, err, authsdk.ErrInvalidCode)

	// Replacing the secret needs the password once active.
	_, err = client.SetupSecondFactor(ctx, email, "")
	require.ErrorIs(t, err, authsdk.ErrPasswordRequired)

	require.NoError(t, session.DisableSecondFactor(ctx, doctorPassword))
	me, err := session.Me(ctx)
	require.NoError(t, err)
	require.False(t, me.TwoFAEnabled)
}

// TestTemporaryTokenIsNotASession verifies a pending token cannot reach
// protected endpoints.
func TestTemporaryTokenIsNotASession(t *testing.T) {
	baseURL, cleanup := setupAuthContainer(t)
	defer cleanup()

	client := authsdk.NewSDKClient(baseURL)
	admin := bootstrapService(t, client)
	createDoctor(t, admin, "kim@clinic.test")

	login, err := client.Login(t.Context(), "kim@clinic.test", doctorPassword)
	require.NoError(t, err)

	_, err = client.NewSession(login.TemporaryToken, login.User).Me(t.Context())
	require.ErrorIs(t, err, authsdk.ErrInvalidToken)
}

// TestBypassCode verifies the non-production bypass code completes a login
// for a provisioned account.
func TestBypassCode(t *testing.T) {
	baseURL, cleanup := setupAuthContainerWithBypass(t)
	defer cleanup()

	client := authsdk.NewSDKClient(baseURL)
	ctx := t.Context()
	admin := bootstrapService(t, client)

	const email = "park@clinic.test"
	createDoctor(t, admin, email)

	_, err := client.SetupSecondFactor(ctx, email, "")
	require.NoError(t, err)

	login, err := client.Login(ctx, email, doctorPassword)
	require.NoError(t, err)

	res, err := client.VerifySecondFactor(ctx, login.TemporaryToken, bypassCode, true)
	require.NoError(t, err)
	require.True(t, res.TwoFAEnabled)
	require.NotEmpty(t, res.Token)
}
