/*
Package authsdk provides a client SDK for the medical-office authentication
service, plus the request, response and error types the server writes.

# SDKClient vs Session

  - SDKClient: unauthenticated endpoints (login, 2FA setup and verify,
    bootstrap, health, JWKS)
  - Session: endpoints that need a session token (profile, disabling 2FA,
    backup codes, account creation)

Typical login:

	client := authsdk.NewSDKClient("https://auth.example.com")

	login, err := client.Login(ctx, "doctor@example.com", password)
	if err != nil {
		return err
	}
	if login.RequiresSecondFactor {
		verified, err := client.VerifySecondFactor(ctx, login.TemporaryToken, code, false)
		if err != nil {
			return err
		}
		session := client.NewSession(verified.Token, verified.User)
		_ = session
	}

Authenticate wraps the two steps:

	session, err := client.Authenticate(ctx, email, password, func() (string, error) {
		return promptForCode()
	})

# Enrolling an authenticator

	setup, err := client.SetupSecondFactor(ctx, email, "")
	// show setup.QRCode (a data: URL) to the user, then:
	verified, err := client.VerifySecondFactor(ctx, login.TemporaryToken, code, true)
	// verified.BackupCodes is only returned this once

# Errors

Every failure is an *APIError carrying the HTTP status, a stable code and a
message. Compare with errors.Is against the predefined values:

	_, err := client.VerifySecondFactor(ctx, token, code, false)
	switch {
	case errors.Is(err, authsdk.ErrInvalidCode):
		// ask again
	case errors.Is(err, authsdk.ErrInvalidToken):
		// log in again
	}

# Offline verification

KeySet downloads the JWKS so another service can verify session tokens
with a jwtx verifier without calling back.
*/
package authsdk
