package authsdk

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/aussiebroadwan/medoffice/pkg/jwtx"
)

// SDKClient is a client for the medical-office authentication service.
// It covers the unauthenticated endpoints and creates Sessions for the rest.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewSDKClient creates a new auth service client.
func NewSDKClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Login checks a password. When the role needs a second factor the response
// has RequiresSecondFactor set and a TemporaryToken for VerifySecondFactor;
// otherwise Token is a session token.
func (c *SDKClient) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	var out LoginResponse
	err := c.postJSON(ctx, "/v1/auth/login", "", LoginRequest{Email: email, Password: password}, &out, http.StatusOK)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// SetupSecondFactor provisions a new TOTP secret for the account.
func (c *SDKClient) SetupSecondFactor(ctx context.Context, email, password string) (*SetupResponse, error) {
	var out SetupResponse
	err := c.postJSON(ctx, "/v1/auth/2fa/setup", "", SetupRequest{Email: email, Password: password}, &out, http.StatusOK)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifySecondFactor exchanges a temporary token and a code for a session.
func (c *SDKClient) VerifySecondFactor(
	ctx context.Context,
	temporaryToken, code string,
	isSetup bool,
) (*VerifyResponse, error) {
	var out VerifyResponse
	err := c.postJSON(ctx, "/v1/auth/2fa/verify", temporaryToken, VerifyRequest{Code: code, IsSetup: isSetup}, &out, http.StatusOK)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Authenticate runs the whole login. codeFn is only called when a second
// factor is required and returns the code to submit.
func (c *SDKClient) Authenticate(
	ctx context.Context,
	email, password string,
	codeFn func() (string, error),
) (*Session, error) {
	login, err := c.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if !login.RequiresSecondFactor {
		return c.NewSession(login.Token, login.User), nil
	}

	code, err := codeFn()
	if err != nil {
		return nil, err
	}
	verified, err := c.VerifySecondFactor(ctx, login.TemporaryToken, code, false)
	if err != nil {
		return nil, err
	}
	return c.NewSession(verified.Token, verified.User), nil
}

// Bootstrap creates the first administrator on an empty service.
func (c *SDKClient) Bootstrap(ctx context.Context, token string, req BootstrapRequest) (*BootstrapResponse, error) {
	resp, err := c.doJSON(ctx, http.MethodPost, "/v1/bootstrap", req, map[string]string{
		"X-Bootstrap-Token": token,
	})
	if err != nil {
		return nil, err
	}

	var out BootstrapResponse
	if err := decodeJSON(resp, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

// KeySet fetches the JWKS and loads it into a KeySet ready for a jwtx
// verifier, so other services can check session tokens offline.
func (c *SDKClient) KeySet(ctx context.Context) (*jwtx.KeySet, error) {
	jwks, err := c.GetJWKS(ctx)
	if err != nil {
		return nil, err
	}

	ks := jwtx.NewKeySet()
	if err := ks.Replace(jwtx.JWKS(*jwks)); err != nil {
		return nil, err
	}
	return ks, nil
}
