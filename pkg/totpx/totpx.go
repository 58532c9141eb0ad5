// Package totpx wraps pquerna/otp with the fixed TOTP parameters used by the
// service (SHA1, 6 digits, 30 second period) and renders provisioning QR
// codes for authenticator apps.
package totpx

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image/png"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	// Period is the TOTP step length in seconds.
	Period = 30

	// DefaultSkew is how many steps either side of the current one are
	// accepted. Four steps is a two minute window each way.
	DefaultSkew = 4

	// DefaultQRSize is the edge length in pixels of rendered QR codes.
	DefaultQRSize = 256
)

var ErrInvalidSecret = errors.New("totpx: invalid secret")

// Key is a freshly generated shared secret.
type Key struct {
	// Secret is the base32 encoded shared secret.
	Secret string
	// URL is the otpauth:// provisioning URI.
	URL string
}

// Generate creates a new random secret labelled with issuer and account.
func Generate(issuer, account string) (Key, error) {
	k, err := totp.Generate(totp.GenerateOpts{
		Issuer:      issuer,
		AccountName: account,
		Period:      Period,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return Key{}, fmt.Errorf("totpx: generate: %w", err)
	}
	return Key{Secret: k.Secret(), URL: k.URL()}, nil
}

// RenderPNG encodes the otpauth URI as a square PNG QR code.
func RenderPNG(uri string, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultQRSize
	}

	k, err := otp.NewKeyFromURL(uri)
	if err != nil {
		return nil, fmt.Errorf("totpx: parse uri: %w", err)
	}

	img, err := k.Image(size, size)
	if err != nil {
		return nil, fmt.Errorf("totpx: render qr: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("totpx: encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// DataURL wraps a PNG as a data: URL suitable for an <img src>.
func DataURL(pngBytes []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes)
}

// Validate reports whether code is valid for secret at the given instant,
// tolerating skew steps of drift in either direction. Malformed secrets and
// codes are simply invalid.
func Validate(secret, code string, skew uint, at time.Time) bool {
	code = strings.TrimSpace(code)
	if secret == "" || code == "" {
		return false
	}

	ok, err := totp.ValidateCustom(code, secret, at.UTC(), totp.ValidateOpts{
		Period:    Period,
		Skew:      skew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	return err == nil && ok
}

// Code computes the 6 digit code for secret at the given instant. Used by
// tests and operator tooling.
func Code(secret string, at time.Time) (string, error) {
	code, err := totp.GenerateCodeCustom(secret, at.UTC(), totp.ValidateOpts{
		Period:    Period,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSecret, err)
	}
	return code, nil
}
