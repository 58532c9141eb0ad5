package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"
)

// Token sizes in bytes before encoding.
const (
	TokenSize128 = 16 // key ids, throwaway passwords
	TokenSize256 = 32 // bootstrap tokens
)

// GenerateToken returns size random bytes as unpadded base64url.
func GenerateToken(size int) (string, error) {
	if size <= 0 {
		return "", fmt.Errorf("cryptox: token size must be positive, got %d", size)
	}

	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("cryptox: read random: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// MustGenerateToken is GenerateToken for start-up paths that cannot recover.
func MustGenerateToken(size int) string {
	token, err := GenerateToken(size)
	if err != nil {
		panic(err)
	}
	return token
}

// FingerprintToken is the base64url SHA-256 of token. Stored in place of
// secrets that only ever need an equality lookup.
func FingerprintToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// FingerprintCode fingerprints a user-typed code. Codes are case and
// whitespace insensitive, so "ab12 cd34" and "AB12CD34" match.
func FingerprintCode(code string) string {
	code = strings.ToUpper(strings.Join(strings.Fields(code), ""))
	return FingerprintToken(code)
}
