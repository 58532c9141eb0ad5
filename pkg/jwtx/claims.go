package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Default token lifetimes for the login flow.
const (
	// DefaultSessionTTL is the lifetime of a fully authenticated session token.
	DefaultSessionTTL = 24 * time.Hour

	// DefaultPendingTTL is the lifetime of a temporary verification token
	// issued between password check and second-factor check.
	DefaultPendingTTL = 15 * time.Minute
)

// Claims are the token claims shared by session and temporary tokens. A
// temporary token is a Claims value with Pending set.
type Claims struct {
	jwt.RegisteredClaims

	// Email of the authenticated account, informational only.
	Email string `json:"email,omitempty"`

	// Role of the account at the time of issue: "admin", "doctor", ...
	Role string `json:"role,omitempty"`

	// Pending marks a temporary verification token. Only the second-factor
	// verification endpoint accepts tokens with this flag set.
	Pending bool `json:"twofa_pending,omitempty"`
}

// NewClaims builds minimally-correct claims for an account.
func NewClaims(
	accountID int64,
	email, role string,
	pending bool,
	ttl time.Duration,
	issuer string,
	now time.Time,
) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   strconv.FormatInt(accountID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		Email:   email,
		Role:    role,
		Pending: pending,
	}
}

// NewJTI returns a URL-safe random identifier for the "jti" claim.
func NewJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}

// AccountID parses the subject back into the numeric account id.
func (c *Claims) AccountID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidClaim
	}
	return id, nil
}

// ValidateIssuer checks if the issuer matches expected value.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil // nothing to enforce
	}

	if c.Issuer != expected {
		return ErrIssuer
	}

	return nil
}

// ValidateExpiry ensures the token hasn't expired (exp) and isn't before nbf
// at the given instant.
func (c *Claims) ValidateExpiry(now time.Time) error {
	if c.ExpiresAt != nil && now.After(c.ExpiresAt.Time) {
		return ErrExpired
	}

	if c.NotBefore != nil && now.Before(c.NotBefore.Time) {
		return ErrNotYetValid
	}

	return nil
}
