package domain

import (
	"strings"
	"time"
)

// Account is a person who can log in to the office system.
type Account struct {
	ID           int64
	Name         string
	Email        string // unique, compared case-insensitively
	PasswordHash string // argon2 encoded
	Role         Role
	Phone        string
	Address      string
	Avatar       string     // reference to an uploaded image, may be empty
	TwoFASecret  *string    // TOTP secret (nullable, base32 encoded)
	TwoFAEnabled bool       // never true while TwoFASecret is nil
	LastLoginAt  *time.Time // last completed authentication (nullable)
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TwoFAState derives the lifecycle state from the stored secret and flag.
func (a Account) TwoFAState() TwoFAState {
	switch {
	case a.TwoFASecret == nil:
		return TwoFANone
	case a.TwoFAEnabled:
		return TwoFAActive
	default:
		return TwoFAProvisioned
	}
}

// HasSecret reports whether a TOTP secret is stored.
func (a Account) HasSecret() bool {
	return a.TwoFASecret != nil && *a.TwoFASecret != ""
}

// Profile returns the public view of the account handed back to clients.
func (a Account) Profile() Profile {
	return Profile{
		ID:           a.ID,
		Name:         a.Name,
		Email:        a.Email,
		Phone:        a.Phone,
		Address:      a.Address,
		Avatar:       a.Avatar,
		TwoFAEnabled: a.TwoFAEnabled,
	}
}

// Profile is an account without credentials or second-factor material.
type Profile struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone,omitempty"`
	Address      string `json:"address,omitempty"`
	Avatar       string `json:"avatar,omitempty"`
	TwoFAEnabled bool   `json:"twofa_enabled"`
}

// NormalizeEmail trims and lower-cases an address for lookup and storage.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NewAccount is the plaintext input for creating an account. The password is
// hashed before anything is stored.
type NewAccount struct {
	Name     string
	Email    string
	Password string
	Role     Role
	Phone    string
	Address  string
	Avatar   string
}
