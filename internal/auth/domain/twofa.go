package domain

import "time"

// TwoFAState is the per-account second-factor lifecycle state.
type TwoFAState int

const (
	// TwoFANone no secret is stored.
	TwoFANone TwoFAState = iota
	// TwoFAProvisioned a secret is stored but was never confirmed.
	TwoFAProvisioned
	// TwoFAActive the secret was confirmed with a valid code.
	TwoFAActive
)

func (s TwoFAState) String() string {
	switch s {
	case TwoFAProvisioned:
		return "provisioned"
	case TwoFAActive:
		return "active"
	default:
		return "none"
	}
}

// BackupCode is a single-use recovery code, stored hashed.
type BackupCode struct {
	ID        string // ULID
	AccountID int64
	CodeHash  string // cryptox.FingerprintCode of the code
	UsedAt    *time.Time
	CreatedAt time.Time
}

// Provisioning is what a client needs to enrol an authenticator app.
type Provisioning struct {
	Secret     string // base32 shared secret
	OTPAuthURL string // otpauth:// URI
	QRCodePNG  []byte // the URI rendered as a PNG QR code
}

// LoginResult is the outcome of a successful password check.
type LoginResult struct {
	RequiresSecondFactor bool
	// TemporaryToken is set when RequiresSecondFactor is true.
	TemporaryToken string
	// SessionToken is set when RequiresSecondFactor is false.
	SessionToken string
	Profile      Profile
}

// SessionResult is the outcome of a successful second-factor check.
type SessionResult struct {
	SessionToken string
	Profile      Profile
	TwoFAEnabled bool
	// BackupCodes is only set the first time an account becomes active.
	BackupCodes []string
	// UsedBackupCode reports that a backup code was consumed.
	UsedBackupCode bool
}
