package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/medoffice/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
	ErrNestedTx      = errors.New("store: nested transaction")
)

// Store is the root data access interface. Concrete drivers (sqlite)
// implement this. It exposes sub-repositories to keep concerns tidy and
// testable, and a Tx never hands out another Tx so transactions cannot nest.
type Store interface {
	Accounts() Accounts
	BackupCodes() BackupCodes

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources (optional for sqlite).
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Accounts interface {
	// GetAccountByID returns an account by its numeric id.
	GetAccountByID(ctx context.Context, id int64) (domain.Account, error)

	// GetAccountByEmail looks an account up by email, case-insensitively.
	GetAccountByEmail(ctx context.Context, email string) (domain.Account, error)

	// CreateAccount inserts a new account and returns its id. Fails with
	// ErrAlreadyExists when the email is taken.
	CreateAccount(ctx context.Context, a domain.Account) (int64, error)

	// ResetTwoFASecret stores a new TOTP secret and clears the enabled flag,
	// leaving the account provisioned but not active.
	ResetTwoFASecret(ctx context.Context, id int64, secret string) error

	// EnableTwoFA sets the enabled flag. Returns ErrNotFound when the account
	// does not exist or has no secret.
	EnableTwoFA(ctx context.Context, id int64) error

	// ClearTwoFA removes the secret and the enabled flag together.
	ClearTwoFA(ctx context.Context, id int64) error

	// TouchLastLogin records a completed authentication.
	TouchLastLogin(ctx context.Context, id int64, at time.Time) error

	// IsEmpty returns true if there are no accounts.
	IsEmpty(ctx context.Context) (bool, error)
}

type BackupCodes interface {
	// CreateBackupCode stores a hashed backup code for an account.
	CreateBackupCode(ctx context.Context, code domain.BackupCode) error

	// ConsumeBackupCode marks an unused code as used. Returns false when no
	// unused code with that hash exists for the account.
	ConsumeBackupCode(ctx context.Context, accountID int64, codeHash string, at time.Time) (bool, error)

	// DeleteAllBackupCodes removes all backup codes for an account.
	DeleteAllBackupCodes(ctx context.Context, accountID int64) error

	// CountUnusedBackupCodes returns how many codes the account can still use.
	CountUnusedBackupCodes(ctx context.Context, accountID int64) (int, error)

	// DeleteUsedBackupCodesBefore purges consumed codes (housekeeping).
	DeleteUsedBackupCodesBefore(ctx context.Context, before time.Time) (int64, error)
}

// AttemptLimiter caps failed second-factor attempts per account. It lives
// outside the relational store so a shared cache can back it.
type AttemptLimiter interface {
	// Locked reports whether the account is in cooldown.
	Locked(ctx context.Context, accountID int64) (bool, error)

	// RecordFailure counts one failed attempt and reports whether the account
	// is now locked.
	RecordFailure(ctx context.Context, accountID int64) (bool, error)

	// Reset clears the counter after a success.
	Reset(ctx context.Context, accountID int64) error
}
