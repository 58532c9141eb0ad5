package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/medoffice/internal/auth/domain"
)

const accountColumns = `id, name, email, password_hash, role, phone, address, avatar,
	twofa_secret, twofa_enabled, last_login_at, created_at, updated_at`

type accountsRepo struct {
	db dbtx
}

func (r *accountsRepo) GetAccountByID(ctx context.Context, id int64) (domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
	return scanAccount(row)
}

func (r *accountsRepo) GetAccountByEmail(ctx context.Context, email string) (domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE email = ? COLLATE NOCASE`,
		domain.NormalizeEmail(email))
	return scanAccount(row)
}

func (r *accountsRepo) CreateAccount(ctx context.Context, a domain.Account) (int64, error) {
	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = a.CreatedAt
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO accounts (name, email, password_hash, role, phone, address, avatar,
			twofa_secret, twofa_enabled, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, NULL, 0, ?, ?)`,
		a.Name,
		domain.NormalizeEmail(a.Email),
		a.PasswordHash,
		string(a.Role),
		a.Phone,
		a.Address,
		a.Avatar,
		a.CreatedAt.UTC(),
		a.UpdatedAt.UTC(),
	)
	if err != nil {
		return 0, mapConstraint(err)
	}
	return res.LastInsertId()
}

func (r *accountsRepo) ResetTwoFASecret(ctx context.Context, id int64, secret string) error {
	return requireRow(r.db.ExecContext(ctx, `
		UPDATE accounts
		SET twofa_secret = ?, twofa_enabled = 0, updated_at = ?
		WHERE id = ?`,
		secret, time.Now().UTC(), id))
}

func (r *accountsRepo) EnableTwoFA(ctx context.Context, id int64) error {
	return requireRow(r.db.ExecContext(ctx, `
		UPDATE accounts
		SET twofa_enabled = 1, updated_at = ?
		WHERE id = ? AND twofa_secret IS NOT NULL`,
		time.Now().UTC(), id))
}

func (r *accountsRepo) ClearTwoFA(ctx context.Context, id int64) error {
	return requireRow(r.db.ExecContext(ctx, `
		UPDATE accounts
		SET twofa_secret = NULL, twofa_enabled = 0, updated_at = ?
		WHERE id = ?`,
		time.Now().UTC(), id))
}

func (r *accountsRepo) TouchLastLogin(ctx context.Context, id int64, at time.Time) error {
	return requireRow(r.db.ExecContext(ctx,
		`UPDATE accounts SET last_login_at = ? WHERE id = ?`,
		at.UTC(), id))
}

func (r *accountsRepo) IsEmpty(ctx context.Context) (bool, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&n); err != nil {
		return false, err
	}
	return n == 0, nil
}

func scanAccount(row *sql.Row) (domain.Account, error) {
	var (
		a         domain.Account
		role      string
		secret    sql.NullString
		lastLogin sql.NullTime
	)

	err := row.Scan(
		&a.ID,
		&a.Name,
		&a.Email,
		&a.PasswordHash,
		&role,
		&a.Phone,
		&a.Address,
		&a.Avatar,
		&secret,
		&a.TwoFAEnabled,
		&lastLogin,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return domain.Account{}, mapNotFound(err)
	}

	a.Role = domain.Role(role)
	a.TwoFASecret = mapNullStringPtr(secret)
	a.LastLoginAt = mapNullTimePtr(lastLogin)
	return a, nil
}
