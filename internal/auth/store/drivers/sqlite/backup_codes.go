package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/medoffice/internal/auth/domain"
	"github.com/aussiebroadwan/medoffice/pkg/idx"
)

type backupCodesRepo struct {
	db dbtx
}

func (r *backupCodesRepo) CreateBackupCode(ctx context.Context, c domain.BackupCode) error {
	if c.ID == "" {
		c.ID = idx.New().String()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO backup_codes (id, account_id, code_hash, used_at, created_at)
		VALUES (?, ?, ?, NULL, ?)`,
		c.ID, c.AccountID, c.CodeHash, c.CreatedAt.UTC())
	return mapConstraint(err)
}

func (r *backupCodesRepo) ConsumeBackupCode(
	ctx context.Context,
	accountID int64,
	codeHash string,
	at time.Time,
) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE backup_codes
		SET used_at = ?
		WHERE account_id = ? AND code_hash = ? AND used_at IS NULL`,
		at.UTC(), accountID, codeHash)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *backupCodesRepo) DeleteAllBackupCodes(ctx context.Context, accountID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM backup_codes WHERE account_id = ?`, accountID)
	return err
}

func (r *backupCodesRepo) CountUnusedBackupCodes(ctx context.Context, accountID int64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM backup_codes WHERE account_id = ? AND used_at IS NULL`,
		accountID).Scan(&n)
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (r *backupCodesRepo) DeleteUsedBackupCodesBefore(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM backup_codes WHERE used_at IS NOT NULL AND used_at < ?`,
		before.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
