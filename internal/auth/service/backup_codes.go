package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aussiebroadwan/medoffice/internal/auth/domain"
	"github.com/aussiebroadwan/medoffice/internal/auth/store"
	"github.com/aussiebroadwan/medoffice/pkg/cryptox"
	"github.com/aussiebroadwan/medoffice/pkg/slogx"
	"github.com/aussiebroadwan/medoffice/pkg/totpx"
)

const (
	backupCodeCount  = 10 // Number of backup codes per account
	backupCodeLength = 8
)

// GenerateBackupCodes returns a fresh set of recovery codes. It has no side
// effects; callers persist the hashes.
func GenerateBackupCodes() ([]string, error) {
	codes := make([]string, backupCodeCount)
	for i := range codes {
		code, err := cryptox.RandomString(cryptox.CharsetUpperAlphanumeric, backupCodeLength)
		if err != nil {
			return nil, fmt.Errorf("failed to generate backup code: %w", err)
		}
		codes[i] = code
	}
	return codes, nil
}

// RegenerateBackupCodes replaces every backup code of an active account after
// checking a current TOTP code.
func (s *AuthService) RegenerateBackupCodes(ctx context.Context, accountID int64, totpCode string) ([]string, error) {
	totpCode = strings.TrimSpace(totpCode)
	if totpCode == "" {
		return nil, ErrValidation
	}

	acct, err := s.Store.Accounts().GetAccountByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	if acct.TwoFAState() != domain.TwoFAActive {
		return nil, ErrSecondFactorNotConfigured
	}

	if err := s.checkLocked(ctx, acct.ID); err != nil {
		return nil, err
	}
	if !totpx.Validate(*acct.TwoFASecret, totpCode, s.Skew, s.now()) {
		s.recordFailure(ctx, acct.ID)
		return nil, ErrInvalidCode
	}
	s.resetAttempts(ctx, acct.ID)

	codes, err := GenerateBackupCodes()
	if err != nil {
		return nil, err
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		return replaceBackupCodes(ctx, tx, acct.ID, codes)
	})
	if err != nil {
		return nil, err
	}

	slogx.FromContext(ctx).Info("backup codes regenerated", slog.Int64("account_id", acct.ID))
	return codes, nil
}

func replaceBackupCodes(ctx context.Context, tx store.Tx, accountID int64, codes []string) error {
	if err := tx.BackupCodes().DeleteAllBackupCodes(ctx, accountID); err != nil {
		return fmt.Errorf("failed to delete old backup codes: %w", err)
	}
	for _, code := range codes {
		err := tx.BackupCodes().CreateBackupCode(ctx, domain.BackupCode{
			AccountID: accountID,
			CodeHash:  cryptox.FingerprintCode(code),
		})
		if err != nil {
			return fmt.Errorf("failed to store backup code: %w", err)
		}
	}
	return nil
}
