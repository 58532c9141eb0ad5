package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aussiebroadwan/medoffice/internal/auth/domain"
	"github.com/aussiebroadwan/medoffice/internal/auth/store"
	"github.com/aussiebroadwan/medoffice/pkg/cryptox"
	"github.com/aussiebroadwan/medoffice/pkg/jwtx"
	"github.com/aussiebroadwan/medoffice/pkg/slogx"
	"github.com/aussiebroadwan/medoffice/pkg/totpx"
)

// AuthService drives password login and the second-factor lifecycle.
type AuthService struct {
	Store  store.Store
	Tokens jwtx.Codec

	// Issuer is used both as the token "iss" and the authenticator app label.
	Issuer string
	Policy domain.RolePolicy

	// Skew is the number of TOTP steps accepted either side of now.
	Skew uint

	// BypassCode, when set, is accepted as a valid code for any account.
	// Only non-production configs populate it.
	BypassCode string

	// ReauthOnReset requires the current password before an active second
	// factor is replaced.
	ReauthOnReset bool

	// Limiter is optional. When nil failed codes are not counted.
	Limiter store.AttemptLimiter

	SessionTTL time.Duration
	PendingTTL time.Duration

	// Now defaults to time.Now.
	Now func() time.Time
}

func (s *AuthService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *AuthService) policy() domain.RolePolicy {
	if s.Policy == nil {
		return domain.DefaultRolePolicy()
	}
	return s.Policy
}

// Login checks an email and password. Accounts whose role requires a second
// factor get a temporary token; everyone else gets a session token.
func (s *AuthService) Login(ctx context.Context, email, password string) (domain.LoginResult, error) {
	l := slogx.FromContext(ctx)

	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		return domain.LoginResult{}, ErrValidation
	}

	acct, err := s.Store.Accounts().GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Same argon2 cost as a real comparison.
			_ = cryptox.VerifyDummy(password)
			l.Warn("login failed", slog.String("reason", "unknown_email"))
			return domain.LoginResult{}, ErrInvalidCredentials
		}
		return domain.LoginResult{}, fmt.Errorf("failed to load account: %w", err)
	}

	if err := cryptox.VerifyPassword(password, acct.PasswordHash); err != nil {
		l.Warn("login failed",
			slog.Int64("account_id", acct.ID),
			slog.String("reason", "wrong_password"),
		)
		return domain.LoginResult{}, ErrInvalidCredentials
	}

	if s.policy().RequiresSecondFactor(acct.Role) {
		token, err := s.issue(acct, true)
		if err != nil {
			return domain.LoginResult{}, err
		}
		l.Info("password accepted, second factor pending", slog.Int64("account_id", acct.ID))
		return domain.LoginResult{
			RequiresSecondFactor: true,
			TemporaryToken:       token,
			Profile:              acct.Profile(),
		}, nil
	}

	token, err := s.issue(acct, false)
	if err != nil {
		return domain.LoginResult{}, err
	}
	if err := s.Store.Accounts().TouchLastLogin(ctx, acct.ID, s.now()); err != nil {
		return domain.LoginResult{}, fmt.Errorf("failed to record login: %w", err)
	}

	l.Info("login completed", slog.Int64("account_id", acct.ID))
	return domain.LoginResult{
		SessionToken: token,
		Profile:      acct.Profile(),
	}, nil
}

// ProvisionSecondFactor stores a fresh TOTP secret for the account and
// returns what an authenticator app needs to enrol it. Any previous secret
// stops working immediately.
func (s *AuthService) ProvisionSecondFactor(ctx context.Context, email, password string) (domain.Provisioning, error) {
	l := slogx.FromContext(ctx)

	email = domain.NormalizeEmail(email)
	if email == "" {
		return domain.Provisioning{}, ErrValidation
	}

	acct, err := s.Store.Accounts().GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Provisioning{}, ErrAccountNotFound
		}
		return domain.Provisioning{}, fmt.Errorf("failed to load account: %w", err)
	}

	wasActive := acct.TwoFAState() == domain.TwoFAActive
	if wasActive && s.ReauthOnReset {
		if password == "" {
			return domain.Provisioning{}, ErrPasswordRequired
		}
		if err := cryptox.VerifyPassword(password, acct.PasswordHash); err != nil {
			l.Warn("second factor reset refused", slog.Int64("account_id", acct.ID))
			return domain.Provisioning{}, ErrInvalidPassword
		}
	}

	key, err := totpx.Generate(s.Issuer, acct.Email)
	if err != nil {
		return domain.Provisioning{}, err
	}
	qr, err := totpx.RenderPNG(key.URL, totpx.DefaultQRSize)
	if err != nil {
		return domain.Provisioning{}, err
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Accounts().ResetTwoFASecret(ctx, acct.ID, key.Secret); err != nil {
			return fmt.Errorf("failed to store secret: %w", err)
		}
		// Codes belong to the secret they were issued with.
		if wasActive {
			if err := tx.BackupCodes().DeleteAllBackupCodes(ctx, acct.ID); err != nil {
				return fmt.Errorf("failed to clear backup codes: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return domain.Provisioning{}, err
	}

	if wasActive {
		l.Warn("active second factor replaced", slog.Int64("account_id", acct.ID))
	} else {
		l.Info("second factor provisioned", slog.Int64("account_id", acct.ID))
	}

	return domain.Provisioning{
		Secret:     key.Secret,
		OTPAuthURL: key.URL,
		QRCodePNG:  qr,
	}, nil
}

// VerifySecondFactor completes a pending login. The temporary token proves
// the password step; code is a TOTP code, a backup code or the bypass code.
// With isSetup a provisioned secret becomes active.
func (s *AuthService) VerifySecondFactor(ctx context.Context, rawToken, code string, isSetup bool) (domain.SessionResult, error) {
	l := slogx.FromContext(ctx)

	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return domain.SessionResult{}, ErrMissingTemporaryToken
	}

	claims, err := s.Tokens.Verify(rawToken)
	if err != nil || !claims.Pending {
		return domain.SessionResult{}, ErrInvalidOrExpiredToken
	}
	accountID, err := claims.AccountID()
	if err != nil {
		return domain.SessionResult{}, ErrInvalidOrExpiredToken
	}

	acct, err := s.Store.Accounts().GetAccountByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.SessionResult{}, ErrAccountNotFound
		}
		return domain.SessionResult{}, fmt.Errorf("failed to load account: %w", err)
	}

	code = strings.TrimSpace(code)
	if code == "" {
		return domain.SessionResult{}, ErrValidation
	}

	if err := s.checkLocked(ctx, acct.ID); err != nil {
		return domain.SessionResult{}, err
	}

	method, err := s.checkCode(ctx, acct, code)
	if err != nil {
		return domain.SessionResult{}, err
	}

	res := domain.SessionResult{UsedBackupCode: method == methodBackup}
	now := s.now()

	activate := isSetup && acct.HasSecret() && !acct.TwoFAEnabled
	if activate {
		codes, err := GenerateBackupCodes()
		if err != nil {
			return domain.SessionResult{}, err
		}
		err = s.Store.WithTx(ctx, func(tx store.Tx) error {
			if err := tx.Accounts().EnableTwoFA(ctx, acct.ID); err != nil {
				return fmt.Errorf("failed to enable second factor: %w", err)
			}
			if err := replaceBackupCodes(ctx, tx, acct.ID, codes); err != nil {
				return err
			}
			return tx.Accounts().TouchLastLogin(ctx, acct.ID, now)
		})
		if err != nil {
			return domain.SessionResult{}, err
		}
		acct.TwoFAEnabled = true
		res.BackupCodes = codes
		l.Info("second factor activated", slog.Int64("account_id", acct.ID))
	} else if err := s.Store.Accounts().TouchLastLogin(ctx, acct.ID, now); err != nil {
		return domain.SessionResult{}, fmt.Errorf("failed to record login: %w", err)
	}

	s.resetAttempts(ctx, acct.ID)

	token, err := s.issue(acct, false)
	if err != nil {
		return domain.SessionResult{}, err
	}

	l.Info("second factor verified",
		slog.Int64("account_id", acct.ID),
		slog.String("method", method),
	)

	res.SessionToken = token
	res.Profile = acct.Profile()
	res.TwoFAEnabled = acct.TwoFAEnabled
	return res, nil
}

// DisableSecondFactor clears the secret, the enabled flag and every backup
// code of the account after re-checking its password.
func (s *AuthService) DisableSecondFactor(ctx context.Context, accountID int64, password string) error {
	l := slogx.FromContext(ctx)

	if password == "" {
		return ErrPasswordRequired
	}

	acct, err := s.Store.Accounts().GetAccountByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("failed to load account: %w", err)
	}

	if err := cryptox.VerifyPassword(password, acct.PasswordHash); err != nil {
		l.Warn("second factor disable refused", slog.Int64("account_id", acct.ID))
		return ErrInvalidPassword
	}

	if acct.TwoFAState() == domain.TwoFANone {
		return ErrSecondFactorNotConfigured
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.BackupCodes().DeleteAllBackupCodes(ctx, acct.ID); err != nil {
			return fmt.Errorf("failed to delete backup codes: %w", err)
		}
		if err := tx.Accounts().ClearTwoFA(ctx, acct.ID); err != nil {
			return fmt.Errorf("failed to clear second factor: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	l.Warn("second factor disabled", slog.Int64("account_id", acct.ID))
	return nil
}

const (
	methodBypass = "bypass"
	methodTOTP   = "totp"
	methodBackup = "backup_code"
)

// checkCode returns which method accepted code.
func (s *AuthService) checkCode(ctx context.Context, acct domain.Account, code string) (string, error) {
	l := slogx.FromContext(ctx)

	if s.BypassCode != "" && cryptox.EqualConstantTime(code, s.BypassCode) {
		l.Warn("bypass code accepted", slog.Int64("account_id", acct.ID))
		return methodBypass, nil
	}

	if !acct.HasSecret() {
		return "", ErrSecondFactorNotConfigured
	}

	if totpx.Validate(*acct.TwoFASecret, code, s.Skew, s.now()) {
		return methodTOTP, nil
	}

	if norm := strings.Join(strings.Fields(code), ""); acct.TwoFAState() == domain.TwoFAActive && len(norm) == backupCodeLength {
		hash := cryptox.FingerprintCode(norm)
		ok, err := s.Store.BackupCodes().ConsumeBackupCode(ctx, acct.ID, hash, s.now())
		if err != nil {
			return "", fmt.Errorf("failed to consume backup code: %w", err)
		}
		if ok {
			return methodBackup, nil
		}
	}

	s.recordFailure(ctx, acct.ID)
	l.Warn("second factor code rejected", slog.Int64("account_id", acct.ID))
	return "", ErrInvalidCode
}

func (s *AuthService) checkLocked(ctx context.Context, accountID int64) error {
	if s.Limiter == nil {
		return nil
	}
	locked, err := s.Limiter.Locked(ctx, accountID)
	if err != nil {
		return fmt.Errorf("failed to check attempts: %w", err)
	}
	if locked {
		slogx.FromContext(ctx).Warn("second factor locked", slog.Int64("account_id", accountID))
		return ErrTooManyAttempts
	}
	return nil
}

// recordFailure and resetAttempts only log limiter errors; the code check
// already decided the outcome.
func (s *AuthService) recordFailure(ctx context.Context, accountID int64) {
	if s.Limiter == nil {
		return
	}
	if _, err := s.Limiter.RecordFailure(ctx, accountID); err != nil {
		slogx.FromContext(ctx).Error("failed to record attempt", slog.Any("error", err))
	}
}

func (s *AuthService) resetAttempts(ctx context.Context, accountID int64) {
	if s.Limiter == nil {
		return
	}
	if err := s.Limiter.Reset(ctx, accountID); err != nil {
		slogx.FromContext(ctx).Error("failed to reset attempts", slog.Any("error", err))
	}
}

func (s *AuthService) issue(acct domain.Account, pending bool) (string, error) {
	ttl := s.SessionTTL
	if ttl <= 0 {
		ttl = jwtx.DefaultSessionTTL
	}
	if pending {
		ttl = s.PendingTTL
		if ttl <= 0 {
			ttl = jwtx.DefaultPendingTTL
		}
	}

	token, err := s.Tokens.Sign(jwtx.NewClaims(acct.ID, acct.Email, acct.Role.String(), pending, ttl, s.Issuer, s.now()))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}
