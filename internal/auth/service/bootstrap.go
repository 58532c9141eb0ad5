package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/medoffice/internal/auth/domain"
	"github.com/aussiebroadwan/medoffice/internal/auth/store"
	"github.com/aussiebroadwan/medoffice/pkg/cryptox"
	"github.com/aussiebroadwan/medoffice/pkg/slogx"
)

var (
	ErrBootstrapAlready             = errors.New("system already bootstrapped")
	ErrBootstrapUnauthorized        = errors.New("unauthorized bootstrap attempt")
	ErrBootstrapFailedToCreateAdmin = errors.New("failed to create admin account")
)

type BootstrapService struct {
	Store store.Store
	Token string // Pre-configured bootstrap token
}

func (s *BootstrapService) IsBootstrapped(ctx context.Context) (bool, error) {
	empty, err := s.Store.Accounts().IsEmpty(ctx)
	if err != nil {
		return false, err
	}
	return !empty, nil
}

// Bootstrap creates the first administrator from admin, forcing the admin
// role. It only succeeds once, on an empty store, with the configured token.
func (s *BootstrapService) Bootstrap(
	ctx context.Context,
	token string,
	admin domain.NewAccount,
) (int64, error) {
	l := slogx.FromContext(ctx)

	// 1. Check if already bootstrapped
	if bootstrapped, _ := s.IsBootstrapped(ctx); bootstrapped {
		l.Warn("attempted bootstrap on already-bootstrapped system")
		return 0, ErrBootstrapAlready
	}

	// 2. Validate provided token
	if s.Token == "" || !cryptox.EqualConstantTime(token, s.Token) {
		l.Warn("unauthorized bootstrap attempt")
		return 0, ErrBootstrapUnauthorized
	}

	// 3. Validate and hash
	admin.Role = domain.RoleAdmin
	acct, err := newAccount(admin)
	if err != nil {
		if errors.Is(err, ErrValidation) {
			return 0, err
		}
		l.Error("failed to prepare admin account", slog.Any("error", err))
		return 0, ErrBootstrapFailedToCreateAdmin
	}

	// 4. Create the admin, re-checking emptiness inside the transaction
	var adminID int64
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		empty, err := tx.Accounts().IsEmpty(ctx)
		if err != nil {
			return fmt.Errorf("failed to check accounts: %w", err)
		}
		if !empty {
			return ErrBootstrapAlready
		}

		adminID, err = tx.Accounts().CreateAccount(ctx, acct)
		if err != nil {
			l.Error("failed to create admin account", slog.Any("error", err))
			return ErrBootstrapFailedToCreateAdmin
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	l.Info("successfully bootstrapped system", slog.Int64("admin_account_id", adminID))
	return adminID, nil
}
