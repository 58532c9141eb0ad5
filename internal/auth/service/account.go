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
)

const minPasswordLength = 8

type AccountService struct {
	Store store.Store
}

// GetByID fetches an account by id.
func (s *AccountService) GetByID(ctx context.Context, id int64) (domain.Account, error) {
	acct, err := s.Store.Accounts().GetAccountByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Account{}, ErrAccountNotFound
		}
		return domain.Account{}, fmt.Errorf("failed to load account: %w", err)
	}
	return acct, nil
}

// Register creates an account with no second factor.
func (s *AccountService) Register(ctx context.Context, in domain.NewAccount) (domain.Account, error) {
	acct, err := newAccount(in)
	if err != nil {
		return domain.Account{}, err
	}

	id, err := s.Store.Accounts().CreateAccount(ctx, acct)
	if err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.Account{}, ErrEmailTaken
		}
		return domain.Account{}, fmt.Errorf("failed to create account: %w", err)
	}

	slogx.FromContext(ctx).Info("account registered",
		slog.Int64("account_id", id),
		slog.String("role", acct.Role.String()),
	)
	return s.GetByID(ctx, id)
}

// newAccount validates input and hashes the password.
func newAccount(in domain.NewAccount) (domain.Account, error) {
	name := strings.TrimSpace(in.Name)
	email := domain.NormalizeEmail(in.Email)

	switch {
	case name == "":
		return domain.Account{}, fmt.Errorf("%w: name is required", ErrValidation)
	case email == "" || !strings.Contains(email, "@"):
		return domain.Account{}, fmt.Errorf("%w: a valid email is required", ErrValidation)
	case len(in.Password) < minPasswordLength:
		return domain.Account{}, fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLength)
	}

	role, err := domain.ParseRole(in.Role.String())
	if err != nil {
		return domain.Account{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	hash, err := cryptox.HashPassword(in.Password)
	if err != nil {
		return domain.Account{}, fmt.Errorf("failed to hash password: %w", err)
	}

	return domain.Account{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Phone:        strings.TrimSpace(in.Phone),
		Address:      strings.TrimSpace(in.Address),
		Avatar:       strings.TrimSpace(in.Avatar),
	}, nil
}
