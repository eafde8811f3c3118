// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Platewise Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/samber/oops"
	"golang.org/x/crypto/bcrypt"
)

// Service implements the credential flow against an account repository.
type Service struct {
	accounts AccountRepository
	hasher   PasswordHasher
	logger   *slog.Logger
}

// NewService creates a new Service.
func NewService(accounts AccountRepository, hasher PasswordHasher) (*Service, error) {
	return NewServiceWithLogger(accounts, hasher, slog.Default())
}

// NewServiceWithLogger creates a new Service with an explicit logger.
func NewServiceWithLogger(accounts AccountRepository, hasher PasswordHasher, logger *slog.Logger) (*Service, error) {
	if accounts == nil {
		return nil, oops.Errorf("accounts repository is required")
	}
	if hasher == nil {
		return nil, oops.Errorf("password hasher is required")
	}
	if logger == nil {
		return nil, oops.Errorf("logger is required")
	}
	return &Service{accounts: accounts, hasher: hasher, logger: logger}, nil
}

// dummyPasswordHash returns a well-formed bcrypt hash that matches no real
// credential. Verifying against it keeps the password-less account path as
// slow as a wrong-password comparison, so response time does not reveal
// which login method an account uses.
var dummyPasswordHash = sync.OnceValue(func() string {
	hash, err := bcrypt.GenerateFromPassword([]byte("platewise-no-such-credential"), BcryptCost)
	if err != nil {
		// bcrypt only fails on invalid cost; BcryptCost is in range.
		panic(err)
	}
	return string(hash)
})

// Authenticate is the single credential entry point. A known email is a
// login; an unknown email is a registration. Exactly one account row is read
// (login) or inserted (registration) on success.
//
// Every failure is classified with one of the AUTH_* codes before it leaves
// this method. The submitted password is never logged or attached to errors.
func (s *Service) Authenticate(ctx context.Context, email, password, name string) (*Identity, error) {
	if email == "" || password == "" {
		return nil, oops.Code("AUTH_REQUIRED_FIELDS").Errorf("email and password are required")
	}
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}

	account, err := s.accounts.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return s.login(ctx, account, password)
	case errors.Is(err, ErrNotFound):
		return s.register(ctx, email, password, name)
	default:
		return nil, oops.Code("AUTH_FAILED").
			With("operation", "get account by email").
			Wrap(err)
	}
}

func (s *Service) login(ctx context.Context, account *Account, password string) (*Identity, error) {
	if account.PasswordHash == nil {
		// Burn a comparison so this path costs the same as a mismatch.
		_, _ = s.hasher.Verify(password, dummyPasswordHash())
		return nil, oops.Code("AUTH_INVALID_LOGIN_METHOD").
			Errorf("account has no password; use your identity provider to sign in")
	}

	valid, verifyErr := s.hasher.Verify(password, *account.PasswordHash)
	if verifyErr != nil {
		return nil, oops.Code("AUTH_FAILED").
			With("operation", "verify password").
			Wrap(verifyErr)
	}
	if !valid {
		account.RecordFailure()
		_ = s.accounts.Update(ctx, account) //nolint:errcheck // Best effort
		return nil, oops.Code("AUTH_INVALID_CREDENTIALS").Errorf("invalid email or password")
	}

	// Lockout is checked after verification so both outcomes take the same
	// time; a correct password during a lockout window is still refused.
	if account.IsLocked() {
		return nil, oops.Code("AUTH_ACCOUNT_LOCKED").
			With("locked_until", account.LockedUntil).
			Errorf("account is temporarily locked")
	}

	account.RecordSuccess()

	if s.hasher.NeedsUpgrade(*account.PasswordHash) {
		if newHash, hashErr := s.hasher.Hash(password); hashErr == nil {
			account.PasswordHash = &newHash
		}
	}

	// Login succeeds even if persisting counters or the upgraded hash fails.
	_ = s.accounts.Update(ctx, account) //nolint:errcheck // Best effort

	identity := account.Identity()
	return &identity, nil
}

func (s *Service) register(ctx context.Context, email, password, name string) (*Identity, error) {
	if name == "" {
		return nil, oops.Code("AUTH_REQUIRED_FIELDS").Errorf("name is required for registration")
	}
	if err := ValidatePassword(password); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, oops.Code("AUTH_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	account, err := NewAccount(email, name, hash)
	if err != nil {
		return nil, oops.Code("AUTH_FAILED").
			With("operation", "construct account").
			Wrap(err)
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			// Lost a concurrent registration race, or the earlier read went
			// stale. The unique constraint is the authority either way.
			return nil, oops.Code("AUTH_EMAIL_EXISTS").Errorf("an account with this email already exists")
		}
		return nil, oops.Code("AUTH_FAILED").
			With("operation", "create account").
			Wrap(err)
	}

	s.logger.Info("account created", "account_id", account.ID.String(), "email", account.Email)

	identity := account.Identity()
	return &identity, nil
}

// ExternalSignIn implements the identity-provider contract: on first
// sign-in, create an account with no local password and role USER; on later
// sign-ins, match by email and reuse the existing account's ID and role.
func (s *Service) ExternalSignIn(ctx context.Context, email, name string) (*Identity, error) {
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}

	account, err := s.accounts.GetByEmail(ctx, email)
	if err == nil {
		identity := account.Identity()
		return &identity, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, oops.Code("AUTH_FAILED").
			With("operation", "get account by email").
			Wrap(err)
	}

	account, err = NewExternalAccount(email, name)
	if err != nil {
		return nil, oops.Code("AUTH_FAILED").
			With("operation", "construct external account").
			Wrap(err)
	}

	if createErr := s.accounts.Create(ctx, account); createErr != nil {
		if errors.Is(createErr, ErrDuplicateEmail) {
			// A concurrent first sign-in won the insert; reuse its account.
			existing, getErr := s.accounts.GetByEmail(ctx, email)
			if getErr != nil {
				return nil, oops.Code("AUTH_FAILED").
					With("operation", "re-read account after duplicate insert").
					Wrap(getErr)
			}
			identity := existing.Identity()
			return &identity, nil
		}
		return nil, oops.Code("AUTH_FAILED").
			With("operation", "create external account").
			Wrap(createErr)
	}

	s.logger.Info("external account created", "account_id", account.ID.String(), "email", account.Email)

	identity := account.Identity()
	return &identity, nil
}
