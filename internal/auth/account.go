// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Platewise Contributors

package auth

import (
	"context"
	"regexp"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Role classifies an account's authorization level.
type Role string

// Known roles. New accounts always start as RoleUser; promotion to
// RoleAdmin happens out of band.
const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// DefaultDisplayName is used when an external identity provider supplies no
// name for a first sign-in.
const DefaultDisplayName = "New User"

// emailRegex is a deliberately loose shape check: one @, no whitespace,
// a dot in the domain part. Deliverability is not verified here.
var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// ValidateEmail checks that email looks like an address.
func ValidateEmail(email string) error {
	if email == "" {
		return oops.Code("AUTH_REQUIRED_FIELDS").Errorf("email is required")
	}
	if !emailRegex.MatchString(email) {
		return oops.Code("AUTH_INVALID_EMAIL").Errorf("invalid email format")
	}
	return nil
}

// Account represents a persisted identity record.
type Account struct {
	ID          ulid.ULID
	Email       string
	DisplayName string

	// PasswordHash is nil for accounts created through an external identity
	// provider. Such accounts can never authenticate by password.
	PasswordHash *string

	Role           Role
	FailedAttempts int
	LockedUntil    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewAccount creates a validated credential account with role USER.
func NewAccount(email, displayName, passwordHash string) (*Account, error) {
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if displayName == "" {
		return nil, oops.Code("AUTH_REQUIRED_FIELDS").Errorf("display name is required")
	}
	if passwordHash == "" {
		return nil, oops.Code("AUTH_INVALID_HASH").Errorf("password hash cannot be empty")
	}

	now := time.Now().UTC()
	return &Account{
		ID:           ulid.Make(),
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: &passwordHash,
		Role:         RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// NewExternalAccount creates a validated account for an external identity
// provider sign-in. The account has no local password and role USER.
func NewExternalAccount(email, displayName string) (*Account, error) {
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if displayName == "" {
		displayName = DefaultDisplayName
	}

	now := time.Now().UTC()
	return &Account{
		ID:          ulid.Make(),
		Email:       email,
		DisplayName: displayName,
		Role:        RoleUser,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// IsLocked returns true if the account is currently locked out.
func (a *Account) IsLocked() bool {
	return IsLockedOut(a.LockedUntil)
}

// RecordFailure increments the failure counter and sets lockout if the
// threshold is reached.
func (a *Account) RecordFailure() {
	a.FailedAttempts++
	a.LockedUntil = ComputeLockoutTime(a.FailedAttempts)
	a.UpdatedAt = time.Now().UTC()
}

// RecordSuccess resets the failure counter and lockout.
func (a *Account) RecordSuccess() {
	a.FailedAttempts = 0
	a.LockedUntil = nil
	a.UpdatedAt = time.Now().UTC()
}

// Identity is the normalized result of a successful authentication. It is
// what the session issuer embeds in claims; the password hash never leaves
// the repository layer through this type.
type Identity struct {
	ID          ulid.ULID `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"name"`
	Role        Role      `json:"role"`
}

// Identity returns the account's external representation.
func (a *Account) Identity() Identity {
	return Identity{
		ID:          a.ID,
		Email:       a.Email,
		DisplayName: a.DisplayName,
		Role:        a.Role,
	}
}

// AccountRepository manages account persistence.
type AccountRepository interface {
	// Create stores a new account. Returns ErrDuplicateEmail (possibly
	// wrapped) if the unique email constraint is violated.
	Create(ctx context.Context, account *Account) error

	// GetByID retrieves an account by ID.
	GetByID(ctx context.Context, id ulid.ULID) (*Account, error)

	// GetByEmail retrieves an account by email (case-insensitive).
	GetByEmail(ctx context.Context, email string) (*Account, error)

	// Update updates an existing account.
	Update(ctx context.Context, account *Account) error
}
