// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Platewise Contributors

// Package seed loads bootstrap accounts from a YAML file. Seeding is
// idempotent: accounts whose email already exists are skipped.
package seed

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/samber/oops"
	"gopkg.in/yaml.v3"

	"github.com/platewise/platewise/internal/auth"
)

// File is the root of a seed YAML document.
type File struct {
	Accounts []Entry `yaml:"accounts" json:"accounts" jsonschema:"required"`
}

// Entry describes one account to create. A missing password produces an
// external-provider account that cannot sign in with credentials.
type Entry struct {
	Email    string `yaml:"email" json:"email" jsonschema:"required"`
	Name     string `yaml:"name" json:"name" jsonschema:"required"`
	Role     string `yaml:"role,omitempty" json:"role,omitempty" jsonschema:"enum=USER,enum=ADMIN"`
	Password string `yaml:"password,omitempty" json:"password,omitempty"`
}

// Result summarizes an Apply run.
type Result struct {
	Created int
	Skipped int
}

// Seeder creates seed accounts through the account repository.
type Seeder struct {
	accounts auth.AccountRepository
	hasher   auth.PasswordHasher
	logger   *slog.Logger
}

// NewSeeder creates a Seeder. All dependencies are required.
func NewSeeder(accounts auth.AccountRepository, hasher auth.PasswordHasher, logger *slog.Logger) (*Seeder, error) {
	if accounts == nil {
		return nil, oops.Errorf("account repository is required")
	}
	if hasher == nil {
		return nil, oops.Errorf("password hasher is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Seeder{accounts: accounts, hasher: hasher, logger: logger}, nil
}

// Load reads and validates a seed file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is operator-supplied
	if err != nil {
		return nil, oops.Code("SEED_READ_FAILED").With("path", path).Wrap(err)
	}

	if err := ValidateSchema(data); err != nil {
		return nil, oops.Code("SEED_INVALID").With("path", path).Wrap(err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, oops.Code("SEED_INVALID").With("path", path).Wrap(err)
	}
	return &f, nil
}

// Apply creates every entry that does not already exist. Entries with an
// existing email count as skipped; any other failure aborts the run.
func (s *Seeder) Apply(ctx context.Context, f *File) (Result, error) {
	var res Result
	for _, entry := range f.Accounts {
		created, err := s.applyEntry(ctx, entry)
		if err != nil {
			return res, oops.With("email", entry.Email).Wrap(err)
		}
		if created {
			res.Created++
		} else {
			res.Skipped++
		}
	}
	return res, nil
}

func (s *Seeder) applyEntry(ctx context.Context, entry Entry) (bool, error) {
	if err := auth.ValidateEmail(entry.Email); err != nil {
		return false, err
	}

	role := auth.Role(entry.Role)
	if role == "" {
		role = auth.RoleUser
	}
	if !role.Valid() {
		return false, oops.Code("SEED_INVALID").Errorf("unknown role %q", entry.Role)
	}

	var account *auth.Account
	var err error
	if entry.Password != "" {
		if err := auth.ValidatePassword(entry.Password); err != nil {
			return false, err
		}
		hash, hashErr := s.hasher.Hash(entry.Password)
		if hashErr != nil {
			return false, hashErr
		}
		account, err = auth.NewAccount(entry.Email, entry.Name, hash)
	} else {
		account, err = auth.NewExternalAccount(entry.Email, entry.Name)
	}
	if err != nil {
		return false, err
	}
	account.Role = role

	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, auth.ErrDuplicateEmail) {
			s.logger.Debug("seed account exists, skipping", "email", entry.Email)
			return false, nil
		}
		return false, err
	}

	s.logger.Info("seed account created", "email", entry.Email, "role", string(role))
	return true, nil
}
