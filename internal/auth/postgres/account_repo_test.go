// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Platewise Contributors

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platewise/platewise/internal/auth"
	"github.com/platewise/platewise/pkg/errutil"
)

func newTestAccount(t *testing.T) *auth.Account {
	t.Helper()
	account, err := auth.NewAccount("user@example.com", "Dana", "$2a$12$hash")
	require.NoError(t, err)
	return account
}

func accountRows(account *auth.Account) *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "email", "display_name", "password_hash", "role",
		"failed_attempts", "locked_until", "created_at", "updated_at",
	}).AddRow(
		account.ID.String(), account.Email, account.DisplayName, account.PasswordHash,
		string(account.Role), account.FailedAttempts, account.LockedUntil,
		account.CreatedAt, account.UpdatedAt,
	)
}

func TestAccountRepository_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("inserts account", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		account := newTestAccount(t)
		mock.ExpectExec(`INSERT INTO accounts`).
			WithArgs(account.ID.String(), account.Email, account.DisplayName,
				account.PasswordHash, string(account.Role), account.FailedAttempts,
				account.LockedUntil, account.CreatedAt, account.UpdatedAt).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		repo := NewAccountRepository(mock)
		require.NoError(t, repo.Create(ctx, account))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unique violation maps to ErrDuplicateEmail", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		account := newTestAccount(t)
		mock.ExpectExec(`INSERT INTO accounts`).
			WithArgs(account.ID.String(), account.Email, account.DisplayName,
				account.PasswordHash, string(account.Role), account.FailedAttempts,
				account.LockedUntil, account.CreatedAt, account.UpdatedAt).
			WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation})

		repo := NewAccountRepository(mock)
		err = repo.Create(ctx, account)
		require.Error(t, err)
		assert.ErrorIs(t, err, auth.ErrDuplicateEmail)
		errutil.AssertErrorCode(t, err, "ACCOUNT_DUPLICATE_EMAIL")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("other database errors are wrapped", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		account := newTestAccount(t)
		mock.ExpectExec(`INSERT INTO accounts`).
			WithArgs(account.ID.String(), account.Email, account.DisplayName,
				account.PasswordHash, string(account.Role), account.FailedAttempts,
				account.LockedUntil, account.CreatedAt, account.UpdatedAt).
			WillReturnError(errors.New("connection refused"))

		repo := NewAccountRepository(mock)
		err = repo.Create(ctx, account)
		require.Error(t, err)
		assert.NotErrorIs(t, err, auth.ErrDuplicateEmail)
		errutil.AssertErrorCode(t, err, "ACCOUNT_CREATE_FAILED")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAccountRepository_GetByEmail(t *testing.T) {
	ctx := context.Background()

	t.Run("returns account", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		account := newTestAccount(t)
		mock.ExpectQuery(`SELECT id, email, display_name, password_hash, role`).
			WithArgs("USER@example.com").
			WillReturnRows(accountRows(account))

		repo := NewAccountRepository(mock)
		got, err := repo.GetByEmail(ctx, "USER@example.com")
		require.NoError(t, err)
		assert.Equal(t, account.ID, got.ID)
		assert.Equal(t, account.Email, got.Email)
		require.NotNil(t, got.PasswordHash)
		assert.Equal(t, *account.PasswordHash, *got.PasswordHash)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no rows maps to ErrNotFound", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(`SELECT id, email, display_name, password_hash, role`).
			WithArgs("missing@example.com").
			WillReturnError(pgx.ErrNoRows)

		repo := NewAccountRepository(mock)
		got, err := repo.GetByEmail(ctx, "missing@example.com")
		require.Error(t, err)
		assert.Nil(t, got)
		assert.ErrorIs(t, err, auth.ErrNotFound)
		errutil.AssertErrorCode(t, err, "ACCOUNT_NOT_FOUND")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown role in database is rejected", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		account := newTestAccount(t)
		rows := pgxmock.NewRows([]string{
			"id", "email", "display_name", "password_hash", "role",
			"failed_attempts", "locked_until", "created_at", "updated_at",
		}).AddRow(
			account.ID.String(), account.Email, account.DisplayName, account.PasswordHash,
			"SUPERUSER", account.FailedAttempts, account.LockedUntil,
			account.CreatedAt, account.UpdatedAt,
		)
		mock.ExpectQuery(`SELECT id, email, display_name, password_hash, role`).
			WithArgs(account.Email).
			WillReturnRows(rows)

		repo := NewAccountRepository(mock)
		got, err := repo.GetByEmail(ctx, account.Email)
		require.Error(t, err)
		assert.Nil(t, got)
		assert.Contains(t, err.Error(), "unknown role")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAccountRepository_GetByID(t *testing.T) {
	ctx := context.Background()

	t.Run("returns account", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		account := newTestAccount(t)
		mock.ExpectQuery(`SELECT id, email, display_name, password_hash, role`).
			WithArgs(account.ID.String()).
			WillReturnRows(accountRows(account))

		repo := NewAccountRepository(mock)
		got, err := repo.GetByID(ctx, account.ID)
		require.NoError(t, err)
		assert.Equal(t, account.Email, got.Email)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no rows maps to ErrNotFound", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		id := ulid.Make()
		mock.ExpectQuery(`SELECT id, email, display_name, password_hash, role`).
			WithArgs(id.String()).
			WillReturnError(pgx.ErrNoRows)

		repo := NewAccountRepository(mock)
		got, err := repo.GetByID(ctx, id)
		require.Error(t, err)
		assert.Nil(t, got)
		assert.ErrorIs(t, err, auth.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAccountRepository_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("updates account", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		account := newTestAccount(t)
		account.FailedAttempts = 3
		lockedUntil := time.Now().Add(auth.LockoutDuration)
		account.LockedUntil = &lockedUntil

		mock.ExpectExec(`UPDATE accounts SET`).
			WithArgs(account.ID.String(), account.DisplayName, account.PasswordHash,
				string(account.Role), account.FailedAttempts, account.LockedUntil,
				account.UpdatedAt).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		repo := NewAccountRepository(mock)
		require.NoError(t, repo.Update(ctx, account))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("zero rows affected maps to ErrNotFound", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		account := newTestAccount(t)
		mock.ExpectExec(`UPDATE accounts SET`).
			WithArgs(account.ID.String(), account.DisplayName, account.PasswordHash,
				string(account.Role), account.FailedAttempts, account.LockedUntil,
				account.UpdatedAt).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		repo := NewAccountRepository(mock)
		err = repo.Update(ctx, account)
		require.Error(t, err)
		assert.ErrorIs(t, err, auth.ErrNotFound)
		errutil.AssertErrorCode(t, err, "ACCOUNT_NOT_FOUND")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
