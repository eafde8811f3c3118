// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Platewise Contributors

package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/platewise/platewise/internal/auth"
)

func TestBcryptHasher_RoundTrip(t *testing.T) {
	hasher := auth.NewBcryptHasher()

	hash, err := hasher.Hash("Str0ng!pass")
	require.NoError(t, err)
	assert.NotEmpty(t, hash)
	assert.NotEqual(t, "Str0ng!pass", hash)

	valid, err := hasher.Verify("Str0ng!pass", hash)
	require.NoError(t, err)
	assert.True(t, valid)

	valid, err = hasher.Verify("WrongPass1!", hash)
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestBcryptHasher_HashCost(t *testing.T) {
	hasher := auth.NewBcryptHasher()

	hash, err := hasher.Hash("Str0ng!pass")
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, auth.BcryptCost, cost)
}

func TestBcryptHasher_EmptyPassword(t *testing.T) {
	hasher := auth.NewBcryptHasher()

	hash, err := hasher.Hash("")
	require.Error(t, err)
	assert.Empty(t, hash)
	assert.ErrorIs(t, err, auth.ErrEmptyPassword)
}

func TestBcryptHasher_Verify_MalformedHash(t *testing.T) {
	hasher := auth.NewBcryptHasher()

	// Stored garbage must look exactly like a wrong password, not an error.
	tests := []struct {
		name string
		hash string
	}{
		{name: "empty hash", hash: ""},
		{name: "not bcrypt", hash: "plaintext-password"},
		{name: "truncated bcrypt", hash: "$2a$12$tooshort"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			valid, err := hasher.Verify("Str0ng!pass", tt.hash)
			require.NoError(t, err)
			assert.False(t, valid)
		})
	}
}

func TestBcryptHasher_NeedsUpgrade(t *testing.T) {
	hasher := auth.NewBcryptHasher()

	lowCost, err := bcrypt.GenerateFromPassword([]byte("Str0ng!pass"), 10)
	require.NoError(t, err)
	assert.True(t, hasher.NeedsUpgrade(string(lowCost)))

	current, err := hasher.Hash("Str0ng!pass")
	require.NoError(t, err)
	assert.False(t, hasher.NeedsUpgrade(current))

	assert.True(t, hasher.NeedsUpgrade("not-a-bcrypt-hash"))
}
