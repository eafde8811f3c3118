// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Platewise Contributors

package auth

import (
	"strings"
	"unicode"

	"github.com/samber/oops"
)

// MinPasswordLength is the minimum registration password length.
const MinPasswordLength = 8

// passwordSymbols is the punctuation set accepted as the required symbol.
const passwordSymbols = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

// ValidatePassword enforces the registration password policy: at least
// MinPasswordLength characters with one uppercase letter, one lowercase
// letter, one digit, and one symbol from passwordSymbols. The policy applies
// to new passwords only; login verifies whatever hash is stored.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return oops.Code("AUTH_WEAK_PASSWORD").
			With("min", MinPasswordLength).
			Errorf("password must be at least %d characters", MinPasswordLength)
	}

	var hasUpper, hasLower, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case strings.ContainsRune(passwordSymbols, r):
			hasSymbol = true
		}
	}

	switch {
	case !hasUpper:
		return oops.Code("AUTH_WEAK_PASSWORD").Errorf("password must contain an uppercase letter")
	case !hasLower:
		return oops.Code("AUTH_WEAK_PASSWORD").Errorf("password must contain a lowercase letter")
	case !hasDigit:
		return oops.Code("AUTH_WEAK_PASSWORD").Errorf("password must contain a digit")
	case !hasSymbol:
		return oops.Code("AUTH_WEAK_PASSWORD").Errorf("password must contain a symbol")
	}
	return nil
}
