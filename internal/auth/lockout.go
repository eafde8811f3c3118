// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Platewise Contributors

package auth

import (
	"time"
)

// Lockout configuration.
const (
	// LockoutDuration is the time an account is locked out after too many
	// consecutive failures.
	LockoutDuration = 15 * time.Minute

	// LockoutThreshold is the number of failures that triggers a lockout.
	LockoutThreshold = 7
)

// LockoutState describes the current lockout standing of an account.
type LockoutState struct {
	// IsLockedOut indicates the account is temporarily locked.
	IsLockedOut bool

	// Remaining is the time until the lockout expires.
	Remaining time.Duration
}

// CheckFailures evaluates the lockout state for a failure count.
// lockedUntil is the current lockout timestamp (nil if not locked).
func CheckFailures(failures int, lockedUntil *time.Time) LockoutState {
	if IsLockedOut(lockedUntil) {
		return LockoutState{IsLockedOut: true, Remaining: time.Until(*lockedUntil)}
	}
	if failures >= LockoutThreshold {
		return LockoutState{IsLockedOut: true, Remaining: LockoutDuration}
	}
	return LockoutState{}
}

// IsLockedOut returns true if the lockout time is in the future.
func IsLockedOut(lockedUntil *time.Time) bool {
	return lockedUntil != nil && lockedUntil.After(time.Now())
}

// ComputeLockoutTime returns the lockout timestamp for the given failure
// count, or nil below the threshold.
func ComputeLockoutTime(failures int) *time.Time {
	if failures < LockoutThreshold {
		return nil
	}
	lockout := time.Now().Add(LockoutDuration)
	return &lockout
}
