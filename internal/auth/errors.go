// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Platewise Contributors

package auth

import "errors"

// ErrNotFound is returned when a requested account does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicateEmail is returned by repositories when an insert violates the
// unique email constraint. The constraint is the authority on duplicates;
// services must not rely on a prior read.
var ErrDuplicateEmail = errors.New("duplicate email")
