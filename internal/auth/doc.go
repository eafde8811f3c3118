// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Platewise Contributors

// Package auth provides account and credential primitives for Platewise.
//
// # Domain Types
//
// Account is the persisted identity record. Create instances through the
// constructors:
//   - NewAccount - a credential account with a password hash
//   - NewExternalAccount - an account vouched for by an external identity
//     provider, with no local password
//
// Direct struct initialization bypasses validation and may create invalid
// state. Repository implementations receive pre-validated types from these
// constructors.
//
// # Service
//
// Service implements the credential flow: Authenticate is a single
// login-or-register operation keyed on whether the email is already known,
// and ExternalSignIn is the find-or-create contract for provider sign-ins.
// Every failure crossing the Service boundary carries one of the AUTH_*
// error codes; callers never see raw store or hashing errors.
package auth
