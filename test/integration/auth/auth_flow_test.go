// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Platewise Contributors

//go:build integration

package auth_test

import (
	"errors"
	"sync"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/samber/oops"

	"github.com/platewise/platewise/internal/auth"
)

// code extracts the oops error code, or "" for unclassified errors.
func code(err error) string {
	if oopsErr, ok := oops.AsOops(err); ok {
		return oopsErr.Code()
	}
	return ""
}

var _ = Describe("Credential authentication", func() {
	AfterEach(func() {
		cleanupAccounts(env.ctx, env.pool)
	})

	Describe("registration through the combined endpoint", func() {
		It("creates an account on first sight of an email", func() {
			identity, err := env.Service.Authenticate(env.ctx, "dana@example.com", "Str0ng!pass", "Dana")
			Expect(err).NotTo(HaveOccurred())
			Expect(identity.Email).To(Equal("dana@example.com"))
			Expect(identity.Role).To(Equal(auth.RoleUser))

			stored, err := env.Accounts.GetByEmail(env.ctx, "dana@example.com")
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.PasswordHash).NotTo(BeNil())
			Expect(*stored.PasswordHash).NotTo(ContainSubstring("Str0ng!pass"))
		})

		It("then logs the same credentials in with the same identity", func() {
			registered, err := env.Service.Authenticate(env.ctx, "dana@example.com", "Str0ng!pass", "Dana")
			Expect(err).NotTo(HaveOccurred())

			loggedIn, err := env.Service.Authenticate(env.ctx, "dana@example.com", "Str0ng!pass", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(loggedIn.ID).To(Equal(registered.ID))
		})

		It("matches the email case-insensitively on login", func() {
			_, err := env.Service.Authenticate(env.ctx, "dana@example.com", "Str0ng!pass", "Dana")
			Expect(err).NotTo(HaveOccurred())

			identity, err := env.Service.Authenticate(env.ctx, "DANA@EXAMPLE.COM", "Str0ng!pass", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(identity.Email).To(Equal("dana@example.com"))
		})

		It("admits exactly one winner for concurrent registrations of the same email", func() {
			const attempts = 8

			var wg sync.WaitGroup
			errs := make([]error, attempts)
			for i := 0; i < attempts; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					defer GinkgoRecover()
					_, errs[i] = env.Service.Authenticate(env.ctx, "race@example.com", "Str0ng!pass", "Racer")
				}(i)
			}
			wg.Wait()

			succeeded := 0
			for _, err := range errs {
				if err == nil {
					succeeded++
					continue
				}
				// Losers see either the conflict or a login against the
				// winner's row with matching credentials.
				Expect(code(err)).To(Equal("AUTH_EMAIL_EXISTS"))
			}
			Expect(succeeded).To(BeNumerically(">=", 1))

			var count int
			err := env.pool.QueryRow(env.ctx,
				"SELECT COUNT(*) FROM accounts WHERE LOWER(email) = $1", "race@example.com").Scan(&count)
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(Equal(1))
		})
	})

	Describe("login failures", func() {
		BeforeEach(func() {
			_, err := env.Service.Authenticate(env.ctx, "dana@example.com", "Str0ng!pass", "Dana")
			Expect(err).NotTo(HaveOccurred())
		})

		It("rejects a wrong password and counts the failure", func() {
			_, err := env.Service.Authenticate(env.ctx, "dana@example.com", "WrongPass1!", "")
			Expect(code(err)).To(Equal("AUTH_INVALID_CREDENTIALS"))

			stored, err := env.Accounts.GetByEmail(env.ctx, "dana@example.com")
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.FailedAttempts).To(Equal(1))
		})

		It("locks the account after repeated failures", func() {
			for i := 0; i < auth.LockoutThreshold; i++ {
				_, err := env.Service.Authenticate(env.ctx, "dana@example.com", "WrongPass1!", "")
				Expect(err).To(HaveOccurred())
			}

			_, err := env.Service.Authenticate(env.ctx, "dana@example.com", "Str0ng!pass", "")
			Expect(code(err)).To(Equal("AUTH_ACCOUNT_LOCKED"))
		})

		It("resets the failure counter on success", func() {
			_, err := env.Service.Authenticate(env.ctx, "dana@example.com", "WrongPass1!", "")
			Expect(err).To(HaveOccurred())

			_, err = env.Service.Authenticate(env.ctx, "dana@example.com", "Str0ng!pass", "")
			Expect(err).NotTo(HaveOccurred())

			stored, err := env.Accounts.GetByEmail(env.ctx, "dana@example.com")
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.FailedAttempts).To(BeZero())
		})
	})

	Describe("external identity accounts", func() {
		It("creates a password-less account on first sign-in and reuses it after", func() {
			first, err := env.Service.ExternalSignIn(env.ctx, "oauth@example.com", "Oauth User")
			Expect(err).NotTo(HaveOccurred())

			again, err := env.Service.ExternalSignIn(env.ctx, "oauth@example.com", "Renamed")
			Expect(err).NotTo(HaveOccurred())
			Expect(again.ID).To(Equal(first.ID))
			Expect(again.DisplayName).To(Equal("Oauth User"))
		})

		It("refuses password login for a password-less account", func() {
			_, err := env.Service.ExternalSignIn(env.ctx, "oauth@example.com", "Oauth User")
			Expect(err).NotTo(HaveOccurred())

			_, err = env.Service.Authenticate(env.ctx, "oauth@example.com", "Str0ng!pass", "")
			Expect(code(err)).To(Equal("AUTH_INVALID_LOGIN_METHOD"))
		})
	})

	Describe("not-found mapping", func() {
		It("reports ErrNotFound for unknown accounts at the repository", func() {
			_, err := env.Accounts.GetByEmail(env.ctx, "absent@example.com")
			Expect(errors.Is(err, auth.ErrNotFound)).To(BeTrue())
		})
	})
})
