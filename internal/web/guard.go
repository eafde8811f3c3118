// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Platewise Contributors

package web

import (
	"context"
	"net/http"

	"github.com/platewise/platewise/internal/auth"
	"github.com/platewise/platewise/internal/session"
)

// Cookie names.
const (
	// SessionCookie carries the signed session token. HTTP-only; never
	// readable by client script.
	SessionCookie = "session"

	// OnboardingCookie is set by the onboarding form when the questionnaire
	// is complete. It is client-settable and not attested by the server;
	// the onboarding collaborator owns it.
	OnboardingCookie = "formCompleted"
)

type contextKey string

const claimsContextKey contextKey = "platewise_claims"

// WithClaims returns a context carrying verified session claims.
func WithClaims(ctx context.Context, claims *session.Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}

// ClaimsFromContext returns the verified session claims, if any.
func ClaimsFromContext(ctx context.Context) (*session.Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(*session.Claims)
	return claims, ok
}

// Guard gates access to protected pages. A request moves through at most
// four states: anonymous, authenticated (valid claims), authorized (render),
// or denied (authenticated but wrong role).
type Guard struct {
	issuer *session.Issuer
}

// NewGuard creates a Guard verifying tokens with the given issuer.
func NewGuard(issuer *session.Issuer) *Guard {
	return &Guard{issuer: issuer}
}

// claims reads and verifies the session cookie. Absent, malformed, and
// expired tokens all come back as (nil, false): unauthenticated.
func (g *Guard) claims(r *http.Request) (*session.Claims, bool) {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		return nil, false
	}
	claims, err := g.issuer.Verify(cookie.Value)
	if err != nil {
		return nil, false
	}
	return claims, true
}

// RequireSession admits requests with a valid, unexpired session and
// redirects everyone else to the sign-in page.
func (g *Guard) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := g.claims(r)
		if !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

// RequireRole admits authenticated requests whose role is in roles. A valid
// session with the wrong role gets a denial render, distinct from the
// unauthenticated redirect.
func (g *Guard) RequireRole(next http.Handler, roles ...auth.Role) http.Handler {
	allowed := make(map[auth.Role]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return g.RequireSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, _ := ClaimsFromContext(r.Context())
		if _, ok := allowed[claims.Role]; !ok {
			renderDenied(w)
			return
		}
		next.ServeHTTP(w, r)
	}))
}

// RequireOnboarding admits authenticated requests that carry the onboarding
// completion cookie. The flag is client-side state, not a security boundary.
func (g *Guard) RequireOnboarding(next http.Handler) http.Handler {
	return g.RequireSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(OnboardingCookie)
		if err != nil || cookie.Value != "true" {
			renderOnboardingRequired(w)
			return
		}
		next.ServeHTTP(w, r)
	}))
}
