// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Platewise Contributors

package web

import (
	"fmt"
	"net/http"
)

// The rendered surfaces are deliberately plain documents; presentation
// belongs to the front-end collaborator, the server only decides who gets
// which page.

func writePage(w http.ResponseWriter, status int, title, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	//nolint:errcheck // response write error means the client went away
	fmt.Fprintf(w, "<!DOCTYPE html><html><head><title>%s</title></head><body>%s</body></html>\n", title, body)
}

// HandleIndex renders the public landing page.
func (h *Handlers) HandleIndex(w http.ResponseWriter, _ *http.Request) {
	writePage(w, http.StatusOK, "Platewise",
		`<h1>Platewise</h1><p>Personalized meal planning.</p><p><a href="/login">Sign in</a></p>`)
}

// HandleLoginPage renders the sign-in entry point. It is the redirect
// target for unauthenticated requests to protected pages.
func (h *Handlers) HandleLoginPage(w http.ResponseWriter, _ *http.Request) {
	writePage(w, http.StatusOK, "Sign in - Platewise",
		`<h1>Sign in</h1>`+
			`<form method="post" action="/api/auth/login">`+
			`<label>Email <input name="email" type="email"></label>`+
			`<label>Password <input name="password" type="password"></label>`+
			`<label>Name (new accounts) <input name="name" type="text"></label>`+
			`<button type="submit">Continue</button>`+
			`</form>`)
}

// HandleDashboard renders the private dashboard for a signed-in account.
func (h *Handlers) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFromContext(r.Context())
	writePage(w, http.StatusOK, "Dashboard - Platewise",
		fmt.Sprintf(`<h1>Dashboard</h1><p>Signed in as %s (%s).</p>`, claims.Subject(), claims.Role))
}

// HandleAdmin renders the admin console. The guard has already checked the
// role claim.
func (h *Handlers) HandleAdmin(w http.ResponseWriter, _ *http.Request) {
	writePage(w, http.StatusOK, "Admin - Platewise",
		`<h1>Admin</h1><p>Administrative console.</p>`)
}

// HandlePlanner renders the meal planner, available once onboarding is
// complete.
func (h *Handlers) HandlePlanner(w http.ResponseWriter, _ *http.Request) {
	writePage(w, http.StatusOK, "Planner - Platewise",
		`<h1>Meal planner</h1><p>Your personalized plan.</p>`)
}

// renderDenied is the access-denied state: signed in, wrong role. Distinct
// from the unauthenticated redirect to /login.
func renderDenied(w http.ResponseWriter) {
	writePage(w, http.StatusForbidden, "Access denied - Platewise",
		`<h1>Access denied</h1><p>Admins only.</p>`)
}

// renderOnboardingRequired is shown to signed-in accounts that have not
// completed the onboarding questionnaire.
func renderOnboardingRequired(w http.ResponseWriter) {
	writePage(w, http.StatusOK, "Platewise",
		`<h1>Almost there</h1><p>Complete the onboarding form to access this content.</p>`)
}
