// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Platewise Contributors

package web

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/samber/oops"

	"github.com/platewise/platewise/internal/auth"
	"github.com/platewise/platewise/internal/observability"
	"github.com/platewise/platewise/internal/session"
	"github.com/platewise/platewise/pkg/errutil"
)

// Handlers implements the authentication HTTP surface.
type Handlers struct {
	auth          *auth.Service
	issuer        *session.Issuer
	metrics       *observability.Metrics
	logger        *slog.Logger
	secureCookies bool
}

// NewHandlers creates the handler set.
func NewHandlers(authSvc *auth.Service, issuer *session.Issuer, metrics *observability.Metrics, logger *slog.Logger, secureCookies bool) (*Handlers, error) {
	if authSvc == nil {
		return nil, oops.Errorf("auth service is required")
	}
	if issuer == nil {
		return nil, oops.Errorf("session issuer is required")
	}
	if logger == nil {
		return nil, oops.Errorf("logger is required")
	}
	return &Handlers{
		auth:          authSvc,
		issuer:        issuer,
		metrics:       metrics,
		logger:        logger,
		secureCookies: secureCookies,
	}, nil
}

// credentialsRequest is the login/registration payload. Name is only needed
// when the email is not yet registered.
type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

// statusForCode maps validator error codes to HTTP statuses. Anything not
// listed here is an internal failure and maps to 500.
var statusForCode = map[string]int{
	"AUTH_REQUIRED_FIELDS":      http.StatusBadRequest,
	"AUTH_INVALID_EMAIL":        http.StatusBadRequest,
	"AUTH_WEAK_PASSWORD":        http.StatusBadRequest,
	"AUTH_INVALID_CREDENTIALS":  http.StatusUnauthorized,
	"AUTH_INVALID_LOGIN_METHOD": http.StatusUnauthorized,
	"AUTH_EMAIL_EXISTS":         http.StatusConflict,
	"AUTH_ACCOUNT_LOCKED":       http.StatusTooManyRequests,
}

// HandleLogin is the canonical credentials endpoint: a known email logs in,
// an unknown email registers. The response never contains the submitted
// password or the stored hash.
func (h *Handlers) HandleLogin(w http.ResponseWriter, r *http.Request) {
	req, err := decodeCredentials(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	identity, err := h.auth.Authenticate(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		h.writeAuthError(w, err)
		return
	}

	token, err := h.issuer.Issue(identity)
	if err != nil {
		errutil.LogError(h.logger, "session issue failed", err)
		observability.RecordLoginAttempt("AUTH_FAILED")
		h.writeError(w, http.StatusInternalServerError, "authentication failed")
		return
	}

	http.SetCookie(w, h.sessionCookie(token, session.TokenTTL))
	observability.RecordLoginAttempt("success")
	if h.metrics != nil {
		h.metrics.SessionsTotal.WithLabelValues("issued").Inc()
	}

	writeJSON(w, http.StatusOK, map[string]any{"user": identity})
}

// decodeCredentials accepts the JSON body used by the front end and the
// form encoding used by the plain sign-in page.
func decodeCredentials(r *http.Request) (credentialsRequest, error) {
	var req credentialsRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		err := json.NewDecoder(r.Body).Decode(&req)
		return req, err
	}
	if err := r.ParseForm(); err != nil {
		return req, err
	}
	req.Email = r.PostFormValue("email")
	req.Password = r.PostFormValue("password")
	req.Name = r.PostFormValue("name")
	return req, nil
}

// HandleLogout clears the session cookie. The token itself is self-contained
// and simply stops being presented.
func (h *Handlers) HandleLogout(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, h.sessionCookie("", -1))
	if h.metrics != nil {
		h.metrics.SessionsTotal.WithLabelValues("cleared").Inc()
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Logged out"})
}

// HandleSession reports the current session claims, or 401 without one.
func (h *Handlers) HandleSession(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		h.writeError(w, http.StatusUnauthorized, "not signed in")
		return
	}
	claims, err := h.issuer.Verify(cookie.Value)
	if err != nil {
		h.writeError(w, http.StatusUnauthorized, "not signed in")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"sub":       claims.Subject(),
		"role":      claims.Role,
		"expiresAt": claims.ExpiresAt.Time.UTC().Format(time.RFC3339),
	})
}

// writeAuthError maps a classified validator error onto the HTTP contract.
func (h *Handlers) writeAuthError(w http.ResponseWriter, err error) {
	code := "AUTH_FAILED"
	message := "authentication failed"

	if oopsErr, ok := oops.AsOops(err); ok {
		if c := oopsErr.Code(); c != "" {
			code = c
		}
		if status, known := statusForCode[code]; known {
			// Codes with a mapped status carry messages written by the
			// validator itself; safe to surface.
			message = oopsErr.Error()

			if code == "AUTH_ACCOUNT_LOCKED" {
				if until, hasUntil := oopsErr.Context()["locked_until"].(*time.Time); hasUntil && until != nil {
					retry := time.Until(*until)
					if retry > 0 {
						w.Header().Set("Retry-After", strconv.Itoa(int(retry.Seconds())+1))
					}
				}
			}

			observability.RecordLoginAttempt(code)
			h.writeError(w, status, message)
			return
		}
	}

	// Unclassified: log with full context, surface nothing internal.
	errutil.LogError(h.logger, "authentication failed", err)
	observability.RecordLoginAttempt(code)
	h.writeError(w, http.StatusInternalServerError, message)
}

// sessionCookie builds the session cookie. maxAge < 0 clears it.
func (h *Handlers) sessionCookie(token string, maxAge time.Duration) *http.Cookie {
	cookie := &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	}
	if maxAge < 0 {
		cookie.MaxAge = -1
	} else {
		cookie.MaxAge = int(maxAge.Seconds())
	}
	return cookie
}

func (h *Handlers) writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	//nolint:errcheck // response write error means the client went away
	_ = json.NewEncoder(w).Encode(body)
}
