package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/teemow/szymon/internal/google"
	"github.com/teemow/szymon/internal/instrumentation"
	"github.com/teemow/szymon/internal/logging"
)

// authServiceCookie remembers which page started the login, since Google redirects
// both flows to the same callback.
const authServiceCookie = "szymon_auth_service"

// AuthStatus is the body of the auth/status endpoints.
type AuthStatus struct {
	Configured    bool `json:"configured"`
	Authenticated bool `json:"authenticated"`
}

type authHandlers struct {
	sc          *ServerContext
	frontendURL string
	logger      *slog.Logger
}

// returnTo is where the browser lands after a successful login.
func (h *authHandlers) returnTo(service string) string {
	if service == instrumentation.ServiceCalendar {
		return strings.TrimRight(h.frontendURL, "/") + "/calendar"
	}
	return "/"
}

func (h *authHandlers) status(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, AuthStatus{
		Configured:    h.sc.Configured(),
		Authenticated: h.sc.Authenticated(),
	})
}

func (h *authHandlers) login(service string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth := h.sc.Auth()
		if auth == nil {
			writeError(w, r, service, google.ErrNotConfigured)
			return
		}

		url, _ := auth.AuthURL()

		http.SetCookie(w, &http.Cookie{
			Name:     authServiceCookie,
			Value:    service,
			Path:     "/api",
			MaxAge:   int(google.DefaultStateTTL.Seconds()),
			HttpOnly: true,
			Secure:   r.TLS != nil,
			SameSite: http.SameSiteLaxMode,
		})

		http.Redirect(w, r, url, http.StatusFound)
	}
}

func (h *authHandlers) callback(service string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth := h.sc.Auth()
		if auth == nil {
			writeError(w, r, service, google.ErrNotConfigured)
			return
		}

		// The cookie names the flow that started the login; the route only
		// tells which callback URL Google was given.
		dest := service
		if c, err := r.Cookie(authServiceCookie); err == nil {
			switch c.Value {
			case instrumentation.ServiceTasks, instrumentation.ServiceCalendar:
				dest = c.Value
			}
		}
		http.SetCookie(w, &http.Cookie{Name: authServiceCookie, Path: "/api", MaxAge: -1})

		q := r.URL.Query()
		if reason := q.Get("error"); reason != "" {
			writeAuthFailure(w, errors.New(reason))
			return
		}

		if err := auth.ConsumeState(q.Get("state")); err != nil {
			h.logger.Warn("rejected OAuth callback", logging.Service(dest), logging.Err(err))
			writeAuthFailure(w, err)
			return
		}

		code := q.Get("code")
		if code == "" {
			writeAuthFailure(w, errors.New("missing authorization code"))
			return
		}

		if _, err := auth.Exchange(r.Context(), code); err != nil {
			h.logger.Error("OAuth code exchange failed", logging.Service(dest), logging.Err(err))
			writeAuthFailure(w, err)
			return
		}

		h.sc.ResetClients()
		h.logger.Info("authenticated with Google", logging.Service(dest))

		http.Redirect(w, r, h.returnTo(dest), http.StatusFound)
	}
}

func (h *authHandlers) logout(w http.ResponseWriter, r *http.Request) {
	auth := h.sc.Auth()
	if auth == nil {
		writeError(w, r, instrumentation.ServiceTasks, google.ErrNotConfigured)
		return
	}
	if err := auth.Logout(); err != nil {
		writeError(w, r, instrumentation.ServiceTasks, err)
		return
	}
	h.sc.ResetClients()
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}
