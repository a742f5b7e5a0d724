package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"google.golang.org/api/googleapi"

	"github.com/teemow/szymon/internal/calendar"
	"github.com/teemow/szymon/internal/google"
	"github.com/teemow/szymon/internal/instrumentation"
	"github.com/teemow/szymon/internal/logging"
	"github.com/teemow/szymon/internal/tasks"
)

// errorResponse is the JSON body of every error reply.
type errorResponse struct {
	Detail   string `json:"detail"`
	LoginURL string `json:"login_url,omitempty"`
}

// errBadRequest marks malformed query parameters or bodies.
var errBadRequest = errors.New("bad request")

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func displayName(service string) string {
	if service == instrumentation.ServiceCalendar {
		return "Google Calendar"
	}
	return "Google Tasks"
}

func loginPath(service string) string {
	return "/api/" + service + "/auth/login"
}

// wantsHTML reports whether the request comes from browser navigation rather
// than a script.
func wantsHTML(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

// writeError maps an error from the credential manager or an adapter to a response.
func writeError(w http.ResponseWriter, r *http.Request, service string, err error) {
	var apiErr *googleapi.Error

	switch {
	case errors.Is(err, google.ErrNotConfigured):
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{
			Detail: displayName(service) + " not configured. Set GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET in .env",
		})
	case errors.Is(err, google.ErrNotAuthenticated):
		login := loginPath(service)
		if wantsHTML(r) {
			http.Redirect(w, r, login, http.StatusTemporaryRedirect)
			return
		}
		writeJSON(w, http.StatusUnauthorized, errorResponse{
			Detail:   "Not authenticated with " + displayName(service),
			LoginURL: login,
		})
	case errors.Is(err, tasks.ErrInvalidInput), errors.Is(err, calendar.ErrInvalidInput):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Detail: err.Error()})
	case errors.Is(err, errBadRequest):
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: err.Error()})
	case errors.Is(err, ErrShuttingDown):
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Detail: err.Error()})
	case errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound:
		writeJSON(w, http.StatusNotFound, errorResponse{Detail: err.Error()})
	default:
		slog.ErrorContext(r.Context(), "google api call failed",
			logging.Service(service),
			logging.RequestID(middleware.GetReqID(r.Context())),
			logging.Err(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Detail: err.Error()})
	}
}

// writeAuthFailure renders the page shown when the OAuth callback cannot complete.
func writeAuthFailure(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusBadRequest)
	_, _ = fmt.Fprintf(w, "<h1>Authentication failed</h1><p>%s</p>", html.EscapeString(err.Error()))
}
