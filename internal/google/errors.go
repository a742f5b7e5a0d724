package google

import "errors"

var (
	// ErrNotConfigured is returned when the OAuth client id or secret is missing.
	ErrNotConfigured = errors.New("OAuth client credentials for Google are not configured")

	// ErrNotAuthenticated is returned when no usable token is stored.
	ErrNotAuthenticated = errors.New("not authenticated with Google")

	// ErrInvalidState is returned when an OAuth callback carries an unknown or expired state.
	ErrInvalidState = errors.New("invalid or expired OAuth state")
)
