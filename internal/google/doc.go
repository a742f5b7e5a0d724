// Package google manages the single OAuth2 credential shared by the Google Tasks
// and Google Calendar adapters.
//
// A Manager hands out consent URLs with one-shot state values, exchanges
// authorization codes, persists the resulting token to a JSON file and refreshes
// it transparently. Refreshed tokens are written back to the same file.
//
// Errors are reported through three sentinels: ErrNotConfigured when the OAuth
// client is missing, ErrNotAuthenticated when no usable token is stored, and
// ErrInvalidState for unknown or expired callback states.
package google
