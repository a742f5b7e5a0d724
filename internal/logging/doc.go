// Package logging provides structured logging utilities for the szymon gateway.
//
// This package centralizes logging patterns to ensure consistent, structured logging
// throughout the codebase using the standard library's slog package.
//
// # Usage Patterns
//
// Build the process logger once at startup:
//
//	logger, err := logging.New("info", logging.FormatJSON, os.Stderr)
//
// Attach standard attributes:
//
//	logger := logging.WithOperation(slog.Default(), "tasks.list")
//	logger.Info("listed tasks",
//	    logging.TaskList("@default"),
//	    logging.Status(logging.StatusSuccess))
//
// # Security Considerations
//
// OAuth access and refresh tokens are never logged directly; use SanitizeToken.
package logging
