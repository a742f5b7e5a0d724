// Package cmd implements the command-line interface for szymon.
//
// This package provides the following commands:
//   - serve: Start the HTTP gateway (the default when no subcommand is given)
//   - auth status: Report whether Google credentials are configured and stored
//   - auth logout: Remove the stored Google token
//   - version: Display version information
package cmd
