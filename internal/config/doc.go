// Package config loads the gateway settings.
//
// Values are resolved in this order, later sources winning: built-in defaults, the
// .env file, the process environment, and command-line flags bound to the viper
// instance returned by New. The .env file is loaded into the process environment so
// the OpenTelemetry variables read by the instrumentation package see it too.
package config
