// Package server provides the HTTP gateway of szymon.
//
// The gateway exposes Google Tasks under /api/tasks, Google Calendar under
// /api/calendar and a combined weekly view under /api/board. Both services share
// one OAuth credential held by the ServerContext, which also builds and caches
// the Google API clients.
//
// Errors are mapped in one place: missing client credentials answer 503, a missing
// or revoked credential sends browsers to the login endpoint and API callers a 401
// with the login URL, invalid input answers 422 and any other Google failure 500
// with the remote message as detail.
//
// The package also carries the health checker (/health, /healthz, /readyz) and a
// dedicated metrics server exposing Prometheus metrics.
package server
