// Package instrumentation provides OpenTelemetry instrumentation for the szymon gateway.
//
// # Metrics
//
// HTTP:
//   - http_requests_total: Counter of HTTP requests by method, route, and status
//   - http_request_duration_seconds: Histogram of HTTP request durations
//   - http_requests_in_flight: Gauge of requests currently being served
//
// Google API:
//   - google_api_operations_total: Counter of Google API operations by service, operation, status
//   - google_api_operation_duration_seconds: Histogram of Google API operation durations
//
// OAuth:
//   - oauth_auth_total: Counter of authorization code exchanges by result
//   - oauth_token_refresh_total: Counter of token refresh attempts by result
//
// # Tracing
//
// Spans are created for inbound HTTP requests (via otelhttp) and for every Google API
// call (google.<service>.<operation>).
//
// # Audit
//
// Mutating Google API calls (create, update, delete, complete, uncomplete, quick add)
// are written to the audit log with their target ids and trace context.
//
// # Configuration
//
// Instrumentation is configured via environment variables:
//   - INSTRUMENTATION_ENABLED: Enable/disable instrumentation (default: true)
//   - METRICS_EXPORTER: prometheus, otlp, stdout (default: prometheus)
//   - TRACING_EXPORTER: otlp, stdout, none (default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces/metrics
//   - OTEL_TRACES_SAMPLER_ARG: Sampling rate (0.0 to 1.0, default: 0.1)
//   - OTEL_SERVICE_NAME: Service name (default: szymon)
//   - AUDIT_LOGGING_ENABLED: Enable/disable the audit log (default: true)
package instrumentation
