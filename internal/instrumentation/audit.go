package instrumentation

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// APICall captures a single gateway call to a Google API for audit logging.
type APICall struct {
	Service    string // tasks, calendar
	Operation  string // list, create, update, delete, complete, ...
	ResourceID string // task or event id, when the call targets one
	Container  string // task list or calendar id
	RequestID  string

	StartTime time.Time
	Duration  time.Duration
	Success   bool
	Error     string

	TraceID string
	SpanID  string
}

// NewAPICall starts timing a call.
func NewAPICall(service, operation string) *APICall {
	return &APICall{
		Service:   service,
		Operation: operation,
		StartTime: time.Now(),
	}
}

// WithTarget sets the container (list or calendar) and resource ids.
func (c *APICall) WithTarget(container, resourceID string) *APICall {
	c.Container = container
	c.ResourceID = resourceID
	return c
}

// WithRequestID attaches the inbound request id.
func (c *APICall) WithRequestID(id string) *APICall {
	c.RequestID = id
	return c
}

// WithSpanContext extracts trace context from the current span.
func (c *APICall) WithSpanContext(ctx context.Context) *APICall {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if sc.IsValid() {
		c.TraceID = sc.TraceID().String()
		c.SpanID = sc.SpanID().String()
	}
	return c
}

// Complete stops the timer and records the outcome.
func (c *APICall) Complete(err error) *APICall {
	c.Duration = time.Since(c.StartTime)
	c.Success = err == nil
	if err != nil {
		c.Error = err.Error()
	}
	return c
}

// Status returns "success" or "error" based on the Success field.
func (c *APICall) Status() string {
	if c.Success {
		return StatusSuccess
	}
	return StatusError
}

// LogAttrs returns the structured fields of the call.
func (c *APICall) LogAttrs() []slog.Attr {
	attrs := []slog.Attr{
		slog.String("service", c.Service),
		slog.String("operation", c.Operation),
		slog.Duration("duration", c.Duration),
		slog.Bool("success", c.Success),
	}

	if c.Container != "" {
		attrs = append(attrs, slog.String("container", c.Container))
	}
	if c.ResourceID != "" {
		attrs = append(attrs, slog.String("resource_id", c.ResourceID))
	}
	if c.RequestID != "" {
		attrs = append(attrs, slog.String("request_id", c.RequestID))
	}
	if c.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", c.TraceID))
	}
	if c.SpanID != "" {
		attrs = append(attrs, slog.String("span_id", c.SpanID))
	}
	if c.Error != "" {
		attrs = append(attrs, slog.String("error", c.Error))
	}

	return attrs
}

// AuditLogger writes one line per mutating Google API call.
type AuditLogger struct {
	logger  *slog.Logger
	enabled bool
}

// NewAuditLogger creates an enabled AuditLogger. A nil logger means slog.Default().
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return NewAuditLoggerWithConfig(logger, AuditLoggingConfig{Enabled: true})
}

// NewAuditLoggerWithConfig creates a new AuditLogger with the given configuration.
func NewAuditLoggerWithConfig(logger *slog.Logger, config AuditLoggingConfig) *AuditLogger {
	return &AuditLogger{
		logger:  logger,
		enabled: config.Enabled,
	}
}

// SetEnabled sets whether audit logging is enabled.
func (al *AuditLogger) SetEnabled(enabled bool) {
	al.enabled = enabled
}

// LogCall logs c if it is a mutation. Reads are covered by metrics and traces.
func (al *AuditLogger) LogCall(c *APICall) {
	if al == nil || !al.enabled || !IsMutation(c.Operation) {
		return
	}

	logger := al.logger
	if logger == nil {
		logger = slog.Default()
	}

	attrs := c.LogAttrs()
	args := make([]any, len(attrs))
	for i, attr := range attrs {
		args[i] = attr
	}

	if c.Success {
		logger.Info("google_api_mutation", args...)
	} else {
		logger.Warn("google_api_mutation_failed", args...)
	}
}
