package server

import (
	"context"
	"log/slog"

	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/attribute"

	"github.com/teemow/szymon/internal/instrumentation"
	"github.com/teemow/szymon/internal/logging"
)

// target identifies what a Google API call operates on.
type target struct {
	service   string
	operation string
	container string
	resource  string
}

func (t target) spanAttrs() []attribute.KeyValue {
	var attrs []attribute.KeyValue
	if t.container != "" {
		switch t.service {
		case instrumentation.ServiceTasks:
			attrs = append(attrs, attribute.String(instrumentation.SpanAttrTaskList, t.container))
		case instrumentation.ServiceCalendar:
			attrs = append(attrs, attribute.String(instrumentation.SpanAttrCalendar, t.container))
		}
	}
	if t.resource != "" {
		attrs = append(attrs, attribute.String(instrumentation.SpanAttrResourceID, t.resource))
	}
	return attrs
}

func (t target) logAttrs() []any {
	attrs := []any{logging.Service(t.service), logging.Operation(t.operation)}
	if t.container != "" {
		switch t.service {
		case instrumentation.ServiceTasks:
			attrs = append(attrs, logging.TaskList(t.container))
		case instrumentation.ServiceCalendar:
			attrs = append(attrs, logging.Calendar(t.container))
		}
	}
	return attrs
}

// instrumented runs one Google API call inside a client span, records the
// operation metric and writes an audit line for mutations.
func instrumented[T any](ctx context.Context, sc *ServerContext, t target, fn func(context.Context) (T, error)) (T, error) {
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, t.service, t.operation, t.spanAttrs()...)
	defer span.End()

	call := instrumentation.NewAPICall(t.service, t.operation).
		WithTarget(t.container, t.resource).
		WithRequestID(middleware.GetReqID(ctx)).
		WithSpanContext(ctx)

	result, err := fn(ctx)
	call.Complete(err)

	if err != nil {
		instrumentation.SetSpanError(span, err)
	} else {
		instrumentation.SetSpanSuccess(span)
	}

	sc.metrics.RecordGoogleAPIOperation(ctx, t.service, t.operation, call.Status(), call.Duration)
	sc.audit.LogCall(call)

	attrs := append(t.logAttrs(),
		logging.Status(call.Status()),
		slog.Duration(logging.KeyDuration, call.Duration),
		logging.RequestID(call.RequestID))
	sc.logger.DebugContext(ctx, "google api call", attrs...)

	return result, err
}

// instrumentedErr is instrumented for calls without a result.
func instrumentedErr(ctx context.Context, sc *ServerContext, t target, fn func(context.Context) error) error {
	_, err := instrumented(ctx, sc, t, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}
