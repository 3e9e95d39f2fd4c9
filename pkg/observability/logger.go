package observability

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

// Log keys shared by every uimarkup record.
const (
	logKeyTrace   = "trace_id"
	logKeySpan    = "span_id"
	logKeyService = "service"
	logKeyMode    = "mode"
)

// TracingHandler tags log records with the uimarkup service name and run
// mode (cli, serve, lsp, mcp). Records logged inside a compile or request
// span also carry its trace_id and span_id, so logs and traces join up.
type TracingHandler struct {
	next slog.Handler
}

// NewTracingHandler wraps next. service and mode are bound before any
// group is opened and always appear at the top level.
func NewTracingHandler(next slog.Handler, service string, mode AppMode) *TracingHandler {
	return &TracingHandler{next: next.WithAttrs([]slog.Attr{
		slog.String(logKeyService, service),
		slog.String(logKeyMode, string(mode)),
	})}
}

// Enabled implements [slog.Handler].
func (th *TracingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return th.next.Enabled(ctx, level)
}

// Handle implements [slog.Handler].
func (th *TracingHandler) Handle(ctx context.Context, record slog.Record) error {
	record.AddAttrs(spanAttrs(ctx)...)

	if err := th.next.Handle(ctx, record); err != nil {
		return fmt.Errorf("tracing handler: %w", err)
	}

	return nil
}

// WithAttrs implements [slog.Handler].
func (th *TracingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &TracingHandler{next: th.next.WithAttrs(attrs)}
}

// WithGroup implements [slog.Handler].
func (th *TracingHandler) WithGroup(name string) slog.Handler {
	return &TracingHandler{next: th.next.WithGroup(name)}
}

func spanAttrs(ctx context.Context) []slog.Attr {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return nil
	}

	return []slog.Attr{
		slog.String(logKeyTrace, sc.TraceID().String()),
		slog.String(logKeySpan, sc.SpanID().String()),
	}
}
