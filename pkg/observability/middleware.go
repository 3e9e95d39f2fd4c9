package observability

import (
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// responseRecorder remembers the status and body size of a transform API
// response as it is written.
type responseRecorder struct {
	http.ResponseWriter

	status  int
	size    int
	started bool
}

func (rr *responseRecorder) WriteHeader(code int) {
	if !rr.started {
		rr.status = code
		rr.started = true
	}

	rr.ResponseWriter.WriteHeader(code)
}

func (rr *responseRecorder) Write(buf []byte) (int, error) {
	rr.started = true

	n, err := rr.ResponseWriter.Write(buf)
	rr.size += n

	if err != nil {
		return n, fmt.Errorf("write response: %w", err)
	}

	return n, nil
}

// failed reports whether the response is a client or server error.
func (rr *responseRecorder) failed() bool {
	return rr.status >= http.StatusBadRequest
}

// HTTPMiddleware traces every request to the serve API as one server span
// named after the method and route, continuing a trace propagated by the
// caller. red (which may be nil) counts the request under the same name;
// rejected requests count as errors, but only 5xx responses fail the span.
func HTTPMiddleware(tracer trace.Tracer, red *REDMetrics, next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, hr *http.Request) {
		route := hr.Method + " " + hr.URL.Path
		carrier := propagation.HeaderCarrier(hr.Header)

		ctx, span := tracer.Start(otel.GetTextMapPropagator().Extract(hr.Context(), carrier), route,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				semconv.HTTPRequestMethodKey.String(hr.Method),
				semconv.HTTPRoute(hr.URL.Path),
			),
		)
		defer span.End()

		if hr.ContentLength >= 0 {
			span.SetAttributes(semconv.HTTPRequestBodySize(int(hr.ContentLength)))
		}

		defer red.TrackInflight(ctx, route)()

		start := time.Now()
		rec := &responseRecorder{ResponseWriter: rw, status: http.StatusOK}
		next.ServeHTTP(rec, hr.WithContext(ctx))

		span.SetAttributes(
			semconv.HTTPResponseStatusCode(rec.status),
			semconv.HTTPResponseBodySize(rec.size),
		)

		if rec.status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(rec.status))
		}

		status := StatusOK
		if rec.failed() {
			status = StatusError
		}

		red.RecordRequest(ctx, route, status, time.Since(start))
	})
}
