package observability_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/uimarkup/pkg/observability"
)

func newTestTracer(t *testing.T) (trace.Tracer, *tracetest.InMemoryExporter) {
	t.Helper()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	t.Cleanup(func() { require.NoError(t, tp.Shutdown(context.Background())) })

	return tp.Tracer("test"), exporter
}

func TestHTTPMiddleware_SpanAndMetrics(t *testing.T) {
	t.Parallel()

	tracer, exporter := newTestTracer(t)
	mp, reader := newTestMeterProvider(t)

	red, err := observability.NewREDMetrics(mp.Meter("test"))
	require.NoError(t, err)

	var sawSpan bool

	handler := http.HandlerFunc(func(rw http.ResponseWriter, hr *http.Request) {
		sawSpan = trace.SpanContextFromContext(hr.Context()).IsValid()

		if hr.URL.Path == "/bad" {
			http.Error(rw, "bad", http.StatusBadRequest)

			return
		}

		_, _ = rw.Write([]byte("ok"))
	})

	mw := observability.HTTPMiddleware(tracer, red, handler)

	for _, path := range []string{"/transform", "/bad"} {
		rec := httptest.NewRecorder()
		mw.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, http.NoBody))
	}

	assert.True(t, sawSpan)

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, "POST /transform", spans[0].Name)
	assert.Equal(t, trace.SpanKindServer, spans[0].SpanKind)

	rm := collectMetrics(t, reader)
	assert.Equal(t, map[string]int64{"POST /transform": 1, "POST /bad": 1},
		sumByAttr(t, findMetric(rm, "uimarkup.requests.total"), "op"))
	assert.Equal(t, map[string]int64{"POST /bad": 1},
		sumByAttr(t, findMetric(rm, "uimarkup.errors.total"), "op"))
}

func TestHTTPMiddleware_ServerErrorSetsSpanStatus(t *testing.T) {
	t.Parallel()

	tracer, exporter := newTestTracer(t)

	mw := observability.HTTPMiddleware(tracer, nil, http.HandlerFunc(func(rw http.ResponseWriter, _ *http.Request) {
		rw.WriteHeader(http.StatusInternalServerError)
	}))

	mw.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", http.NoBody))

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "Error", spans[0].Status.Code.String())
}

func TestHTTPMiddleware_RecordsRouteAndSizes(t *testing.T) {
	t.Parallel()

	tracer, exporter := newTestTracer(t)

	mw := observability.HTTPMiddleware(tracer, nil, http.HandlerFunc(func(rw http.ResponseWriter, _ *http.Request) {
		_, _ = rw.Write([]byte(`{"definition":`))
		_, _ = rw.Write([]byte(`{}}`))
	}))

	body := `{"source":"<Text/>"}`
	mw.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/transform", strings.NewReader(body)))

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)

	attrs := map[string]any{}
	for _, kv := range spans[0].Attributes {
		attrs[string(kv.Key)] = kv.Value.AsInterface()
	}

	assert.Equal(t, "/api/transform", attrs["http.route"])
	assert.Equal(t, "POST", attrs["http.request.method"])
	assert.Equal(t, int64(len(body)), attrs["http.request.body.size"])
	assert.Equal(t, int64(len(`{"definition":{}}`)), attrs["http.response.body.size"])
	assert.Equal(t, int64(http.StatusOK), attrs["http.response.status_code"])
	assert.Equal(t, "Unset", spans[0].Status.Code.String())
}
