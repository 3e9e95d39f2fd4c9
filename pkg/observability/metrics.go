package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricRequestsTotal    = "uimarkup.requests.total"
	metricRequestDuration  = "uimarkup.request.duration.seconds"
	metricErrorsTotal      = "uimarkup.errors.total"
	metricInflightRequests = "uimarkup.inflight.requests"

	attrOp     = "op"
	attrStatus = "status"

	// StatusOK marks a successful request.
	StatusOK = "ok"
	// StatusError marks a failed request.
	StatusError = "error"
)

// durationBucketBoundaries covers 100µs to 10s. A single transform is
// usually well under a millisecond; whole-tree CLI runs take seconds.
var durationBucketBoundaries = []float64{
	0.0001, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
}

// REDMetrics holds the Rate, Error and Duration instruments shared by the
// CLI, LSP, MCP and HTTP front ends.
type REDMetrics struct {
	requestsTotal    metric.Int64Counter
	requestDuration  metric.Float64Histogram
	errorsTotal      metric.Int64Counter
	inflightRequests metric.Int64UpDownCounter
}

// NewREDMetrics creates RED metric instruments from the given meter.
func NewREDMetrics(mt metric.Meter) (*REDMetrics, error) {
	b := newMetricBuilder(mt)

	red := &REDMetrics{
		requestsTotal:    b.counter(metricRequestsTotal, "Total number of requests", "{request}"),
		requestDuration:  b.histogram(metricRequestDuration, "Request duration in seconds", "s"),
		errorsTotal:      b.counter(metricErrorsTotal, "Total number of failed requests", "{error}"),
		inflightRequests: b.upDownCounter(metricInflightRequests, "Number of in-flight requests", "{request}"),
	}

	if b.err != nil {
		return nil, b.err
	}

	return red, nil
}

// RecordRequest records a completed request. Safe on a nil receiver.
func (rm *REDMetrics) RecordRequest(ctx context.Context, op, status string, duration time.Duration) {
	if rm == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(attrOp, op),
		attribute.String(attrStatus, status),
	)

	rm.requestsTotal.Add(ctx, 1, attrs)
	rm.requestDuration.Record(ctx, duration.Seconds(), attrs)

	if status == StatusError {
		rm.errorsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrOp, op)))
	}
}

// TrackInflight increments the in-flight gauge and returns its decrement.
func (rm *REDMetrics) TrackInflight(ctx context.Context, op string) func() {
	if rm == nil {
		return func() {}
	}

	attrs := metric.WithAttributes(attribute.String(attrOp, op))
	rm.inflightRequests.Add(ctx, 1, attrs)

	return func() {
		rm.inflightRequests.Add(ctx, -1, attrs)
	}
}

// Observe runs fn as operation op, recording its duration and outcome.
func (rm *REDMetrics) Observe(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	done := rm.TrackInflight(ctx, op)
	defer done()

	start := time.Now()
	err := fn(ctx)

	status := StatusOK
	if err != nil {
		status = StatusError
	}

	rm.RecordRequest(ctx, op, status, time.Since(start))

	return err
}

// metricBuilder creates instruments and keeps the first error, so a run of
// constructors needs a single check.
type metricBuilder struct {
	meter metric.Meter
	err   error
}

func newMetricBuilder(mt metric.Meter) *metricBuilder {
	return &metricBuilder{meter: mt}
}

func (b *metricBuilder) fail(name string, err error) {
	if b.err == nil {
		b.err = fmt.Errorf("create %s: %w", name, err)
	}
}

func (b *metricBuilder) counter(name, desc, unit string) metric.Int64Counter {
	c, err := b.meter.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit(unit))
	if err != nil {
		b.fail(name, err)
	}

	return c
}

func (b *metricBuilder) upDownCounter(name, desc, unit string) metric.Int64UpDownCounter {
	c, err := b.meter.Int64UpDownCounter(name, metric.WithDescription(desc), metric.WithUnit(unit))
	if err != nil {
		b.fail(name, err)
	}

	return c
}

func (b *metricBuilder) histogram(name, desc, unit string, bounds ...float64) metric.Float64Histogram {
	if len(bounds) == 0 {
		bounds = durationBucketBoundaries
	}

	h, err := b.meter.Float64Histogram(name,
		metric.WithDescription(desc),
		metric.WithUnit(unit),
		metric.WithExplicitBucketBoundaries(bounds...),
	)
	if err != nil {
		b.fail(name, err)
	}

	return h
}
