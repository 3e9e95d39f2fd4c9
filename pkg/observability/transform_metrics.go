package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricDefinitionsTotal = "uimarkup.transform.definitions.total"
	metricFailuresTotal    = "uimarkup.transform.failures.total"
	metricDiagnosticsTotal = "uimarkup.transform.diagnostics.total"
	metricSourceBytes      = "uimarkup.transform.source.bytes"
	metricCacheLookups     = "uimarkup.cache.lookups.total"
	metricCacheEntries     = "uimarkup.cache.entries"
	metricCacheBytes       = "uimarkup.cache.bytes"

	attrKind   = "kind"
	attrCode   = "code"
	attrResult = "result"

	kindComponent = "component"
	kindCompound  = "compound"
	resultHit     = "hit"
	resultMiss    = "miss"
)

// sourceBytesBoundaries covers markup files from 256 B to 4 MiB.
var sourceBytesBoundaries = []float64{256, 1024, 4096, 16384, 65536, 262144, 1048576, 4194304}

// CompileRecord describes one compilation for TransformMetrics.
type CompileRecord struct {
	// Compound is set when the root was a reusable component.
	Compound bool

	// FailureCode is the error code of a failed compilation, empty on success.
	FailureCode string

	// DiagnosticCodes lists the codes of collected script diagnostics.
	DiagnosticCodes []string

	// SourceBytes is the size of the compiled source.
	SourceBytes int

	// CacheUsed is set when a cache was consulted; CacheHit tells the outcome.
	CacheUsed bool
	CacheHit  bool
}

// CacheStatsFunc reports the current cache population.
type CacheStatsFunc func() (entries, bytes int64)

// TransformMetrics holds the instruments specific to markup compilation.
type TransformMetrics struct {
	meter        metric.Meter
	definitions  metric.Int64Counter
	failures     metric.Int64Counter
	diagnostics  metric.Int64Counter
	sourceBytes  metric.Float64Histogram
	cacheLookups metric.Int64Counter
}

// NewTransformMetrics creates the compilation instruments.
func NewTransformMetrics(mt metric.Meter) (*TransformMetrics, error) {
	b := newMetricBuilder(mt)

	tm := &TransformMetrics{
		meter:        mt,
		definitions:  b.counter(metricDefinitionsTotal, "Definitions produced, by root kind", "{definition}"),
		failures:     b.counter(metricFailuresTotal, "Failed compilations, by error code", "{failure}"),
		diagnostics:  b.counter(metricDiagnosticsTotal, "Collected script diagnostics, by code", "{diagnostic}"),
		sourceBytes:  b.histogram(metricSourceBytes, "Size of compiled sources", "By", sourceBytesBoundaries...),
		cacheLookups: b.counter(metricCacheLookups, "Definition cache lookups, by result", "{lookup}"),
	}

	if b.err != nil {
		return nil, b.err
	}

	return tm, nil
}

// RecordCompile records one compilation. Safe on a nil receiver.
func (tm *TransformMetrics) RecordCompile(ctx context.Context, rec CompileRecord) {
	if tm == nil {
		return
	}

	tm.sourceBytes.Record(ctx, float64(rec.SourceBytes))

	if rec.CacheUsed {
		result := resultMiss
		if rec.CacheHit {
			result = resultHit
		}

		tm.cacheLookups.Add(ctx, 1, metric.WithAttributes(attribute.String(attrResult, result)))
	}

	if rec.FailureCode != "" {
		tm.failures.Add(ctx, 1, metric.WithAttributes(attribute.String(attrCode, rec.FailureCode)))

		return
	}

	kind := kindComponent
	if rec.Compound {
		kind = kindCompound
	}

	tm.definitions.Add(ctx, 1, metric.WithAttributes(attribute.String(attrKind, kind)))

	for _, code := range rec.DiagnosticCodes {
		tm.diagnostics.Add(ctx, 1, metric.WithAttributes(attribute.String(attrCode, code)))
	}
}

// ObserveCache registers gauges reporting the cache population on each
// collection. The returned function unregisters them.
func (tm *TransformMetrics) ObserveCache(stats CacheStatsFunc) (func() error, error) {
	if tm == nil || stats == nil {
		return func() error { return nil }, nil
	}

	entries, err := tm.meter.Int64ObservableGauge(metricCacheEntries,
		metric.WithDescription("Definitions held by the cache"), metric.WithUnit("{entry}"))
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricCacheEntries, err)
	}

	size, err := tm.meter.Int64ObservableGauge(metricCacheBytes,
		metric.WithDescription("Compressed bytes held by the cache"), metric.WithUnit("By"))
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricCacheBytes, err)
	}

	reg, err := tm.meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		n, b := stats()
		o.ObserveInt64(entries, n)
		o.ObserveInt64(size, b)

		return nil
	}, entries, size)
	if err != nil {
		return nil, fmt.Errorf("register cache gauges: %w", err)
	}

	return reg.Unregister, nil
}
