package observability

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// maxAttributeValueLen caps exported string values. Diagnostic messages
// quote markup and script text, which has no upper bound.
const maxAttributeValueLen = 512

// exportedNamespaces are the attribute namespaces uimarkup spans may export.
var exportedNamespaces = []string{
	"uimarkup.",
	"markup.",
	"cache.",
	"error.",
	"http.",
	"lsp.",
	"mcp.",
}

// privateKeys hold document text or request payloads and are never
// exported.
var privateKeys = map[string]bool{
	"markup.source": true,
	"http.body":     true,
	"mcp.arguments": true,
	"lsp.text":      true,
}

// exportable reports whether a span attribute key may leave the process.
func exportable(key string) bool {
	if key == "error" {
		return true
	}

	if privateKeys[key] {
		return false
	}

	for _, ns := range exportedNamespaces {
		if strings.HasPrefix(key, ns) {
			return true
		}
	}

	return false
}

// attributeFilter sits in front of the exporting span processor and hands
// it spans reduced to exportable attributes, with long strings truncated.
type attributeFilter struct {
	next   sdktrace.SpanProcessor
	logger *slog.Logger
	warned sync.Map
}

// NewAttributeFilter wraps next. With a non-nil logger each dropped key is
// reported once, at warn level.
func NewAttributeFilter(next sdktrace.SpanProcessor, logger *slog.Logger) sdktrace.SpanProcessor {
	return &attributeFilter{next: next, logger: logger}
}

func (f *attributeFilter) OnStart(parent context.Context, s sdktrace.ReadWriteSpan) {
	f.next.OnStart(parent, s)
}

func (f *attributeFilter) OnEnd(s sdktrace.ReadOnlySpan) {
	f.next.OnEnd(&exportSpan{ReadOnlySpan: s, filter: f})
}

func (f *attributeFilter) Shutdown(ctx context.Context) error {
	if err := f.next.Shutdown(ctx); err != nil {
		return fmt.Errorf("attribute filter shutdown: %w", err)
	}

	return nil
}

func (f *attributeFilter) ForceFlush(ctx context.Context) error {
	if err := f.next.ForceFlush(ctx); err != nil {
		return fmt.Errorf("attribute filter flush: %w", err)
	}

	return nil
}

func (f *attributeFilter) keep(kv attribute.KeyValue) (attribute.KeyValue, bool) {
	key := string(kv.Key)

	if !exportable(key) {
		if _, seen := f.warned.LoadOrStore(key, struct{}{}); !seen && f.logger != nil {
			f.logger.Warn("span attribute not exported", "key", key)
		}

		return kv, false
	}

	if kv.Value.Type() == attribute.STRING {
		if text := kv.Value.AsString(); len(text) > maxAttributeValueLen {
			return kv.Key.String(truncateUTF8(text, maxAttributeValueLen) + "..."), true
		}
	}

	return kv, true
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	for n > 0 && n < len(s) && !isRuneStart(s[n]) {
		n--
	}

	return s[:n]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

// exportSpan is the view of a finished span the exporter receives.
type exportSpan struct {
	sdktrace.ReadOnlySpan

	filter *attributeFilter
}

func (s *exportSpan) Attributes() []attribute.KeyValue {
	all := s.ReadOnlySpan.Attributes()
	kept := make([]attribute.KeyValue, 0, len(all))

	for _, kv := range all {
		if out, ok := s.filter.keep(kv); ok {
			kept = append(kept, out)
		}
	}

	return kept
}
