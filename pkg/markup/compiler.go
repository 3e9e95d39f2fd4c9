// Package markup compiles markup sources into component definitions. It ties
// the tokenizer, the transformer, the definition cache and the telemetry
// stack together behind Compiler, which every front end (CLI, language
// server, MCP server, HTTP server) shares.
package markup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Sumatoshi-tech/uimarkup/pkg/cache"
	"github.com/Sumatoshi-tech/uimarkup/pkg/markup/compdef"
	"github.com/Sumatoshi-tech/uimarkup/pkg/markup/cst"
	"github.com/Sumatoshi-tech/uimarkup/pkg/markup/diag"
	"github.com/Sumatoshi-tech/uimarkup/pkg/markup/scripting"
	"github.com/Sumatoshi-tech/uimarkup/pkg/markup/transform"
	"github.com/Sumatoshi-tech/uimarkup/pkg/observability"
)

// CodeMarkupSyntax marks problems raised by the tokenizer rather than the
// transformer.
const CodeMarkupSyntax diag.Code = "M001"

// Result is the outcome of a successful compilation.
type Result struct {
	Definition compdef.Definition

	// Document is the parsed source. It is nil when the definition came
	// from the cache.
	Document *cst.Document

	// Cached is set when the definition came from the cache.
	Cached bool
}

// Compiler compiles markup sources. It is safe for concurrent use.
type Compiler struct {
	moduleName string
	parser     scripting.Parser
	cache      *cache.DefinitionCache
	tracer     trace.Tracer
	metrics    *observability.TransformMetrics
	logger     *slog.Logger
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithModuleName sets the module name keying script diagnostics.
func WithModuleName(name string) Option {
	return func(c *Compiler) { c.moduleName = name }
}

// WithScriptParser replaces the tree-sitter script parser.
func WithScriptParser(p scripting.Parser) Option {
	return func(c *Compiler) { c.parser = p }
}

// WithCache enables result caching.
func WithCache(dc *cache.DefinitionCache) Option {
	return func(c *Compiler) { c.cache = dc }
}

// WithTracer sets the tracer for compile spans.
func WithTracer(t trace.Tracer) Option {
	return func(c *Compiler) {
		if t != nil {
			c.tracer = t
		}
	}
}

// WithMetrics sets the compilation metrics sink.
func WithMetrics(m *observability.TransformMetrics) Option {
	return func(c *Compiler) { c.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Compiler) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewCompiler creates a Compiler.
func NewCompiler(opts ...Option) *Compiler {
	c := &Compiler{
		moduleName: transform.DefaultModuleName,
		tracer:     nooptrace.NewTracerProvider().Tracer(""),
		logger:     slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// ModuleName returns the module name keying script diagnostics.
func (c *Compiler) ModuleName() string {
	return c.moduleName
}

// CacheStats returns the cache counters, or zero stats without a cache.
func (c *Compiler) CacheStats() cache.Stats {
	if c.cache == nil {
		return cache.Stats{}
	}

	return c.cache.Stats()
}

// Compile parses and transforms source. fileID is threaded into every debug
// source. Structural failures are returned as *diag.Error, tokenizer
// failures as *cst.SyntaxError.
func (c *Compiler) Compile(ctx context.Context, fileID int, source []byte) (*Result, error) {
	ctx, span := c.tracer.Start(ctx, "markup.Compile", trace.WithAttributes(
		attribute.Int("markup.file_id", fileID),
		attribute.Int("markup.source_bytes", len(source)),
	))
	defer span.End()

	rec := observability.CompileRecord{SourceBytes: len(source), CacheUsed: c.cache != nil}

	res, err := c.compile(fileID, source, &rec)

	span.SetAttributes(attribute.Bool("cache.hit", rec.CacheHit))

	if err != nil {
		rec.FailureCode = failureCode(err)

		span.RecordError(err)
		span.SetStatus(codes.Error, rec.FailureCode)
		c.metrics.RecordCompile(ctx, rec)
		c.logger.DebugContext(ctx, "compile failed", "markup.file_id", fileID, "error", err)

		return nil, err
	}

	rec.Compound = res.Definition.IsCompound()
	rec.DiagnosticCodes = scriptDiagnosticCodes(res.Definition)

	span.SetAttributes(attribute.Bool("markup.compound", rec.Compound))
	c.metrics.RecordCompile(ctx, rec)

	if len(rec.DiagnosticCodes) > 0 {
		c.logger.WarnContext(ctx, "script diagnostics collected",
			"markup.file_id", fileID, "codes", rec.DiagnosticCodes)
	}

	c.logger.DebugContext(ctx, "compiled", "markup.file_id", fileID, "cached", res.Cached)

	return res, nil
}

func (c *Compiler) compile(fileID int, source []byte, rec *observability.CompileRecord) (*Result, error) {
	var key cache.Key

	if c.cache != nil {
		key = cache.NewKey(fileID, c.moduleName, source)

		if def, ok := c.cache.Get(key); ok {
			rec.CacheHit = true

			return &Result{Definition: def, Cached: true}, nil
		}
	}

	doc, err := cst.Parse(string(source))
	if err != nil {
		return nil, fmt.Errorf("parse markup: %w", err)
	}

	def, err := transform.Transform(doc, fileID,
		transform.WithModuleName(c.moduleName),
		transform.WithScriptParser(c.parser),
	)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if putErr := c.cache.Put(key, def); putErr != nil {
			c.logger.Warn("cache definition", "error", putErr)
		}
	}

	return &Result{Definition: def, Document: doc}, nil
}

func failureCode(err error) string {
	if code := diag.CodeOf(err); code != "" {
		return string(code)
	}

	var syntaxErr *cst.SyntaxError
	if errors.As(err, &syntaxErr) {
		return string(CodeMarkupSyntax)
	}

	return "internal"
}

func scriptDiagnosticCodes(def compdef.Definition) []string {
	var out []string

	compdef.WalkDefinition(def, func(node, _ *compdef.ComponentDef) bool {
		for _, module := range sortedModules(node.ScriptError) {
			for _, d := range node.ScriptError[module] {
				out = append(out, string(d.Code))
			}
		}

		return true
	})

	return out
}

func sortedModules(m map[string][]diag.Diagnostic) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	slices.Sort(keys)

	return keys
}
