// Package mcp implements a Model Context Protocol server that lets agents
// compile markup and inspect its problems over stdio.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/uimarkup/pkg/markup"
	"github.com/Sumatoshi-tech/uimarkup/pkg/observability"
	"github.com/Sumatoshi-tech/uimarkup/pkg/version"
)

const (
	serverName = "uimarkup"

	toolCount = 3
)

// ServerDeps holds injectable dependencies for the MCP server.
// Zero-value fields use production defaults.
type ServerDeps struct {
	// Compiler compiles tool input. Nil uses a compiler without a cache.
	Compiler *markup.Compiler

	// Logger is an optional structured logger. Nil uses slog default.
	Logger *slog.Logger

	// Metrics is an optional RED metrics recorder. Nil disables per-tool metrics.
	Metrics *observability.REDMetrics

	// Tracer is an optional OTel tracer for per-tool-call spans. Nil disables tracing.
	Tracer trace.Tracer
}

// Server wraps the MCP SDK server with the markup tools.
type Server struct {
	inner    *mcpsdk.Server
	compiler *markup.Compiler
	mu       sync.RWMutex
	tools    []string
	metrics  *observability.REDMetrics
	tracer   trace.Tracer
	nextID   int
}

// NewServer creates a new MCP server with all tools registered.
func NewServer(deps ServerDeps) *Server {
	opts := &mcpsdk.ServerOptions{}
	if deps.Logger != nil {
		opts.Logger = deps.Logger
	}

	inner := mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    serverName,
			Version: version.Get().Version,
		},
		opts,
	)

	compiler := deps.Compiler
	if compiler == nil {
		compiler = markup.NewCompiler()
	}

	srv := &Server{
		inner:    inner,
		compiler: compiler,
		tools:    make([]string, 0, toolCount),
		metrics:  deps.Metrics,
		tracer:   deps.Tracer,
	}

	srv.registerTools()

	return srv
}

// ListToolNames returns the sorted names of all registered tools.
func (s *Server) ListToolNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, len(s.tools))
	copy(names, s.tools)
	sort.Strings(names)

	return names
}

// Run serves on stdio until the context is canceled or the client
// disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.RunWithTransport(ctx, &mcpsdk.StdioTransport{})
}

// RunWithTransport serves on the given transport.
func (s *Server) RunWithTransport(ctx context.Context, transport mcpsdk.Transport) error {
	err := s.inner.Run(ctx, transport)
	if err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}

	return nil
}

func (s *Server) registerTools() {
	addTool(s, ToolNameTransform, transformToolDescription, s.handleTransform)
	addTool(s, ToolNameCheck, checkToolDescription, s.handleCheck)
	addTool(s, ToolNameValidate, validateToolDescription, handleValidate)
}

func addTool[Input any](s *Server, name, description string, handler mcpsdk.ToolHandlerFor[Input, ToolOutput]) {
	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{
		Name:        name,
		Description: description,
	}, withMetrics(s.metrics, name, withTracing(s.tracer, name, handler)))

	s.mu.Lock()
	s.tools = append(s.tools, name)
	s.mu.Unlock()
}

// fileID hands out a fresh id per tool call so debug sources of separate
// calls never collide.
func (s *Server) fileID() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++

	return id
}

const (
	mcpSpanPrefix  = "mcp."
	traceIDMetaKey = "trace_id"
)

// withTracing opens a span per invocation and appends the trace id to the
// response when the span is sampled.
func withTracing[Input any](
	tracer trace.Tracer, toolName string, handler mcpsdk.ToolHandlerFor[Input, ToolOutput],
) mcpsdk.ToolHandlerFor[Input, ToolOutput] {
	if tracer == nil {
		return handler
	}

	return func(ctx context.Context, req *mcpsdk.CallToolRequest, input Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
		ctx, span := tracer.Start(ctx, mcpSpanPrefix+toolName,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(attribute.String("mcp.tool", toolName)),
		)
		defer span.End()

		result, output, err := handler(ctx, req, input)

		sc := span.SpanContext()
		if sc.IsSampled() && result != nil {
			result.Content = append(result.Content, &mcpsdk.TextContent{
				Text: fmt.Sprintf("%s=%s", traceIDMetaKey, sc.TraceID().String()),
			})
		}

		return result, output, err
	}
}

// withMetrics records RED metrics per invocation. A result flagged IsError
// counts as a failure.
func withMetrics[Input any](
	metrics *observability.REDMetrics, toolName string, handler mcpsdk.ToolHandlerFor[Input, ToolOutput],
) mcpsdk.ToolHandlerFor[Input, ToolOutput] {
	if metrics == nil {
		return handler
	}

	op := mcpSpanPrefix + toolName

	return func(ctx context.Context, req *mcpsdk.CallToolRequest, input Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
		start := time.Now()

		decInflight := metrics.TrackInflight(ctx, op)
		defer decInflight()

		result, output, err := handler(ctx, req, input)

		status := observability.StatusOK
		if err != nil || (result != nil && result.IsError) {
			status = observability.StatusError
		}

		metrics.RecordRequest(ctx, op, status, time.Since(start))

		return result, output, err
	}
}

const (
	transformToolDescription = "Compile a markup document into its component definition. " +
		"Returns the definition JSON together with any problems found."

	checkToolDescription = "Check a markup document and list its problems " +
		"(structural errors and script warnings) with line and column."

	validateToolDescription = "Validate a component definition JSON document " +
		"against the definition schema."
)
