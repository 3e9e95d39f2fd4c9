// Package observability provides OpenTelemetry-based tracing, metrics, and
// structured logging for every uimarkup mode (CLI, LSP, MCP, HTTP server).
package observability

import (
	"fmt"
	"log/slog"
	"strings"
)

// AppMode identifies how the binary was launched.
type AppMode string

const (
	// ModeCLI is one-shot command execution.
	ModeCLI AppMode = "cli"
	// ModeLSP is the language server on stdio.
	ModeLSP AppMode = "lsp"
	// ModeMCP is the MCP stdio server.
	ModeMCP AppMode = "mcp"
	// ModeServe is the HTTP server.
	ModeServe AppMode = "serve"
)

const (
	defaultServiceName        = "uimarkup"
	defaultShutdownTimeoutSec = 5
)

// Config holds all observability configuration.
type Config struct {
	// ServiceName is the OTel resource service name.
	ServiceName string

	// ServiceVersion is the version of the running binary.
	ServiceVersion string

	// Mode identifies how the binary was launched.
	Mode AppMode

	// OTLPEndpoint is the OTLP gRPC collector address (e.g. "localhost:4317").
	// Empty disables export.
	OTLPEndpoint string

	// OTLPHeaders are additional gRPC metadata headers for the exporters.
	OTLPHeaders map[string]string

	// OTLPInsecure disables TLS for the OTLP connection.
	OTLPInsecure bool

	// SampleRatio is the parent-based trace sampling ratio. Zero samples everything.
	SampleRatio float64

	// PrometheusMetrics attaches a Prometheus reader to the meter provider so
	// metrics can be scraped even without an OTLP endpoint.
	PrometheusMetrics bool

	// LogLevel controls the minimum slog severity.
	LogLevel slog.Level

	// LogJSON enables JSON-formatted log output.
	LogJSON bool

	// ShutdownTimeoutSec bounds the flush on shutdown.
	ShutdownTimeoutSec int
}

// DefaultConfig returns a Config for zero-config startup.
func DefaultConfig() Config {
	return Config{
		ServiceName:        defaultServiceName,
		Mode:               ModeCLI,
		LogLevel:           slog.LevelInfo,
		ShutdownTimeoutSec: defaultShutdownTimeoutSec,
	}
}

// ParseLogLevel maps "debug", "info", "warn" and "error" to slog levels.
func ParseLogLevel(s string) (slog.Level, error) {
	var level slog.Level

	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("parse log level %q: %w", s, err)
	}

	return level, nil
}
