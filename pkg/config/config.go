package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/Sumatoshi-tech/uimarkup/pkg/safeconv"
)

// Output formats accepted by output.format.
const (
	FormatJSON    = "json"
	FormatYAML    = "yaml"
	FormatCompact = "compact"
)

// Formats lists every supported output format.
var Formats = []string{FormatJSON, FormatYAML, FormatCompact}

// Sentinel validation errors.
var (
	ErrInvalidModuleName  = errors.New("transform.module_name must not be empty")
	ErrInvalidExtension   = errors.New("files.extensions entries must start with '.'")
	ErrInvalidSize        = errors.New("invalid size")
	ErrInvalidFormat      = errors.New("invalid output format")
	ErrInvalidTimeout     = errors.New("invalid server timeout")
	ErrInvalidSampleRatio = errors.New("observability.sample_ratio must be within [0, 1]")
	ErrInvalidLogLevel    = errors.New("invalid log level")
)

var logLevels = []string{"debug", "info", "warn", "error"}

// Config is the top-level configuration struct for uimarkup.
// Field tags use mapstructure for viper unmarshalling.
type Config struct {
	Transform     TransformConfig     `mapstructure:"transform"`
	Files         FilesConfig         `mapstructure:"files"`
	Cache         CacheConfig         `mapstructure:"cache"`
	Output        OutputConfig        `mapstructure:"output"`
	Server        ServerConfig        `mapstructure:"server"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// TransformConfig holds transformer settings.
type TransformConfig struct {
	ModuleName string `mapstructure:"module_name"`
}

// FilesConfig controls which files the CLI collects from directories.
type FilesConfig struct {
	Extensions  []string `mapstructure:"extensions"`
	SkipVendor  bool     `mapstructure:"skip_vendor"`
	MaxFileSize string   `mapstructure:"max_file_size"`
}

// CacheConfig holds definition cache settings.
type CacheConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	MaxSize string `mapstructure:"max_size"`
	// Dir, when set, keeps a snapshot of the cache between runs.
	Dir string `mapstructure:"dir"`
}

// OutputConfig holds CLI output settings.
type OutputConfig struct {
	Format string `mapstructure:"format"`
}

// ServerConfig holds HTTP server settings for the serve command.
type ServerConfig struct {
	Addr         string `mapstructure:"addr"`
	ReadTimeout  string `mapstructure:"read_timeout"`
	WriteTimeout string `mapstructure:"write_timeout"`
	IdleTimeout  string `mapstructure:"idle_timeout"`
	MaxBodySize  string `mapstructure:"max_body_size"`
}

// ObservabilityConfig holds tracing, metrics and logging settings.
type ObservabilityConfig struct {
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	OTLPInsecure bool    `mapstructure:"otlp_insecure"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
	LogLevel     string  `mapstructure:"log_level"`
	LogJSON      bool    `mapstructure:"log_json"`
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Transform.ModuleName) == "" {
		return ErrInvalidModuleName
	}

	for _, ext := range c.Files.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("%w: %q", ErrInvalidExtension, ext)
		}
	}

	for _, size := range []string{c.Files.MaxFileSize, c.Cache.MaxSize, c.Server.MaxBodySize} {
		if _, err := ParseSize(size); err != nil {
			return err
		}
	}

	if !slices.Contains(Formats, c.Output.Format) {
		return fmt.Errorf("%w: %q", ErrInvalidFormat, c.Output.Format)
	}

	if err := c.validateServer(); err != nil {
		return err
	}

	return c.validateObservability()
}

func (c *Config) validateServer() error {
	for _, timeout := range []string{c.Server.ReadTimeout, c.Server.WriteTimeout, c.Server.IdleTimeout} {
		if _, err := ParseTimeout(timeout); err != nil {
			return err
		}
	}

	return nil
}

func (c *Config) validateObservability() error {
	if c.Observability.SampleRatio < 0 || c.Observability.SampleRatio > 1 {
		return fmt.Errorf("%w: %v", ErrInvalidSampleRatio, c.Observability.SampleRatio)
	}

	if !slices.Contains(logLevels, strings.ToLower(c.Observability.LogLevel)) {
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Observability.LogLevel)
	}

	return nil
}

// ParseSize parses a humanize size string such as "64MB" or "1GiB".
// An empty string means zero, which callers read as "use the default".
func ParseSize(s string) (int64, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return 0, nil
	}

	parsed, err := humanize.ParseBytes(trimmed)
	if err != nil {
		return 0, fmt.Errorf("%w %q: %w", ErrInvalidSize, s, err)
	}

	return safeconv.ClampUint64ToInt64(parsed), nil
}

// ParseTimeout parses a duration string. An empty string means no timeout.
func ParseTimeout(s string) (time.Duration, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return 0, nil
	}

	d, err := time.ParseDuration(trimmed)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("%w %q", ErrInvalidTimeout, s)
	}

	return d, nil
}

// MaxFileSizeBytes returns files.max_file_size in bytes.
func (c *Config) MaxFileSizeBytes() int64 {
	n, _ := ParseSize(c.Files.MaxFileSize)

	return n
}

// CacheMaxSizeBytes returns cache.max_size in bytes.
func (c *Config) CacheMaxSizeBytes() int64 {
	n, _ := ParseSize(c.Cache.MaxSize)

	return n
}

// MaxBodySizeBytes returns server.max_body_size in bytes.
func (c *Config) MaxBodySizeBytes() int64 {
	n, _ := ParseSize(c.Server.MaxBodySize)

	return n
}
