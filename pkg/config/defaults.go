// Package config provides YAML-based configuration for uimarkup.
package config

// Transform defaults.
const (
	DefaultModuleName = "Main"
)

// File collection defaults.
const (
	DefaultSkipVendor  = true
	DefaultMaxFileSize = "1MB"
)

// DefaultExtensions are the file extensions collected when a directory is
// given to the CLI.
var DefaultExtensions = []string{".xmlui"}

// Cache defaults.
const (
	DefaultCacheEnabled = true
	DefaultCacheMaxSize = "64MB"
	DefaultCacheDir     = ""
)

// Output defaults.
const (
	DefaultOutputFormat = FormatJSON
)

// Server defaults.
const (
	DefaultServerAddr         = "127.0.0.1:8080"
	DefaultServerReadTimeout  = "10s"
	DefaultServerWriteTimeout = "30s"
	DefaultServerIdleTimeout  = "60s"
	DefaultServerMaxBodySize  = "4MB"
)

// Observability defaults.
const (
	DefaultOTLPEndpoint = ""
	DefaultOTLPInsecure = false
	DefaultSampleRatio  = 1.0
	DefaultLogLevel     = "info"
	DefaultLogJSON      = false
)
