package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// configName is the config file name without extension.
const configName = ".uimarkup"

// configType is the config file format.
const configType = "yaml"

// envPrefix is the environment variable prefix for uimarkup settings.
const envPrefix = "UIMARKUP"

// LoadConfig loads configuration from file, env vars, and defaults.
// If configPath is non-empty, it is used as the explicit config file path.
// Otherwise, the config file is searched in CWD and $HOME.
// Missing config file is not an error; defaults are used.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	applyDefaults(viperCfg)

	viperCfg.SetConfigType(configType)
	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viperCfg.AutomaticEnv()

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viperCfg.AddConfigPath(home)
		}
	}

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFound) {
			return nil, fmt.Errorf("read config: %w", readErr)
		}
	}

	var cfg Config

	unmarshalErr := viperCfg.Unmarshal(&cfg)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("unmarshal config: %w", unmarshalErr)
	}

	validateErr := cfg.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("validate config: %w", validateErr)
	}

	return &cfg, nil
}

// Default returns the configuration used when nothing is configured.
func Default() *Config {
	viperCfg := viper.New()
	applyDefaults(viperCfg)

	var cfg Config

	// Defaults always unmarshal.
	_ = viperCfg.Unmarshal(&cfg)

	return &cfg
}

func applyDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("transform.module_name", DefaultModuleName)

	viperCfg.SetDefault("files.extensions", DefaultExtensions)
	viperCfg.SetDefault("files.skip_vendor", DefaultSkipVendor)
	viperCfg.SetDefault("files.max_file_size", DefaultMaxFileSize)

	viperCfg.SetDefault("cache.enabled", DefaultCacheEnabled)
	viperCfg.SetDefault("cache.max_size", DefaultCacheMaxSize)
	viperCfg.SetDefault("cache.dir", DefaultCacheDir)

	viperCfg.SetDefault("output.format", DefaultOutputFormat)

	viperCfg.SetDefault("server.addr", DefaultServerAddr)
	viperCfg.SetDefault("server.read_timeout", DefaultServerReadTimeout)
	viperCfg.SetDefault("server.write_timeout", DefaultServerWriteTimeout)
	viperCfg.SetDefault("server.idle_timeout", DefaultServerIdleTimeout)
	viperCfg.SetDefault("server.max_body_size", DefaultServerMaxBodySize)

	viperCfg.SetDefault("observability.otlp_endpoint", DefaultOTLPEndpoint)
	viperCfg.SetDefault("observability.otlp_insecure", DefaultOTLPInsecure)
	viperCfg.SetDefault("observability.sample_ratio", DefaultSampleRatio)
	viperCfg.SetDefault("observability.log_level", DefaultLogLevel)
	viperCfg.SetDefault("observability.log_json", DefaultLogJSON)
}
