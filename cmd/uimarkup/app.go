package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Sumatoshi-tech/uimarkup/pkg/cache"
	"github.com/Sumatoshi-tech/uimarkup/pkg/config"
	"github.com/Sumatoshi-tech/uimarkup/pkg/markup"
	"github.com/Sumatoshi-tech/uimarkup/pkg/observability"
	"github.com/Sumatoshi-tech/uimarkup/pkg/version"
)

// app bundles everything a command needs: the loaded configuration, the
// telemetry providers and a compiler wired to both.
type app struct {
	cfg       *config.Config
	providers observability.Providers
	red       *observability.REDMetrics
	compiler  *markup.Compiler
	logger    *slog.Logger

	unregisterCache func() error
	saveCache       func() error
}

// setupOptions tweak setup per command.
type setupOptions struct {
	mode       observability.AppMode
	prometheus bool
}

func setup(flags *globalFlags, opts setupOptions) (*app, error) {
	cfg, err := config.LoadConfig(flags.configPath)
	if err != nil {
		return nil, err
	}

	obsCfg, err := observabilityConfig(cfg, flags, opts)
	if err != nil {
		return nil, err
	}

	providers, err := observability.Init(obsCfg)
	if err != nil {
		return nil, fmt.Errorf("init observability: %w", err)
	}

	a := &app{
		cfg:             cfg,
		providers:       providers,
		logger:          providers.Logger,
		unregisterCache: noop,
		saveCache:       noop,
	}

	a.red, err = observability.NewREDMetrics(providers.Meter)
	if err != nil {
		return nil, errors.Join(err, a.close())
	}

	tm, err := observability.NewTransformMetrics(providers.Meter)
	if err != nil {
		return nil, errors.Join(err, a.close())
	}

	compilerOpts := []markup.Option{
		markup.WithModuleName(cfg.Transform.ModuleName),
		markup.WithTracer(providers.Tracer),
		markup.WithMetrics(tm),
		markup.WithLogger(providers.Logger),
	}

	if cfg.Cache.Enabled {
		dc := cache.NewDefinitionCache(cfg.CacheMaxSizeBytes())
		compilerOpts = append(compilerOpts, markup.WithCache(dc))

		unregister, err := tm.ObserveCache(func() (int64, int64) {
			stats := dc.Stats()

			return int64(stats.Entries), stats.CurrentSize
		})
		if err != nil {
			return nil, errors.Join(err, a.close())
		}

		a.unregisterCache = unregister

		if dir := cfg.Cache.Dir; dir != "" {
			a.restoreCache(dir, dc)
		}
	}

	a.compiler = markup.NewCompiler(compilerOpts...)

	return a, nil
}

func observabilityConfig(cfg *config.Config, flags *globalFlags, opts setupOptions) (observability.Config, error) {
	obsCfg := observability.DefaultConfig()
	obsCfg.ServiceVersion = version.Get().Version
	obsCfg.Mode = opts.mode
	obsCfg.OTLPEndpoint = cfg.Observability.OTLPEndpoint
	obsCfg.OTLPInsecure = cfg.Observability.OTLPInsecure
	obsCfg.SampleRatio = cfg.Observability.SampleRatio
	obsCfg.PrometheusMetrics = opts.prometheus
	obsCfg.LogJSON = cfg.Observability.LogJSON

	level, err := observability.ParseLogLevel(cfg.Observability.LogLevel)
	if err != nil {
		return obsCfg, err
	}

	switch {
	case flags.verbose:
		level = slog.LevelDebug
	case flags.quiet:
		level = slog.LevelError
	}

	obsCfg.LogLevel = level

	return obsCfg, nil
}

func noop() error { return nil }

// restoreCache loads the snapshot in dir into dc and arranges for close to
// write it back. A snapshot that cannot be read is logged and replaced.
func (a *app) restoreCache(dir string, dc *cache.DefinitionCache) {
	n, err := cache.LoadSnapshot(dir, dc)
	if err != nil {
		a.logger.Warn("cache snapshot ignored", "cache.dir", dir, "error", err)
	} else {
		a.logger.Debug("cache snapshot loaded", "cache.dir", dir, "cache.entries", n)
	}

	a.saveCache = func() error {
		return cache.SaveSnapshot(dir, dc)
	}
}

// close saves the cache snapshot and flushes telemetry. Errors are logged, and returned for callers that
// care.
func (a *app) close() error {
	err := errors.Join(a.saveCache(), a.unregisterCache(), a.providers.Shutdown(context.Background()))
	if err != nil {
		a.logger.Warn("observability shutdown failed", "error", err)
	}

	return err
}
