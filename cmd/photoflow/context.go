package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"photoflow/internal/analysis"
	"photoflow/internal/batch"
	"photoflow/internal/config"
	"photoflow/internal/geocode"
	"photoflow/internal/logging"
	"photoflow/internal/reconcile"
	"photoflow/internal/registry"
	"photoflow/internal/schema"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) buildLogger() (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	opts := logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	}
	if cfg.Paths.LogDir != "" {
		opts.FilePath = filepath.Join(cfg.Paths.LogDir, "photoflow.log")
	}
	return logging.New(opts)
}

func (c *commandContext) openRegistry() (*registry.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	store, err := registry.Open(cfg.RegistryPath())
	if err != nil {
		return nil, fmt.Errorf("open registry: %w", err)
	}
	return store, nil
}

// loadSchema fetches and parses the metadata schema from the configured
// source, preferring a local file over the HTTP endpoint.
func (c *commandContext) loadSchema(ctx context.Context, logger *slog.Logger) (*schema.Schema, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}

	var source schema.Source
	if cfg.Schema.Path != "" {
		source = schema.FileSource{Path: cfg.Schema.Path}
	} else {
		timeout := time.Duration(cfg.Schema.TimeoutSeconds) * time.Second
		source = schema.NewHTTPSource(cfg.Schema.URL, timeout)
	}

	raw, err := source.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch schema: %w", err)
	}
	s, err := schema.Load(raw, logger)
	if err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}
	return s, nil
}

// buildCoordinator assembles the full pipeline: schema, analyzer, geocoder,
// reconciler, registry, and the batch coordinator on top.
func (c *commandContext) buildCoordinator(ctx context.Context, logger *slog.Logger, reg registry.Registry) (*batch.Coordinator, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}

	s, err := c.loadSchema(ctx, logger)
	if err != nil {
		return nil, err
	}

	client := analysis.NewClient(analysis.Config{
		APIKey:         cfg.Analysis.APIKey,
		BaseURL:        cfg.Analysis.BaseURL,
		Model:          cfg.Analysis.Model,
		TimeoutSeconds: cfg.Analysis.TimeoutSeconds,
		MaxAttempts:    cfg.Analysis.MaxAttempts,
	})
	var analyzer analysis.Analyzer = analysis.NewModelAnalyzer(client, s)
	if cfg.Analysis.CacheEnabled {
		analyzer = analysis.NewCachedAnalyzer(analyzer, "")
	}

	reconcileOpts := []reconcile.Option{
		reconcile.WithDefaultStatus(cfg.Enrich.DefaultStatus),
		reconcile.WithLogger(logging.NewComponentLogger(logger, "reconcile")),
	}
	if cfg.Geocode.Enabled {
		geocoder := geocode.NewClient(geocode.Config{
			BaseURL:        cfg.Geocode.BaseURL,
			Language:       cfg.Geocode.Language,
			UserAgent:      cfg.Geocode.UserAgent,
			TimeoutSeconds: cfg.Geocode.TimeoutSeconds,
		})
		reconcileOpts = append(reconcileOpts, reconcile.WithGeocoder(geocoder))
	}

	return batch.New(cfg, reg, analyzer, reconcile.New(reconcileOpts...), s, batch.WithLogger(logger))
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
