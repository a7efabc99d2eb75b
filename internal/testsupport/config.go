// Package testsupport provides shared helpers for package tests: temp-dir
// configs, registry stores, and fixture files.
package testsupport

import (
	"path/filepath"
	"testing"

	"photoflow/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Analysis.APIKey = "test"
	cfg.Paths.IncomingDir = filepath.Join(base, "incoming")
	cfg.Paths.UploadDir = filepath.Join(base, "upload")
	cfg.Paths.UploadedDir = filepath.Join(base, "uploaded")
	cfg.Paths.FailedDir = filepath.Join(base, "failed")
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithWorkers overrides the batch worker count on the test config.
func WithWorkers(workers int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Batch.Workers = workers
	}
}

// WithNamingMask overrides the upload filename mask on the test config.
func WithNamingMask(mask string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Naming.Mask = mask
	}
}
