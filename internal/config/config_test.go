package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"photoflow/internal/config"
)

func TestLoadDefaultConfigUsesEnvKeyAndExpandsPaths(t *testing.T) {
	t.Setenv("PHOTOFLOW_API_KEY", "test-key")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	schemaPath := filepath.Join(tempHome, "schema.json")
	if err := os.WriteFile(schemaPath, []byte("{}"), 0o644); err != nil {
		t.Fatalf("write schema fixture: %v", err)
	}
	configPath := filepath.Join(tempHome, ".config", "photoflow", "config.toml")
	writeConfig(t, configPath, map[string]any{
		"schema": map[string]any{"path": schemaPath},
	})

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if !exists {
		t.Fatal("expected config file in temp HOME to be found")
	}

	wantIncoming := filepath.Join(tempHome, "photoflow", "incoming")
	if cfg.Paths.IncomingDir != wantIncoming {
		t.Fatalf("unexpected incoming dir: got %q want %q", cfg.Paths.IncomingDir, wantIncoming)
	}
	if cfg.Analysis.APIKey != "test-key" {
		t.Fatalf("expected API key from env, got %q", cfg.Analysis.APIKey)
	}
	if cfg.Analysis.BaseURL != config.Default().Analysis.BaseURL {
		t.Fatalf("unexpected analysis base url: %q", cfg.Analysis.BaseURL)
	}
	if cfg.Geocode.Language != "de" {
		t.Fatalf("unexpected geocode language: %q", cfg.Geocode.Language)
	}
	if cfg.Enrich.DefaultStatus != "Entwurf KI" {
		t.Fatalf("unexpected default status: %q", cfg.Enrich.DefaultStatus)
	}
	if cfg.Batch.Workers != 2 {
		t.Fatalf("unexpected worker count: %d", cfg.Batch.Workers)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}

	for _, dir := range []string{cfg.Paths.IncomingDir, cfg.Paths.UploadDir, cfg.Paths.DataDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPathOverridesDefaults(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "photoflow.toml")
	writeConfig(t, configPath, map[string]any{
		"schema":   map[string]any{"url": "https://example.com/schema.json"},
		"analysis": map[string]any{"api_key": "abc123", "model": "custom-model"},
		"batch":    map[string]any{"workers": 8, "extensions": []string{"JPG", ".png", "jpg"}},
	})

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected custom path to resolve, got %q exists=%v", resolved, exists)
	}
	if cfg.Analysis.Model != "custom-model" {
		t.Fatalf("unexpected model: %q", cfg.Analysis.Model)
	}
	if cfg.Batch.Workers != 8 {
		t.Fatalf("unexpected workers: %d", cfg.Batch.Workers)
	}
	want := []string{".jpg", ".png"}
	if len(cfg.Batch.Extensions) != len(want) {
		t.Fatalf("unexpected extensions: %v", cfg.Batch.Extensions)
	}
	for i, ext := range want {
		if cfg.Batch.Extensions[i] != ext {
			t.Fatalf("unexpected extensions: %v", cfg.Batch.Extensions)
		}
	}
}

func TestValidateRejectsMissingSchemaSource(t *testing.T) {
	cfg := config.Default()
	cfg.Analysis.APIKey = "k"
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "schema.path or schema.url") {
		t.Fatalf("expected schema source error, got %v", err)
	}
}

func TestValidateRejectsMissingAPIKey(t *testing.T) {
	t.Setenv("PHOTOFLOW_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	cfg := config.Default()
	cfg.Schema.URL = "https://example.com/schema.json"
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "analysis.api_key") {
		t.Fatalf("expected api key error, got %v", err)
	}
}

func TestValidateRejectsMaskWithoutCounter(t *testing.T) {
	cfg := config.Default()
	cfg.Schema.URL = "https://example.com/schema.json"
	cfg.Analysis.APIKey = "k"
	cfg.Naming.Mask = "photo"
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "naming.mask") {
		t.Fatalf("expected naming mask error, got %v", err)
	}
}

func TestCreateSampleWritesParseableTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	var decoded map[string]any
	if err := toml.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("sample config does not parse: %v", err)
	}
	if _, ok := decoded["paths"]; !ok {
		t.Fatal("sample config missing paths section")
	}
}

func writeConfig(t *testing.T, path string, payload map[string]any) {
	t.Helper()
	raw, err := toml.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal config payload: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("create config dir: %v", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}
