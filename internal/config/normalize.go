package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeSchema(); err != nil {
		return err
	}
	c.normalizeAnalysis()
	c.normalizeGeocode()
	c.normalizeBatch()
	c.normalizeNaming()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.IncomingDir, err = expandPath(c.Paths.IncomingDir); err != nil {
		return fmt.Errorf("paths.incoming_dir: %w", err)
	}
	if c.Paths.UploadDir, err = expandPath(c.Paths.UploadDir); err != nil {
		return fmt.Errorf("paths.upload_dir: %w", err)
	}
	if c.Paths.UploadedDir, err = expandPath(c.Paths.UploadedDir); err != nil {
		return fmt.Errorf("paths.uploaded_dir: %w", err)
	}
	if c.Paths.FailedDir, err = expandPath(c.Paths.FailedDir); err != nil {
		return fmt.Errorf("paths.failed_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeSchema() error {
	var err error
	c.Schema.URL = strings.TrimSpace(c.Schema.URL)
	if strings.TrimSpace(c.Schema.Path) != "" {
		if c.Schema.Path, err = expandPath(c.Schema.Path); err != nil {
			return fmt.Errorf("schema.path: %w", err)
		}
	}
	if c.Schema.TimeoutSeconds <= 0 {
		c.Schema.TimeoutSeconds = defaultSchemaTimeoutSeconds
	}
	return nil
}

func (c *Config) normalizeAnalysis() {
	c.Analysis.APIKey = strings.TrimSpace(c.Analysis.APIKey)
	if c.Analysis.APIKey == "" {
		if value, ok := os.LookupEnv("PHOTOFLOW_API_KEY"); ok {
			c.Analysis.APIKey = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("OPENAI_API_KEY"); ok {
			c.Analysis.APIKey = strings.TrimSpace(value)
		}
	}
	c.Analysis.BaseURL = strings.TrimSpace(c.Analysis.BaseURL)
	if c.Analysis.BaseURL == "" {
		c.Analysis.BaseURL = defaultAnalysisBaseURL
	}
	c.Analysis.Model = strings.TrimSpace(c.Analysis.Model)
	if c.Analysis.Model == "" {
		c.Analysis.Model = defaultAnalysisModel
	}
	if c.Analysis.TimeoutSeconds <= 0 {
		c.Analysis.TimeoutSeconds = defaultAnalysisTimeoutSeconds
	}
	if c.Analysis.MaxAttempts <= 0 {
		c.Analysis.MaxAttempts = defaultAnalysisMaxAttempts
	}
}

func (c *Config) normalizeGeocode() {
	c.Geocode.BaseURL = strings.TrimSpace(c.Geocode.BaseURL)
	if c.Geocode.BaseURL == "" {
		c.Geocode.BaseURL = defaultGeocodeBaseURL
	}
	c.Geocode.Language = strings.TrimSpace(c.Geocode.Language)
	if c.Geocode.Language == "" {
		c.Geocode.Language = defaultGeocodeLanguage
	}
	c.Geocode.UserAgent = strings.TrimSpace(c.Geocode.UserAgent)
	if c.Geocode.UserAgent == "" {
		c.Geocode.UserAgent = defaultGeocodeUserAgent
	}
	if c.Geocode.TimeoutSeconds <= 0 {
		c.Geocode.TimeoutSeconds = defaultGeocodeTimeoutSeconds
	}
}

func (c *Config) normalizeBatch() {
	if c.Batch.Workers <= 0 {
		c.Batch.Workers = defaultBatchWorkers
	}
	if c.Batch.ImageTimeoutSeconds <= 0 {
		c.Batch.ImageTimeoutSeconds = defaultImageTimeoutSeconds
	}
	if len(c.Batch.Extensions) == 0 {
		c.Batch.Extensions = defaultExtensions()
		return
	}
	exts := make([]string, 0, len(c.Batch.Extensions))
	seen := make(map[string]struct{}, len(c.Batch.Extensions))
	for _, ext := range c.Batch.Extensions {
		normalized := strings.ToLower(strings.TrimSpace(ext))
		if normalized == "" {
			continue
		}
		if !strings.HasPrefix(normalized, ".") {
			normalized = "." + normalized
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		exts = append(exts, normalized)
	}
	if len(exts) == 0 {
		exts = defaultExtensions()
	}
	c.Batch.Extensions = exts
}

func (c *Config) normalizeNaming() {
	c.Naming.Mask = strings.TrimSpace(c.Naming.Mask)
	if c.Naming.Mask == "" {
		c.Naming.Mask = defaultNamingMask
	}
	c.Enrich.DefaultStatus = strings.TrimSpace(c.Enrich.DefaultStatus)
	if c.Enrich.DefaultStatus == "" {
		c.Enrich.DefaultStatus = defaultStatus
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
