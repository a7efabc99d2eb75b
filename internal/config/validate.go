package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSchema(); err != nil {
		return err
	}
	if err := c.validateAnalysis(); err != nil {
		return err
	}
	if err := c.validateGeocode(); err != nil {
		return err
	}
	if err := c.validateBatch(); err != nil {
		return err
	}
	if err := c.validateNaming(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateSchema() error {
	if strings.TrimSpace(c.Schema.Path) == "" && strings.TrimSpace(c.Schema.URL) == "" {
		return errors.New("schema.path or schema.url must be set")
	}
	if c.Schema.TimeoutSeconds <= 0 {
		return errors.New("schema.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateAnalysis() error {
	if c.Analysis.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/photoflow/config.toml"
		}
		return fmt.Errorf("analysis.api_key is required. Set PHOTOFLOW_API_KEY env var or edit %s (create with 'photoflow config init')", defaultPath)
	}
	if err := ensurePositiveMap(map[string]int{
		"analysis.timeout_seconds": c.Analysis.TimeoutSeconds,
		"analysis.max_attempts":    c.Analysis.MaxAttempts,
	}); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateGeocode() error {
	if !c.Geocode.Enabled {
		return nil
	}
	if strings.TrimSpace(c.Geocode.BaseURL) == "" {
		return errors.New("geocode.base_url must be set when geocode.enabled is true")
	}
	if c.Geocode.TimeoutSeconds <= 0 {
		return errors.New("geocode.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateBatch() error {
	return ensurePositiveMap(map[string]int{
		"batch.workers":               c.Batch.Workers,
		"batch.image_timeout_seconds": c.Batch.ImageTimeoutSeconds,
	})
}

func (c *Config) validateNaming() error {
	if !strings.Contains(c.Naming.Mask, "%") {
		return fmt.Errorf("naming.mask must contain a printf-style counter verb, got %q", c.Naming.Mask)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
