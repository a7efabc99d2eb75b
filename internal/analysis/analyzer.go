package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"photoflow/internal/schema"
)

// Analyzer produces the model analysis for one image.
type Analyzer interface {
	Analyze(ctx context.Context, imagePath string) (*Payload, error)
}

// ModelAnalyzer drives the vision client with a schema-derived prompt.
type ModelAnalyzer struct {
	client *Client
	prompt string
}

// NewModelAnalyzer binds a client to the prompt built from the schema.
func NewModelAnalyzer(client *Client, s *schema.Schema) *ModelAnalyzer {
	return &ModelAnalyzer{client: client, prompt: BuildPrompt(s)}
}

func (a *ModelAnalyzer) Analyze(ctx context.Context, imagePath string) (*Payload, error) {
	return a.client.AnalyzeImage(ctx, imagePath, a.prompt)
}

// CachedAnalyzer stores each response as <stem>_analysis.json so re-runs
// never resubmit an image to the model.
type CachedAnalyzer struct {
	inner Analyzer
	dir   string
}

// NewCachedAnalyzer wraps an analyzer with a response cache. When dir is
// empty the cache file is written next to the image.
func NewCachedAnalyzer(inner Analyzer, dir string) *CachedAnalyzer {
	return &CachedAnalyzer{inner: inner, dir: dir}
}

// CachePath returns the cache file location for an image.
func (a *CachedAnalyzer) CachePath(imagePath string) string {
	stem := strings.TrimSuffix(filepath.Base(imagePath), filepath.Ext(imagePath))
	dir := a.dir
	if dir == "" {
		dir = filepath.Dir(imagePath)
	}
	return filepath.Join(dir, stem+"_analysis.json")
}

func (a *CachedAnalyzer) Analyze(ctx context.Context, imagePath string) (*Payload, error) {
	cachePath := a.CachePath(imagePath)
	if raw, err := os.ReadFile(cachePath); err == nil {
		cached := &Payload{}
		if err := cached.Decode(raw); err == nil {
			return cached, nil
		}
		// Corrupt cache entry, refetch below.
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("analysis cache: read %s: %w", cachePath, err)
	}

	payload, err := a.inner.Analyze(ctx, imagePath)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(payload.values); err == nil {
		if err := os.WriteFile(cachePath, raw, 0o644); err != nil {
			return nil, fmt.Errorf("analysis cache: write %s: %w", cachePath, err)
		}
	}
	return payload, nil
}
