package exif

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// SidecarPath returns the metadata sidecar location for an image path.
func SidecarPath(imagePath string) string {
	ext := filepath.Ext(imagePath)
	return strings.TrimSuffix(imagePath, ext) + ".yml"
}

// ReadSidecar loads a YAML metadata sidecar. Sidecars are written by external
// tooling for images whose embedded EXIF block was stripped; the pipeline
// only consumes them.
func ReadSidecar(path string) (Map, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sidecar %s: %w", path, err)
	}
	var m Map
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decode sidecar %s: %w", path, err)
	}
	if m == nil {
		m = Map{}
	}
	return m, nil
}
