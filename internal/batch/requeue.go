package batch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Requeue returns a quarantined image to its recorded source path so the next
// run picks it up again. A missing quarantine file is not an error: the image
// was never moved aside, or an earlier retry already restored it.
func Requeue(failedDir, sourcePath string) error {
	if failedDir == "" || sourcePath == "" {
		return nil
	}
	quarantined := filepath.Join(failedDir, filepath.Base(sourcePath))
	if _, err := os.Stat(quarantined); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat quarantined image: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(sourcePath), 0o755); err != nil {
		return fmt.Errorf("restore directory: %w", err)
	}
	if err := moveFile(quarantined, sourcePath); err != nil {
		return fmt.Errorf("restore %s: %w", filepath.Base(sourcePath), err)
	}
	return nil
}
