package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"photoflow/internal/naming"
	"photoflow/internal/reconcile"
)

// Uploader stages an enriched image and its record for delivery. The
// returned name is the assigned target basename without extension.
type Uploader interface {
	Upload(ctx context.Context, imagePath string, record *reconcile.Record) (string, error)
}

// LocalUploader stages files into the upload directory: the image moves
// there under its mask-assigned name and the record lands beside it as JSON.
// Sequence numbers continue past files already staged or archived.
type LocalUploader struct {
	uploadDir   string
	uploadedDir string
	namer       *naming.Namer

	mu sync.Mutex
}

// NewLocalUploader constructs a local-directory uploader.
func NewLocalUploader(uploadDir, uploadedDir string, namer *naming.Namer) *LocalUploader {
	return &LocalUploader{uploadDir: uploadDir, uploadedDir: uploadedDir, namer: namer}
}

// Upload assigns the next sequence number, moves the image into the upload
// directory, and writes the record JSON beside it. Assignment and move run
// under one lock so concurrent workers never race for a number.
func (u *LocalUploader) Upload(ctx context.Context, imagePath string, record *reconcile.Record) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	if err := os.MkdirAll(u.uploadDir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	sequence, err := u.namer.NextSequence(u.uploadDir, u.uploadedDir)
	if err != nil {
		return "", fmt.Errorf("next sequence: %w", err)
	}
	base := u.namer.Format(sequence)
	ext := strings.ToLower(filepath.Ext(imagePath))

	recordJSON, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("marshal record: %w", err)
	}
	recordPath := filepath.Join(u.uploadDir, base+".json")
	if err := os.WriteFile(recordPath, append(recordJSON, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("write record: %w", err)
	}

	targetPath := filepath.Join(u.uploadDir, base+ext)
	if err := moveFile(imagePath, targetPath); err != nil {
		_ = os.Remove(recordPath)
		return "", fmt.Errorf("stage image: %w", err)
	}
	return base, nil
}

// moveFile renames when possible and falls back to copy-then-delete for
// cross-device moves.
func moveFile(source, target string) error {
	if err := os.Rename(source, target); err == nil {
		return nil
	}

	in, err := os.Open(source)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(target)
		return err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(target)
		return err
	}
	return os.Remove(source)
}
