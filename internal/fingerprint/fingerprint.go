// Package fingerprint derives the stable content identity for an image file.
// The hash covers file bytes only, so renames and metadata sidecars never
// change the identity the registry keys on.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// Compute returns the lowercase hex SHA-256 digest of the file contents.
func Compute(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	h := sha256.New()
	if _, err := io.Copy(h, file); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// ComputeBytes hashes an in-memory payload. Used by tests and by callers that
// already hold the file contents.
func ComputeBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
