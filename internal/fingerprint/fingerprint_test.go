package fingerprint_test

import (
	"os"
	"path/filepath"
	"testing"

	"photoflow/internal/fingerprint"
)

func TestComputeMatchesBytesAndIgnoresName(t *testing.T) {
	dir := t.TempDir()
	payload := []byte("image-bytes")

	first := filepath.Join(dir, "IMG_0001.jpg")
	second := filepath.Join(dir, "renamed.jpg")
	for _, path := range []string{first, second} {
		if err := os.WriteFile(path, payload, 0o644); err != nil {
			t.Fatalf("write fixture: %v", err)
		}
	}

	hashA, err := fingerprint.Compute(first)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	hashB, err := fingerprint.Compute(second)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	if hashA != hashB {
		t.Fatalf("identical bytes produced different hashes: %s vs %s", hashA, hashB)
	}
	if hashA != fingerprint.ComputeBytes(payload) {
		t.Fatal("file hash does not match in-memory hash")
	}
	if len(hashA) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(hashA))
	}
}

func TestComputeDistinguishesContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.jpg")
	if err := os.WriteFile(path, []byte("one"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	hashOne, err := fingerprint.Compute(path)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	if err := os.WriteFile(path, []byte("two"), 0o644); err != nil {
		t.Fatalf("rewrite fixture: %v", err)
	}
	hashTwo, err := fingerprint.Compute(path)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	if hashOne == hashTwo {
		t.Fatal("different bytes produced the same hash")
	}
}

func TestComputeMissingFile(t *testing.T) {
	if _, err := fingerprint.Compute(filepath.Join(t.TempDir(), "missing.jpg")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
