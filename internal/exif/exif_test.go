package exif_test

import (
	"os"
	"path/filepath"
	"testing"

	"photoflow/internal/exif"
)

func TestExtractWithoutExifBlockReturnsEmptyMap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.jpg")
	if err := os.WriteFile(path, []byte("not an image"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	m, err := exif.Extract(path)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(m) != 0 {
		t.Fatalf("expected empty map, got %v", m)
	}
}

func TestExtractFallsBackToSidecar(t *testing.T) {
	dir := t.TempDir()
	imagePath := filepath.Join(dir, "IMG_0002.jpg")
	if err := os.WriteFile(imagePath, []byte("stripped"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	sidecar := `DateTimeOriginal: "2024:06:01 10:15:00"
Make: "Canon"
GPSLatitude: "47.123456"
GPSLongitude: "8.654321"
`
	if err := os.WriteFile(exif.SidecarPath(imagePath), []byte(sidecar), 0o644); err != nil {
		t.Fatalf("write sidecar: %v", err)
	}

	want := exif.Map{
		exif.TagDateTimeOriginal: "2024:06:01 10:15:00",
		exif.TagMake:             "Canon",
		exif.TagGPSLatitude:      "47.123456",
		exif.TagGPSLongitude:     "8.654321",
	}

	got, err := exif.Extract(imagePath)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("unexpected map: %v", got)
	}
	for key, value := range want {
		if got[key] != value {
			t.Fatalf("key %q: got %q want %q", key, got[key], value)
		}
	}
}

func TestReadSidecar(t *testing.T) {
	path := filepath.Join(t.TempDir(), "IMG_0003.yml")
	content := `Artist: "Jane Roe"
ISOSpeedRatings: "400"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write sidecar: %v", err)
	}
	loaded, err := exif.ReadSidecar(path)
	if err != nil {
		t.Fatalf("ReadSidecar failed: %v", err)
	}
	if loaded[exif.TagArtist] != "Jane Roe" || loaded[exif.TagISO] != "400" {
		t.Fatalf("unexpected sidecar contents: %v", loaded)
	}
}

func TestSidecarPath(t *testing.T) {
	if got := exif.SidecarPath("/photos/IMG_1.jpeg"); got != "/photos/IMG_1.yml" {
		t.Fatalf("unexpected sidecar path: %q", got)
	}
}

func TestCoordinates(t *testing.T) {
	m := exif.Map{exif.TagGPSLatitude: "-33.865143", exif.TagGPSLongitude: "151.209900"}
	lat, lon, ok := m.Coordinates()
	if !ok {
		t.Fatal("expected coordinates")
	}
	if lat >= 0 {
		t.Fatalf("expected negative latitude for southern hemisphere, got %f", lat)
	}
	if lon != 151.2099 {
		t.Fatalf("unexpected longitude: %f", lon)
	}

	if _, _, ok := (exif.Map{exif.TagGPSLatitude: "47.0"}).Coordinates(); ok {
		t.Fatal("coordinates require both latitude and longitude")
	}
	if _, _, ok := (exif.Map{exif.TagGPSLatitude: "x", exif.TagGPSLongitude: "y"}).Coordinates(); ok {
		t.Fatal("unparseable coordinates must not be returned")
	}
}
