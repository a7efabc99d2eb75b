package exif

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	goexif "github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
)

// Map holds normalized camera metadata for one image. All values are strings;
// GPS coordinates are stored in decimal degrees. A missing EXIF block yields
// an empty map, never an error.
type Map map[string]string

// Tag keys present in a Map when the camera recorded them.
const (
	TagDateTimeOriginal = "DateTimeOriginal"
	TagMake             = "Make"
	TagModel            = "Model"
	TagLensModel        = "LensModel"
	TagArtist           = "Artist"
	TagCopyright        = "Copyright"
	TagImageDescription = "ImageDescription"
	TagISO              = "ISOSpeedRatings"
	TagFNumber          = "FNumber"
	TagExposureTime     = "ExposureTime"
	TagFocalLength      = "FocalLength"
	TagImageWidth       = "ImageWidth"
	TagImageHeight      = "ImageHeight"
	TagGPSLatitude      = "GPSLatitude"
	TagGPSLongitude     = "GPSLongitude"
)

// Coordinates returns decimal GPS coordinates when both are present.
func (m Map) Coordinates() (lat, lon float64, ok bool) {
	latRaw, okLat := m[TagGPSLatitude]
	lonRaw, okLon := m[TagGPSLongitude]
	if !okLat || !okLon {
		return 0, 0, false
	}
	lat, errLat := strconv.ParseFloat(latRaw, 64)
	lon, errLon := strconv.ParseFloat(lonRaw, 64)
	if errLat != nil || errLon != nil {
		return 0, 0, false
	}
	return lat, lon, true
}

// Extract reads embedded metadata from the image at path. When the image
// carries no EXIF block the sidecar file is consulted; when neither exists
// the result is an empty map.
func Extract(path string) (Map, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image %s: %w", path, err)
	}
	defer file.Close()

	decoded, err := goexif.Decode(file)
	if err != nil {
		// No usable EXIF block. Fall back to a sidecar written earlier.
		if sidecar, sErr := ReadSidecar(SidecarPath(path)); sErr == nil && len(sidecar) > 0 {
			return sidecar, nil
		}
		return Map{}, nil
	}

	m := Map{}

	stringTags := map[string]goexif.FieldName{
		TagDateTimeOriginal: goexif.DateTimeOriginal,
		TagMake:             goexif.Make,
		TagModel:            goexif.Model,
		TagLensModel:        goexif.LensModel,
		TagArtist:           goexif.Artist,
		TagCopyright:        goexif.Copyright,
		TagImageDescription: goexif.ImageDescription,
	}
	for key, field := range stringTags {
		if value := stringTag(decoded, field); value != "" {
			m[key] = value
		}
	}

	if value := intTag(decoded, goexif.ISOSpeedRatings); value != "" {
		m[TagISO] = value
	}
	if value := intTag(decoded, goexif.PixelXDimension); value != "" {
		m[TagImageWidth] = value
	}
	if value := intTag(decoded, goexif.PixelYDimension); value != "" {
		m[TagImageHeight] = value
	}

	if value := ratioTag(decoded, goexif.FNumber); value != "" {
		m[TagFNumber] = value
	}
	if value := exposureTag(decoded); value != "" {
		m[TagExposureTime] = value
	}
	if value := ratioTag(decoded, goexif.FocalLength); value != "" {
		m[TagFocalLength] = value
	}

	// LatLong applies the hemisphere reference, so southern and western
	// coordinates come back negative.
	if lat, lon, err := decoded.LatLong(); err == nil {
		m[TagGPSLatitude] = strconv.FormatFloat(lat, 'f', 6, 64)
		m[TagGPSLongitude] = strconv.FormatFloat(lon, 'f', 6, 64)
	}

	return m, nil
}

func stringTag(decoded *goexif.Exif, field goexif.FieldName) string {
	tag, err := decoded.Get(field)
	if err != nil {
		return ""
	}
	value, err := tag.StringVal()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(strings.Trim(value, "\x00"))
}

func intTag(decoded *goexif.Exif, field goexif.FieldName) string {
	tag, err := decoded.Get(field)
	if err != nil {
		return ""
	}
	value, err := tag.Int(0)
	if err != nil {
		return ""
	}
	return strconv.Itoa(value)
}

func ratioTag(decoded *goexif.Exif, field goexif.FieldName) string {
	num, den, ok := rational(decoded, field)
	if !ok || den == 0 {
		return ""
	}
	return strconv.FormatFloat(float64(num)/float64(den), 'f', -1, 64)
}

// exposureTag keeps shutter speeds in the conventional 1/N form when the
// numerator is 1, otherwise falls back to a decimal.
func exposureTag(decoded *goexif.Exif) string {
	num, den, ok := rational(decoded, goexif.ExposureTime)
	if !ok || den == 0 {
		return ""
	}
	if num == 1 && den > 1 {
		return fmt.Sprintf("1/%d", den)
	}
	return strconv.FormatFloat(float64(num)/float64(den), 'f', -1, 64)
}

func rational(decoded *goexif.Exif, field goexif.FieldName) (int64, int64, bool) {
	tag, err := decoded.Get(field)
	if err != nil || tag.Format() != tiff.RatVal {
		return 0, 0, false
	}
	num, den, err := tag.Rat2(0)
	if err != nil {
		return 0, 0, false
	}
	return num, den, true
}
