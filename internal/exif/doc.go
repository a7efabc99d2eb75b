// Package exif reads camera-embedded metadata into a normalized string map.
// GPS coordinates are converted to decimal degrees with hemisphere signs
// applied. Images without an EXIF block produce an empty map rather than an
// error; a YAML sidecar written at extraction time serves as a fallback when
// the embedded block is stripped later in the pipeline.
package exif
