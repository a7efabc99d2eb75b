// Package registry tracks per-image pipeline progress, keyed by content
// hash. Stages move forward only (downloaded, analyzed, enriched, uploaded);
// any stage may fail, and a failed entry may retry into any forward stage.
// The SQLite store persists progress across runs so batches stay idempotent;
// the in-memory variant serves tests.
package registry
