// Package batch runs the enrichment pipeline over a directory of candidate
// images. A run holds a file lock so only one coordinator works a data
// directory at a time, fans images out to a bounded worker pool, and records
// progress in the registry at every stage boundary. Failures are per-image;
// the run keeps going and failed files move aside for inspection.
package batch
