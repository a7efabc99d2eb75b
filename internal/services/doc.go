// Package services defines the shared error taxonomy and context plumbing used
// by pipeline components and external service clients.
//
// Errors are tagged with sentinel markers (validation, configuration, timeout,
// transient, external service) so the batch coordinator can decide whether a
// failure is fatal for the run or only for the current image. Context helpers
// carry the image name, content hash, stage, and correlation ID so log lines
// from any depth of the pipeline identify the work they belong to.
package services
