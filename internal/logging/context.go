package logging

import (
	"context"
	"log/slog"

	"photoflow/internal/services"
)

// Shared structured field names. Keeping them in one place means log
// consumers can rely on stable keys across components.
const (
	FieldComponent     = "component"
	FieldImage         = "image"
	FieldContentHash   = "content_hash"
	FieldStage         = "stage"
	FieldCorrelationID = "correlation_id"
	FieldDuration      = "duration"
	FieldField         = "field"
	FieldCount         = "count"
	FieldPath          = "path"
)

// ContextFields extracts pipeline identifiers from context as attributes.
func ContextFields(ctx context.Context) []Attr {
	if ctx == nil {
		return nil
	}
	attrs := make([]Attr, 0, 4)
	if image, ok := services.ImageFromContext(ctx); ok {
		attrs = append(attrs, String(FieldImage, image))
	}
	if hash, ok := services.ContentHashFromContext(ctx); ok {
		attrs = append(attrs, String(FieldContentHash, hash))
	}
	if stage, ok := services.StageFromContext(ctx); ok {
		attrs = append(attrs, String(FieldStage, stage))
	}
	if id, ok := services.RequestIDFromContext(ctx); ok {
		attrs = append(attrs, String(FieldCorrelationID, id))
	}
	return attrs
}

// WithContext returns a logger pre-tagged with whatever pipeline identifiers
// the context carries.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
