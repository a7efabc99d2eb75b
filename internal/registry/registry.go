package registry

import (
	"context"
	"errors"
	"time"
)

// ErrStageRegression is returned when an advance would move an entry
// backwards on the stage ladder.
var ErrStageRegression = errors.New("stage regression")

// ErrInvalidStage is returned for stage values outside the known lifecycle.
var ErrInvalidStage = errors.New("invalid stage")

// Entry is the tracked state of one image, keyed by its content hash.
type Entry struct {
	ContentHash string
	SourcePath  string
	Stage       Stage
	Note        string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Registry tracks per-image pipeline progress. Implementations must tolerate
// concurrent advances for different hashes; advances for the same hash are
// serialized internally.
type Registry interface {
	// Lookup returns the entry for a content hash, or nil when unknown.
	Lookup(ctx context.Context, contentHash string) (*Entry, error)

	// Advance records that an image reached a stage. Unknown hashes are
	// inserted. Known hashes may only move forward; moving to failed is
	// allowed from any stage, and a failed entry may re-enter any forward
	// stage. The note replaces the previous one (error text for failures).
	Advance(ctx context.Context, contentHash, sourcePath string, stage Stage, note string) (*Entry, error)

	// All returns every entry ordered by creation time.
	All(ctx context.Context) ([]*Entry, error)

	// ByStage returns the entries currently at a stage, ordered by creation
	// time.
	ByStage(ctx context.Context, stage Stage) ([]*Entry, error)

	// Stats counts entries grouped by stage.
	Stats(ctx context.Context) (map[Stage]int, error)
}
