package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Memory is an in-process Registry. It backs tests and dry runs; production
// batches use the SQLite store.
type Memory struct {
	mu      sync.Mutex
	entries map[string]*Entry
}

// NewMemory constructs an empty in-memory registry.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]*Entry)}
}

// Lookup returns the entry for a content hash, or nil when unknown.
func (m *Memory) Lookup(_ context.Context, contentHash string) (*Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[contentHash]
	if !ok {
		return nil, nil
	}
	copied := *entry
	return &copied, nil
}

// Advance records that an image reached a stage.
func (m *Memory) Advance(_ context.Context, contentHash, sourcePath string, stage Stage, note string) (*Entry, error) {
	if !stage.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStage, stage)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	entry, ok := m.entries[contentHash]
	if !ok {
		entry = &Entry{
			ContentHash: contentHash,
			SourcePath:  sourcePath,
			Stage:       stage,
			Note:        note,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		m.entries[contentHash] = entry
		copied := *entry
		return &copied, nil
	}

	if !canTransition(entry.Stage, stage) {
		return nil, fmt.Errorf("%w: %s -> %s for %s", ErrStageRegression, entry.Stage, stage, contentHash)
	}

	entry.Stage = stage
	entry.Note = note
	entry.UpdatedAt = now
	if sourcePath != "" {
		entry.SourcePath = sourcePath
	}
	copied := *entry
	return &copied, nil
}

// All returns every entry ordered by creation time.
func (m *Memory) All(_ context.Context) ([]*Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*Entry, 0, len(m.entries))
	for _, entry := range m.entries {
		copied := *entry
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ContentHash < out[j].ContentHash
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// ByStage returns the entries currently at a stage.
func (m *Memory) ByStage(ctx context.Context, stage Stage) ([]*Entry, error) {
	all, err := m.All(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*Entry, 0, len(all))
	for _, entry := range all {
		if entry.Stage == stage {
			out = append(out, entry)
		}
	}
	return out, nil
}

// Stats counts entries grouped by stage.
func (m *Memory) Stats(_ context.Context) (map[Stage]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := make(map[Stage]int)
	for _, entry := range m.entries {
		stats[entry.Stage]++
	}
	return stats, nil
}
