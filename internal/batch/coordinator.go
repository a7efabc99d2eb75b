package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"photoflow/internal/analysis"
	"photoflow/internal/config"
	"photoflow/internal/exif"
	"photoflow/internal/fingerprint"
	"photoflow/internal/logging"
	"photoflow/internal/naming"
	"photoflow/internal/reconcile"
	"photoflow/internal/registry"
	"photoflow/internal/schema"
	"photoflow/internal/services"
)

// ErrBatchLocked is returned when another process holds the run lock.
var ErrBatchLocked = errors.New("another batch run holds the lock")

// Result summarizes one batch run.
type Result struct {
	Processed int
	Skipped   int
	Failed    int
}

// Coordinator drives the per-image pipeline over a candidate directory with
// a bounded worker pool. One coordinator run per data directory at a time,
// enforced by a file lock.
type Coordinator struct {
	cfg        *config.Config
	registry   registry.Registry
	analyzer   analysis.Analyzer
	reconciler *reconcile.Reconciler
	schema     *schema.Schema
	uploader   Uploader
	logger     *slog.Logger
}

// Option customizes a Coordinator.
type Option func(*Coordinator)

// WithUploader overrides the default local-directory uploader.
func WithUploader(uploader Uploader) Option {
	return func(c *Coordinator) { c.uploader = uploader }
}

// WithLogger sets the coordinator logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		if logger != nil {
			c.logger = logging.NewComponentLogger(logger, "batch")
		}
	}
}

// New constructs a Coordinator.
func New(cfg *config.Config, reg registry.Registry, analyzer analysis.Analyzer, reconciler *reconcile.Reconciler, s *schema.Schema, opts ...Option) (*Coordinator, error) {
	coordinator := &Coordinator{
		cfg:        cfg,
		registry:   reg,
		analyzer:   analyzer,
		reconciler: reconciler,
		schema:     s,
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(coordinator)
	}
	if coordinator.uploader == nil {
		namer, err := naming.New(cfg.Naming.Mask)
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "batch", "naming", "invalid filename mask", err)
		}
		coordinator.uploader = NewLocalUploader(cfg.Paths.UploadDir, cfg.Paths.UploadedDir, namer)
	}
	return coordinator, nil
}

// Run processes every candidate image in dir (the incoming directory when
// empty). Failures are per-image: the run continues and the image is marked
// failed in the registry. Cancellation stops the pool between images.
func (c *Coordinator) Run(ctx context.Context, dir string) (Result, error) {
	if dir == "" {
		dir = c.cfg.Paths.IncomingDir
	}
	if err := c.cfg.EnsureDirectories(); err != nil {
		return Result{}, services.Wrap(services.ErrConfiguration, "batch", "setup", "ensure directories", err)
	}

	lock := flock.New(c.cfg.LockPath())
	acquired, err := lock.TryLock()
	if err != nil {
		return Result{}, services.Wrap(services.ErrTransient, "batch", "lock", "acquire run lock", err)
	}
	if !acquired {
		return Result{}, fmt.Errorf("%w: %s", ErrBatchLocked, c.cfg.LockPath())
	}
	defer func() {
		_ = lock.Unlock()
	}()

	runID := uuid.NewString()
	candidates, err := c.discover(dir)
	if err != nil {
		return Result{}, err
	}
	c.logger.Info("batch run started",
		logging.String(logging.FieldCorrelationID, runID),
		logging.String(logging.FieldPath, dir),
		logging.Int(logging.FieldCount, len(candidates)))

	workers := c.cfg.Batch.Workers
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan string)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var result Result

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for imagePath := range jobs {
				if ctx.Err() != nil {
					continue
				}
				outcome := c.processImage(services.WithRequestID(ctx, uuid.NewString()), imagePath)
				mu.Lock()
				switch outcome {
				case outcomeProcessed:
					result.Processed++
				case outcomeSkipped:
					result.Skipped++
				case outcomeFailed:
					result.Failed++
				}
				mu.Unlock()
			}
		}()
	}

	for _, imagePath := range candidates {
		if ctx.Err() != nil {
			break
		}
		jobs <- imagePath
	}
	close(jobs)
	wg.Wait()

	c.logger.Info("batch run finished",
		logging.String(logging.FieldCorrelationID, runID),
		logging.Int("processed", result.Processed),
		logging.Int("skipped", result.Skipped),
		logging.Int("failed", result.Failed))

	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

// discover lists candidate images in a directory, filtered by the configured
// extensions and sorted for stable processing order.
func (c *Coordinator) discover(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "batch", "discover", "read candidate directory", err)
	}

	allowed := make(map[string]struct{}, len(c.cfg.Batch.Extensions))
	for _, ext := range c.cfg.Batch.Extensions {
		allowed[strings.ToLower(ext)] = struct{}{}
	}

	var candidates []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, ok := allowed[strings.ToLower(filepath.Ext(entry.Name()))]; !ok {
			continue
		}
		candidates = append(candidates, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(candidates)
	return candidates, nil
}

// externalMarker picks the error marker for a failed external call. A blown
// per-image deadline is a timeout, everything else a service failure.
func externalMarker(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return services.ErrTimeout
	}
	return services.ErrExternalService
}

type outcome int

const (
	outcomeProcessed outcome = iota
	outcomeSkipped
	outcomeFailed
)

// processImage runs the full pipeline for one image under the per-image
// timeout. Any error marks the image failed in the registry and moves the
// file aside; the batch carries on.
func (c *Coordinator) processImage(ctx context.Context, imagePath string) outcome {
	timeout := time.Duration(c.cfg.Batch.ImageTimeoutSeconds) * time.Second
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	ctx = services.WithImage(ctx, filepath.Base(imagePath))

	contentHash, err := fingerprint.Compute(imagePath)
	if err != nil {
		c.failImage(ctx, "", imagePath, services.Wrap(services.ErrValidation, "fingerprint", "hash", imagePath, err))
		return outcomeFailed
	}
	ctx = services.WithContentHash(ctx, contentHash)
	imageLogger := logging.WithContext(ctx, c.logger)

	entry, err := c.registry.Lookup(ctx, contentHash)
	if err != nil {
		c.failImage(ctx, contentHash, imagePath, services.Wrap(services.ErrTransient, "registry", "lookup", contentHash, err))
		return outcomeFailed
	}
	if entry != nil && entry.Stage.AtLeast(registry.StageEnriched) {
		imageLogger.Info("already enriched, skipping", logging.String(logging.FieldStage, string(entry.Stage)))
		return outcomeSkipped
	}

	if _, err := c.registry.Advance(ctx, contentHash, imagePath, registry.StageDownloaded, ""); err != nil {
		c.failImage(ctx, contentHash, imagePath, services.Wrap(services.ErrTransient, "registry", "advance", "downloaded", err))
		return outcomeFailed
	}

	exifMap, err := exif.Extract(imagePath)
	if err != nil {
		// Extraction degrades to an empty map internally; an error here means
		// the file itself was unreadable.
		c.failImage(ctx, contentHash, imagePath, services.Wrap(services.ErrValidation, "exif", "extract", imagePath, err))
		return outcomeFailed
	}

	payload, err := c.analyzer.Analyze(ctx, imagePath)
	if err != nil {
		c.failImage(ctx, contentHash, imagePath, services.Wrap(externalMarker(err), "analysis", "analyze", imagePath, err))
		return outcomeFailed
	}
	if _, err := c.registry.Advance(ctx, contentHash, imagePath, registry.StageAnalyzed, ""); err != nil {
		c.failImage(ctx, contentHash, imagePath, services.Wrap(services.ErrTransient, "registry", "advance", "analyzed", err))
		return outcomeFailed
	}

	record, err := c.reconciler.Reconcile(ctx, c.schema, exifMap, payload)
	if err != nil {
		c.failImage(ctx, contentHash, imagePath, services.Wrap(services.ErrValidation, "reconcile", "merge", imagePath, err))
		return outcomeFailed
	}
	for _, warning := range record.Warnings() {
		imageLogger.Warn("reconcile warning", logging.String("warning", warning))
	}
	if _, err := c.registry.Advance(ctx, contentHash, imagePath, registry.StageEnriched, ""); err != nil {
		c.failImage(ctx, contentHash, imagePath, services.Wrap(services.ErrTransient, "registry", "advance", "enriched", err))
		return outcomeFailed
	}

	stagedName, err := c.uploader.Upload(ctx, imagePath, record)
	if err != nil {
		c.failImage(ctx, contentHash, imagePath, services.Wrap(externalMarker(err), "upload", "stage", imagePath, err))
		return outcomeFailed
	}
	if _, err := c.registry.Advance(ctx, contentHash, imagePath, registry.StageUploaded, stagedName); err != nil {
		c.failImage(ctx, contentHash, imagePath, services.Wrap(services.ErrTransient, "registry", "advance", "uploaded", err))
		return outcomeFailed
	}

	imageLogger.Info("image enriched and staged", logging.String("staged_name", stagedName))
	return outcomeProcessed
}

// failImage records the failure in the registry and moves the source file to
// the failed directory. Both steps are best effort: the error is already the
// outcome.
func (c *Coordinator) failImage(ctx context.Context, contentHash, imagePath string, cause error) {
	logging.WithContext(ctx, c.logger).Error("image failed", logging.Args(logging.Error(cause))...)

	if contentHash != "" {
		// Registry advances tolerate cancellation poorly; use a fresh context
		// so the failure is recorded even when the image timed out.
		recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if _, err := c.registry.Advance(recordCtx, contentHash, imagePath, registry.StageFailed, cause.Error()); err != nil {
			c.logger.Error("recording failure state failed", logging.Error(err))
		}
	}

	if c.cfg.Paths.FailedDir == "" {
		return
	}
	target := filepath.Join(c.cfg.Paths.FailedDir, filepath.Base(imagePath))
	if err := moveFile(imagePath, target); err != nil && !errors.Is(err, os.ErrNotExist) {
		c.logger.Warn("move to failed dir did not succeed",
			logging.String(logging.FieldPath, target),
			logging.Error(err))
	}
}
