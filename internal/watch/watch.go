// Package watch observes the incoming directory and triggers batch runs.
// Filesystem events are debounced so one copied folder of images causes one
// run, not one per file.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"

	"photoflow/internal/logging"
	"photoflow/internal/services"
)

const defaultDebounce = 2 * time.Second

// RunFunc is invoked after the directory settles. Per-run errors are logged
// and the watcher keeps going; fatal errors (configuration problems that
// would fail every run the same way) and a cancelled context stop it.
type RunFunc func(ctx context.Context) error

// Watcher debounces filesystem activity in one directory into batch runs.
type Watcher struct {
	dir      string
	debounce time.Duration
	run      RunFunc
	logger   *slog.Logger
}

// Option customizes a Watcher.
type Option func(*Watcher)

// WithDebounce overrides the settle interval.
func WithDebounce(interval time.Duration) Option {
	return func(w *Watcher) {
		if interval > 0 {
			w.debounce = interval
		}
	}
}

// WithLogger sets the watcher logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logging.NewComponentLogger(logger, "watch")
		}
	}
}

// New constructs a Watcher over dir.
func New(dir string, run RunFunc, opts ...Option) (*Watcher, error) {
	if dir == "" {
		return nil, errors.New("watch directory is empty")
	}
	if run == nil {
		return nil, errors.New("run function is nil")
	}
	w := &Watcher{dir: dir, debounce: defaultDebounce, run: run, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Watch runs one initial pass, then blocks reacting to directory events
// until the context is cancelled or a run fails fatally.
func (w *Watcher) Watch(ctx context.Context) error {
	notifier, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer notifier.Close()

	if err := notifier.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	w.logger.Info("watching for new images", logging.String(logging.FieldPath, w.dir))

	// Catch whatever arrived before the watcher started.
	if err := w.trigger(ctx); err != nil {
		return err
	}

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	for {
		select {
		case <-ctx.Done():
			if pending && !timer.Stop() {
				<-timer.C
			}
			return ctx.Err()

		case event, ok := <-notifier.Events:
			if !ok {
				return errors.New("watcher event channel closed")
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
				continue
			}
			if pending && !timer.Stop() {
				<-timer.C
			}
			timer.Reset(w.debounce)
			pending = true

		case err, ok := <-notifier.Errors:
			if !ok {
				return errors.New("watcher error channel closed")
			}
			w.logger.Warn("watcher error", logging.Error(err))

		case <-timer.C:
			pending = false
			if err := w.trigger(ctx); err != nil {
				return err
			}
		}
	}
}

// trigger runs one pass. It returns an error only when the run failed in a
// way that would fail identically on every later trigger.
func (w *Watcher) trigger(ctx context.Context) error {
	if ctx.Err() != nil {
		return nil
	}
	started := time.Now()
	if err := w.run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		if services.IsFatal(err) {
			return err
		}
		w.logger.Error("triggered run failed", logging.Error(err))
		return nil
	}
	w.logger.Info("triggered run finished", logging.Duration(logging.FieldDuration, time.Since(started)))
	return nil
}
