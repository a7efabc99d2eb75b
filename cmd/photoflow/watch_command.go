package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"photoflow/internal/watch"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var debounceSeconds int

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the incoming directory and process batches continuously",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.buildLogger()
			if err != nil {
				return err
			}

			store, err := ctx.openRegistry()
			if err != nil {
				return err
			}
			defer store.Close()

			watchCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			coordinator, err := ctx.buildCoordinator(watchCtx, logger, store)
			if err != nil {
				return err
			}

			runBatch := func(runCtx context.Context) error {
				_, runErr := coordinator.Run(runCtx, "")
				return runErr
			}

			opts := []watch.Option{watch.WithLogger(logger)}
			if debounceSeconds > 0 {
				opts = append(opts, watch.WithDebounce(time.Duration(debounceSeconds)*time.Second))
			}
			watcher, err := watch.New(cfg.Paths.IncomingDir, runBatch, opts...)
			if err != nil {
				return err
			}

			if err := watcher.Watch(watchCtx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&debounceSeconds, "debounce", 0, "Seconds the directory must stay quiet before a run starts")
	return cmd
}
