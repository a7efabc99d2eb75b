package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run [dir]",
		Short: "Process one batch of incoming images",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.buildLogger()
			if err != nil {
				return err
			}

			store, err := ctx.openRegistry()
			if err != nil {
				return err
			}
			defer store.Close()

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			coordinator, err := ctx.buildCoordinator(runCtx, logger, store)
			if err != nil {
				return err
			}

			dir := ""
			if len(args) == 1 {
				dir = args[0]
			}
			result, err := coordinator.Run(runCtx, dir)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Processed %d, skipped %d, failed %d\n",
				result.Processed, result.Skipped, result.Failed)
			if result.Failed > 0 {
				return fmt.Errorf("%d image(s) failed; inspect with `photoflow status`", result.Failed)
			}
			return nil
		},
	}
}
