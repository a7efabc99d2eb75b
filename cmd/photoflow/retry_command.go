package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"photoflow/internal/batch"
	"photoflow/internal/registry"
	"photoflow/internal/services"
)

func newRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry [hash...]",
		Short: "Re-arm failed images for the next run",
		Long: "Moves failed registry entries back to the downloaded stage and " +
			"restores their quarantined files so the next batch picks them up. " +
			"Without arguments every failed entry is re-armed; hashes may be " +
			"abbreviated prefixes.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := ctx.openRegistry()
			if err != nil {
				return err
			}
			defer store.Close()

			failed, err := store.ByStage(cmd.Context(), registry.StageFailed)
			if err != nil {
				return fmt.Errorf("list failed entries: %w", err)
			}

			selected := failed
			if len(args) > 0 {
				selected = make([]*registry.Entry, 0, len(failed))
				seen := make(map[string]bool, len(failed))
				for _, prefix := range args {
					matched := false
					for _, entry := range failed {
						if !strings.HasPrefix(entry.ContentHash, prefix) {
							continue
						}
						matched = true
						if seen[entry.ContentHash] {
							continue
						}
						seen[entry.ContentHash] = true
						selected = append(selected, entry)
					}
					if !matched {
						return fmt.Errorf("%w: no failed entry matches %q", services.ErrNotFound, prefix)
					}
				}
			}

			for _, entry := range selected {
				if _, err := store.Advance(cmd.Context(), entry.ContentHash, entry.SourcePath, registry.StageDownloaded, "retry requested"); err != nil {
					return fmt.Errorf("re-arm %s: %w", shortHash(entry.ContentHash), err)
				}
				if err := batch.Requeue(cfg.Paths.FailedDir, entry.SourcePath); err != nil {
					return fmt.Errorf("requeue %s: %w", shortHash(entry.ContentHash), err)
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Re-armed %d failed image(s)\n", len(selected))
			return nil
		},
	}
}
