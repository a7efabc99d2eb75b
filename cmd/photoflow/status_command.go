package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"photoflow/internal/registry"
)

var stageOrder = []registry.Stage{
	registry.StageDownloaded,
	registry.StageAnalyzed,
	registry.StageEnriched,
	registry.StageUploaded,
	registry.StageFailed,
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var showEntries bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show registry progress counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openRegistry()
			if err != nil {
				return err
			}
			defer store.Close()

			stats, err := store.Stats(cmd.Context())
			if err != nil {
				return fmt.Errorf("registry stats: %w", err)
			}

			out := cmd.OutOrStdout()

			if jsonOutput {
				payload := statusPayload{Stages: map[string]int{}}
				for stage, count := range stats {
					payload.Stages[string(stage)] = count
					payload.Total += count
				}
				if showEntries {
					entries, err := store.All(cmd.Context())
					if err != nil {
						return fmt.Errorf("registry entries: %w", err)
					}
					for _, entry := range entries {
						payload.Entries = append(payload.Entries, statusEntry{
							ContentHash: entry.ContentHash,
							SourcePath:  entry.SourcePath,
							Stage:       string(entry.Stage),
							Note:        entry.Note,
							UpdatedAt:   entry.UpdatedAt.Format(time.RFC3339),
						})
					}
				}
				encoder := json.NewEncoder(out)
				encoder.SetIndent("", "  ")
				return encoder.Encode(payload)
			}

			rows := make([][]string, 0, len(stageOrder))
			total := 0
			for _, stage := range stageOrder {
				rows = append(rows, []string{string(stage), strconv.Itoa(stats[stage])})
				total += stats[stage]
			}
			rows = append(rows, []string{"total", strconv.Itoa(total)})
			fmt.Fprintln(out, renderTable(
				[]string{"Stage", "Images"},
				rows,
				[]columnAlignment{alignLeft, alignRight},
			))

			if failed := stats[registry.StageFailed]; failed > 0 {
				line := fmt.Sprintf("%d failed image(s); re-arm with `photoflow retry`", failed)
				if shouldColorize(out) {
					line = ansiYellow + line + ansiReset
				}
				fmt.Fprintln(out, line)
			}

			if showEntries {
				entries, err := store.All(cmd.Context())
				if err != nil {
					return fmt.Errorf("registry entries: %w", err)
				}
				entryRows := make([][]string, 0, len(entries))
				for _, entry := range entries {
					entryRows = append(entryRows, []string{
						shortHash(entry.ContentHash),
						entry.SourcePath,
						string(entry.Stage),
						entry.Note,
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Hash", "Source", "Stage", "Note"},
					entryRows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
				))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit machine-readable JSON")
	cmd.Flags().BoolVar(&showEntries, "entries", false, "List every tracked image")
	return cmd
}

type statusPayload struct {
	Total   int            `json:"total"`
	Stages  map[string]int `json:"stages"`
	Entries []statusEntry  `json:"entries,omitempty"`
}

type statusEntry struct {
	ContentHash string `json:"content_hash"`
	SourcePath  string `json:"source_path"`
	Stage       string `json:"stage"`
	Note        string `json:"note,omitempty"`
	UpdatedAt   string `json:"updated_at"`
}

func shortHash(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}
