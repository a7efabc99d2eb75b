package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"photoflow/internal/config"
	"photoflow/internal/schema"
)

func newSchemaCommand(ctx *commandContext) *cobra.Command {
	schemaCmd := &cobra.Command{
		Use:   "schema",
		Short: "Metadata schema utilities",
	}
	schemaCmd.AddCommand(newSchemaShowCommand(ctx))
	schemaCmd.AddCommand(newSchemaFetchCommand(ctx))
	return schemaCmd
}

func newSchemaShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the parsed schema fields",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.buildLogger()
			if err != nil {
				return err
			}
			s, err := ctx.loadSchema(cmd.Context(), logger)
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(s.Fields))
			for _, field := range s.Fields {
				required := ""
				if field.Required {
					required = "yes"
				}
				choices := ""
				if len(field.AllowedValues) > 0 {
					choices = strings.Join(field.AllowedValues, ", ")
				}
				rows = append(rows, []string{field.Name, field.Title, string(field.Kind), required, choices})
			}

			out := cmd.OutOrStdout()
			if s.LibraryTitle != "" {
				fmt.Fprintf(out, "Library: %s\n", s.LibraryTitle)
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Field", "Title", "Kind", "Required", "Choices"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}
}

func newSchemaFetchCommand(ctx *commandContext) *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download the schema from the configured endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cfg.Schema.URL == "" {
				return fmt.Errorf("schema.url is not configured")
			}

			timeout := time.Duration(cfg.Schema.TimeoutSeconds) * time.Second
			source := schema.NewHTTPSource(cfg.Schema.URL, timeout)
			raw, err := source.Fetch(cmd.Context())
			if err != nil {
				return fmt.Errorf("fetch schema: %w", err)
			}

			// Parse before writing so a broken response never clobbers a good
			// local copy.
			logger, err := ctx.buildLogger()
			if err != nil {
				return err
			}
			if _, err := schema.Load(raw, logger); err != nil {
				return fmt.Errorf("fetched schema is invalid: %w", err)
			}

			target := strings.TrimSpace(outputPath)
			if target == "" {
				target = cfg.Schema.Path
			}
			if target == "" {
				_, err := cmd.OutOrStdout().Write(raw)
				return err
			}
			expanded, err := config.ExpandPath(target)
			if err != nil {
				return fmt.Errorf("resolve output path: %w", err)
			}
			if err := os.WriteFile(expanded, raw, 0o644); err != nil {
				return fmt.Errorf("write schema: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote schema to %s\n", expanded)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Destination file (defaults to schema.path, stdout when unset)")
	return cmd
}
