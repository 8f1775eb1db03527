package main

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"slidereel/internal/staging"
)

func newScratchCommand(ctx *commandContext) *cobra.Command {
	scratchCmd := &cobra.Command{
		Use:   "scratch",
		Short: "Inspect and clean render scratch directories",
	}
	scratchCmd.AddCommand(newScratchListCommand(ctx))
	scratchCmd.AddCommand(newScratchCleanCommand(ctx))
	return scratchCmd
}

func newScratchListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List scratch directories left by running or failed renders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			dirs, err := staging.ListDirectories(cfg.Paths.ScratchDir)
			if err != nil {
				return fmt.Errorf("list scratch directories: %w", err)
			}
			if ctx.JSONMode() {
				if dirs == nil {
					dirs = []staging.DirInfo{}
				}
				return writeJSON(cmd, map[string]any{"scratch_dir": cfg.Paths.ScratchDir, "directories": dirs})
			}
			out := cmd.OutOrStdout()
			if len(dirs) == 0 {
				fmt.Fprintln(out, "No scratch directories found")
				return nil
			}
			fmt.Fprintf(out, "Scratch directory: %s\n\n", cfg.Paths.ScratchDir)
			var total int64
			rows := make([][]string, 0, len(dirs))
			for _, dir := range dirs {
				total += dir.Size
				rows = append(rows, []string{dir.Name, humanize.Time(dir.ModTime), humanize.IBytes(uint64(max(dir.Size, 0)))})
			}
			fmt.Fprint(out, renderTable([]string{"Directory", "Modified", "Size"}, rows, []columnAlignment{alignLeft, alignRight, alignRight}))
			fmt.Fprintf(out, "Total: %d directories, %s\n", len(dirs), humanize.IBytes(uint64(max(total, 0))))
			return nil
		},
	}
}

func newScratchCleanCommand(ctx *commandContext) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove scratch directories older than a cutoff",
		Long: `Remove scratch directories older than --older-than. Startup already
reclaims directories older than a day; use --older-than 0 to remove every
directory, including cards kept from a failed produce run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			result := staging.CleanStale(context.WithoutCancel(cmd.Context()), cfg.Paths.ScratchDir, olderThan, logger)
			if ctx.JSONMode() {
				errs := make([]string, 0, len(result.Errors))
				for _, e := range result.Errors {
					errs = append(errs, fmt.Sprintf("%s: %v", e.Path, e.Error))
				}
				return writeJSON(cmd, map[string]any{"removed": len(result.Removed), "errors": errs})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Removed %d scratch directories\n", len(result.Removed))
			for _, e := range result.Errors {
				fmt.Fprintf(out, "  Error: %s: %v\n", e.Path, e.Error)
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", staleScratchAge, "Only remove directories older than this")
	return cmd
}
