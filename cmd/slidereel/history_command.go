package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"slidereel/internal/history"
	"slidereel/internal/services"
	"slidereel/internal/services/ffmpeg"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var project string
	var limit int
	var latest bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show previously rendered videos, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if latest && strings.TrimSpace(project) == "" {
				return services.Wrap(services.ErrValidation, "history", "flags", "--latest requires --project", nil)
			}
			return ctx.withHistory(func(store *history.Store) error {
				var entries []history.Entry
				if latest {
					entry, ok, err := store.Latest(cmd.Context(), strings.TrimSpace(project))
					if err != nil {
						return err
					}
					if ok {
						entries = []history.Entry{entry}
					}
				} else {
					var err error
					entries, err = store.List(cmd.Context(), history.Filter{Project: project, Limit: limit})
					if err != nil {
						return err
					}
				}
				if ctx.JSONMode() {
					if entries == nil {
						entries = []history.Entry{}
					}
					return writeJSON(cmd, entries)
				}
				out := cmd.OutOrStdout()
				if len(entries) == 0 {
					fmt.Fprintln(out, "No renders recorded")
					return nil
				}
				rows := make([][]string, 0, len(entries))
				for _, e := range entries {
					rows = append(rows, []string{
						strconv.FormatInt(e.ID, 10),
						e.CreatedAt.Local().Format("2006-01-02 15:04"),
						e.Project,
						string(e.Source),
						e.Strategy,
						strconv.Itoa(e.Frames),
						ffmpeg.FormatSeconds(e.ExpectedSeconds) + "s",
						e.Path,
					})
				}
				fmt.Fprint(out, renderTable(
					[]string{"ID", "Created", "Project", "Source", "Strategy", "Frames", "Length", "Path"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
				))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&project, "project", "p", "", "Only show renders for this project")
	cmd.Flags().IntVarP(&limit, "limit", "l", 20, "Maximum number of entries (0 for all)")
	cmd.Flags().BoolVar(&latest, "latest", false, "Show only the most recent render of --project")
	return cmd
}
