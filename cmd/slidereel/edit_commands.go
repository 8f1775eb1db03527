package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"slidereel/internal/cards"
	"slidereel/internal/config"
	"slidereel/internal/render"
	"slidereel/internal/services"
	"slidereel/internal/services/ffmpeg"
)

func newEditCommand(ctx *commandContext) *cobra.Command {
	var project string

	editCmd := &cobra.Command{
		Use:   "edit",
		Short: "Extract frames from a video, edit them, and rebuild",
		Long: `Edit a project's frames in its workspace.

Start with 'edit extract VIDEO', inspect with 'edit list' or 'edit preview',
apply edits by 0-based frame index, then 'edit rebuild' to encode a new video.
Mutating commands lock the workspace; a second concurrent editor fails fast.`,
	}
	editCmd.PersistentFlags().StringVarP(&project, "project", "p", "", "Project whose workspace to edit (required)")

	editCmd.AddCommand(
		newEditExtractCommand(ctx, &project),
		newEditListCommand(ctx, &project),
		newEditPreviewCommand(ctx, &project),
		newEditTextCommand(ctx, &project),
		newEditRemoveCommand(ctx, &project),
		newEditDuplicateCommand(ctx, &project),
		newEditReplaceCommand(ctx, &project),
		newEditOverlayCommand(ctx, &project),
		newEditDurationsCommand(ctx, &project),
		newEditRebuildCommand(ctx, &project),
	)
	return editCmd
}

func newEditExtractCommand(ctx *commandContext, project *string) *cobra.Command {
	return &cobra.Command{
		Use:   "extract VIDEO",
		Short: "Replace the workspace with frames sampled from a video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			video, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			return ctx.withWorkspace(*project, true, func(s *workspaceSession) error {
				frames, err := s.ws.Extract(cmd.Context(), video)
				if err != nil {
					return err
				}
				if ctx.JSONMode() {
					return writeJSON(cmd, map[string]any{"project": s.ws.Project(), "frames": frames})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Extracted %d frames into %s\n", len(frames), s.ws.Dir())
				return nil
			})
		},
	}
}

func newEditListCommand(ctx *commandContext, project *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List frames in playback order with their durations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withWorkspace(*project, false, func(s *workspaceSession) error {
				frames := s.ws.Frames()
				overrides := s.ws.Durations()
				def := s.pipeline.Renderer().DefaultDuration()

				if ctx.JSONMode() {
					items := make([]map[string]any, 0, len(frames))
					for i, frame := range frames {
						seconds, overridden := overrides[i]
						if !overridden {
							seconds = def
						}
						items = append(items, map[string]any{"index": i, "path": frame, "seconds": seconds, "override": overridden})
					}
					return writeJSON(cmd, map[string]any{
						"project": s.ws.Project(),
						"state":   s.ws.State(),
						"source":  s.ws.Source(),
						"frames":  items,
					})
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Workspace: %s (%s)\n", s.ws.Dir(), s.ws.State())
				if src := s.ws.Source(); src != "" {
					fmt.Fprintf(out, "Source:    %s\n", src)
				}
				if len(frames) == 0 {
					fmt.Fprintln(out, "No frames; run 'slidereel edit extract VIDEO' first")
					return nil
				}
				rows := make([][]string, 0, len(frames))
				total := 0.0
				for i, frame := range frames {
					seconds, overridden := overrides[i]
					label := ffmpeg.FormatSeconds(seconds) + "s"
					if !overridden {
						seconds = def
						label = ffmpeg.FormatSeconds(def) + "s (default)"
					}
					total += seconds
					rows = append(rows, []string{strconv.Itoa(i), filepath.Base(frame), label})
				}
				fmt.Fprintln(out)
				fmt.Fprint(out, renderTable([]string{"#", "Frame", "Duration"}, rows, []columnAlignment{alignRight, alignLeft, alignRight}))
				fmt.Fprintf(out, "Total: %d frames, %ss\n", len(frames), ffmpeg.FormatSeconds(total))
				return nil
			})
		},
	}
}

func newEditPreviewCommand(ctx *commandContext, project *string) *cobra.Command {
	return &cobra.Command{
		Use:   "preview",
		Short: "Show frame dimensions and a brightness classification",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withWorkspace(*project, false, func(s *workspaceSession) error {
				previews := s.ws.Preview()
				if ctx.JSONMode() {
					return writeJSON(cmd, previews)
				}
				out := cmd.OutOrStdout()
				if len(previews) == 0 {
					fmt.Fprintln(out, "No frames to preview")
					return nil
				}
				rows := make([][]string, 0, len(previews))
				for _, p := range previews {
					size := "unreadable"
					if p.Width > 0 {
						size = fmt.Sprintf("%dx%d", p.Width, p.Height)
					}
					rows = append(rows, []string{strconv.Itoa(p.Index), filepath.Base(p.Path), size, p.Format, string(p.Kind)})
				}
				fmt.Fprint(out, renderTable([]string{"#", "Frame", "Size", "Format", "Kind"}, rows, []columnAlignment{alignRight, alignLeft, alignRight, alignLeft, alignLeft}))
				return nil
			})
		},
	}
}

func newEditTextCommand(ctx *commandContext, project *string) *cobra.Command {
	return &cobra.Command{
		Use:   "text INDEX LINE...",
		Short: "Redraw a frame as a text card",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseIndex(args[0])
			if err != nil {
				return err
			}
			return ctx.withWorkspace(*project, true, func(s *workspaceSession) error {
				path, err := s.ws.EditText(cmd.Context(), index, args[1:])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Frame %d redrawn as text (%s)\n", index, filepath.Base(path))
				return nil
			})
		},
	}
}

func newEditRemoveCommand(ctx *commandContext, project *string) *cobra.Command {
	return &cobra.Command{
		Use:   "remove INDEX",
		Short: "Delete a frame and renumber the rest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseIndex(args[0])
			if err != nil {
				return err
			}
			return ctx.withWorkspace(*project, true, func(s *workspaceSession) error {
				if err := s.ws.RemoveFrame(cmd.Context(), index); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed frame %d; %d frames remain\n", index, s.ws.Len())
				return nil
			})
		},
	}
}

func newEditDuplicateCommand(ctx *commandContext, project *string) *cobra.Command {
	return &cobra.Command{
		Use:   "duplicate INDEX",
		Short: "Insert a copy of a frame right after it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseIndex(args[0])
			if err != nil {
				return err
			}
			return ctx.withWorkspace(*project, true, func(s *workspaceSession) error {
				if _, err := s.ws.DuplicateFrame(cmd.Context(), index); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Duplicated frame %d as frame %d\n", index, index+1)
				return nil
			})
		},
	}
}

func newEditReplaceCommand(ctx *commandContext, project *string) *cobra.Command {
	return &cobra.Command{
		Use:   "replace INDEX IMAGE",
		Short: "Replace a frame with an image resized to the canvas",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseIndex(args[0])
			if err != nil {
				return err
			}
			image, err := config.ExpandPath(args[1])
			if err != nil {
				return err
			}
			return ctx.withWorkspace(*project, true, func(s *workspaceSession) error {
				if err := s.ws.ReplaceFrame(cmd.Context(), index, image); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Replaced frame %d with %s\n", index, filepath.Base(image))
				return nil
			})
		},
	}
}

func newEditOverlayCommand(ctx *commandContext, project *string) *cobra.Command {
	var position string

	cmd := &cobra.Command{
		Use:   "overlay INDEX TEXT",
		Short: "Burn a caption box into a frame",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseIndex(args[0])
			if err != nil {
				return err
			}
			pos, err := cards.ParsePosition(position)
			if err != nil {
				return err
			}
			return ctx.withWorkspace(*project, true, func(s *workspaceSession) error {
				if err := s.ws.AddOverlay(cmd.Context(), index, args[1], pos); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s overlay to frame %d\n", pos, index)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&position, "position", string(cards.PositionBottom), "Caption position: top, center or bottom")
	return cmd
}

func newEditDurationsCommand(ctx *commandContext, project *string) *cobra.Command {
	var clearAll bool

	cmd := &cobra.Command{
		Use:   "durations INDEX=SECONDS...",
		Short: "Store per-frame duration overrides for the next rebuild",
		Long: `Store per-frame duration overrides for the next rebuild. The given pairs
replace any stored overrides. Values are checked against the frame count
when rebuilding.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !clearAll && len(args) == 0 {
				return services.Wrap(services.ErrValidation, "edit", "durations", "pass INDEX=SECONDS pairs or --clear", nil)
			}
			overrides, err := parseDurations(args)
			if err != nil {
				return err
			}
			return ctx.withWorkspace(*project, true, func(s *workspaceSession) error {
				if err := s.ws.SetDurations(overrides); err != nil {
					return err
				}
				if len(overrides) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Cleared duration overrides")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Stored %d duration overrides\n", len(overrides))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&clearAll, "clear", false, "Remove all stored overrides")
	return cmd
}

func newEditRebuildCommand(ctx *commandContext, project *string) *cobra.Command {
	var name string
	var durations []string
	var defaultDuration float64

	cmd := &cobra.Command{
		Use:   "rebuild",
		Short: "Encode the workspace frames into a new video",
		Long: `Encode the workspace frames, in order, into a new video in the output
directory. --duration pairs replace the stored overrides for this rebuild
only, and --default-duration retimes every frame without an override. The
workspace is left unchanged.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var explicit render.DurationMap
			if len(durations) > 0 {
				parsed, err := parseDurations(durations)
				if err != nil {
					return err
				}
				explicit = parsed
			}
			return ctx.withWorkspace(*project, true, func(s *workspaceSession) error {
				if cmd.Flags().Changed("default-duration") {
					overrides := explicit
					if overrides == nil {
						overrides = s.ws.Durations()
					}
					retimed, err := withDefaultDuration(overrides, s.ws.Len(), defaultDuration)
					if err != nil {
						return err
					}
					explicit = retimed
				}
				progress, finish := segmentProgress(cmd.ErrOrStderr())
				result, err := s.pipeline.Rebuild(cmd.Context(), s.ws, name, explicit, progress)
				finish()
				if err != nil {
					return err
				}
				return printResult(cmd, ctx, "Rebuilt", result)
			})
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "Output name, timestamped like the default (default <project>_edited)")
	cmd.Flags().StringArrayVarP(&durations, "duration", "d", nil, "Duration override INDEX=SECONDS for this rebuild (repeatable)")
	cmd.Flags().Float64Var(&defaultDuration, "default-duration", 0, "Seconds for frames without an override in this rebuild")
	return cmd
}

func parseIndex(value string) (int, error) {
	index, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, services.Wrap(services.ErrValidation, "edit", "parse", fmt.Sprintf("frame index %q is not a number", value), err)
	}
	return index, nil
}
