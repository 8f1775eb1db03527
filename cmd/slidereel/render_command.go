package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"slidereel/internal/config"
	"slidereel/internal/pipeline"
	"slidereel/internal/render"
	"slidereel/internal/services"
	"slidereel/internal/services/ffmpeg"
)

func newRenderCommand(ctx *commandContext) *cobra.Command {
	var durations []string
	var defaultDuration float64
	var project string
	var name string

	cmd := &cobra.Command{
		Use:   "render FRAME...",
		Short: "Encode existing frame images into a video",
		Long: `Encode the given frame images, in argument order, into a new video.

Each frame shows for the default duration unless overridden with
--duration INDEX=SECONDS (0-based, repeatable). Input frames are never
modified or removed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			seq := make(render.Sequence, 0, len(args))
			for _, arg := range args {
				path, err := config.ExpandPath(arg)
				if err != nil {
					return err
				}
				seq = append(seq, path)
			}
			durationMap, err := parseDurations(durations)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("default-duration") {
				if durationMap, err = withDefaultDuration(durationMap, len(seq), defaultDuration); err != nil {
					return err
				}
			}

			return ctx.withPipeline(func(p *pipeline.Pipeline, _ *ffmpeg.Client) error {
				progress, finish := segmentProgress(cmd.ErrOrStderr())
				result, err := p.Render(cmd.Context(), pipeline.RenderRequest{
					Project:    project,
					Frames:     seq,
					Durations:  durationMap,
					OutputName: name,
					Progress:   progress,
				})
				finish()
				if err != nil {
					return err
				}
				return printResult(cmd, ctx, "Rendered", result)
			})
		},
	}

	cmd.Flags().StringArrayVarP(&durations, "duration", "d", nil, "Per-frame duration override INDEX=SECONDS (repeatable)")
	cmd.Flags().Float64Var(&defaultDuration, "default-duration", 0, "Seconds for frames without an override (default edit.default_duration)")
	cmd.Flags().StringVarP(&project, "project", "p", "render", "Project name used for the output file and history")
	cmd.Flags().StringVarP(&name, "name", "n", "", "Output name, timestamped like the default (default <project>)")
	return cmd
}

// withDefaultDuration gives every one of n frames without an override the
// supplied default.
func withDefaultDuration(overrides render.DurationMap, n int, seconds float64) (render.DurationMap, error) {
	if seconds <= 0 {
		return nil, services.Wrap(services.ErrValidation, "durations", "flags", "--default-duration must be positive", nil)
	}
	out := render.Uniform(n, seconds)
	for index, value := range overrides {
		out[index] = value
	}
	return out, nil
}

// parseDurations reads INDEX=SECONDS pairs. Range checks against the frame
// count happen at render time.
func parseDurations(values []string) (render.DurationMap, error) {
	out := render.DurationMap{}
	for _, value := range values {
		key, raw, ok := strings.Cut(strings.TrimSpace(value), "=")
		if !ok {
			return nil, services.Wrap(services.ErrValidation, "durations", "parse",
				fmt.Sprintf("%q must be INDEX=SECONDS", value), nil)
		}
		index, err := strconv.Atoi(strings.TrimSpace(key))
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "durations", "parse",
				fmt.Sprintf("invalid frame index %q", key), err)
		}
		seconds, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "durations", "parse",
				fmt.Sprintf("invalid seconds %q", raw), err)
		}
		out[index] = seconds
	}
	return out, nil
}
