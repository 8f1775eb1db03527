package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"slidereel/internal/config"
	"slidereel/internal/pipeline"
	"slidereel/internal/sequence"
	"slidereel/internal/services"
	"slidereel/internal/services/ffmpeg"
)

func newProduceCommand(ctx *commandContext) *cobra.Command {
	var storyline string
	var contentPath string
	var project string
	var name string

	cmd := &cobra.Command{
		Use:   "produce",
		Short: "Render a storyline's cards and encode them into a video",
		Long: fmt.Sprintf(`Render every card of a storyline from a TOML content file and encode the
result into a new video in the output directory.

Known storylines: %s`, strings.Join(sequence.Storylines(), ", ")),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(contentPath) == "" {
				return services.Wrap(services.ErrValidation, "produce", "flags", "--content is required", nil)
			}
			path, err := config.ExpandPath(contentPath)
			if err != nil {
				return err
			}
			content, err := sequence.LoadContent(path)
			if err != nil {
				return err
			}
			if p := strings.TrimSpace(project); p != "" {
				content.Project = p
			}

			return ctx.withPipeline(func(p *pipeline.Pipeline, _ *ffmpeg.Client) error {
				progress, finish := segmentProgress(cmd.ErrOrStderr())
				result, err := p.Produce(cmd.Context(), pipeline.ProduceRequest{
					Storyline:  storyline,
					Content:    content,
					OutputName: name,
					Progress:   progress,
				})
				finish()
				if err != nil {
					return err
				}
				return printResult(cmd, ctx, "Produced", result)
			})
		},
	}

	cmd.Flags().StringVarP(&storyline, "storyline", "s", sequence.StorylinePersonality, "Storyline to build")
	cmd.Flags().StringVar(&contentPath, "content", "", "TOML content file with project, title and items")
	cmd.Flags().StringVarP(&project, "project", "p", "", "Override the project name from the content file")
	cmd.Flags().StringVarP(&name, "name", "n", "", "Output name, timestamped like the default (default <project>)")
	return cmd
}

func printResult(cmd *cobra.Command, ctx *commandContext, verb string, result pipeline.Result) error {
	if ctx.JSONMode() {
		return writeJSON(cmd, map[string]any{
			"id":               result.Entry.ID,
			"project":          result.Entry.Project,
			"path":             result.Artifact.Path,
			"strategy":         result.Artifact.Strategy,
			"frames":           result.Artifact.Frames,
			"expected_seconds": result.Artifact.ExpectedSeconds,
			"probed_seconds":   result.Artifact.ProbedSeconds,
		})
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s %s\n", verb, result.Artifact.Path)
	fmt.Fprintf(out, "  %d frames, %s seconds, %s strategy\n",
		result.Artifact.Frames, ffmpeg.FormatSeconds(result.Artifact.ExpectedSeconds), result.Artifact.Strategy)
	return nil
}
