package preflight

import (
	"context"
	"fmt"

	"slidereel/internal/config"
	"slidereel/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	// Optional failures are reported but do not fail the overall run.
	Optional bool
	Detail   string
}

// minScratchBytes is the free space below which scratch is flagged. A
// per-frame fallback render writes one short segment per frame.
const minScratchBytes = 512 << 20

// RunAll executes every preflight check for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir),
		CheckDirectoryAccess("Scratch directory", cfg.Paths.ScratchDir),
		CheckDirectoryAccess("Workspace directory", cfg.Paths.WorkspaceDir),
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
		CheckFreeSpace("Scratch free space", cfg.Paths.ScratchDir, minScratchBytes),
	}

	ffmpegAvailable := false
	for _, status := range deps.CheckBinaries(deps.Requirements(cfg)) {
		results = append(results, fromStatus(status))
		if status.Name == "FFmpeg" && status.Available {
			ffmpegAvailable = true
		}
	}
	if ffmpegAvailable {
		results = append(results, fromStatus(deps.CheckEncoder(ctx, cfg.FFmpegBinary(), cfg.Video.Codec)))
	}

	if cfg.Cards.FontPath != "" {
		results = append(results, CheckFileReadable("Card font", cfg.Cards.FontPath))
	}
	if cfg.Cards.PlaceholderPath != "" {
		results = append(results, CheckFileReadable("Placeholder frame", cfg.Cards.PlaceholderPath))
	}
	return results
}

// Failed reports whether any required check did not pass.
func Failed(results []Result) bool {
	for _, result := range results {
		if !result.Passed && !result.Optional {
			return true
		}
	}
	return false
}

func fromStatus(status deps.Status) Result {
	result := Result{Name: status.Name, Passed: status.Available, Optional: status.Optional}
	switch {
	case status.Available && status.Path != "":
		result.Detail = status.Path
	case status.Available:
		result.Detail = status.Description
	default:
		result.Detail = fmt.Sprintf("%s (%s)", status.Description, status.Detail)
	}
	return result
}
