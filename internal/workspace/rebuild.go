package workspace

import (
	"context"
	"strings"

	"slidereel/internal/cards"
	"slidereel/internal/logging"
	"slidereel/internal/render"
	"slidereel/internal/services"
)

// Rebuild encodes the current frames, in order, into a new artifact in the
// output directory. durations overrides the stored map when non-nil; frames
// without an entry get the renderer default. The workspace itself is left
// as it was, including its state.
func (w *Workspace) Rebuild(ctx context.Context, outputName string, durations render.DurationMap, opts ...render.RenderOption) (render.Artifact, error) {
	ctx = services.WithStage(ctx, "rebuild")
	ctx = services.WithProject(ctx, w.project)
	logger := logging.WithContext(ctx, w.logger)

	if len(w.meta.Frames) == 0 {
		return render.Artifact{}, services.Wrap(services.ErrValidation, "rebuild", "validate", "workspace has no frames; extract a video first", nil)
	}
	if durations == nil {
		durations = w.Durations()
	}

	name := strings.TrimSpace(outputName)
	if name == "" {
		name = w.project + "_edited"
	}
	output, err := render.ArtifactPath(w.outputDir, name, w.renderer.Container(), w.now())
	if err != nil {
		return render.Artifact{}, services.Wrap(services.ErrRender, "rebuild", "output path", "choose artifact name", err)
	}

	// Workspace frames are never disposable; opts carry progress only.
	artifact, err := w.renderer.Render(ctx, render.Sequence(w.Frames()), durations, output, opts...)
	if err != nil {
		return render.Artifact{}, err
	}
	logger.Info("workspace rebuilt",
		logging.String("output", artifact.Path),
		logging.String(logging.FieldStrategy, string(artifact.Strategy)),
		logging.Int(logging.FieldFrameCount, artifact.Frames),
		logging.Float64("expected_seconds", artifact.ExpectedSeconds),
		logging.String(logging.FieldEventType, "rebuild_complete"),
	)
	return artifact, nil
}

// FrameKind is a rough brightness classification used by listings.
type FrameKind string

const (
	KindDark    FrameKind = "dark"
	KindLight   FrameKind = "light"
	KindContent FrameKind = "content"
)

// FramePreview summarizes one frame for display.
type FramePreview struct {
	Index  int
	Path   string
	Width  int
	Height int
	Format string
	Kind   FrameKind
}

// Preview describes every frame in order. Frames that cannot be read are
// reported with zero dimensions rather than failing the listing.
func (w *Workspace) Preview() []FramePreview {
	out := make([]FramePreview, len(w.meta.Frames))
	for i, path := range w.Frames() {
		out[i] = FramePreview{Index: i, Path: path}
		info, err := cards.Inspect(path)
		if err != nil {
			w.logger.Debug("preview inspect failed", logging.String("path", path), logging.Error(err))
			continue
		}
		out[i].Width, out[i].Height, out[i].Format = info.Width, info.Height, info.Format
		img, err := cards.Decode(path)
		if err != nil {
			w.logger.Debug("preview decode failed", logging.String("path", path), logging.Error(err))
			continue
		}
		bounds := img.Bounds()
		r, g, b, _ := img.At(bounds.Min.X+bounds.Dx()/2, bounds.Min.Y+bounds.Dy()/2).RGBA()
		out[i].Kind = classify(int(r>>8) + int(g>>8) + int(b>>8))
	}
	return out
}

// classify buckets the channel sum of a frame's centre pixel.
func classify(sum int) FrameKind {
	switch {
	case sum < 100:
		return KindDark
	case sum > 600:
		return KindLight
	default:
		return KindContent
	}
}
