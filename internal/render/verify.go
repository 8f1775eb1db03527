package render

import (
	"context"
	"log/slog"
	"math"

	"slidereel/internal/logging"
	"slidereel/internal/media/ffprobe"
)

// FFprobeProber returns a Prober backed by the ffprobe binary.
func FFprobeProber(binary string) Prober {
	return func(ctx context.Context, path string) (float64, error) {
		result, err := ffprobe.Inspect(ctx, binary, path)
		if err != nil {
			return 0, err
		}
		return result.DurationSeconds(), nil
	}
}

// Tolerance is the allowed drift between expected and probed duration: one
// frame interval per segment, since each segment is rounded to whole frames.
func Tolerance(frames, fps int) float64 {
	if fps <= 0 {
		return 0
	}
	return float64(frames) / float64(fps)
}

func (r *Renderer) verify(ctx context.Context, logger *slog.Logger, artifact Artifact) float64 {
	if r.probe == nil {
		return 0
	}
	probed, err := r.probe(ctx, artifact.Path)
	if err != nil || math.IsNaN(probed) {
		logging.WarnWithContext(logger, "could not probe rendered duration", "render_probe_failed",
			logging.String("output", artifact.Path),
			logging.Any("error", err),
			logging.String(logging.FieldErrorHint, "check ffprobe installation"),
			logging.String(logging.FieldImpact, "artifact duration not verified"),
		)
		return 0
	}
	tolerance := Tolerance(artifact.Frames, r.encoding.FPS)
	if math.Abs(probed-artifact.ExpectedSeconds) > tolerance {
		logging.WarnWithContext(logger, "rendered duration differs from frame durations", "render_duration_mismatch",
			logging.String("output", artifact.Path),
			logging.Float64("expected_seconds", artifact.ExpectedSeconds),
			logging.Float64("probed_seconds", probed),
			logging.Float64("tolerance_seconds", tolerance),
			logging.String(logging.FieldErrorHint, "inspect the manifest timing or encoder frame rate"),
			logging.String(logging.FieldImpact, "video may play longer or shorter than planned"),
		)
	}
	return probed
}
