package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"slidereel/internal/config"
	"slidereel/internal/fileutil"
	"slidereel/internal/logging"
	"slidereel/internal/services"
	"slidereel/internal/services/ffmpeg"
	"slidereel/internal/staging"
)

// Strategy names the encoding path that produced an artifact.
type Strategy string

const (
	StrategyBatch    Strategy = "batch"
	StrategySegments Strategy = "segments"
)

// Artifact describes a rendered video.
type Artifact struct {
	Path            string
	Strategy        Strategy
	Frames          int
	ExpectedSeconds float64
	// ProbedSeconds is zero when duration verification is disabled or failed.
	ProbedSeconds float64
}

// Encoder is the subset of the ffmpeg client the renderer drives.
type Encoder interface {
	ConcatImages(ctx context.Context, manifestPath, outputPath string, enc ffmpeg.Encoding) error
	EncodeStill(ctx context.Context, imagePath string, seconds float64, outputPath string, enc ffmpeg.Encoding) error
	ConcatCopy(ctx context.Context, listPath, outputPath string) error
}

// Prober reports the playback duration of a rendered file in seconds.
type Prober func(ctx context.Context, path string) (float64, error)

// Option configures a Renderer.
type Option func(*Renderer)

// WithProber enables post-render duration verification.
func WithProber(probe Prober) Option {
	return func(r *Renderer) {
		r.probe = probe
	}
}

// WithLogger sets the renderer logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Renderer encodes frame sequences into video artifacts.
type Renderer struct {
	encoder         Encoder
	encoding        ffmpeg.Encoding
	container       string
	scratchRoot     string
	defaultDuration float64
	probe           Prober
	logger          *slog.Logger
}

// New constructs a Renderer from configuration.
func New(cfg *config.Config, encoder Encoder, opts ...Option) *Renderer {
	r := &Renderer{
		encoder: encoder,
		encoding: ffmpeg.Encoding{
			Width:       cfg.Video.Width,
			Height:      cfg.Video.Height,
			FPS:         cfg.Video.FPS,
			Codec:       cfg.Video.Codec,
			Preset:      cfg.Video.Preset,
			CRF:         cfg.Video.CRF,
			PixelFormat: cfg.Video.PixelFormat,
		},
		container:       cfg.Video.Container,
		scratchRoot:     cfg.Paths.ScratchDir,
		defaultDuration: cfg.Edit.DefaultDuration,
		logger:          logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// DefaultDuration returns the per-frame duration used for unmapped positions.
func (r *Renderer) DefaultDuration() float64 {
	return r.defaultDuration
}

// Container returns the output file extension without a leading dot.
func (r *Renderer) Container() string {
	return r.container
}

type renderSettings struct {
	disposable []string
	progress   func(done, total int)
}

// RenderOption adjusts a single Render call.
type RenderOption func(*renderSettings)

// WithDisposable marks input files owned by a one-shot caller; they are
// deleted after a successful render. Never pass edit workspace frames.
func WithDisposable(paths ...string) RenderOption {
	return func(s *renderSettings) {
		s.disposable = append(s.disposable, paths...)
	}
}

// WithProgress reports per-frame progress while the segment fallback runs.
func WithProgress(fn func(done, total int)) RenderOption {
	return func(s *renderSettings) {
		s.progress = fn
	}
}

// Render encodes seq into outputPath. Durations missing from the map default
// to the configured per-frame duration. Source frames are only read.
func (r *Renderer) Render(ctx context.Context, seq Sequence, durations DurationMap, outputPath string, opts ...RenderOption) (Artifact, error) {
	settings := renderSettings{}
	for _, opt := range opts {
		opt(&settings)
	}
	ctx = services.WithStage(ctx, "render")
	logger := logging.WithContext(ctx, r.logger)

	if len(seq) == 0 {
		return Artifact{}, services.Wrap(services.ErrValidation, "render", "validate", "frame sequence is empty", nil)
	}
	resolved, err := durations.Resolve(len(seq), r.defaultDuration)
	if err != nil {
		return Artifact{}, err
	}
	frames, err := absoluteFrames(seq)
	if err != nil {
		return Artifact{}, err
	}
	outputPath = strings.TrimSpace(outputPath)
	if outputPath == "" {
		return Artifact{}, services.Wrap(services.ErrValidation, "render", "validate", "output path required", nil)
	}
	if _, err := os.Lstat(outputPath); err == nil {
		return Artifact{}, services.Wrap(services.ErrValidation, "render", "validate",
			fmt.Sprintf("output %s already exists", outputPath), nil)
	}

	scratch, err := staging.Acquire(r.scratchRoot, "render", logger)
	if err != nil {
		return Artifact{}, services.Wrap(services.ErrRender, "render", "scratch", "acquire scratch directory", err)
	}
	defer scratch.Release()

	started := time.Now()
	encoded := scratch.Join("output." + r.container)
	strategy := StrategyBatch

	primaryErr := r.renderBatch(ctx, scratch, frames, resolved, encoded)
	if primaryErr != nil {
		if ctx.Err() != nil {
			return Artifact{}, services.Wrap(services.ErrRender, "render", "batch", "cancelled", primaryErr)
		}
		logging.WarnWithContext(logger, "batch encode failed; falling back to per-frame segments", "render_fallback",
			logging.String("diagnostic", ffmpeg.Diagnostic(primaryErr)),
			logging.Int(logging.FieldFrameCount, len(frames)),
			logging.String(logging.FieldErrorHint, "check ffmpeg output above; per-frame encoding is slower"),
			logging.String(logging.FieldImpact, "render continues with the segment strategy"),
		)
		strategy = StrategySegments
		_ = os.Remove(encoded)
		if fallbackErr := r.renderSegments(ctx, scratch, frames, resolved, encoded, settings.progress); fallbackErr != nil {
			return Artifact{}, services.Wrap(services.ErrRender, "render", "encode", "all strategies failed",
				&FailureError{Primary: primaryErr, Fallback: fallbackErr})
		}
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return Artifact{}, services.Wrap(services.ErrRender, "render", "publish", "create output directory", err)
	}
	if err := fileutil.MoveFile(encoded, outputPath); err != nil {
		return Artifact{}, services.Wrap(services.ErrRender, "render", "publish", "move artifact into place", err)
	}

	artifact := Artifact{
		Path:            outputPath,
		Strategy:        strategy,
		Frames:          len(frames),
		ExpectedSeconds: TotalSeconds(resolved),
	}
	r.removeDisposable(logger, settings.disposable)
	artifact.ProbedSeconds = r.verify(ctx, logger, artifact)

	logger.Info("render complete",
		logging.String("output", artifact.Path),
		logging.String(logging.FieldStrategy, string(artifact.Strategy)),
		logging.Int(logging.FieldFrameCount, artifact.Frames),
		logging.Float64("expected_seconds", artifact.ExpectedSeconds),
		logging.Duration("elapsed", time.Since(started)),
		logging.String(logging.FieldEventType, "render_complete"),
	)
	return artifact, nil
}

func (r *Renderer) renderBatch(ctx context.Context, scratch *staging.Dir, frames []string, durations []float64, output string) error {
	manifestPath := scratch.Join("manifest.txt")
	if err := writeListFile(manifestPath, func(f *os.File) error {
		return WriteManifest(f, frames, durations)
	}); err != nil {
		return err
	}
	return r.encoder.ConcatImages(ctx, manifestPath, output, r.encoding)
}

func (r *Renderer) renderSegments(ctx context.Context, scratch *staging.Dir, frames []string, durations []float64, output string, progress func(done, total int)) error {
	segmentDir, err := os.MkdirTemp(scratch.Path, "segments-")
	if err != nil {
		return fmt.Errorf("create segment directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(segmentDir); err != nil {
			r.logger.Debug("segment cleanup failed", logging.String("path", segmentDir), logging.Error(err))
		}
	}()

	segments := make([]string, 0, len(frames))
	for i, frame := range frames {
		if err := ctx.Err(); err != nil {
			return err
		}
		segment := filepath.Join(segmentDir, fmt.Sprintf("segment_%03d.%s", i, r.container))
		if err := r.encoder.EncodeStill(ctx, frame, durations[i], segment, r.encoding); err != nil {
			return fmt.Errorf("segment %d: %w", i, err)
		}
		segments = append(segments, segment)
		if progress != nil {
			progress(i+1, len(frames))
		}
	}

	listPath := filepath.Join(segmentDir, "segments.txt")
	if err := writeListFile(listPath, func(f *os.File) error {
		return WriteSegmentList(f, segments)
	}); err != nil {
		return err
	}
	return r.encoder.ConcatCopy(ctx, listPath, output)
}

func (r *Renderer) removeDisposable(logger *slog.Logger, paths []string) {
	for _, path := range paths {
		if strings.TrimSpace(path) == "" {
			continue
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.Debug("disposable frame cleanup failed", logging.String("path", path), logging.Error(err))
		}
	}
}

func absoluteFrames(seq Sequence) ([]string, error) {
	frames := make([]string, len(seq))
	for i, frame := range seq {
		abs, err := filepath.Abs(frame)
		if err != nil {
			return nil, services.Wrap(services.ErrRender, "render", "validate", fmt.Sprintf("resolve frame %d", i), err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				err = fmt.Errorf("%w: %s", services.ErrNotFound, abs)
			}
			return nil, services.Wrap(services.ErrRender, "render", "validate", fmt.Sprintf("frame %d missing", i), err)
		}
		if info.IsDir() {
			return nil, services.Wrap(services.ErrRender, "render", "validate", fmt.Sprintf("frame %d is a directory: %s", i, abs), nil)
		}
		frames[i] = abs
	}
	return frames, nil
}

func writeListFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// FailureError carries the diagnostics of both encoding strategies when a
// render cannot be completed.
type FailureError struct {
	Primary  error
	Fallback error
}

func (e *FailureError) Error() string {
	return fmt.Sprintf("batch concat: %s; per-frame fallback: %s",
		oneLine(ffmpeg.Diagnostic(e.Primary)), oneLine(ffmpeg.Diagnostic(e.Fallback)))
}

func (e *FailureError) Unwrap() []error {
	return []error{e.Primary, e.Fallback}
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(strings.ReplaceAll(s, "\n", " | ")), " ")
}
