package render_test

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"slidereel/internal/config"
	"slidereel/internal/render"
	"slidereel/internal/services"
	"slidereel/internal/services/ffmpeg"
	"slidereel/internal/testsupport"
)

type harness struct {
	cfg      *config.Config
	fake     *testsupport.FakeFFmpeg
	renderer *render.Renderer
	frames   []string
}

func newHarness(t *testing.T, frameCount int, opts ...render.Option) *harness {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	fake := &testsupport.FakeFFmpeg{}
	client, err := ffmpeg.New("ffmpeg", ffmpeg.WithExecutor(fake))
	if err != nil {
		t.Fatalf("ffmpeg.New: %v", err)
	}
	frames := testsupport.WriteFrames(t, filepath.Join(testsupport.BaseDir(cfg), "frames"), frameCount, 16, 24)
	return &harness{
		cfg:      cfg,
		fake:     fake,
		renderer: render.New(cfg, client, opts...),
		frames:   frames,
	}
}

func (h *harness) output(name string) string {
	return filepath.Join(h.cfg.Paths.OutputDir, name)
}

func assertScratchEmpty(t *testing.T, cfg *config.Config) {
	t.Helper()
	entries, err := os.ReadDir(cfg.Paths.ScratchDir)
	if err != nil {
		t.Fatalf("read scratch: %v", err)
	}
	if len(entries) != 0 {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Fatalf("expected scratch to be empty, found %v", names)
	}
}

func TestRenderBatchWritesArtifactFromManifest(t *testing.T) {
	h := newHarness(t, 3)
	var manifest string
	h.fake.OnRun = func(args []string) {
		for i, arg := range args {
			if arg == "-i" && i+1 < len(args) {
				data, err := os.ReadFile(args[i+1])
				if err == nil {
					manifest = string(data)
				}
			}
		}
	}

	artifact, err := h.renderer.Render(context.Background(), render.Sequence(h.frames), render.DurationMap{1: 3}, h.output("demo.mp4"))
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	if artifact.Strategy != render.StrategyBatch {
		t.Fatalf("expected batch strategy, got %s", artifact.Strategy)
	}
	if artifact.Frames != 3 || artifact.ExpectedSeconds != 7 {
		t.Fatalf("unexpected artifact %+v", artifact)
	}
	if _, err := os.Stat(artifact.Path); err != nil {
		t.Fatalf("expected artifact on disk: %v", err)
	}
	if h.fake.CallCount() != 1 {
		t.Fatalf("expected a single ffmpeg invocation, got %d", h.fake.CallCount())
	}
	if !strings.Contains(manifest, "duration 3\n") || strings.Count(manifest, h.frames[2]) != 2 {
		t.Fatalf("unexpected manifest contents:\n%s", manifest)
	}
	for _, frame := range h.frames {
		if _, err := os.Stat(frame); err != nil {
			t.Fatalf("source frame must be kept: %v", err)
		}
	}
	assertScratchEmpty(t, h.cfg)
}

func TestRenderFallsBackToSegmentsWhenBatchFails(t *testing.T) {
	h := newHarness(t, 4)
	h.fake.Fail = testsupport.FailWhenContains("manifest.txt", &ffmpeg.CommandError{
		Err:  errors.New("exit status 1"),
		Tail: []string{"Impossible to open manifest"},
	})

	var progress [][2]int
	artifact, err := h.renderer.Render(context.Background(), render.Sequence(h.frames), nil, h.output("fallback.mp4"),
		render.WithProgress(func(done, total int) { progress = append(progress, [2]int{done, total}) }))
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	if artifact.Strategy != render.StrategySegments {
		t.Fatalf("expected segment strategy, got %s", artifact.Strategy)
	}
	if artifact.ExpectedSeconds != 8 {
		t.Fatalf("expected 8s total, got %v", artifact.ExpectedSeconds)
	}
	if got := len(h.fake.CallsContaining("-loop 1")); got != 4 {
		t.Fatalf("expected one still encode per frame, got %d", got)
	}
	if got := len(h.fake.CallsContaining("-c copy")); got != 1 {
		t.Fatalf("expected a single stream-copy concat, got %d", got)
	}
	if len(progress) != 4 || progress[3] != [2]int{4, 4} {
		t.Fatalf("unexpected progress reports %v", progress)
	}
	assertScratchEmpty(t, h.cfg)
}

func TestRenderFailsWhenBothStrategiesFail(t *testing.T) {
	h := newHarness(t, 2)
	h.fake.Fail = func(args []string) error {
		joined := strings.Join(args, " ")
		switch {
		case strings.Contains(joined, "manifest.txt"):
			return &ffmpeg.CommandError{Err: errors.New("exit status 1"), Tail: []string{"batch broke"}}
		case strings.Contains(joined, "segments.txt"):
			return &ffmpeg.CommandError{Err: errors.New("exit status 1"), Tail: []string{"concat broke"}}
		}
		return nil
	}
	disposable := filepath.Join(testsupport.BaseDir(h.cfg), "one-shot.png")
	testsupport.WriteFile(t, disposable, 8)

	output := h.output("broken.mp4")
	_, err := h.renderer.Render(context.Background(), render.Sequence(h.frames), nil, output, render.WithDisposable(disposable))
	if !errors.Is(err, services.ErrRender) {
		t.Fatalf("expected render error, got %v", err)
	}
	var failure *render.FailureError
	if !errors.As(err, &failure) {
		t.Fatalf("expected FailureError, got %T", err)
	}
	if !strings.Contains(err.Error(), "batch broke") || !strings.Contains(err.Error(), "concat broke") {
		t.Fatalf("expected both diagnostics in %q", err.Error())
	}
	if _, statErr := os.Stat(output); !os.IsNotExist(statErr) {
		t.Fatalf("no artifact may be written on failure, got err=%v", statErr)
	}
	if _, statErr := os.Stat(disposable); statErr != nil {
		t.Fatalf("disposable inputs are only removed after success: %v", statErr)
	}
	if got := len(h.fake.CallsContaining("manifest.txt")); got != 1 {
		t.Fatalf("batch strategy must be attempted exactly once, got %d", got)
	}
	assertScratchEmpty(t, h.cfg)
}

func TestRenderMissingFrameFailsBeforeEncoding(t *testing.T) {
	h := newHarness(t, 2)
	seq := render.Sequence{h.frames[0], filepath.Join(testsupport.BaseDir(h.cfg), "gone.png")}

	_, err := h.renderer.Render(context.Background(), seq, nil, h.output("missing.mp4"))
	if !errors.Is(err, services.ErrRender) || !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected render/not-found error, got %v", err)
	}
	if h.fake.CallCount() != 0 {
		t.Fatalf("ffmpeg must not run for a missing frame, got %d calls", h.fake.CallCount())
	}
}

func TestRenderRejectsInvalidInput(t *testing.T) {
	h := newHarness(t, 2)
	existing := h.output("exists.mp4")
	testsupport.WriteFile(t, existing, 4)

	cases := map[string]func() error{
		"empty sequence": func() error {
			_, err := h.renderer.Render(context.Background(), nil, nil, h.output("a.mp4"))
			return err
		},
		"duration out of range": func() error {
			_, err := h.renderer.Render(context.Background(), render.Sequence(h.frames), render.DurationMap{5: 1}, h.output("b.mp4"))
			return err
		},
		"existing output": func() error {
			_, err := h.renderer.Render(context.Background(), render.Sequence(h.frames), nil, existing)
			return err
		},
	}
	for name, run := range cases {
		t.Run(name, func(t *testing.T) {
			if err := run(); !errors.Is(err, services.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
	if h.fake.CallCount() != 0 {
		t.Fatalf("invalid input must not reach ffmpeg, got %d calls", h.fake.CallCount())
	}
}

func TestRenderDeletesDisposableInputsOnSuccess(t *testing.T) {
	h := newHarness(t, 2)

	_, err := h.renderer.Render(context.Background(), render.Sequence(h.frames), nil, h.output("oneshot.mp4"),
		render.WithDisposable(h.frames...))
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	for _, frame := range h.frames {
		if _, err := os.Stat(frame); !os.IsNotExist(err) {
			t.Fatalf("expected disposable frame %s removed", frame)
		}
	}
}

func TestRenderReportsProbedDuration(t *testing.T) {
	probe := func(ctx context.Context, path string) (float64, error) { return 9.967, nil }
	h := newHarness(t, 5, render.WithProber(probe))

	artifact, err := h.renderer.Render(context.Background(), render.Sequence(h.frames), render.Uniform(5, 2), h.output("probed.mp4"))
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	if artifact.ExpectedSeconds != 10 {
		t.Fatalf("expected 10s, got %v", artifact.ExpectedSeconds)
	}
	if artifact.ProbedSeconds != 9.967 {
		t.Fatalf("expected probed duration recorded, got %v", artifact.ProbedSeconds)
	}
	if math.Abs(artifact.ProbedSeconds-artifact.ExpectedSeconds) > render.Tolerance(artifact.Frames, h.cfg.Video.FPS) {
		t.Fatal("probed duration outside frame quantization tolerance")
	}
}

func TestRenderStopsOnCancelledContext(t *testing.T) {
	h := newHarness(t, 2)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.renderer.Render(ctx, render.Sequence(h.frames), nil, h.output("cancelled.mp4"))
	if !errors.Is(err, services.ErrRender) || !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancelled render error, got %v", err)
	}
	if got := len(h.fake.CallsContaining("-loop 1")); got != 0 {
		t.Fatalf("fallback must not run after cancellation, got %d segment encodes", got)
	}
	assertScratchEmpty(t, h.cfg)
}
