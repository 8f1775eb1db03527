package pipeline_test

import (
	"context"
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"slidereel/internal/cards"
	"slidereel/internal/config"
	"slidereel/internal/history"
	"slidereel/internal/pipeline"
	"slidereel/internal/render"
	"slidereel/internal/sequence"
	"slidereel/internal/services"
	"slidereel/internal/services/ffmpeg"
	"slidereel/internal/testsupport"
	"slidereel/internal/workspace"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type harness struct {
	cfg      *config.Config
	fake     *testsupport.FakeFFmpeg
	client   *ffmpeg.Client
	store    *history.Store
	pipeline *pipeline.Pipeline
}

func newHarness(t *testing.T, mutate ...func(*config.Config)) *harness {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	for _, fn := range mutate {
		fn(cfg)
	}
	fake := &testsupport.FakeFFmpeg{ExtractCount: 3}
	client, err := ffmpeg.New("ffmpeg", ffmpeg.WithExecutor(fake))
	if err != nil {
		t.Fatalf("ffmpeg.New: %v", err)
	}
	store := testsupport.MustOpenHistory(t, cfg)
	p := pipeline.New(cfg, client,
		pipeline.WithRecorder(store),
		pipeline.WithClock(func() time.Time { return fixedNow }),
	)
	return &harness{cfg: cfg, fake: fake, client: client, store: store, pipeline: p}
}

func (h *harness) content(t *testing.T) sequence.Content {
	t.Helper()
	shot := filepath.Join(testsupport.BaseDir(h.cfg), "shots", "claude.png")
	testsupport.WritePNG(t, shot, 40, 30, color.RGBA{R: 200, G: 80, B: 20, A: 255})
	return sequence.Content{
		Project: "euler",
		Title:   "Euler's identity",
		Items: []sequence.Item{
			{Name: "Claude", Screenshot: shot, Vibe: "warm"},
			{Name: "GPT", Vibe: "clean"},
		},
	}
}

func scratchEntries(t *testing.T, cfg *config.Config) []string {
	t.Helper()
	entries, err := os.ReadDir(cfg.Paths.ScratchDir)
	if err != nil {
		t.Fatalf("read scratch: %v", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	return names
}

func TestProduceRendersAndRecords(t *testing.T) {
	h := newHarness(t)
	result, err := h.pipeline.Produce(context.Background(), pipeline.ProduceRequest{
		Storyline: "Personality",
		Content:   h.content(t),
	})
	if err != nil {
		t.Fatalf("Produce: %v", err)
	}
	// hook, two reveals, comparison, cta
	if result.Artifact.Frames != 5 || result.Artifact.ExpectedSeconds != 13 {
		t.Fatalf("expected 5 frames / 13s, got %d / %v", result.Artifact.Frames, result.Artifact.ExpectedSeconds)
	}
	if filepath.Base(result.Artifact.Path) != "euler_20260301_120000.mp4" {
		t.Fatalf("unexpected artifact %s", result.Artifact.Path)
	}
	if result.Entry.ID == 0 {
		t.Fatal("expected history entry to be recorded")
	}
	if names := scratchEntries(t, h.cfg); len(names) != 0 {
		t.Fatalf("expected scratch to be empty, found %v", names)
	}

	entries, err := h.store.List(context.Background(), history.Filter{Project: "euler"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []history.Entry{{
		ID:              result.Entry.ID,
		Project:         "euler",
		Source:          history.SourceProduce,
		Storyline:       "personality",
		Strategy:        string(render.StrategyBatch),
		Path:            result.Artifact.Path,
		Frames:          5,
		ExpectedSeconds: 13,
		CreatedAt:       fixedNow,
	}}
	if diff := cmp.Diff(want, entries); diff != "" {
		t.Fatalf("history mismatch (-want +got):\n%s", diff)
	}
}

func TestProduceKeepsCardsWhenRenderFails(t *testing.T) {
	h := newHarness(t)
	h.fake.Fail = func([]string) error { return errors.New("encoder exploded") }

	_, err := h.pipeline.Produce(context.Background(), pipeline.ProduceRequest{Storyline: "competition", Content: h.content(t)})
	if !errors.Is(err, services.ErrRender) {
		t.Fatalf("expected render error, got %v", err)
	}
	names := scratchEntries(t, h.cfg)
	if len(names) != 1 || !strings.HasPrefix(names[0], "produce-") {
		t.Fatalf("expected produce scratch to be kept, found %v", names)
	}
	cardsDir := filepath.Join(h.cfg.Paths.ScratchDir, names[0], "cards")
	frames, err := filepath.Glob(filepath.Join(cardsDir, "*.png"))
	if err != nil || len(frames) == 0 {
		t.Fatalf("expected card frames in %s, got %v (err=%v)", cardsDir, frames, err)
	}
	entries, err := h.store.List(context.Background(), history.Filter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("failed render must not be recorded, got %+v", entries)
	}
}

func TestProduceNeverDeletesConfiguredPlaceholder(t *testing.T) {
	var placeholder string
	h := newHarness(t, func(cfg *config.Config) {
		placeholder = filepath.Join(testsupport.BaseDir(cfg), "placeholder.png")
		cfg.Cards.PlaceholderPath = placeholder
	})
	testsupport.WritePNG(t, placeholder, 64, 96, color.Gray{Y: 90})

	result, err := h.pipeline.Produce(context.Background(), pipeline.ProduceRequest{
		Storyline: sequence.StorylineBattle,
		Content:   sequence.Content{Project: "empty", Title: "Nothing yet"},
	})
	if err != nil {
		t.Fatalf("Produce: %v", err)
	}
	if result.Artifact.Frames != 4 {
		t.Fatalf("expected intro, placeholder, grid, outro; got %d frames", result.Artifact.Frames)
	}
	if _, err := os.Stat(placeholder); err != nil {
		t.Fatalf("configured placeholder was removed: %v", err)
	}
}

func TestProduceRejectsUnknownStoryline(t *testing.T) {
	h := newHarness(t)
	_, err := h.pipeline.Produce(context.Background(), pipeline.ProduceRequest{Storyline: "sitcom", Content: h.content(t)})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if h.fake.CallCount() != 0 {
		t.Fatal("encoder invoked for unknown storyline")
	}
	if names := scratchEntries(t, h.cfg); len(names) != 0 {
		t.Fatalf("expected scratch to be released, found %v", names)
	}
}

func TestProduceRequiresProject(t *testing.T) {
	h := newHarness(t)
	_, err := h.pipeline.Produce(context.Background(), pipeline.ProduceRequest{Storyline: "personality"})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRenderLeavesInputFrames(t *testing.T) {
	h := newHarness(t)
	frames := testsupport.WriteFrames(t, filepath.Join(testsupport.BaseDir(h.cfg), "frames"), 3, 16, 24)

	result, err := h.pipeline.Render(context.Background(), pipeline.RenderRequest{
		Project:    "loose",
		Frames:     render.Sequence(frames),
		Durations:  render.DurationMap{2: 1},
		OutputName: "loose cut",
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if filepath.Base(result.Artifact.Path) != "loose_cut_20260301_120000.mp4" || result.Artifact.ExpectedSeconds != 5 {
		t.Fatalf("unexpected artifact %+v", result.Artifact)
	}
	if result.Entry.Source != history.SourceRender {
		t.Fatalf("unexpected source %s", result.Entry.Source)
	}
	for _, frame := range frames {
		if _, err := os.Stat(frame); err != nil {
			t.Fatalf("input frame removed: %v", err)
		}
	}
}

func TestRebuildRecordsWorkspaceArtifact(t *testing.T) {
	h := newHarness(t)
	painter, err := cards.New(h.cfg, filepath.Join(testsupport.BaseDir(h.cfg), "cards"))
	if err != nil {
		t.Fatalf("cards.New: %v", err)
	}
	t.Cleanup(func() { _ = painter.Close() })
	ws, err := workspace.Open(h.cfg, "euler", h.client, h.pipeline.Renderer(), painter)
	if err != nil {
		t.Fatalf("workspace.Open: %v", err)
	}
	video := filepath.Join(testsupport.BaseDir(h.cfg), "euler.mp4")
	testsupport.WriteFile(t, video, 32)
	if _, err := ws.Extract(context.Background(), video); err != nil {
		t.Fatalf("Extract: %v", err)
	}

	result, err := h.pipeline.Rebuild(context.Background(), ws, "", nil, nil)
	if err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	if result.Entry.Source != history.SourceRebuild || result.Entry.Frames != 3 {
		t.Fatalf("unexpected entry %+v", result.Entry)
	}
	latest, ok, err := h.store.Latest(context.Background(), "euler")
	if err != nil || !ok {
		t.Fatalf("Latest: ok=%v err=%v", ok, err)
	}
	if latest.Path != result.Artifact.Path {
		t.Fatalf("latest entry %s does not match artifact %s", latest.Path, result.Artifact.Path)
	}
}

type failingRecorder struct{}

func (failingRecorder) Record(context.Context, history.Entry) (history.Entry, error) {
	return history.Entry{}, errors.New("database is locked")
}

func TestHistoryFailureDoesNotFailRender(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	client, err := ffmpeg.New("ffmpeg", ffmpeg.WithExecutor(&testsupport.FakeFFmpeg{}))
	if err != nil {
		t.Fatalf("ffmpeg.New: %v", err)
	}
	p := pipeline.New(cfg, client, pipeline.WithRecorder(failingRecorder{}))
	frames := testsupport.WriteFrames(t, filepath.Join(testsupport.BaseDir(cfg), "frames"), 2, 16, 24)

	result, err := p.Render(context.Background(), pipeline.RenderRequest{Project: "x", Frames: render.Sequence(frames)})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if result.Entry.ID != 0 || result.Entry.Path != result.Artifact.Path {
		t.Fatalf("unexpected entry %+v", result.Entry)
	}
}
