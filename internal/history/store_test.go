package history_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"slidereel/internal/history"
	"slidereel/internal/testsupport"
)

func TestRecordAndList(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	first, err := store.Record(ctx, history.Entry{
		Project:         "euler",
		Source:          history.SourceProduce,
		Storyline:       "personality",
		Strategy:        "batch",
		Path:            "/out/euler_20260301_120000.mp4",
		Frames:          7,
		ExpectedSeconds: 19,
		ProbedSeconds:   19.03,
		CreatedAt:       base,
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if first.ID == 0 {
		t.Fatal("expected ID to be assigned")
	}
	if _, err := store.Record(ctx, history.Entry{
		Project: "euler", Source: history.SourceRebuild, Strategy: "segments",
		Path: "/out/euler_edited.mp4", Frames: 4, ExpectedSeconds: 8, CreatedAt: base.Add(time.Minute),
	}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if _, err := store.Record(ctx, history.Entry{
		Project: "other", Source: history.SourceRender, Strategy: "batch",
		Path: "/out/other.mp4", Frames: 1, ExpectedSeconds: 2, CreatedAt: base.Add(2 * time.Minute),
	}); err != nil {
		t.Fatalf("Record: %v", err)
	}

	entries, err := store.List(ctx, history.Filter{Project: "euler"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []history.Entry{
		{Project: "euler", Source: history.SourceRebuild, Strategy: "segments", Path: "/out/euler_edited.mp4",
			Frames: 4, ExpectedSeconds: 8, CreatedAt: base.Add(time.Minute)},
		{Project: "euler", Source: history.SourceProduce, Storyline: "personality", Strategy: "batch",
			Path: "/out/euler_20260301_120000.mp4", Frames: 7, ExpectedSeconds: 19, ProbedSeconds: 19.03, CreatedAt: base},
	}
	if diff := cmp.Diff(want, entries, cmpopts.IgnoreFields(history.Entry{}, "ID")); diff != "" {
		t.Fatalf("entries mismatch (-want +got):\n%s", diff)
	}

	limited, err := store.List(ctx, history.Filter{Limit: 1})
	if err != nil {
		t.Fatalf("List limit: %v", err)
	}
	if len(limited) != 1 || limited[0].Project != "other" {
		t.Fatalf("expected newest entry only, got %+v", limited)
	}
}

func TestLatest(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	ctx := context.Background()

	if _, ok, err := store.Latest(ctx, "euler"); err != nil || ok {
		t.Fatalf("expected no entry, got ok=%v err=%v", ok, err)
	}
	recorded, err := store.Record(ctx, history.Entry{Project: "euler", Source: history.SourceRender, Strategy: "batch", Path: "/out/a.mp4", Frames: 2, ExpectedSeconds: 4})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	latest, ok, err := store.Latest(ctx, "euler")
	if err != nil || !ok {
		t.Fatalf("Latest: ok=%v err=%v", ok, err)
	}
	if latest.ID != recorded.ID || latest.CreatedAt.IsZero() {
		t.Fatalf("unexpected latest entry %+v", latest)
	}
}

func TestRecordValidatesRequiredFields(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)

	if _, err := store.Record(context.Background(), history.Entry{Path: "/out/a.mp4"}); err == nil {
		t.Fatal("expected error without project")
	}
	if _, err := store.Record(context.Background(), history.Entry{Project: "euler"}); err == nil {
		t.Fatal("expected error without path")
	}
}

func TestReopenKeepsEntries(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := store.Record(context.Background(), history.Entry{Project: "euler", Source: history.SourceRender, Strategy: "batch", Path: "/out/a.mp4", Frames: 1, ExpectedSeconds: 2}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened := testsupport.MustOpenHistory(t, cfg)
	entries, err := reopened.List(context.Background(), history.Filter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry after reopen, got %d", len(entries))
	}
	if reopened.Path() != cfg.HistoryPath() {
		t.Fatalf("unexpected path %s", reopened.Path())
	}
}
