package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofrs/flock"
	"github.com/google/go-cmp/cmp"

	"slidereel/internal/render"
	"slidereel/internal/services"
	"slidereel/internal/testsupport"
	"slidereel/internal/workspace"
)

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, fmt.Sprintf("Canvas:      %dx%d", env.cfg.Video.Width, env.cfg.Video.Height))

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, env, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}
	if _, _, err := runCLI(t, env, "config", "init", "--path", target); err == nil {
		t.Fatal("expected init to refuse overwriting without --overwrite")
	}
}

func TestRenderCommandRecordsHistory(t *testing.T) {
	env := setupCLITestEnv(t)
	frames := testsupport.WriteFrames(t, filepath.Join(env.baseDir, "frames"), 3, 16, 24)

	args := append([]string{"render", "--project", "demo", "--name", "demo cut", "--duration", "1=4"}, frames...)
	out, _, err := runCLI(t, env, args...)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	requireContains(t, out, "demo_cut_")
	requireContains(t, out, "3 frames, 8 seconds, batch strategy")

	out, _, err = runCLI(t, env, "history", "--project", "demo")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "demo_cut_")
	requireContains(t, out, "render")

	args = append([]string{"render", "--project", "demo", "--name", "second", "--default-duration", "1"}, frames...)
	if _, _, err := runCLI(t, env, args...); err != nil {
		t.Fatalf("second render: %v", err)
	}
	out, _, err = runCLI(t, env, "history", "--project", "demo", "--latest")
	if err != nil {
		t.Fatalf("history --latest: %v", err)
	}
	requireContains(t, out, "second_")
	if strings.Contains(out, "demo_cut_") {
		t.Fatalf("expected only the latest render, got %q", out)
	}

	if _, _, err := runCLI(t, env, "history", "--latest"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected --latest without --project to fail validation, got %v", err)
	}
}

func TestRenderCommandRejectsBadDuration(t *testing.T) {
	env := setupCLITestEnv(t)
	frames := testsupport.WriteFrames(t, filepath.Join(env.baseDir, "frames"), 2, 16, 24)

	_, _, err := runCLI(t, env, "render", "--duration", "5=1", frames[0], frames[1])
	if !errors.Is(err, services.ErrValidation) || services.ExitCode(err) != 2 {
		t.Fatalf("expected validation error with exit code 2, got %v", err)
	}
	if env.fake.CallCount() != 0 {
		t.Fatal("encoder invoked for invalid durations")
	}
}

func TestProduceCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	contentPath := filepath.Join(env.baseDir, "content.toml")
	testsupport.WritePNG(t, filepath.Join(env.baseDir, "shots", "a.png"), 20, 20, color.White)
	content := `project = "euler"
title = "Euler's identity"

[[items]]
name = "Claude"
screenshot = "shots/a.png"
vibe = "warm"

[[items]]
name = "Gemini"
`
	if err := os.WriteFile(contentPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write content: %v", err)
	}

	out, _, err := runCLI(t, env, "--json", "produce", "--storyline", "plot_twist", "--content", contentPath)
	if err != nil {
		t.Fatalf("produce: %v", err)
	}
	var result struct {
		Project string  `json:"project"`
		Frames  int     `json:"frames"`
		Seconds float64 `json:"expected_seconds"`
	}
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("decode output %q: %v", out, err)
	}
	// equation 3, twist 2, two reveals 2 each, mind blown 3
	want := struct {
		Project string  `json:"project"`
		Frames  int     `json:"frames"`
		Seconds float64 `json:"expected_seconds"`
	}{"euler", 5, 12}
	if diff := cmp.Diff(want, result); diff != "" {
		t.Fatalf("produce result mismatch (-want +got):\n%s", diff)
	}
}

func TestEditWorkflow(t *testing.T) {
	env := setupCLITestEnv(t)
	video := filepath.Join(env.baseDir, "input.mp4")
	testsupport.WriteFile(t, video, 64)

	steps := [][]string{
		{"edit", "--project", "demo", "extract", video},
		{"edit", "--project", "demo", "remove", "2"},
		{"edit", "--project", "demo", "duplicate", "0"},
		{"edit", "--project", "demo", "text", "1", "Hello", "World"},
		{"edit", "--project", "demo", "overlay", "3", "caption", "--position", "top"},
		{"edit", "--project", "demo", "durations", "0=1", "4=3"},
	}
	for _, args := range steps {
		if _, _, err := runCLI(t, env, args...); err != nil {
			t.Fatalf("%s: %v", strings.Join(args, " "), err)
		}
	}

	out, _, err := runCLI(t, env, "edit", "--project", "demo", "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	requireContains(t, out, "(DIRTY)")
	requireContains(t, out, "frame_004.png")
	requireContains(t, out, "Total: 5 frames, 10s")

	out, _, err = runCLI(t, env, "edit", "--project", "demo", "rebuild", "--name", "final")
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	requireContains(t, out, "final_")
	requireContains(t, out, "5 frames, 10 seconds")

	// Stored overrides 0=1 and 4=3 survive; the other three frames take 1s.
	out, _, err = runCLI(t, env, "edit", "--project", "demo", "rebuild", "--name", "quick", "--default-duration", "1")
	if err != nil {
		t.Fatalf("rebuild --default-duration: %v", err)
	}
	requireContains(t, out, "5 frames, 7 seconds")

	out, _, err = runCLI(t, env, "history", "--json")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, `"Source": "rebuild"`)
}

func TestEditOutOfRangeIsRecoverable(t *testing.T) {
	env := setupCLITestEnv(t)
	video := filepath.Join(env.baseDir, "input.mp4")
	testsupport.WriteFile(t, video, 64)
	if _, _, err := runCLI(t, env, "edit", "-p", "demo", "extract", video); err != nil {
		t.Fatalf("extract: %v", err)
	}

	_, _, err := runCLI(t, env, "edit", "-p", "demo", "remove", "9")
	if !errors.Is(err, services.ErrIndex) {
		t.Fatalf("expected index error, got %v", err)
	}
	if code := services.ExitCode(err); code != 2 {
		t.Fatalf("expected exit code 2, got %d", code)
	}
	requireContains(t, err.Error(), "frame 9 does not exist (workspace has 5 frames)")
}

func TestEditFailsFastWhenWorkspaceLocked(t *testing.T) {
	env := setupCLITestEnv(t)
	lockPath := workspace.LockPath(env.cfg, "demo")
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	held := flock.New(lockPath)
	ok, err := held.TryLock()
	if err != nil || !ok {
		t.Fatalf("hold lock: ok=%v err=%v", ok, err)
	}
	t.Cleanup(func() { _ = held.Unlock() })

	video := filepath.Join(env.baseDir, "input.mp4")
	testsupport.WriteFile(t, video, 64)
	_, _, err = runCLI(t, env, "edit", "-p", "demo", "extract", video)
	if err == nil || !strings.Contains(err.Error(), "being edited by another slidereel process") {
		t.Fatalf("expected lock conflict, got %v", err)
	}
	if env.fake.CallCount() != 0 {
		t.Fatal("extraction ran while the workspace was locked")
	}

	// Read-only commands do not need the lock.
	if _, _, err := runCLI(t, env, "edit", "-p", "demo", "list"); err != nil {
		t.Fatalf("list while locked: %v", err)
	}
}

func TestEditRequiresProject(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, env, "edit", "list")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestParseDurations(t *testing.T) {
	got, err := parseDurations([]string{"0=1.5", " 3 = 2 "})
	if err != nil {
		t.Fatalf("parseDurations: %v", err)
	}
	if diff := cmp.Diff(render.DurationMap{0: 1.5, 3: 2}, got); diff != "" {
		t.Fatalf("durations mismatch (-want +got):\n%s", diff)
	}
	for _, bad := range []string{"3", "x=1", "1=fast"} {
		if _, err := parseDurations([]string{bad}); !errors.Is(err, services.ErrValidation) {
			t.Fatalf("%q: expected validation error, got %v", bad, err)
		}
	}
}

func TestWithDefaultDuration(t *testing.T) {
	got, err := withDefaultDuration(render.DurationMap{1: 4, 7: 3}, 3, 1.5)
	if err != nil {
		t.Fatalf("withDefaultDuration: %v", err)
	}
	// Out-of-range overrides are kept so the renderer can reject them.
	if diff := cmp.Diff(render.DurationMap{0: 1.5, 1: 4, 2: 1.5, 7: 3}, got); diff != "" {
		t.Fatalf("durations mismatch (-want +got):\n%s", diff)
	}
	if _, err := withDefaultDuration(nil, 3, 0); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRenderStatusLine(t *testing.T) {
	got := renderStatusLine("FFmpeg", statusError, "not found", false)
	want := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, "FFmpeg:", "[ERROR] not found")
	if got != want {
		t.Fatalf("renderStatusLine mismatch\n got: %q\nwant: %q", got, want)
	}
	colored := renderStatusLine("FFmpeg", statusOK, "", true)
	if !strings.HasPrefix(colored, ansiGreen) || !strings.HasSuffix(colored, ansiReset) {
		t.Fatalf("expected green status line, got %q", colored)
	}
}

func TestScratchCleanRemovesEverythingWithZeroAge(t *testing.T) {
	env := setupCLITestEnv(t)
	leftover := filepath.Join(env.cfg.Paths.ScratchDir, "produce-abc", "cards")
	if err := os.MkdirAll(leftover, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	out, _, err := runCLI(t, env, "scratch", "list")
	if err != nil {
		t.Fatalf("scratch list: %v", err)
	}
	requireContains(t, out, "produce-abc")

	if _, _, err := runCLI(t, env, "scratch", "clean", "--older-than=-1s"); err != nil {
		t.Fatalf("scratch clean: %v", err)
	}
	if _, err := os.Stat(filepath.Dir(leftover)); !os.IsNotExist(err) {
		t.Fatalf("expected leftover scratch to be removed, stat err=%v", err)
	}
}
