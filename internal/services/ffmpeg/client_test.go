package ffmpeg_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"slidereel/internal/services/ffmpeg"
)

type stubExecutor struct {
	lines []string
	err   error
	calls int
	args  [][]string
}

func (s *stubExecutor) Run(ctx context.Context, binary string, args []string, onLine func(string)) error {
	s.calls++
	s.args = append(s.args, append([]string(nil), args...))
	for _, line := range s.lines {
		onLine(line)
	}
	return s.err
}

var portrait = ffmpeg.Encoding{
	Width:       1080,
	Height:      1920,
	FPS:         30,
	Codec:       "libx264",
	Preset:      "fast",
	CRF:         23,
	PixelFormat: "yuv420p",
}

func TestNewRequiresBinary(t *testing.T) {
	if _, err := ffmpeg.New("  "); err == nil {
		t.Fatal("expected error for empty binary")
	}
}

func TestConcatImagesArguments(t *testing.T) {
	exec := &stubExecutor{}
	client, err := ffmpeg.New("ffmpeg", ffmpeg.WithExecutor(exec))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	if err := client.ConcatImages(context.Background(), "/scratch/manifest.txt", "/out/demo.mp4", portrait); err != nil {
		t.Fatalf("ConcatImages returned error: %v", err)
	}

	want := []string{
		"-hide_banner", "-nostdin", "-loglevel", "error", "-y",
		"-f", "concat", "-safe", "0", "-i", "/scratch/manifest.txt",
		"-vf", "fps=30,scale=1080:1920,setsar=1,format=yuv420p",
		"-c:v", "libx264", "-preset", "fast", "-crf", "23", "-pix_fmt", "yuv420p", "-r", "30",
		"/out/demo.mp4",
	}
	if diff := cmp.Diff(want, exec.args[0]); diff != "" {
		t.Fatalf("unexpected args (-want +got):\n%s", diff)
	}
}

func TestEncodeStillLoopsImageForDuration(t *testing.T) {
	exec := &stubExecutor{}
	client, _ := ffmpeg.New("ffmpeg", ffmpeg.WithExecutor(exec))

	if err := client.EncodeStill(context.Background(), "/frames/a.png", 2.5, "/scratch/segment_000.mp4", portrait); err != nil {
		t.Fatalf("EncodeStill returned error: %v", err)
	}
	args := strings.Join(exec.args[0], " ")
	if !strings.Contains(args, "-loop 1 -i /frames/a.png -t 2.5 ") {
		t.Fatalf("expected looped still input, got %q", args)
	}
	if !strings.HasSuffix(args, "/scratch/segment_000.mp4") {
		t.Fatalf("expected output last, got %q", args)
	}
}

func TestEncodeStillRejectsNonPositiveDuration(t *testing.T) {
	exec := &stubExecutor{}
	client, _ := ffmpeg.New("ffmpeg", ffmpeg.WithExecutor(exec))
	if err := client.EncodeStill(context.Background(), "a.png", 0, "out.mp4", portrait); err == nil {
		t.Fatal("expected error for zero duration")
	}
	if exec.calls != 0 {
		t.Fatalf("expected no ffmpeg invocation, got %d", exec.calls)
	}
}

func TestConcatCopyDoesNotReencode(t *testing.T) {
	exec := &stubExecutor{}
	client, _ := ffmpeg.New("ffmpeg", ffmpeg.WithExecutor(exec))

	if err := client.ConcatCopy(context.Background(), "/scratch/segments.txt", "/out/demo.mp4"); err != nil {
		t.Fatalf("ConcatCopy returned error: %v", err)
	}
	args := strings.Join(exec.args[0], " ")
	if !strings.Contains(args, "-i /scratch/segments.txt -c copy /out/demo.mp4") {
		t.Fatalf("expected stream copy, got %q", args)
	}
	if strings.Contains(args, "libx264") {
		t.Fatalf("stream copy must not re-encode: %q", args)
	}
}

func TestExtractFramesSamplesAtRate(t *testing.T) {
	exec := &stubExecutor{}
	client, _ := ffmpeg.New("ffmpeg", ffmpeg.WithExecutor(exec))

	if err := client.ExtractFrames(context.Background(), "/videos/in.mp4", "/ws/extract_%05d.png", 1); err != nil {
		t.Fatalf("ExtractFrames returned error: %v", err)
	}
	args := strings.Join(exec.args[0], " ")
	if !strings.Contains(args, "-i /videos/in.mp4 -vf fps=1 /ws/extract_%05d.png") {
		t.Fatalf("unexpected extract args %q", args)
	}
}

func TestFailuresCarryDiagnostic(t *testing.T) {
	cmdErr := &ffmpeg.CommandError{Err: errors.New("exit status 1"), Tail: []string{"Invalid data found when processing input"}}
	client, _ := ffmpeg.New("ffmpeg", ffmpeg.WithExecutor(&stubExecutor{err: cmdErr}))

	err := client.ConcatImages(context.Background(), "m.txt", "out.mp4", portrait)
	if err == nil {
		t.Fatal("expected error")
	}
	if got := ffmpeg.Diagnostic(err); got != "Invalid data found when processing input" {
		t.Fatalf("unexpected diagnostic %q", got)
	}
	if got := ffmpeg.Diagnostic(errors.New("plain")); got != "plain" {
		t.Fatalf("expected plain error text, got %q", got)
	}
}

func TestFormatSeconds(t *testing.T) {
	for in, want := range map[float64]string{2: "2", 2.5: "2.5", 0.125: "0.125"} {
		if got := ffmpeg.FormatSeconds(in); got != want {
			t.Fatalf("FormatSeconds(%v) = %q, want %q", in, got, want)
		}
	}
}
