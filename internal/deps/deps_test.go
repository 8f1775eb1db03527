package deps

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"slidereel/internal/config"
)

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	script := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(present, script, 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Blank", Command: "  "},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	if !results[0].Available || results[0].Path != present {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[1].Available || results[1].Detail == "" {
		t.Fatalf("expected missing binary to be unavailable with detail, got %#v", results[1])
	}
	if results[2].Detail != "command not configured" {
		t.Fatalf("unexpected detail for blank command: %q", results[2].Detail)
	}
}

func TestRequirementsFollowConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Encoder.FFmpegBinary = "/opt/ffmpeg"
	cfg.Encoder.VerifyDuration = false

	reqs := Requirements(&cfg)
	if reqs[0].Command != "/opt/ffmpeg" || reqs[0].Optional {
		t.Fatalf("unexpected ffmpeg requirement %#v", reqs[0])
	}
	if !reqs[1].Optional {
		t.Fatal("expected ffprobe optional when duration verification is off")
	}
}

func TestHasEncoder(t *testing.T) {
	listing := `Encoders:
 V..... = Video
 ------
 V....D libx264              libx264 H.264 / AVC / MPEG-4 AVC (codec h264)
 A....D aac                  AAC (Advanced Audio Coding)
`
	if !hasEncoder(listing, "libx264") {
		t.Fatal("expected libx264 to be detected")
	}
	if hasEncoder(listing, "aac") {
		t.Fatal("audio encoders must not satisfy a video codec check")
	}
	if hasEncoder(listing, "libx265") {
		t.Fatal("unexpected libx265 detection")
	}
}

func TestCheckEncoderUsesBinaryListing(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell stub requires a POSIX shell")
	}
	stub := filepath.Join(t.TempDir(), "ffmpeg")
	script := "#!/bin/sh\necho ' V....D libx264 libx264 H.264'\n"
	if err := os.WriteFile(stub, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	if status := CheckEncoder(context.Background(), stub, "libx264"); !status.Available {
		t.Fatalf("expected encoder available, got %#v", status)
	}
	if status := CheckEncoder(context.Background(), stub, "libvpx"); status.Available {
		t.Fatalf("expected encoder missing, got %#v", status)
	}
}
