package render

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestWriteManifestRepeatsLastFrame(t *testing.T) {
	var buf bytes.Buffer
	frames := []string{"/w/frame_000.png", "/w/frame_001.png", "/w/frame_002.png"}
	if err := WriteManifest(&buf, frames, []float64{2, 2.5, 3}); err != nil {
		t.Fatalf("WriteManifest returned error: %v", err)
	}
	want := `ffconcat version 1.0
file '/w/frame_000.png'
duration 2
file '/w/frame_001.png'
duration 2.5
file '/w/frame_002.png'
duration 3
file '/w/frame_002.png'
`
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Fatalf("unexpected manifest (-want +got):\n%s", diff)
	}
}

func TestWriteManifestEscapesQuotes(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteManifest(&buf, []string{"/w/it's.png"}, []float64{1}); err != nil {
		t.Fatalf("WriteManifest returned error: %v", err)
	}
	want := "ffconcat version 1.0\nfile '/w/it'\\''s.png'\nduration 1\nfile '/w/it'\\''s.png'\n"
	if buf.String() != want {
		t.Fatalf("unexpected manifest %q", buf.String())
	}
}

func TestWriteManifestRejectsMismatch(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteManifest(&buf, []string{"a", "b"}, []float64{1}); err == nil {
		t.Fatal("expected error for mismatched durations")
	}
	if err := WriteManifest(&buf, nil, nil); err == nil {
		t.Fatal("expected error for empty manifest")
	}
}

func TestWriteSegmentListHasNoDurations(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSegmentList(&buf, []string{"/s/segment_000.mp4", "/s/segment_001.mp4"}); err != nil {
		t.Fatalf("WriteSegmentList returned error: %v", err)
	}
	want := "ffconcat version 1.0\nfile '/s/segment_000.mp4'\nfile '/s/segment_001.mp4'\n"
	if buf.String() != want {
		t.Fatalf("unexpected list %q", buf.String())
	}
}
