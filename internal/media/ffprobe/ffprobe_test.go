package ffprobe

import (
	"math"
	"testing"
)

const samplePayload = `{
  "streams": [
    {"index": 0, "codec_name": "h264", "codec_type": "video", "width": 1080, "height": 1920,
     "pix_fmt": "yuv420p", "avg_frame_rate": "30/1", "duration": "11.966667", "nb_frames": "359"}
  ],
  "format": {"filename": "demo.mp4", "nb_streams": 1, "duration": "12.000000", "size": "48213", "format_name": "mov,mp4,m4a,3gp,3g2,mj2"}
}`

func TestParseAndHelpers(t *testing.T) {
	result, err := Parse([]byte(samplePayload))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if result.VideoStreamCount() != 1 {
		t.Fatalf("expected 1 video stream, got %d", result.VideoStreamCount())
	}
	if result.DurationSeconds() != 12 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
	if result.SizeBytes() != 48213 {
		t.Fatalf("unexpected size: %d", result.SizeBytes())
	}
	video, ok := result.Video()
	if !ok {
		t.Fatal("expected video stream")
	}
	if video.Width != 1080 || video.Height != 1920 {
		t.Fatalf("unexpected dimensions %dx%d", video.Width, video.Height)
	}
	if video.FrameRate() != 30 {
		t.Fatalf("unexpected frame rate %v", video.FrameRate())
	}
}

func TestDurationFallsBackToVideoStream(t *testing.T) {
	result := Result{Streams: []Stream{{CodecType: "video", Duration: "4.5"}}}
	if result.DurationSeconds() != 4.5 {
		t.Fatalf("expected stream duration, got %v", result.DurationSeconds())
	}
}

func TestHelpersHandleInvalidNumbers(t *testing.T) {
	result := Result{Format: Format{Duration: "bad", Size: "-1"}}
	if !math.IsNaN(result.DurationSeconds()) {
		t.Fatalf("expected duration NaN, got %v", result.DurationSeconds())
	}
	if result.SizeBytes() != 0 {
		t.Fatalf("expected size 0, got %d", result.SizeBytes())
	}
	for _, rate := range []string{"", "30/0", "x/1", "bogus"} {
		if got := (Stream{AvgFrameRate: rate}).FrameRate(); got != 0 {
			t.Fatalf("FrameRate(%q) = %v, want 0", rate, got)
		}
	}
	if got := (Stream{AvgFrameRate: "30000/1001"}).FrameRate(); math.Abs(got-29.97) > 0.01 {
		t.Fatalf("unexpected NTSC rate %v", got)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := Parse([]byte("not json")); err == nil {
		t.Fatal("expected parse error")
	}
}
