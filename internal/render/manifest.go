package render

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"slidereel/internal/services/ffmpeg"
)

const manifestHeader = "ffconcat version 1.0"

// WriteManifest writes an ffmpeg concat manifest listing each frame with its
// display duration. The last frame is listed a second time without a duration
// because the concat demuxer only honours the final entry's duration when
// another entry follows it.
func WriteManifest(w io.Writer, frames []string, durations []float64) error {
	if len(frames) == 0 {
		return fmt.Errorf("manifest: no frames")
	}
	if len(frames) != len(durations) {
		return fmt.Errorf("manifest: %d frames but %d durations", len(frames), len(durations))
	}
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, manifestHeader)
	for i, frame := range frames {
		fmt.Fprintf(bw, "file %s\n", quotePath(frame))
		fmt.Fprintf(bw, "duration %s\n", ffmpeg.FormatSeconds(durations[i]))
	}
	fmt.Fprintf(bw, "file %s\n", quotePath(frames[len(frames)-1]))
	return bw.Flush()
}

// WriteSegmentList writes a concat list of already-encoded segments for
// stream-copy joining. Segments carry their own durations.
func WriteSegmentList(w io.Writer, segments []string) error {
	if len(segments) == 0 {
		return fmt.Errorf("segment list: no segments")
	}
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, manifestHeader)
	for _, segment := range segments {
		fmt.Fprintf(bw, "file %s\n", quotePath(segment))
	}
	return bw.Flush()
}

// quotePath single-quotes a path for the concat demuxer. Embedded quotes are
// closed, escaped, and reopened.
func quotePath(path string) string {
	return "'" + strings.ReplaceAll(path, "'", `'\''`) + "'"
}
