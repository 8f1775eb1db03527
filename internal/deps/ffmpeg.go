package deps

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// CheckEncoder reports whether the ffmpeg binary was built with the named
// video encoder (for example libx264).
func CheckEncoder(ctx context.Context, ffmpegBinary, codec string) Status {
	codec = strings.TrimSpace(codec)
	result := Status{
		Name:        "Encoder " + codec,
		Command:     ffmpegBinary,
		Description: "Video codec used for rendering",
	}

	output, err := exec.CommandContext(ctx, ffmpegBinary, "-hide_banner", "-encoders").Output() //nolint:gosec
	if err != nil {
		result.Detail = fmt.Sprintf("list encoders: %v", err)
		return result
	}
	if hasEncoder(string(output), codec) {
		result.Available = true
		return result
	}
	result.Detail = fmt.Sprintf("ffmpeg build lacks encoder %q", codec)
	return result
}

// hasEncoder scans `ffmpeg -encoders` output, whose rows look like
// " V....D libx264   libx264 H.264 / AVC ...".
func hasEncoder(listing, codec string) bool {
	if codec == "" {
		return false
	}
	scanner := bufio.NewScanner(strings.NewReader(listing))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		if fields[1] == codec && strings.HasPrefix(fields[0], "V") {
			return true
		}
	}
	return false
}
