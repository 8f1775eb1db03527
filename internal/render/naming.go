package render

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"slidereel/internal/textutil"
)

const artifactTimeLayout = "20060102_150405"

// ArtifactPath returns an unused output path of the form
// <dir>/<name>_<YYYYMMDD_HHMMSS>.<ext>. name is a project or a caller-chosen
// output name; a trailing .<ext> on it is dropped. When the path is already
// taken a numeric suffix (_2, _3, ...) is appended; existing artifacts are
// never overwritten.
func ArtifactPath(dir, name, ext string, now time.Time) (string, error) {
	ext = normalizeExt(ext)
	base := strings.TrimSuffix(strings.TrimSpace(name), "."+ext)
	return freeArtifactPath(dir, textutil.SanitizeToken(base)+"_"+now.Format(artifactTimeLayout), ext)
}

func normalizeExt(ext string) string {
	ext = strings.TrimPrefix(strings.TrimSpace(ext), ".")
	if ext == "" {
		return "mp4"
	}
	return ext
}

func freeArtifactPath(dir, token, ext string) (string, error) {
	for attempt := 1; attempt < 1000; attempt++ {
		name := token
		if attempt > 1 {
			name = fmt.Sprintf("%s_%d", token, attempt)
		}
		candidate := filepath.Join(dir, name+"."+ext)
		if _, err := os.Lstat(candidate); err != nil {
			if os.IsNotExist(err) {
				return candidate, nil
			}
			return "", fmt.Errorf("check artifact path: %w", err)
		}
	}
	return "", fmt.Errorf("no free artifact name for %q in %s", token, dir)
}
