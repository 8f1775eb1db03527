package testsupport

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

// WriteFile fills the target path with the requested number of bytes using a
// simple repeating pattern. A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	buf := make([]byte, size)
	for i := range buf {
		buf[i] = 0x42
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WritePNG writes a solid-color PNG of the given size.
func WritePNG(t testing.TB, path string, width, height int, fill color.Color) {
	t.Helper()
	if err := EncodePNG(path, width, height, fill); err != nil {
		t.Fatalf("write png %s: %v", path, err)
	}
}

// EncodePNG writes a solid-color PNG of the given size; a nil fill is white.
// It is usable outside a test goroutine, for example from a fake executor.
func EncodePNG(path string, width, height int, fill color.Color) error {
	if fill == nil {
		fill = color.White
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, fill)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// WriteFrames writes count distinctly shaded PNG frames named frame_NNN.png
// into dir and returns their paths in order.
func WriteFrames(t testing.TB, dir string, count, width, height int) []string {
	t.Helper()
	paths := make([]string, 0, count)
	for i := 0; i < count; i++ {
		path := filepath.Join(dir, fmt.Sprintf("frame_%03d.png", i))
		shade := uint8(20 + (i*40)%200)
		WritePNG(t, path, width, height, color.RGBA{R: shade, G: shade, B: shade, A: 255})
		paths = append(paths, path)
	}
	return paths
}
