package testsupport

import (
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func TestWritePNGDefaultsNilFillToWhite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blank.png")
	WritePNG(t, path, 3, 2, nil)

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got := img.Bounds().Size(); got.X != 3 || got.Y != 2 {
		t.Fatalf("unexpected size %v", got)
	}
	r, g, b, a := img.At(1, 1).RGBA()
	wr, wg, wb, wa := color.White.RGBA()
	if r != wr || g != wg || b != wb || a != wa {
		t.Fatalf("expected white pixel, got %v", img.At(1, 1))
	}
}
