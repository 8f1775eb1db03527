package cards

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"slidereel/internal/services"
)

// Info summarizes an image file without decoding its pixels.
type Info struct {
	Width  int
	Height int
	Format string
}

// Decode reads an image in any registered format (png, jpeg, bmp, webp).
// Failures are tagged with services.ErrImage.
func Decode(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, services.Wrap(services.ErrImage, "cards", "decode", fmt.Sprintf("open %s", path), err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, services.Wrap(services.ErrImage, "cards", "decode", fmt.Sprintf("decode %s", path), err)
	}
	return img, nil
}

// Inspect reads the dimensions and format of an image file.
func Inspect(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, services.Wrap(services.ErrImage, "cards", "inspect", fmt.Sprintf("open %s", path), err)
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return Info{}, services.Wrap(services.ErrImage, "cards", "inspect", fmt.Sprintf("decode %s", path), err)
	}
	return Info{Width: cfg.Width, Height: cfg.Height, Format: format}, nil
}

// Fit shrinks img to fit within maxW x maxH while keeping its aspect ratio.
// Images that already fit are returned unchanged; nothing is enlarged.
func Fit(img image.Image, maxW, maxH int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 || maxW <= 0 || maxH <= 0 || (w <= maxW && h <= maxH) {
		return img
	}
	scale := math.Min(float64(maxW)/float64(w), float64(maxH)/float64(h))
	return Resize(img, max(1, int(float64(w)*scale)), max(1, int(float64(h)*scale)))
}

// Resize scales img to exactly width x height using Catmull-Rom resampling.
func Resize(img image.Image, width, height int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}
