package cards

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"slidereel/internal/fileutil"
)

// Layout coordinates are authored against this canvas.
const (
	designWidth  = 1080
	designHeight = 1920
)

var (
	colorWhite     = color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
	colorBlack     = color.RGBA{A: 0xFF}
	colorGold      = color.RGBA{R: 0xFF, G: 0xD7, A: 0xFF}
	colorMuted     = color.RGBA{R: 0xCC, G: 0xCC, B: 0xCC, A: 0xFF}
	colorHint      = color.RGBA{R: 0x66, G: 0x66, B: 0x66, A: 0xFF}
	colorGlow      = color.RGBA{R: 100, G: 200, B: 255, A: 0xFF}
	colorOverlayBg = color.NRGBA{A: 180}
)

type canvas struct {
	img    *image.RGBA
	sx, sy float64
	fonts  *fontSet
}

func newCanvas(width, height int, bg color.Color, fonts *fontSet) *canvas {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
	return &canvas{
		img:   img,
		sx:    float64(width) / designWidth,
		sy:    float64(height) / designHeight,
		fonts: fonts,
	}
}

// canvasFrom copies src onto a drawable canvas scaled to src's own size.
func canvasFrom(src image.Image, fonts *fontSet) *canvas {
	b := src.Bounds()
	c := newCanvas(b.Dx(), b.Dy(), colorBlack, fonts)
	draw.Draw(c.img, c.img.Bounds(), src, b.Min, draw.Src)
	return c
}

func (c *canvas) width() int  { return c.img.Bounds().Dx() }
func (c *canvas) height() int { return c.img.Bounds().Dy() }

func (c *canvas) x(v float64) int { return int(math.Round(v * c.sx)) }
func (c *canvas) y(v float64) int { return int(math.Round(v * c.sy)) }

func (c *canvas) rect(x0, y0, x1, y1 float64) image.Rectangle {
	return image.Rect(c.x(x0), c.y(y0), c.x(x1), c.y(y1))
}

type textSpec struct {
	size   float64
	weight weight
	color  color.Color
	shadow bool
}

func (c *canvas) face(spec textSpec) (font.Face, error) {
	return c.fonts.face(spec.weight, spec.size*c.sy)
}

func (c *canvas) measure(s string, spec textSpec) (int, error) {
	face, err := c.face(spec)
	if err != nil {
		return 0, err
	}
	return font.MeasureString(face, s).Ceil(), nil
}

// drawText places s with its top-left corner at pixel (px, py).
func (c *canvas) drawText(s string, px, py int, spec textSpec) error {
	if s == "" {
		return nil
	}
	face, err := c.face(spec)
	if err != nil {
		return err
	}
	baseline := py + face.Metrics().Ascent.Ceil()
	if spec.shadow {
		off := max(1, c.y(3))
		shadow := &font.Drawer{
			Dst:  c.img,
			Src:  image.NewUniform(colorBlack),
			Face: face,
			Dot:  fixed.P(px+off, baseline+off),
		}
		shadow.DrawString(s)
	}
	drawer := &font.Drawer{
		Dst:  c.img,
		Src:  image.NewUniform(spec.color),
		Face: face,
		Dot:  fixed.P(px, baseline),
	}
	drawer.DrawString(s)
	return nil
}

func (c *canvas) textAt(s string, dx, dy float64, spec textSpec) error {
	return c.drawText(s, c.x(dx), c.y(dy), spec)
}

// centered draws s horizontally centred at design row dy and returns the
// pixel x of its left edge and its pixel width.
func (c *canvas) centered(s string, dy float64, spec textSpec) (int, int, error) {
	w, err := c.measure(s, spec)
	if err != nil {
		return 0, 0, err
	}
	px := (c.width() - w) / 2
	return px, w, c.drawText(s, px, c.y(dy), spec)
}

func (c *canvas) fill(r image.Rectangle, col color.Color) {
	draw.Draw(c.img, r, image.NewUniform(col), image.Point{}, draw.Over)
}

func (c *canvas) outline(r image.Rectangle, width int, col color.Color) {
	width = max(1, width)
	c.fill(image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+width), col)
	c.fill(image.Rect(r.Min.X, r.Max.Y-width, r.Max.X, r.Max.Y), col)
	c.fill(image.Rect(r.Min.X, r.Min.Y, r.Min.X+width, r.Max.Y), col)
	c.fill(image.Rect(r.Max.X-width, r.Min.Y, r.Max.X, r.Max.Y), col)
}

func (c *canvas) roundedRect(r image.Rectangle, radius int, col color.Color) {
	mask := &roundedMask{rect: r, radius: min(radius, r.Dx()/2, r.Dy()/2)}
	draw.DrawMask(c.img, r, image.NewUniform(col), image.Point{}, mask, r.Min, draw.Over)
}

// paste draws img with its top-left corner at pixel pt.
func (c *canvas) paste(img image.Image, pt image.Point) {
	b := img.Bounds()
	draw.Draw(c.img, image.Rectangle{Min: pt, Max: pt.Add(b.Size())}, img, b.Min, draw.Over)
}

// pasteBordered pastes img centred horizontally at pixel row py inside a
// border of the given colour.
func (c *canvas) pasteBordered(img image.Image, py, border int, col color.Color) {
	size := img.Bounds().Size()
	px := (c.width() - size.X) / 2
	frame := image.Rect(px-border, py, px+size.X+border, py+size.Y+2*border)
	c.fill(frame, col)
	c.paste(img, image.Pt(px, py+border))
}

// verticalGradient shades each row darkest at the centre and brightest at
// the top and bottom edges.
func (c *canvas) verticalGradient() {
	h := c.height()
	half := float64(h) / 2
	for row := 0; row < h; row++ {
		intensity := uint8(20 + 30*math.Abs(float64(row)-half)/half)
		c.fill(image.Rect(0, row, c.width(), row+1), color.RGBA{R: intensity, G: intensity, B: intensity, A: 0xFF})
	}
}

func (c *canvas) encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, c.img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func (c *canvas) save(path string) error {
	data, err := c.encode()
	if err != nil {
		return err
	}
	return fileutil.WriteFileAtomic(path, data, 0o644)
}

type roundedMask struct {
	rect   image.Rectangle
	radius int
}

func (m *roundedMask) ColorModel() color.Model { return color.AlphaModel }

func (m *roundedMask) Bounds() image.Rectangle { return m.rect }

func (m *roundedMask) At(x, y int) color.Color {
	if !(image.Point{X: x, Y: y}.In(m.rect)) {
		return color.Alpha{}
	}
	r := m.rect
	cx, cy := x, y
	switch {
	case x < r.Min.X+m.radius:
		cx = r.Min.X + m.radius
	case x >= r.Max.X-m.radius:
		cx = r.Max.X - m.radius - 1
	}
	switch {
	case y < r.Min.Y+m.radius:
		cy = r.Min.Y + m.radius
	case y >= r.Max.Y-m.radius:
		cy = r.Max.Y - m.radius - 1
	}
	dx, dy := x-cx, y-cy
	if dx*dx+dy*dy > m.radius*m.radius {
		return color.Alpha{}
	}
	return color.Alpha{A: 0xFF}
}

// parseHex converts #RRGGBB or #RRGGBBAA into a colour.
func parseHex(value string) (color.NRGBA, error) {
	var out color.NRGBA
	if len(value) == 0 || value[0] != '#' {
		return out, fmt.Errorf("invalid colour %q", value)
	}
	digits := value[1:]
	var parsed [4]uint8
	parsed[3] = 0xFF
	switch len(digits) {
	case 6, 8:
	default:
		return out, fmt.Errorf("invalid colour %q", value)
	}
	for i := 0; i < len(digits)/2; i++ {
		hi, okHi := hexNibble(digits[2*i])
		lo, okLo := hexNibble(digits[2*i+1])
		if !okHi || !okLo {
			return out, fmt.Errorf("invalid colour %q", value)
		}
		parsed[i] = hi<<4 | lo
	}
	return color.NRGBA{R: parsed[0], G: parsed[1], B: parsed[2], A: parsed[3]}, nil
}

func hexNibble(b byte) (uint8, bool) {
	switch {
	case b >= '0' && b <= '9':
		return b - '0', true
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10, true
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10, true
	}
	return 0, false
}

// boxAround pads the w x h text block at pixel (px, py) on every side.
func boxAround(px, py, w, h, pad int) image.Rectangle {
	return image.Rect(px-pad, py-pad, px+w+pad, py+h+pad)
}
