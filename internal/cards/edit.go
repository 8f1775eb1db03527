package cards

import (
	"context"
	"fmt"
	"strings"

	"slidereel/internal/services"
)

// Position anchors a caption overlay on a frame.
type Position string

const (
	PositionTop    Position = "top"
	PositionCenter Position = "center"
	PositionBottom Position = "bottom"
)

// ParsePosition validates a user supplied overlay position. Empty means bottom.
func ParsePosition(value string) (Position, error) {
	switch Position(strings.ToLower(strings.TrimSpace(value))) {
	case "", PositionBottom:
		return PositionBottom, nil
	case PositionTop:
		return PositionTop, nil
	case PositionCenter, "centre", "middle":
		return PositionCenter, nil
	default:
		return "", services.Wrap(services.ErrValidation, "cards", "overlay",
			fmt.Sprintf("unknown position %q (want top, center, or bottom)", value), nil)
	}
}

// WriteTextCard replaces dst with a fresh text card on the configured
// background: bold 70px lines starting at row 600, 90px apart.
func (r *Renderer) WriteTextCard(ctx context.Context, dst string, lines []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	c := newCanvas(r.width, r.height, r.background, r.fonts)
	spec := textSpec{size: 70, weight: bold, color: colorWhite, shadow: true}
	y := 600.0
	for _, line := range lines {
		if _, _, err := c.centered(line, y, spec); err != nil {
			return services.Wrap(services.ErrImage, "cards", "text", "draw text card", err)
		}
		y += 90
	}
	if err := c.save(dst); err != nil {
		return services.Wrap(services.ErrImage, "cards", "text", "write text card", err)
	}
	return nil
}

// DrawOverlay writes a caption on a translucent rounded box into the frame
// at path, in place. Layout is relative to the frame's own size.
func (r *Renderer) DrawOverlay(ctx context.Context, path, text string, pos Position) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		return services.Wrap(services.ErrValidation, "cards", "overlay", "overlay text is empty", nil)
	}
	src, err := Decode(path)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	c := canvasFrom(src, r.fonts)
	spec := textSpec{size: 50, weight: bold, color: colorWhite}
	w, err := c.measure(text, spec)
	if err != nil {
		return services.Wrap(services.ErrImage, "cards", "overlay", "measure overlay", err)
	}
	var top float64
	switch pos {
	case PositionTop:
		top = 100
	case PositionCenter:
		top = designHeight / 2
	default:
		top = designHeight - 200
	}
	px, py := (c.width()-w)/2, c.y(top)
	pad := max(1, c.y(20))
	box := boxAround(px, py, w, c.y(60), pad)
	c.roundedRect(box, max(1, c.y(10)), colorOverlayBg)
	if err := c.drawText(text, px, py, spec); err != nil {
		return services.Wrap(services.ErrImage, "cards", "overlay", "draw overlay", err)
	}
	if err := c.save(path); err != nil {
		return services.Wrap(services.ErrImage, "cards", "overlay", "write frame", err)
	}
	return nil
}

// Normalize decodes src and writes it to dst as a PNG resized to the canvas.
// Nothing is written when src cannot be decoded.
func (r *Renderer) Normalize(ctx context.Context, src, dst string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	img, err := Decode(src)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	c := newCanvas(r.width, r.height, r.background, r.fonts)
	if b := img.Bounds(); b.Dx() != r.width || b.Dy() != r.height {
		img = Resize(img, r.width, r.height)
	}
	c.paste(img, c.img.Bounds().Min)
	if err := c.save(dst); err != nil {
		return services.Wrap(services.ErrImage, "cards", "normalize", "write frame", err)
	}
	return nil
}
