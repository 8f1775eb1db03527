package cards

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type layoutFunc func(*canvas, Params) error

var layouts = map[Kind]layoutFunc{
	KindText:           drawText,
	KindReveal:         drawReveal,
	KindDramaticReveal: drawDramaticReveal,
	KindScoring:        drawScoring,
	KindEquation:       drawEquation,
	KindWinner:         drawWinner,
	KindSplit:          drawSplit,
	KindGrid:           drawGrid,
	KindScreenshot:     drawScreenshot,
	KindPlaceholder:    drawPlaceholder,
}

type styleSpec struct {
	size   float64
	color  color.Color
	yStart float64
	step   float64
}

var textStyles = map[TextStyle]styleSpec{
	StyleDramatic: {size: 70, color: colorWhite, yStart: 600, step: 100},
	StyleSuspense: {size: 80, color: colorGold, yStart: 700, step: 110},
	StyleCTA:      {size: 60, color: color.RGBA{G: 0xFF, B: 0x88, A: 0xFF}, yStart: 650, step: 90},
	StyleDefault:  {size: 60, color: colorWhite, yStart: 600, step: 90},
	StyleBanner:   {size: 60, color: colorWhite, step: 80},
}

// neutralBrand styles entities without configured branding.
var neutralBrand = color.NRGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}

func brandColor(e Entity) color.Color {
	if c, err := parseHex(e.Brand.Color); err == nil {
		return c
	}
	return neutralBrand
}

func displayName(e Entity) string {
	return cases.Upper(language.Und).String(strings.TrimSpace(e.Name))
}

func drawText(c *canvas, p Params) error {
	style := p.Style
	if style == "" {
		style = StyleDefault
	}
	spec, ok := textStyles[style]
	if !ok {
		return fmt.Errorf("unknown text style %q", style)
	}
	y := spec.yStart
	if style == StyleBanner {
		y = designHeight/2 - float64(len(p.Lines))*spec.size
	}
	text := textSpec{size: spec.size, weight: bold, color: spec.color, shadow: true}
	for _, line := range p.Lines {
		if _, _, err := c.centered(line, y, text); err != nil {
			return err
		}
		y += spec.step
	}
	return nil
}

// drawTitleBadge draws an upper-cased name on a rounded brand-coloured badge
// spanning design rows top..bottom with the text at textY.
func drawTitleBadge(c *canvas, e Entity, size, top, bottom, textY, padding float64) error {
	spec := textSpec{size: size, weight: bold, color: colorWhite}
	name := displayName(e)
	w, err := c.measure(name, spec)
	if err != nil {
		return err
	}
	px := (c.width() - w) / 2
	pad := c.x(padding)
	badge := image.Rect(px-pad, c.y(top), px+w+pad, c.y(bottom))
	c.roundedRect(badge, c.y(20), brandColor(e))
	return c.drawText(name, px, c.y(textY), spec)
}

// pasteScreenshot pastes a bordered, shrunk screenshot centred at design row
// top. An empty path draws a hint instead; an unreadable file is an error.
func pasteScreenshot(c *canvas, e Entity, maxW, maxH, top, border float64) error {
	if strings.TrimSpace(e.Screenshot) == "" {
		_, _, err := c.centered("[Screenshot would go here]", designHeight/2, textSpec{size: 40, color: colorHint})
		return err
	}
	img, err := Decode(e.Screenshot)
	if err != nil {
		return err
	}
	thumb := Fit(img, c.x(maxW), c.y(maxH))
	bw := 0
	if border > 0 {
		bw = max(1, c.x(border))
	}
	c.pasteBordered(thumb, c.y(top), bw, brandColor(e))
	return nil
}

func drawReveal(c *canvas, p Params) error {
	e := p.Entity
	if err := drawTitleBadge(c, e, 90, 150, 280, 170, 40); err != nil {
		return err
	}
	if err := pasteScreenshot(c, e, 900, 600, 350, 0); err != nil {
		return err
	}
	traits := make([]string, 0, 3)
	if e.Brand.Tagline != "" {
		traits = append(traits, e.Brand.Tagline)
	}
	if e.Brand.Style != "" {
		traits = append(traits, "Style: "+e.Brand.Style)
	}
	if e.Vibe != "" {
		traits = append(traits, "Vibe: "+e.Vibe)
	}
	y := 1100.0
	for _, trait := range traits {
		if _, _, err := c.centered(trait, y, textSpec{size: 50, color: colorMuted}); err != nil {
			return err
		}
		y += 80
	}
	return nil
}

func drawDramaticReveal(c *canvas, p Params) error {
	e := p.Entity
	if err := c.textAt(displayName(e), 50, 100, textSpec{size: 70, weight: bold, color: brandColor(e)}); err != nil {
		return err
	}
	if err := pasteScreenshot(c, e, 900, 700, 300, 5); err != nil {
		return err
	}
	if e.Reaction == "" {
		return nil
	}
	_, _, err := c.centered(e.Reaction, 1100, textSpec{size: 50, weight: bold, color: colorGold, shadow: true})
	return err
}

func drawScoring(c *canvas, p Params) error {
	e := p.Entity
	brand := brandColor(e)
	if err := c.textAt(displayName(e), 100, 100, textSpec{size: 80, weight: bold, color: brand}); err != nil {
		return err
	}

	preview := c.rect(100, 250, 980, 750)
	c.outline(preview, c.x(5), brand)
	if strings.TrimSpace(e.Screenshot) != "" {
		img, err := Decode(e.Screenshot)
		if err != nil {
			return err
		}
		inner := preview.Inset(max(2, c.x(10)))
		thumb := Fit(img, inner.Dx(), inner.Dy())
		size := thumb.Bounds().Size()
		c.paste(thumb, image.Pt(inner.Min.X+(inner.Dx()-size.X)/2, inner.Min.Y+(inner.Dy()-size.Y)/2))
	} else if _, _, err := c.centered("[PREVIEW]", 480, textSpec{size: 40, color: colorHint}); err != nil {
		return err
	}

	label := textSpec{size: 60, color: colorWhite}
	y := 850.0
	total := 0
	for _, score := range e.Scores {
		value := min(max(score.Value, 0), 10)
		barWidth := float64(value) / 10 * 700
		if barWidth > 0 {
			c.fill(c.rect(200, y, 200+barWidth, y+40), brand)
		}
		if err := c.textAt(cases.Title(language.Und).String(score.Category)+":", 100, y+5, label); err != nil {
			return err
		}
		if err := c.textAt(fmt.Sprintf("%d/10", value), 920, y+5, label); err != nil {
			return err
		}
		total += value
		y += 80
	}
	if len(e.Scores) == 0 {
		return nil
	}
	return c.textAt(fmt.Sprintf("TOTAL: %d/%d", total, 10*len(e.Scores)), 100, y+50,
		textSpec{size: 80, weight: bold, color: colorGold})
}

func drawEquation(c *canvas, p Params) error {
	caption := p.Caption
	if caption == "" && len(p.Lines) > 0 {
		caption = p.Lines[0]
	}
	if _, _, err := c.centered(caption, 600, textSpec{size: 60, color: colorWhite, shadow: true}); err != nil {
		return err
	}
	if p.Equation == "" {
		return fmt.Errorf("equation text required")
	}
	spec := textSpec{size: 100, weight: bold, color: colorGlow}
	w, err := c.measure(p.Equation, spec)
	if err != nil {
		return err
	}
	px, py := (c.width()-w)/2, c.y(800)
	glow := max(1, c.x(3))
	for _, d := range []image.Point{{-glow, 0}, {glow, 0}, {0, -glow}, {0, glow}} {
		if err := c.drawText(p.Equation, px+d.X, py+d.Y, spec); err != nil {
			return err
		}
	}
	spec.color = colorWhite
	return c.drawText(p.Equation, px, py, spec)
}

func drawWinner(c *canvas, p Params) error {
	c.verticalGradient()
	rows := []struct {
		text string
		spec textSpec
		y    float64
	}{
		{"And the winner is...", textSpec{size: 60, color: colorWhite}, 600},
		{"* * *", textSpec{size: 100, weight: bold, color: colorWhite}, 800},
		{"YOU DECIDE!", textSpec{size: 100, weight: bold, color: colorGold, shadow: true}, 1000},
		{"Vote in comments!", textSpec{size: 60, color: colorWhite}, 1200},
	}
	if p.Title != "" {
		rows[2].text = p.Title
	}
	for _, row := range rows {
		if _, _, err := c.centered(row.text, row.y, row.spec); err != nil {
			return err
		}
	}
	return nil
}

// drawSplit lays out up to four entities in a 2x2 grid under a title.
func drawSplit(c *canvas, p Params) error {
	if p.Title != "" {
		if _, _, err := c.centered(p.Title, 80, textSpec{size: 60, weight: bold, color: colorWhite}); err != nil {
			return err
		}
	}
	cellW := float64(designWidth) / 2
	cellH := float64(designHeight-200) / 2
	for i, e := range p.Entities {
		if i >= 4 {
			break
		}
		x := float64(i%2) * cellW
		y := 200 + float64(i/2)*cellH
		brand := brandColor(e)
		c.fill(c.rect(x+10, y+10, x+cellW-10, y+60), brand)
		if err := c.textAt(displayName(e), x+20, y+20, textSpec{size: 30, weight: bold, color: colorWhite}); err != nil {
			return err
		}
		box := c.rect(x+20, y+70, x+cellW-20, y+cellH-20)
		c.outline(box, c.x(3), brand)
		pastePreview(c, e, box)
	}
	return nil
}

// drawGrid is the comparison grid closing a battle: one cell per entity
// (at most six) with a prompt underneath.
func drawGrid(c *canvas, p Params) error {
	heading := p.Title
	if heading == "" {
		heading = "SPOT THE DIFFERENCES"
	}
	if _, _, err := c.centered(heading, 80, textSpec{size: 60, weight: bold, color: colorWhite}); err != nil {
		return err
	}
	cols, rows := gridShape(len(p.Entities))
	cellW := float64(designWidth) / float64(cols)
	cellH := float64(designHeight-300) / float64(rows)
	for i, e := range p.Entities {
		if i >= cols*rows {
			break
		}
		x := float64(i%cols) * cellW
		y := 250 + float64(i/cols)*cellH
		brand := brandColor(e)
		if err := c.textAt(displayName(e), x+20, y, textSpec{size: 30, weight: bold, color: brand}); err != nil {
			return err
		}
		box := c.rect(x+20, y+50, x+cellW-20, y+cellH-20)
		c.outline(box, c.x(3), brand)
		pastePreview(c, e, box)
	}
	prompt := "Which style do YOU prefer?"
	if p.Caption != "" {
		prompt = p.Caption
	}
	_, _, err := c.centered(prompt, designHeight-150, textSpec{size: 60, color: colorWhite})
	return err
}

func gridShape(n int) (cols, rows int) {
	switch {
	case n <= 2:
		return 1, 2
	case n <= 4:
		return 2, 2
	default:
		return 2, 3
	}
}

// pastePreview fills box with a shrunk screenshot, or a hint when the entity
// has none or it cannot be decoded. Grid cells never fail the whole card.
func pastePreview(c *canvas, e Entity, box image.Rectangle) {
	inner := box.Inset(max(2, c.x(6)))
	if strings.TrimSpace(e.Screenshot) != "" && inner.Dx() > 0 && inner.Dy() > 0 {
		if img, err := Decode(e.Screenshot); err == nil {
			thumb := Fit(img, inner.Dx(), inner.Dy())
			size := thumb.Bounds().Size()
			c.paste(thumb, image.Pt(inner.Min.X+(inner.Dx()-size.X)/2, inner.Min.Y+(inner.Dy()-size.Y)/2))
			return
		}
	}
	_ = c.drawText("[Preview]", box.Min.X+c.x(10), box.Min.Y+box.Dy()/2, textSpec{size: 30, color: colorHint})
}

// drawScreenshot is the per-entity battle frame: a name badge, the bordered
// screenshot, and a one-line description.
func drawScreenshot(c *canvas, p Params) error {
	e := p.Entity
	if err := drawTitleBadge(c, e, 80, 100, 200, 110, 30); err != nil {
		return err
	}
	if err := pasteScreenshot(c, e, designWidth*0.9, designHeight*0.6, 300, 5); err != nil {
		return err
	}
	desc := e.Vibe
	if desc == "" {
		desc = e.Brand.Tagline
	}
	if desc == "" {
		desc = "Unique approach"
	}
	_, _, err := c.centered(desc, designHeight-200, textSpec{size: 40, color: colorMuted})
	return err
}

func drawPlaceholder(c *canvas, p Params) error {
	heading := p.Title
	if heading == "" {
		heading = "[ Screenshot unavailable ]"
	}
	if _, _, err := c.centered(heading, designHeight/2-40, textSpec{size: 50, color: colorHint}); err != nil {
		return err
	}
	if name := displayName(p.Entity); name != "" {
		if _, _, err := c.centered(name, designHeight/2+60, textSpec{size: 40, weight: bold, color: brandColor(p.Entity)}); err != nil {
			return err
		}
	}
	return nil
}
