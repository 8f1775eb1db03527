package cards

import (
	"context"
	"fmt"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"slidereel/internal/config"
	"slidereel/internal/logging"
	"slidereel/internal/services"
)

// Kind selects a card layout.
type Kind string

const (
	KindText           Kind = "text"
	KindReveal         Kind = "reveal"
	KindDramaticReveal Kind = "dramatic_reveal"
	KindScoring        Kind = "scoring"
	KindEquation       Kind = "equation"
	KindWinner         Kind = "winner"
	KindSplit          Kind = "split"
	KindGrid           Kind = "grid"
	KindScreenshot     Kind = "screenshot"
	KindPlaceholder    Kind = "placeholder"
)

// TextStyle selects the typography of a text card.
type TextStyle string

const (
	StyleDefault  TextStyle = "default"
	StyleDramatic TextStyle = "dramatic"
	StyleSuspense TextStyle = "suspense"
	StyleCTA      TextStyle = "cta"
	// StyleBanner centres the block vertically on the canvas.
	StyleBanner TextStyle = "banner"
)

// Score is one rated category on a scoring card.
type Score struct {
	Category string
	Value    int
}

// Entity is one compared subject (typically a model) shown on a card.
type Entity struct {
	Name       string
	Screenshot string
	Vibe       string
	Reaction   string
	Scores     []Score
	Brand      config.Brand
}

// Params carries the content of a single card. Each kind reads only the
// fields it needs.
type Params struct {
	Style    TextStyle
	Lines    []string
	Title    string
	Caption  string
	Equation string
	Entity   Entity
	Entities []Entity
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithLogger sets the renderer logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Renderer draws cards onto the configured canvas. It is safe for concurrent
// use; drawing is serialized.
type Renderer struct {
	mu         sync.Mutex
	width      int
	height     int
	background color.NRGBA
	fonts      *fontSet
	dir        string
	logger     *slog.Logger
}

// New builds a Renderer that writes cards into dir, creating it if needed.
func New(cfg *config.Config, dir string, opts ...Option) (*Renderer, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "cards", "init", "configuration required", nil)
	}
	bg, err := parseHex(cfg.Cards.Background)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "cards", "init", "background colour", err)
	}
	fonts, err := loadFonts(cfg.Cards.FontPath)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "cards", "init", "load fonts", err)
	}
	if strings.TrimSpace(dir) != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, services.Wrap(services.ErrImage, "cards", "init", "create card directory", err)
		}
	}
	r := &Renderer{
		width:      cfg.Video.Width,
		height:     cfg.Video.Height,
		background: bg,
		fonts:      fonts,
		dir:        dir,
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Close releases cached font faces.
func (r *Renderer) Close() error {
	return r.fonts.close()
}

// Dir returns the directory new cards are written into.
func (r *Renderer) Dir() string {
	return r.dir
}

// RenderFrame draws one card and returns the path of the written PNG.
func (r *Renderer) RenderFrame(ctx context.Context, kind Kind, params Params) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if strings.TrimSpace(r.dir) == "" {
		return "", services.Wrap(services.ErrConfiguration, "cards", "render", "no card directory configured", nil)
	}
	draw, ok := layouts[kind]
	if !ok {
		return "", services.Wrap(services.ErrValidation, "cards", "render", fmt.Sprintf("unknown card kind %q", kind), nil)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	c := newCanvas(r.width, r.height, r.background, r.fonts)
	if err := draw(c, params); err != nil {
		return "", services.Wrap(services.ErrImage, "cards", string(kind), "draw card", err)
	}
	path := filepath.Join(r.dir, fmt.Sprintf("%s-%s.png", kind, uuid.NewString()))
	if err := c.save(path); err != nil {
		return "", services.Wrap(services.ErrImage, "cards", string(kind), "write card", err)
	}
	r.logger.Debug("card rendered",
		logging.String("kind", string(kind)),
		logging.String("path", path),
	)
	return path, nil
}
