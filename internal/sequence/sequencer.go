package sequence

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"slidereel/internal/cards"
	"slidereel/internal/logging"
	"slidereel/internal/render"
	"slidereel/internal/services"
)

// FrameRenderer produces one frame image for a card description.
type FrameRenderer interface {
	RenderFrame(ctx context.Context, kind cards.Kind, params cards.Params) (string, error)
}

// Option configures a Sequencer.
type Option func(*Sequencer)

// WithLogger sets the sequencer logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Sequencer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithPlaceholder uses an existing image as the placeholder frame instead of
// rendering one.
func WithPlaceholder(path string) Option {
	return func(s *Sequencer) {
		s.placeholder = strings.TrimSpace(path)
	}
}

// Sequencer expands storylines into frame sequences.
type Sequencer struct {
	renderer    FrameRenderer
	branding    Branding
	placeholder string
	reactions   map[string]string
	scores      map[string]map[string]int
	logger      *slog.Logger
}

// New constructs a Sequencer. Branding is copied; later changes to the
// caller's map do not affect it.
func New(renderer FrameRenderer, branding Branding, opts ...Option) *Sequencer {
	owned := make(Branding, len(branding))
	for name, brand := range branding {
		owned[normalizeName(name)] = brand
	}
	s := &Sequencer{
		renderer:  renderer,
		branding:  owned,
		reactions: defaultReactions(),
		scores:    defaultScores(),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Build renders every segment of the storyline and returns the frames with
// their durations. Indices of the duration map align with the sequence.
//
// Per-item segments degrade to a placeholder frame when there are no items,
// an item has no name, or its card fails to render. Any other card failure
// aborts the build.
func (s *Sequencer) Build(ctx context.Context, storylineID string, content Content) (render.Sequence, render.DurationMap, error) {
	ctx = services.WithStage(ctx, "sequence")
	ctx = services.WithProject(ctx, content.Project)
	logger := logging.WithContext(ctx, s.logger)

	story, ok := storylines[strings.ToLower(strings.TrimSpace(storylineID))]
	if !ok {
		return nil, nil, services.Wrap(services.ErrValidation, "sequence", "build",
			fmt.Sprintf("unknown storyline %q (known: %s)", storylineID, strings.Join(Storylines(), ", ")), nil)
	}
	if s.renderer == nil {
		return nil, nil, services.Wrap(services.ErrConfiguration, "sequence", "build", "frame renderer required", nil)
	}

	b := &builder{seq: render.Sequence{}, durations: render.DurationMap{}}
	for _, seg := range story.segments {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		if seg.perItem == nil {
			kind, params := seg.frame(s, content)
			path, err := s.renderer.RenderFrame(ctx, kind, params)
			if err != nil {
				return nil, nil, fmt.Errorf("sequence: %s segment: %w", seg.name, err)
			}
			b.add(path, seg.duration)
			continue
		}

		if len(content.Items) == 0 {
			path, err := s.placeholderFrame(ctx, logger, b, seg, Item{}, "no content items")
			if err != nil {
				return nil, nil, err
			}
			b.add(path, seg.duration)
			continue
		}
		for _, item := range content.Items {
			path, err := s.itemFrame(ctx, logger, b, seg, content, item)
			if err != nil {
				return nil, nil, err
			}
			b.add(path, seg.duration)
		}
	}

	logger.Info("sequence built",
		logging.String(logging.FieldStoryline, story.id),
		logging.Int(logging.FieldFrameCount, len(b.seq)),
		logging.Float64("total_seconds", b.total),
		logging.Int("placeholders", b.placeholders),
		logging.String(logging.FieldEventType, "sequence_built"),
	)
	return b.seq, b.durations, nil
}

func (s *Sequencer) itemFrame(ctx context.Context, logger *slog.Logger, b *builder, seg segment, content Content, item Item) (string, error) {
	if strings.TrimSpace(item.Name) == "" {
		return s.placeholderFrame(ctx, logger, b, seg, item, "item has no name")
	}
	kind, params := seg.perItem(s, content, item)
	path, err := s.renderer.RenderFrame(ctx, kind, params)
	if err == nil {
		return path, nil
	}
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	return s.placeholderFrame(ctx, logger, b, seg, item, err.Error())
}

// placeholderFrame returns the configured placeholder, or renders one the
// first time it is needed within a build.
func (s *Sequencer) placeholderFrame(ctx context.Context, logger *slog.Logger, b *builder, seg segment, item Item, reason string) (string, error) {
	logging.WarnWithContext(logger, "substituting placeholder frame", "placeholder_substituted",
		logging.String("segment", seg.name),
		logging.String("item", describe(item)),
		logging.Int(logging.FieldFrameIndex, len(b.seq)),
		logging.String("reason", reason),
		logging.String(logging.FieldErrorHint, "check the content file entry and its screenshot"),
		logging.String(logging.FieldImpact, "video is produced with a placeholder slide"),
	)
	b.placeholders++

	if s.placeholder != "" {
		if _, err := os.Stat(s.placeholder); err == nil {
			return s.placeholder, nil
		}
		logger.Debug("configured placeholder missing; rendering one", logging.String("path", s.placeholder))
	}
	if b.placeholderPath != "" {
		return b.placeholderPath, nil
	}
	path, err := s.renderer.RenderFrame(ctx, cards.KindPlaceholder, cards.Params{})
	if err != nil {
		return "", fmt.Errorf("sequence: placeholder for %s segment: %w", seg.name, err)
	}
	b.placeholderPath = path
	return path, nil
}

func (s *Sequencer) entity(item Item) cards.Entity {
	return cards.Entity{
		Name:       strings.TrimSpace(item.Name),
		Screenshot: item.Screenshot,
		Vibe:       item.Vibe,
		Reaction:   item.Reaction,
		Brand:      s.branding.Lookup(item.Name),
	}
}

func (s *Sequencer) entities(items []Item) []cards.Entity {
	out := make([]cards.Entity, 0, len(items))
	for _, item := range items {
		if strings.TrimSpace(item.Name) == "" {
			continue
		}
		out = append(out, s.entity(item))
	}
	return out
}

type builder struct {
	seq             render.Sequence
	durations       render.DurationMap
	total           float64
	placeholders    int
	placeholderPath string
}

func (b *builder) add(path string, seconds float64) {
	b.durations[len(b.seq)] = seconds
	b.seq = append(b.seq, path)
	b.total += seconds
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
