package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"slidereel/internal/cards"
	"slidereel/internal/config"
	"slidereel/internal/history"
	"slidereel/internal/logging"
	"slidereel/internal/render"
	"slidereel/internal/sequence"
	"slidereel/internal/services"
	"slidereel/internal/staging"
	"slidereel/internal/workspace"
)

// Recorder persists rendered artifacts.
type Recorder interface {
	Record(ctx context.Context, entry history.Entry) (history.Entry, error)
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the pipeline logger. Collaborators get component loggers
// derived from it.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithClock overrides the time source used for artifact names.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

// WithRecorder records every artifact in the render history.
func WithRecorder(recorder Recorder) Option {
	return func(p *Pipeline) {
		p.recorder = recorder
	}
}

// Pipeline ties the sequencer, card renderer and video renderer together and
// records what they produce.
type Pipeline struct {
	cfg      *config.Config
	renderer *render.Renderer
	recorder Recorder
	logger   *slog.Logger
	now      func() time.Time
}

// New constructs a Pipeline around an encoder. Duration verification is
// enabled when the configuration asks for it.
func New(cfg *config.Config, encoder render.Encoder, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:    cfg,
		logger: logging.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	renderOpts := []render.Option{render.WithLogger(logging.NewComponentLogger(p.logger, "render"))}
	if cfg.Encoder.VerifyDuration {
		renderOpts = append(renderOpts, render.WithProber(render.FFprobeProber(cfg.FFprobeBinary())))
	}
	p.renderer = render.New(cfg, encoder, renderOpts...)
	return p
}

// Renderer exposes the video renderer, for opening edit workspaces.
func (p *Pipeline) Renderer() *render.Renderer {
	return p.renderer
}

// Result is a rendered artifact and its history entry. Entry.ID is zero when
// no recorder is configured or recording failed.
type Result struct {
	Artifact render.Artifact
	Entry    history.Entry
}

// ProduceRequest describes one storyline run.
type ProduceRequest struct {
	Storyline string
	Content   sequence.Content
	// OutputName replaces the timestamped artifact name when set.
	OutputName string
	Progress   func(done, total int)
}

// Produce renders the storyline's cards into scratch, encodes them into a new
// artifact and records it. Card frames are removed once the render succeeds;
// after a failure they are left in scratch for inspection until the next
// stale cleanup.
func (p *Pipeline) Produce(ctx context.Context, req ProduceRequest) (Result, error) {
	project := strings.TrimSpace(req.Content.Project)
	if project == "" {
		return Result{}, services.Wrap(services.ErrValidation, "produce", "validate", "project name required", nil)
	}
	ctx = services.WithStage(ctx, "produce")
	ctx = services.WithProject(ctx, project)
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()
	logger := logging.WithContext(ctx, p.logger)

	scratch, err := staging.Acquire(p.cfg.Paths.ScratchDir, "produce", logger)
	if err != nil {
		return Result{}, services.Wrap(services.ErrRender, "produce", "scratch", "acquire scratch directory", err)
	}
	keep := false
	defer func() {
		if !keep {
			scratch.Release()
		}
	}()

	painter, err := cards.New(p.cfg, scratch.Join("cards"), cards.WithLogger(logging.NewComponentLogger(p.logger, "cards")))
	if err != nil {
		return Result{}, err
	}
	defer func() {
		if err := painter.Close(); err != nil {
			logger.Debug("close card renderer", logging.Error(err))
		}
	}()

	sequencer := sequence.New(painter, sequence.Branding(p.cfg.Branding),
		sequence.WithPlaceholder(p.cfg.Cards.PlaceholderPath),
		sequence.WithLogger(logging.NewComponentLogger(p.logger, "sequence")),
	)
	seq, durations, err := sequencer.Build(ctx, req.Storyline, req.Content)
	if err != nil {
		return Result{}, err
	}

	output, err := p.outputPath(project, req.OutputName)
	if err != nil {
		return Result{}, err
	}
	artifact, err := p.renderer.Render(ctx, seq, durations, output,
		render.WithDisposable(ownedFrames(seq, painter.Dir())...),
		render.WithProgress(req.Progress),
	)
	if err != nil {
		keep = true
		logging.WarnWithContext(logger, "render failed; card frames kept for inspection", "produce_failed",
			logging.String("frames_dir", painter.Dir()),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "inspect the generated cards; scratch is reclaimed by stale cleanup"),
			logging.String(logging.FieldImpact, "no video produced"),
		)
		return Result{}, err
	}

	entry := p.record(ctx, logger, history.Entry{
		Project:   project,
		Source:    history.SourceProduce,
		Storyline: strings.ToLower(strings.TrimSpace(req.Storyline)),
	}, artifact)
	logger.Info("video produced",
		logging.String("output", artifact.Path),
		logging.String(logging.FieldStoryline, entry.Storyline),
		logging.String(logging.FieldStrategy, string(artifact.Strategy)),
		logging.Int(logging.FieldFrameCount, artifact.Frames),
		logging.Float64("expected_seconds", artifact.ExpectedSeconds),
		logging.String(logging.FieldEventType, "produce_complete"),
	)
	return Result{Artifact: artifact, Entry: entry}, nil
}

// RenderRequest encodes caller-supplied frames.
type RenderRequest struct {
	Project    string
	Frames     render.Sequence
	Durations  render.DurationMap
	OutputName string
	Progress   func(done, total int)
}

// Render encodes existing frames without touching them.
func (p *Pipeline) Render(ctx context.Context, req RenderRequest) (Result, error) {
	project := strings.TrimSpace(req.Project)
	if project == "" {
		project = "render"
	}
	ctx = services.WithProject(ctx, project)
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()
	logger := logging.WithContext(ctx, p.logger)

	output, err := p.outputPath(project, req.OutputName)
	if err != nil {
		return Result{}, err
	}
	artifact, err := p.renderer.Render(ctx, req.Frames, req.Durations, output, render.WithProgress(req.Progress))
	if err != nil {
		return Result{}, err
	}
	entry := p.record(ctx, logger, history.Entry{Project: project, Source: history.SourceRender}, artifact)
	return Result{Artifact: artifact, Entry: entry}, nil
}

// Rebuild re-encodes an edit workspace and records the artifact.
func (p *Pipeline) Rebuild(ctx context.Context, ws *workspace.Workspace, outputName string, durations render.DurationMap, progress func(done, total int)) (Result, error) {
	ctx = services.WithProject(ctx, ws.Project())
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()
	logger := logging.WithContext(ctx, p.logger)

	artifact, err := ws.Rebuild(ctx, outputName, durations, render.WithProgress(progress))
	if err != nil {
		return Result{}, err
	}
	entry := p.record(ctx, logger, history.Entry{Project: ws.Project(), Source: history.SourceRebuild}, artifact)
	return Result{Artifact: artifact, Entry: entry}, nil
}

func (p *Pipeline) outputPath(project, name string) (string, error) {
	if name = strings.TrimSpace(name); name == "" {
		name = project
	}
	path, err := render.ArtifactPath(p.cfg.Paths.OutputDir, name, p.renderer.Container(), p.now())
	if err != nil {
		return "", services.Wrap(services.ErrRender, "render", "output path", "choose artifact name", err)
	}
	return path, nil
}

// record stores the artifact. A history failure is logged and does not fail
// the render; the artifact is already on disk.
func (p *Pipeline) record(ctx context.Context, logger *slog.Logger, entry history.Entry, artifact render.Artifact) history.Entry {
	entry.Strategy = string(artifact.Strategy)
	entry.Path = artifact.Path
	entry.Frames = artifact.Frames
	entry.ExpectedSeconds = artifact.ExpectedSeconds
	entry.ProbedSeconds = artifact.ProbedSeconds
	entry.CreatedAt = p.now()
	if p.recorder == nil {
		return entry
	}
	recorded, err := p.recorder.Record(ctx, entry)
	if err != nil {
		logging.WarnWithContext(logger, "failed to record render history", "history_record_failed",
			logging.String("output", artifact.Path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, fmt.Sprintf("check %s", p.cfg.HistoryPath())),
			logging.String(logging.FieldImpact, "artifact missing from `slidereel history`"),
		)
		return entry
	}
	return recorded
}

func (p *Pipeline) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if timeout := p.cfg.RenderTimeout(); timeout > 0 {
		return context.WithTimeout(ctx, timeout)
	}
	return context.WithCancel(ctx)
}

// ownedFrames selects the frames generated under dir. A configured
// placeholder image lives elsewhere and is never deleted.
func ownedFrames(seq render.Sequence, dir string) []string {
	prefix := filepath.Clean(dir) + string(filepath.Separator)
	var owned []string
	for _, path := range seq {
		if strings.HasPrefix(filepath.Clean(path), prefix) {
			owned = append(owned, path)
		}
	}
	return owned
}
