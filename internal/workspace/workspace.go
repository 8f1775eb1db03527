package workspace

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"slidereel/internal/cards"
	"slidereel/internal/config"
	"slidereel/internal/fileutil"
	"slidereel/internal/logging"
	"slidereel/internal/render"
	"slidereel/internal/services"
	"slidereel/internal/textutil"
)

// State is the lifecycle position of a workspace.
type State string

const (
	StateEmpty  State = "EMPTY"
	StateLoaded State = "LOADED"
	StateDirty  State = "DIRTY"
)

const (
	sidecarName   = "workspace.json"
	framePrefix   = "frame_"
	frameExt      = ".png"
	dupPrefix     = "frame_dup_"
	lockName      = ".lock"
	stagingPrefix = ".extract-"
)

// Decoder samples a video into numbered image files.
type Decoder interface {
	ExtractFrames(ctx context.Context, videoPath, pattern string, fps float64) error
}

// Renderer encodes the workspace frames into a video.
type Renderer interface {
	Render(ctx context.Context, seq render.Sequence, durations render.DurationMap, outputPath string, opts ...render.RenderOption) (render.Artifact, error)
	Container() string
}

// Painter performs the pixel-level edits.
type Painter interface {
	WriteTextCard(ctx context.Context, dst string, lines []string) error
	DrawOverlay(ctx context.Context, path, text string, pos cards.Position) error
	Normalize(ctx context.Context, src, dst string) error
}

// Option configures a Workspace.
type Option func(*Workspace)

// WithLogger sets the workspace logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Workspace) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithClock overrides the time source used for sidecar timestamps and
// artifact names.
func WithClock(now func() time.Time) Option {
	return func(w *Workspace) {
		if now != nil {
			w.now = now
		}
	}
}

// sidecar is the persisted session record. Frames holds file names in
// playback order; it is the only ordering authority.
type sidecar struct {
	Project   string             `json:"project"`
	State     State              `json:"state"`
	Source    string             `json:"source,omitempty"`
	Frames    []string           `json:"frames"`
	Durations map[string]float64 `json:"durations,omitempty"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// Workspace is the edit session for one project. It is not safe for
// concurrent use, and nothing stops two processes editing the same directory;
// callers that need exclusion take the lock at LockPath.
type Workspace struct {
	project   string
	dir       string
	outputDir string
	sampleFPS float64

	decoder  Decoder
	renderer Renderer
	painter  Painter
	logger   *slog.Logger
	now      func() time.Time

	meta sidecar
}

// Open loads (or initializes) the workspace for project under the configured
// workspace directory.
func Open(cfg *config.Config, project string, decoder Decoder, renderer Renderer, painter Painter, opts ...Option) (*Workspace, error) {
	token := textutil.SanitizeToken(project)
	if strings.TrimSpace(project) == "" || token == "" {
		return nil, services.Wrap(services.ErrValidation, "edit", "open", "project name required", nil)
	}
	w := &Workspace{
		project:   project,
		dir:       cfg.WorkspacePath(token),
		outputDir: cfg.Paths.OutputDir,
		sampleFPS: cfg.Extract.SampleFPS,
		decoder:   decoder,
		renderer:  renderer,
		painter:   painter,
		logger:    logging.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create workspace %s: %w", w.dir, err)
	}
	if err := w.load(); err != nil {
		return nil, err
	}
	return w, nil
}

// LockPath returns the advisory lock file for a project's workspace.
func LockPath(cfg *config.Config, project string) string {
	return filepath.Join(cfg.WorkspacePath(textutil.SanitizeToken(project)), lockName)
}

// Project returns the project name.
func (w *Workspace) Project() string { return w.project }

// Dir returns the workspace directory.
func (w *Workspace) Dir() string { return w.dir }

// State returns the current lifecycle state.
func (w *Workspace) State() State { return w.meta.State }

// Source returns the video the frames were last extracted from.
func (w *Workspace) Source() string { return w.meta.Source }

// Len returns the number of frames.
func (w *Workspace) Len() int { return len(w.meta.Frames) }

// Frames returns the absolute frame paths in playback order.
func (w *Workspace) Frames() []string {
	out := make([]string, len(w.meta.Frames))
	for i, name := range w.meta.Frames {
		out[i] = filepath.Join(w.dir, name)
	}
	return out
}

// Durations returns a copy of the stored per-frame duration overrides.
func (w *Workspace) Durations() render.DurationMap {
	out := make(render.DurationMap, len(w.meta.Durations))
	for key, seconds := range w.meta.Durations {
		if idx, err := strconv.Atoi(key); err == nil {
			out[idx] = seconds
		}
	}
	return out
}

func (w *Workspace) load() error {
	data, err := os.ReadFile(filepath.Join(w.dir, sidecarName))
	switch {
	case err == nil:
		var meta sidecar
		jsonErr := json.Unmarshal(data, &meta)
		if jsonErr == nil {
			jsonErr = checkFrameNames(meta.Frames)
		}
		if jsonErr == nil {
			w.meta = meta
			w.meta.Project = w.project
			return nil
		}
		logging.WarnWithContext(w.logger, "workspace sidecar unreadable; rebuilding order from file names", "sidecar_invalid",
			logging.String("path", filepath.Join(w.dir, sidecarName)),
			logging.Error(jsonErr),
			logging.String(logging.FieldErrorHint, "re-extract the video if frames appear out of order"),
			logging.String(logging.FieldImpact, "stored duration overrides are discarded"),
		)
	case !errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("read workspace sidecar: %w", err)
	}

	names, err := w.scanFrameFiles()
	if err != nil {
		return err
	}
	w.meta = sidecar{Project: w.project, State: StateEmpty, Frames: names}
	if len(names) > 0 {
		w.meta.State = StateLoaded
	}
	return nil
}

// checkFrameNames rejects sidecar entries that are not plain frame file
// names inside the workspace directory.
func checkFrameNames(names []string) error {
	for _, name := range names {
		if filepath.Base(name) != name || !isFrameName(name) {
			return fmt.Errorf("frame entry %q is not a workspace frame file", name)
		}
	}
	return nil
}

func isFrameName(name string) bool {
	return strings.HasPrefix(name, framePrefix) && strings.HasSuffix(name, frameExt)
}

// scanFrameFiles lists frame images in file name order.
func (w *Workspace) scanFrameFiles() ([]string, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return nil, fmt.Errorf("list workspace: %w", err)
	}
	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !isFrameName(name) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (w *Workspace) save() error {
	w.meta.Project = w.project
	w.meta.UpdatedAt = w.now().UTC()
	if w.meta.Frames == nil {
		w.meta.Frames = []string{}
	}
	data, err := json.MarshalIndent(w.meta, "", "  ")
	if err != nil {
		return fmt.Errorf("encode workspace sidecar: %w", err)
	}
	if err := fileutil.WriteFileAtomic(filepath.Join(w.dir, sidecarName), append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write workspace sidecar: %w", err)
	}
	return nil
}

func (w *Workspace) checkIndex(op string, index int) error {
	if index < 0 || index >= len(w.meta.Frames) {
		return services.Wrap(services.ErrIndex, "edit", op,
			fmt.Sprintf("frame %d does not exist (workspace has %d frames)", index, len(w.meta.Frames)), nil)
	}
	return nil
}

func (w *Workspace) markDirty() {
	if w.meta.State != StateEmpty {
		w.meta.State = StateDirty
	}
}

func (w *Workspace) framePath(index int) string {
	return filepath.Join(w.dir, w.meta.Frames[index])
}

func frameName(index int) string {
	return fmt.Sprintf("%s%03d%s", framePrefix, index, frameExt)
}
