package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	OutputDir    string `toml:"output_dir"`
	ScratchDir   string `toml:"scratch_dir"`
	WorkspaceDir string `toml:"workspace_dir"`
	StateDir     string `toml:"state_dir"`
	LogDir       string `toml:"log_dir"`
}

// Video describes the canvas and encoder output every render targets.
type Video struct {
	Width       int    `toml:"width"`
	Height      int    `toml:"height"`
	FPS         int    `toml:"fps"`
	Codec       string `toml:"codec"`
	Preset      string `toml:"preset"`
	CRF         int    `toml:"crf"`
	PixelFormat string `toml:"pixel_format"`
	Container   string `toml:"container"`
}

// Encoder contains external binary settings.
type Encoder struct {
	FFmpegBinary  string `toml:"ffmpeg_binary"`
	FFprobeBinary string `toml:"ffprobe_binary"`
	// TimeoutSeconds bounds a single render or extraction. Zero disables the
	// deadline and a hung encoder blocks until killed externally.
	TimeoutSeconds int  `toml:"timeout_seconds"`
	VerifyDuration bool `toml:"verify_duration"`
}

// Extract contains frame extraction settings.
type Extract struct {
	SampleFPS float64 `toml:"sample_fps"`
}

// Edit contains edit workspace settings.
type Edit struct {
	DefaultDuration float64 `toml:"default_duration"`
}

// Cards contains frame renderer settings.
type Cards struct {
	FontPath        string `toml:"font_path"`
	PlaceholderPath string `toml:"placeholder_path"`
	Background      string `toml:"background"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Brand is the styling applied to one compared entity.
type Brand struct {
	Color   string `toml:"color"`
	Tagline string `toml:"tagline"`
	Style   string `toml:"style"`
}

// Config encapsulates all configuration values for slidereel.
//
// Configuration sections by subsystem:
//   - Paths: output, scratch, workspace, state, and log directories
//   - Video: canvas resolution and encoder output format
//   - Encoder: ffmpeg/ffprobe binaries and the optional render deadline
//   - Extract: preview sampling rate for frame extraction
//   - Edit: default per-frame duration for rebuilds
//   - Cards: font and placeholder used by the frame renderer
//   - Logging: log format and level
//   - Branding: per-entity colors and taglines keyed by entity name
type Config struct {
	Paths    Paths            `toml:"paths"`
	Video    Video            `toml:"video"`
	Encoder  Encoder          `toml:"encoder"`
	Extract  Extract          `toml:"extract"`
	Edit     Edit             `toml:"edit"`
	Cards    Cards            `toml:"cards"`
	Logging  Logging          `toml:"logging"`
	Branding map[string]Brand `toml:"branding"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/slidereel/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath("~/.config/slidereel/config.toml")
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("slidereel.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories every command relies on.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.OutputDir, c.Paths.ScratchDir, c.Paths.WorkspaceDir, c.Paths.StateDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// WorkspacePath returns the edit workspace directory for a project.
func (c *Config) WorkspacePath(project string) string {
	return filepath.Join(c.Paths.WorkspaceDir, project)
}

// HistoryPath returns the location of the render history database.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.Paths.StateDir, "history.db")
}

// RenderTimeout returns the configured render deadline, or zero when disabled.
func (c *Config) RenderTimeout() time.Duration {
	if c.Encoder.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.Encoder.TimeoutSeconds) * time.Second
}

// FFmpegBinary returns the ffmpeg executable used for encoding and extraction.
func (c *Config) FFmpegBinary() string {
	if strings.TrimSpace(c.Encoder.FFmpegBinary) == "" {
		return defaultFFmpegBinary
	}
	return c.Encoder.FFmpegBinary
}

// FFprobeBinary returns the ffprobe executable name used for artifact verification.
func (c *Config) FFprobeBinary() string {
	if strings.TrimSpace(c.Encoder.FFprobeBinary) == "" {
		return defaultFFprobeBinary
	}
	return c.Encoder.FFprobeBinary
}

// BrandFor returns the branding for an entity, matched case-insensitively.
func (c *Config) BrandFor(name string) (Brand, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	brand, ok := c.Branding[key]
	return brand, ok
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
