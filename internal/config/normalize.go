package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeVideo()
	c.normalizeEncoder()
	if err := c.normalizeCards(); err != nil {
		return err
	}
	c.normalizeBranding()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.ScratchDir) == "" {
		c.Paths.ScratchDir = defaultScratchDir
	}
	if c.Paths.ScratchDir, err = expandPath(c.Paths.ScratchDir); err != nil {
		return fmt.Errorf("paths.scratch_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.WorkspaceDir) == "" {
		c.Paths.WorkspaceDir = defaultWorkspaceDir
	}
	if c.Paths.WorkspaceDir, err = expandPath(c.Paths.WorkspaceDir); err != nil {
		return fmt.Errorf("paths.workspace_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeVideo() {
	c.Video.Codec = strings.TrimSpace(c.Video.Codec)
	if c.Video.Codec == "" {
		c.Video.Codec = defaultCodec
	}
	c.Video.Preset = strings.ToLower(strings.TrimSpace(c.Video.Preset))
	if c.Video.Preset == "" {
		c.Video.Preset = defaultPreset
	}
	c.Video.PixelFormat = strings.ToLower(strings.TrimSpace(c.Video.PixelFormat))
	if c.Video.PixelFormat == "" {
		c.Video.PixelFormat = defaultPixelFormat
	}
	c.Video.Container = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(c.Video.Container)), ".")
	if c.Video.Container == "" {
		c.Video.Container = defaultContainer
	}
}

func (c *Config) normalizeEncoder() {
	c.Encoder.FFmpegBinary = strings.TrimSpace(c.Encoder.FFmpegBinary)
	if value, ok := os.LookupEnv("SLIDEREEL_FFMPEG"); ok && strings.TrimSpace(value) != "" {
		c.Encoder.FFmpegBinary = strings.TrimSpace(value)
	}
	if c.Encoder.FFmpegBinary == "" {
		c.Encoder.FFmpegBinary = defaultFFmpegBinary
	}
	c.Encoder.FFprobeBinary = strings.TrimSpace(c.Encoder.FFprobeBinary)
	if value, ok := os.LookupEnv("SLIDEREEL_FFPROBE"); ok && strings.TrimSpace(value) != "" {
		c.Encoder.FFprobeBinary = strings.TrimSpace(value)
	}
	if c.Encoder.FFprobeBinary == "" {
		c.Encoder.FFprobeBinary = defaultFFprobeBinary
	}
	if c.Encoder.TimeoutSeconds < 0 {
		c.Encoder.TimeoutSeconds = 0
	}
}

func (c *Config) normalizeCards() error {
	var err error
	if c.Cards.FontPath, err = expandPath(strings.TrimSpace(c.Cards.FontPath)); err != nil {
		return fmt.Errorf("cards.font_path: %w", err)
	}
	if c.Cards.PlaceholderPath, err = expandPath(strings.TrimSpace(c.Cards.PlaceholderPath)); err != nil {
		return fmt.Errorf("cards.placeholder_path: %w", err)
	}
	c.Cards.Background = strings.TrimSpace(c.Cards.Background)
	if c.Cards.Background == "" {
		c.Cards.Background = defaultCardBackground
	}
	return nil
}

// normalizeBranding lowercases entity keys so lookups are case-insensitive.
func (c *Config) normalizeBranding() {
	if len(c.Branding) == 0 {
		c.Branding = defaultBranding()
		return
	}
	normalized := make(map[string]Brand, len(c.Branding))
	for name, brand := range c.Branding {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			continue
		}
		brand.Color = strings.TrimSpace(brand.Color)
		brand.Tagline = strings.TrimSpace(brand.Tagline)
		brand.Style = strings.TrimSpace(brand.Style)
		normalized[key] = brand
	}
	c.Branding = normalized
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
