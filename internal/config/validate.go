package config

import (
	"errors"
	"fmt"
	"regexp"
)

var hexColorPattern = regexp.MustCompile(`^#(?:[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateVideo(); err != nil {
		return err
	}
	if err := c.validateExtract(); err != nil {
		return err
	}
	if err := c.validateEdit(); err != nil {
		return err
	}
	if err := c.validateCards(); err != nil {
		return err
	}
	if err := c.validateBranding(); err != nil {
		return err
	}
	if c.Logging.RetentionDays < 0 {
		return errors.New("logging.retention_days must be >= 0")
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.OutputDir == "" {
		return errors.New("paths.output_dir must be set")
	}
	if c.Paths.ScratchDir == "" {
		return errors.New("paths.scratch_dir must be set")
	}
	if c.Paths.WorkspaceDir == "" {
		return errors.New("paths.workspace_dir must be set")
	}
	if c.Paths.ScratchDir == c.Paths.WorkspaceDir {
		return errors.New("paths.scratch_dir must differ from paths.workspace_dir (scratch is purged after each render)")
	}
	return nil
}

func (c *Config) validateVideo() error {
	if err := ensurePositiveMap(map[string]int{
		"video.width":  c.Video.Width,
		"video.height": c.Video.Height,
		"video.fps":    c.Video.FPS,
	}); err != nil {
		return err
	}
	if c.Video.Width%2 != 0 || c.Video.Height%2 != 0 {
		return errors.New("video.width and video.height must be even for yuv420p output")
	}
	if c.Video.CRF < 0 || c.Video.CRF > 51 {
		return errors.New("video.crf must be between 0 and 51")
	}
	return nil
}

func (c *Config) validateExtract() error {
	if c.Extract.SampleFPS <= 0 {
		return errors.New("extract.sample_fps must be positive")
	}
	return nil
}

func (c *Config) validateEdit() error {
	if c.Edit.DefaultDuration <= 0 {
		return errors.New("edit.default_duration must be positive (seconds)")
	}
	return nil
}

func (c *Config) validateCards() error {
	if !hexColorPattern.MatchString(c.Cards.Background) {
		return fmt.Errorf("cards.background %q must be a #RRGGBB color", c.Cards.Background)
	}
	return nil
}

func (c *Config) validateBranding() error {
	for name, brand := range c.Branding {
		if brand.Color != "" && !hexColorPattern.MatchString(brand.Color) {
			return fmt.Errorf("branding.%s.color %q must be a #RRGGBB color", name, brand.Color)
		}
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
