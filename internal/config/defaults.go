package config

const (
	defaultOutputDir       = "output"
	defaultScratchDir      = "~/.cache/slidereel/scratch"
	defaultWorkspaceDir    = "~/.local/share/slidereel/edits"
	defaultStateDir        = "~/.local/share/slidereel"
	defaultLogDir          = "~/.local/share/slidereel/logs"
	defaultWidth           = 1080
	defaultHeight          = 1920
	defaultFPS             = 30
	defaultCodec           = "libx264"
	defaultPreset          = "fast"
	defaultCRF             = 23
	defaultPixelFormat     = "yuv420p"
	defaultContainer       = "mp4"
	defaultFFmpegBinary    = "ffmpeg"
	defaultFFprobeBinary   = "ffprobe"
	defaultSampleFPS       = 1.0
	defaultFrameDuration   = 2.0
	defaultCardBackground  = "#0a0a0a"
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
	defaultLogRetention    = 14
	defaultEncoderDeadline = 0
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir:    defaultOutputDir,
			ScratchDir:   defaultScratchDir,
			WorkspaceDir: defaultWorkspaceDir,
			StateDir:     defaultStateDir,
			LogDir:       defaultLogDir,
		},
		Video: Video{
			Width:       defaultWidth,
			Height:      defaultHeight,
			FPS:         defaultFPS,
			Codec:       defaultCodec,
			Preset:      defaultPreset,
			CRF:         defaultCRF,
			PixelFormat: defaultPixelFormat,
			Container:   defaultContainer,
		},
		Encoder: Encoder{
			FFmpegBinary:   defaultFFmpegBinary,
			FFprobeBinary:  defaultFFprobeBinary,
			TimeoutSeconds: defaultEncoderDeadline,
			VerifyDuration: true,
		},
		Extract: Extract{
			SampleFPS: defaultSampleFPS,
		},
		Edit: Edit{
			DefaultDuration: defaultFrameDuration,
		},
		Cards: Cards{
			Background: defaultCardBackground,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetention,
		},
		Branding: defaultBranding(),
	}
}

func defaultBranding() map[string]Brand {
	return map[string]Brand{
		"claude": {Color: "#6B46C1", Tagline: "Dark mode enthusiast", Style: "Sophisticated"},
		"gpt4":   {Color: "#10A37F", Tagline: "Minimalist master", Style: "Clean"},
		"gemini": {Color: "#4285F4", Tagline: "Color lover", Style: "Playful"},
		"llama":  {Color: "#FF6B6B", Tagline: "Open source hero", Style: "Practical"},
	}
}
