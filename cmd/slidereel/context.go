package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"slidereel/internal/cards"
	"slidereel/internal/config"
	"slidereel/internal/history"
	"slidereel/internal/logging"
	"slidereel/internal/pipeline"
	"slidereel/internal/services"
	"slidereel/internal/services/ffmpeg"
	"slidereel/internal/staging"
	"slidereel/internal/textutil"
	"slidereel/internal/workspace"
)

// staleScratchAge is how old a scratch directory must be before startup
// cleanup reclaims it. Failed produce runs leave their cards behind for
// inspection until then.
const staleScratchAge = 24 * time.Hour

type commandContext struct {
	configFlag *string
	jsonFlag   *bool

	// executor replaces the ffmpeg process runner when set.
	executor ffmpeg.Executor

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string, jsonFlag *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		jsonFlag:   jsonFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = services.Wrap(services.ErrConfiguration, "config", "load", "invalid configuration", err)
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = services.Wrap(services.ErrConfiguration, "config", "directories", "create configured directories", err)
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// ensureLogger builds the process logger once and runs startup housekeeping:
// old daily logs are pruned and abandoned scratch directories are removed.
func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		if c.logger != nil {
			return
		}
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			c.loggerErr = services.Wrap(services.ErrConfiguration, "config", "logging", "build logger", err)
			return
		}
		c.logger = logger
		logging.PruneLogs(logger, cfg.Paths.LogDir, cfg.Logging.RetentionDays, time.Now())
		staging.CleanStale(context.Background(), cfg.Paths.ScratchDir, staleScratchAge, logging.NewComponentLogger(logger, "staging"))
	})
	if c.logger == nil && c.loggerErr == nil {
		return logging.NewNop(), nil
	}
	return c.logger, c.loggerErr
}

func (c *commandContext) JSONMode() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

func (c *commandContext) ffmpegClient() (*ffmpeg.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	opts := []ffmpeg.Option{ffmpeg.WithLogger(logging.NewComponentLogger(logger, "ffmpeg"))}
	if c.executor != nil {
		opts = append(opts, ffmpeg.WithExecutor(c.executor))
	}
	client, err := ffmpeg.New(cfg.FFmpegBinary(), opts...)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "config", "ffmpeg", "configure encoder", err)
	}
	return client, nil
}

// withPipeline opens the history ledger and hands a recording pipeline to fn.
func (c *commandContext) withPipeline(fn func(*pipeline.Pipeline, *ffmpeg.Client) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return err
	}
	client, err := c.ffmpegClient()
	if err != nil {
		return err
	}
	return c.withHistory(func(store *history.Store) error {
		p := pipeline.New(cfg, client,
			pipeline.WithRecorder(store),
			pipeline.WithLogger(logging.NewComponentLogger(logger, "pipeline")),
		)
		return fn(p, client)
	})
}

func (c *commandContext) withHistory(fn func(*history.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := history.Open(cfg)
	if err != nil {
		return fmt.Errorf("open render history: %w", err)
	}
	defer store.Close()
	return fn(store)
}

// workspaceSession is an opened edit workspace plus what the edit commands
// need around it.
type workspaceSession struct {
	ws       *workspace.Workspace
	pipeline *pipeline.Pipeline
}

// withWorkspace opens the project's edit workspace. Mutating commands take
// the workspace lock first and fail fast when another process holds it.
func (c *commandContext) withWorkspace(project string, mutate bool, fn func(*workspaceSession) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return err
	}
	project = strings.TrimSpace(project)
	if project == "" {
		return services.Wrap(services.ErrValidation, "edit", "open", "--project is required", nil)
	}

	if mutate {
		lockPath := workspace.LockPath(cfg, project)
		if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
			return fmt.Errorf("create workspace directory: %w", err)
		}
		lock := flock.New(lockPath)
		ok, err := lock.TryLock()
		if err != nil {
			return fmt.Errorf("acquire workspace lock: %w", err)
		}
		if !ok {
			return services.Wrap(services.ErrValidation, "edit", "lock",
				fmt.Sprintf("workspace %q is being edited by another slidereel process", project), nil)
		}
		defer func() {
			if err := lock.Unlock(); err != nil {
				logger.Warn("failed to release workspace lock",
					logging.String("lock", lockPath),
					logging.Error(err),
					logging.String(logging.FieldEventType, "workspace_unlock_failed"),
				)
			}
		}()
	}

	return c.withPipeline(func(p *pipeline.Pipeline, client *ffmpeg.Client) error {
		painter, err := cards.New(cfg, cfg.WorkspacePath(textutil.SanitizeToken(project)),
			cards.WithLogger(logging.NewComponentLogger(logger, "cards")))
		if err != nil {
			return err
		}
		defer painter.Close()
		ws, err := workspace.Open(cfg, project, client, p.Renderer(), painter,
			workspace.WithLogger(logging.NewComponentLogger(logger, "workspace")))
		if err != nil {
			return err
		}
		return fn(&workspaceSession{ws: ws, pipeline: p})
	})
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
