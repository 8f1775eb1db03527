package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"slidereel/internal/logging"
)

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string, onLine func(string)) error
}

// Encoding describes the output stream every encode targets.
type Encoding struct {
	Width       int
	Height      int
	FPS         int
	Codec       string
	Preset      string
	CRF         int
	PixelFormat string
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// WithLogger routes ffmpeg output lines to the supplied logger at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Client wraps ffmpeg CLI interactions.
type Client struct {
	binary string
	exec   Executor
	logger *slog.Logger
}

// New constructs an ffmpeg client.
func New(binary string, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("ffmpeg binary required")
	}
	client := &Client{
		binary: binary,
		exec:   commandExecutor{},
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Binary returns the executable the client invokes.
func (c *Client) Binary() string {
	return c.binary
}

// ConcatImages encodes the stills listed in a concat manifest into a single
// video in one invocation.
func (c *Client) ConcatImages(ctx context.Context, manifestPath, outputPath string, enc Encoding) error {
	args := baseArgs()
	args = append(args, "-f", "concat", "-safe", "0", "-i", manifestPath)
	args = append(args, encodeArgs(enc)...)
	args = append(args, outputPath)
	if err := c.run(ctx, args); err != nil {
		return fmt.Errorf("ffmpeg concat images: %w", err)
	}
	return nil
}

// EncodeStill loops one image for the given number of seconds.
func (c *Client) EncodeStill(ctx context.Context, imagePath string, seconds float64, outputPath string, enc Encoding) error {
	if seconds <= 0 {
		return fmt.Errorf("ffmpeg encode still: duration must be positive, got %v", seconds)
	}
	args := baseArgs()
	args = append(args, "-loop", "1", "-i", imagePath, "-t", FormatSeconds(seconds))
	args = append(args, encodeArgs(enc)...)
	args = append(args, outputPath)
	if err := c.run(ctx, args); err != nil {
		return fmt.Errorf("ffmpeg encode still: %w", err)
	}
	return nil
}

// ConcatCopy joins already-encoded segments listed in a concat file without
// re-encoding.
func (c *Client) ConcatCopy(ctx context.Context, listPath, outputPath string) error {
	args := baseArgs()
	args = append(args, "-f", "concat", "-safe", "0", "-i", listPath, "-c", "copy", outputPath)
	if err := c.run(ctx, args); err != nil {
		return fmt.Errorf("ffmpeg concat copy: %w", err)
	}
	return nil
}

// ExtractFrames samples a video at fps frames per second into PNG files
// named by pattern (for example dir/extract_%05d.png).
func (c *Client) ExtractFrames(ctx context.Context, videoPath, pattern string, fps float64) error {
	if fps <= 0 {
		return fmt.Errorf("ffmpeg extract frames: sample rate must be positive, got %v", fps)
	}
	args := baseArgs()
	args = append(args, "-i", videoPath, "-vf", "fps="+FormatSeconds(fps), pattern)
	if err := c.run(ctx, args); err != nil {
		return fmt.Errorf("ffmpeg extract frames: %w", err)
	}
	return nil
}

func (c *Client) run(ctx context.Context, args []string) error {
	c.logger.Debug("ffmpeg command", logging.String("command", c.binary+" "+strings.Join(args, " ")))
	return c.exec.Run(ctx, c.binary, args, func(line string) {
		c.logger.Debug("ffmpeg output", logging.String("line", line))
	})
}

func baseArgs() []string {
	return []string{"-hide_banner", "-nostdin", "-loglevel", "error", "-y"}
}

func encodeArgs(enc Encoding) []string {
	filter := fmt.Sprintf("fps=%d,scale=%d:%d,setsar=1,format=%s", enc.FPS, enc.Width, enc.Height, enc.PixelFormat)
	return []string{
		"-vf", filter,
		"-c:v", enc.Codec,
		"-preset", enc.Preset,
		"-crf", strconv.Itoa(enc.CRF),
		"-pix_fmt", enc.PixelFormat,
		"-r", strconv.Itoa(enc.FPS),
	}
}

// FormatSeconds renders a duration in seconds without trailing zeros.
func FormatSeconds(seconds float64) string {
	return strconv.FormatFloat(seconds, 'f', -1, 64)
}
