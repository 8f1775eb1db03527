package testsupport

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FakeFFmpeg is an in-process stand-in for the ffmpeg executable. It records
// every invocation and creates the files a real run would produce: a small
// placeholder for encode outputs and solid PNGs for frame extraction.
type FakeFFmpeg struct {
	mu sync.Mutex

	// Calls holds the argument list of every invocation in order.
	Calls [][]string
	// Fail returns a non-nil error to make an invocation fail. It is
	// consulted before any output is written.
	Fail func(args []string) error
	// ExtractCount is the number of frames written by extraction calls.
	ExtractCount int
	// FrameWidth and FrameHeight size the extracted frames (default 32x48).
	FrameWidth, FrameHeight int
	// OnRun observes each invocation after outputs are written.
	OnRun func(args []string)
}

// Run implements the ffmpeg executor contract.
func (f *FakeFFmpeg) Run(ctx context.Context, binary string, args []string, onLine func(string)) error {
	f.mu.Lock()
	f.Calls = append(f.Calls, append([]string(nil), args...))
	fail := f.Fail
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if fail != nil {
		if err := fail(args); err != nil {
			if onLine != nil {
				onLine(err.Error())
			}
			return err
		}
	}
	if len(args) == 0 {
		return errors.New("fake ffmpeg: no arguments")
	}
	output := args[len(args)-1]
	if strings.Contains(output, "%") {
		if err := f.writeExtracted(output); err != nil {
			return err
		}
	} else {
		if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(output, []byte("fake-video:"+strings.Join(args, " ")), 0o644); err != nil {
			return err
		}
	}
	if f.OnRun != nil {
		f.OnRun(args)
	}
	return nil
}

func (f *FakeFFmpeg) writeExtracted(pattern string) error {
	width, height := f.FrameWidth, f.FrameHeight
	if width <= 0 {
		width = 32
	}
	if height <= 0 {
		height = 48
	}
	for i := 1; i <= f.ExtractCount; i++ {
		shade := uint8(30 + (i*50)%200)
		if err := EncodePNG(fmt.Sprintf(pattern, i), width, height, color.RGBA{R: shade, G: shade, B: shade, A: 255}); err != nil {
			return err
		}
	}
	return nil
}

// CallCount returns the number of invocations so far.
func (f *FakeFFmpeg) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Calls)
}

// CallsContaining returns the invocations whose joined arguments contain substr.
func (f *FakeFFmpeg) CallsContaining(substr string) [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out [][]string
	for _, call := range f.Calls {
		if strings.Contains(strings.Join(call, " "), substr) {
			out = append(out, call)
		}
	}
	return out
}

// FailWhenContains returns a Fail hook that rejects invocations whose joined
// arguments contain substr.
func FailWhenContains(substr string, err error) func([]string) error {
	return func(args []string) error {
		if strings.Contains(strings.Join(args, " "), substr) {
			return err
		}
		return nil
	}
}
