package ffmpeg

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
)

// diagnosticLines bounds how much ffmpeg output a failure keeps.
const diagnosticLines = 12

// CommandError reports a failed ffmpeg invocation along with the last lines
// it printed.
type CommandError struct {
	Err  error
	Tail []string
}

func (e *CommandError) Error() string {
	if len(e.Tail) == 0 {
		return e.Err.Error()
	}
	return fmt.Sprintf("%v: %s", e.Err, e.Tail[len(e.Tail)-1])
}

func (e *CommandError) Unwrap() error { return e.Err }

// Diagnostic returns the captured ffmpeg output carried by err, or the error
// text when none was captured.
func Diagnostic(err error) string {
	if err == nil {
		return ""
	}
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) && len(cmdErr.Tail) > 0 {
		return strings.Join(cmdErr.Tail, "\n")
	}
	return err.Error()
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string, onLine func(string)) error {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return &CommandError{Err: fmt.Errorf("start command: %w", err)}
	}

	tail := newTailBuffer(diagnosticLines)
	var wg sync.WaitGroup
	var scanErr error
	var once sync.Once

	scan := func(r io.Reader) {
		defer wg.Done()
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			line := scanner.Text()
			tail.add(line)
			if onLine != nil {
				onLine(line)
			}
		}
		if err := scanner.Err(); err != nil {
			once.Do(func() {
				scanErr = err
			})
		}
	}

	wg.Add(2)
	go scan(stdout)
	go scan(stderr)
	wg.Wait()

	if scanErr != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return &CommandError{Err: fmt.Errorf("scan output: %w", scanErr), Tail: tail.lines()}
	}
	if err := cmd.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = fmt.Errorf("%w (%w)", err, ctxErr)
		}
		return &CommandError{Err: fmt.Errorf("wait command: %w", err), Tail: tail.lines()}
	}
	return nil
}

type tailBuffer struct {
	mu    sync.Mutex
	limit int
	buf   []string
}

func newTailBuffer(limit int) *tailBuffer {
	return &tailBuffer{limit: limit}
}

func (t *tailBuffer) add(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, line)
	if len(t.buf) > t.limit {
		t.buf = t.buf[len(t.buf)-t.limit:]
	}
}

func (t *tailBuffer) lines() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.buf...)
}
