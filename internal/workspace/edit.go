package workspace

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/google/uuid"

	"slidereel/internal/cards"
	"slidereel/internal/fileutil"
	"slidereel/internal/logging"
	"slidereel/internal/render"
)

// EditText redraws frame index as a plain text card with the given lines.
func (w *Workspace) EditText(ctx context.Context, index int, lines []string) (string, error) {
	if err := w.checkIndex("edit text", index); err != nil {
		return "", err
	}
	path := w.framePath(index)
	if err := w.painter.WriteTextCard(ctx, path, lines); err != nil {
		return "", err
	}
	w.markDirty()
	if err := w.save(); err != nil {
		return "", err
	}
	w.logEdit("text", index)
	return path, nil
}

// RemoveFrame deletes frame index and renumbers the remainder, keeping their
// relative order. Duration overrides follow their frames.
func (w *Workspace) RemoveFrame(ctx context.Context, index int) error {
	if err := w.checkIndex("remove", index); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(w.framePath(index)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove frame %d: %w", index, err)
	}
	w.meta.Frames = slices.Delete(w.meta.Frames, index, index+1)
	w.meta.Durations = shiftDurations(w.meta.Durations, func(i int) (int, bool) {
		switch {
		case i < index:
			return i, true
		case i == index:
			return 0, false
		default:
			return i - 1, true
		}
	})
	if err := w.renumber(); err != nil {
		return err
	}
	w.markDirty()
	if err := w.save(); err != nil {
		return err
	}
	w.logEdit("remove", index)
	return nil
}

// DuplicateFrame copies frame index byte for byte and inserts the copy right
// after it. It returns the duplicate's path after renumbering.
func (w *Workspace) DuplicateFrame(ctx context.Context, index int) (string, error) {
	if err := w.checkIndex("duplicate", index); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	dupName := dupPrefix + uuid.NewString() + frameExt
	if err := fileutil.CopyFileVerified(w.framePath(index), filepath.Join(w.dir, dupName)); err != nil {
		return "", fmt.Errorf("duplicate frame %d: %w", index, err)
	}
	w.meta.Frames = slices.Insert(w.meta.Frames, index+1, dupName)

	inherited, hasOverride := w.meta.Durations[strconv.Itoa(index)]
	w.meta.Durations = shiftDurations(w.meta.Durations, func(i int) (int, bool) {
		if i <= index {
			return i, true
		}
		return i + 1, true
	})
	if hasOverride {
		w.meta.Durations[strconv.Itoa(index+1)] = inherited
	}
	if err := w.renumber(); err != nil {
		return "", err
	}
	w.markDirty()
	if err := w.save(); err != nil {
		return "", err
	}
	w.logEdit("duplicate", index)
	return w.framePath(index + 1), nil
}

// ReplaceFrame overwrites frame index with imagePath resized to the canvas.
// An undecodable image leaves the frame untouched.
func (w *Workspace) ReplaceFrame(ctx context.Context, index int, imagePath string) error {
	if err := w.checkIndex("replace", index); err != nil {
		return err
	}
	if err := w.painter.Normalize(ctx, imagePath, w.framePath(index)); err != nil {
		return err
	}
	w.markDirty()
	if err := w.save(); err != nil {
		return err
	}
	w.logEdit("replace", index)
	return nil
}

// AddOverlay burns a caption box into frame index. The pixels beneath the
// box are lost.
func (w *Workspace) AddOverlay(ctx context.Context, index int, text string, pos cards.Position) error {
	if err := w.checkIndex("overlay", index); err != nil {
		return err
	}
	if err := w.painter.DrawOverlay(ctx, w.framePath(index), text, pos); err != nil {
		return err
	}
	w.markDirty()
	if err := w.save(); err != nil {
		return err
	}
	w.logEdit("overlay", index)
	return nil
}

// SetDurations stores overrides for the next rebuild. They are validated
// against the frame count only when rendering.
func (w *Workspace) SetDurations(durations render.DurationMap) error {
	stored := make(map[string]float64, len(durations))
	for idx, seconds := range durations {
		stored[strconv.Itoa(idx)] = seconds
	}
	w.meta.Durations = stored
	w.markDirty()
	return w.save()
}

// renumber renames frames to frame_000.png... in list order. Names are moved
// through temporary files first so a rename never lands on a frame that has
// not been moved yet.
func (w *Workspace) renumber() error {
	type move struct{ from, tmp, to string }
	var moves []move
	for i, name := range w.meta.Frames {
		target := frameName(i)
		if name == target {
			continue
		}
		moves = append(moves, move{from: name, tmp: fmt.Sprintf(".renumber-%03d.tmp", i), to: target})
	}
	for _, m := range moves {
		if err := os.Rename(filepath.Join(w.dir, m.from), filepath.Join(w.dir, m.tmp)); err != nil {
			return fmt.Errorf("renumber %s: %w", m.from, err)
		}
	}
	for _, m := range moves {
		if err := os.Rename(filepath.Join(w.dir, m.tmp), filepath.Join(w.dir, m.to)); err != nil {
			return fmt.Errorf("renumber %s: %w", m.to, err)
		}
	}
	for i := range w.meta.Frames {
		w.meta.Frames[i] = frameName(i)
	}
	return nil
}

// shiftDurations re-keys overrides; remap returns the new index or false to
// drop the entry. Keys that are not integers are dropped.
func shiftDurations(durations map[string]float64, remap func(int) (int, bool)) map[string]float64 {
	out := make(map[string]float64, len(durations))
	for key, seconds := range durations {
		idx, err := strconv.Atoi(key)
		if err != nil {
			continue
		}
		if next, keep := remap(idx); keep {
			out[strconv.Itoa(next)] = seconds
		}
	}
	return out
}

func (w *Workspace) logEdit(op string, index int) {
	w.logger.Info("frame edited",
		logging.String("operation", op),
		logging.Int(logging.FieldFrameIndex, index),
		logging.Int(logging.FieldFrameCount, len(w.meta.Frames)),
		logging.String("state", string(w.meta.State)),
		logging.String(logging.FieldEventType, "frame_edited"),
	)
}
