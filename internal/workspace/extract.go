package workspace

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"slidereel/internal/logging"
	"slidereel/internal/services"
)

const extractPattern = "extract_%05d.png"

// Extract replaces the workspace contents with frames sampled from
// videoPath at the configured preview rate and returns them in order.
//
// Frames are decoded into a staging directory first; the previous session
// is only discarded once decoding produced at least one frame.
func (w *Workspace) Extract(ctx context.Context, videoPath string) ([]string, error) {
	ctx = services.WithStage(ctx, "extract")
	ctx = services.WithProject(ctx, w.project)
	logger := logging.WithContext(ctx, w.logger)

	source, err := filepath.Abs(strings.TrimSpace(videoPath))
	if err != nil || strings.TrimSpace(videoPath) == "" {
		return nil, services.Wrap(services.ErrExtraction, "extract", "resolve source", videoPath, err)
	}
	info, err := os.Stat(source)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			err = fmt.Errorf("%w: %s", services.ErrNotFound, source)
		}
		return nil, services.Wrap(services.ErrExtraction, "extract", "stat source", "source video unavailable", err)
	}
	if info.IsDir() {
		return nil, services.Wrap(services.ErrExtraction, "extract", "stat source", fmt.Sprintf("%s is a directory", source), nil)
	}

	staging, err := os.MkdirTemp(w.dir, stagingPrefix)
	if err != nil {
		return nil, services.Wrap(services.ErrExtraction, "extract", "staging", "create staging directory", err)
	}
	defer func() {
		if err := os.RemoveAll(staging); err != nil {
			logger.Debug("extract staging cleanup failed", logging.String("path", staging), logging.Error(err))
		}
	}()

	if err := w.decoder.ExtractFrames(ctx, source, filepath.Join(staging, extractPattern), w.sampleFPS); err != nil {
		return nil, services.Wrap(services.ErrExtraction, "extract", "decode", "decoder failed", err)
	}
	decoded, err := listImages(staging)
	if err != nil {
		return nil, services.Wrap(services.ErrExtraction, "extract", "collect", "list decoded frames", err)
	}
	if len(decoded) == 0 {
		return nil, services.Wrap(services.ErrExtraction, "extract", "collect", "decoder produced no frames", nil)
	}

	if err := w.clearFrames(); err != nil {
		return nil, services.Wrap(services.ErrExtraction, "extract", "clear", "remove previous frames", err)
	}
	names := make([]string, len(decoded))
	for i, name := range decoded {
		names[i] = frameName(i)
		if err := os.Rename(filepath.Join(staging, name), filepath.Join(w.dir, names[i])); err != nil {
			return nil, services.Wrap(services.ErrExtraction, "extract", "collect", "move decoded frame", err)
		}
	}

	w.meta = sidecar{
		Project: w.project,
		State:   StateLoaded,
		Source:  source,
		Frames:  names,
	}
	if err := w.save(); err != nil {
		return nil, services.Wrap(services.ErrExtraction, "extract", "sidecar", "persist workspace", err)
	}

	logger.Info("frames extracted",
		logging.String("source", source),
		logging.Int(logging.FieldFrameCount, len(names)),
		logging.Float64("sample_fps", w.sampleFPS),
		logging.String(logging.FieldEventType, "extract_complete"),
	)
	return w.Frames(), nil
}

// clearFrames deletes every frame image of the prior session, including
// files the sidecar no longer references.
func (w *Workspace) clearFrames() error {
	names, err := w.scanFrameFiles()
	if err != nil {
		return err
	}
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		seen[name] = true
	}
	for _, name := range w.meta.Frames {
		if !seen[name] {
			names = append(names, name)
		}
	}
	for _, name := range names {
		if err := os.Remove(filepath.Join(w.dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	w.meta.Frames = nil
	w.meta.Durations = nil
	return nil
}

func listImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), frameExt) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}
