// Package render turns an ordered frame sequence with per-frame durations
// into one encoded video artifact.
//
// The primary strategy writes an ffmpeg concat manifest and encodes every
// frame in a single invocation. When that invocation fails, Render falls back
// exactly once to encoding each frame as its own segment and stream-copying
// the segments together. All intermediates live in a scratch directory that
// is released on every exit path; the artifact is moved into place only after
// an encode succeeds, so the output directory never holds a partial file.
package render
