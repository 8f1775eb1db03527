// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// The renderer uses it to confirm an encoded artifact runs as long as its
// frame durations add up to, and the editor uses it to describe a source
// video before sampling frames out of it.
package ffprobe
