// Package ffmpeg wraps the ffmpeg command line for the three jobs slidereel
// needs from it: encoding a concat manifest of stills into one video,
// encoding a single still into a fixed-length segment, and sampling frames
// out of an existing video.
//
// Commands run through an Executor so tests can capture arguments without an
// ffmpeg install. Failures carry the tail of ffmpeg's output; use Diagnostic
// to recover it for error reports.
package ffmpeg
