// Package pipeline runs the end-to-end flows behind the CLI: producing a
// video from a storyline and content file, encoding caller-supplied frames,
// and rebuilding an edit workspace. Every artifact is recorded in the render
// history when a recorder is configured.
package pipeline
