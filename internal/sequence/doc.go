// Package sequence turns a storyline template plus caller-supplied content
// into an ordered frame sequence and its duration map.
//
// A storyline is a fixed list of segments (hook, per-item reveal, comparison,
// call to action). Per-item segments emit one frame per content item in the
// caller's order. The sequencer never inspects frame pixels; drawing is
// delegated to a FrameRenderer, normally *cards.Renderer.
//
// A missing or failing item never aborts production: the segment receives a
// placeholder frame at its default duration instead.
package sequence
