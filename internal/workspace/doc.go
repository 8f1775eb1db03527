// Package workspace manages the per-project edit session: frames sampled
// from a rendered video, the edits applied to them, and the rebuild back into
// a new artifact.
//
// Each project owns a directory under paths.workspace_dir holding
// frame_NNN.png files and a workspace.json sidecar. The sidecar's frame list
// is the ordering authority; after every structural edit the files are
// renamed so their numbering matches it again. When the sidecar is missing
// or unreadable the order falls back to file names.
//
// A session moves EMPTY -> LOADED on extraction and LOADED -> DIRTY on the
// first edit. Re-extracting discards all frames and overrides and returns to
// LOADED. Rebuilding never alters the frames or the state.
package workspace
