// Package history records every video artifact slidereel produces in a small
// SQLite ledger under the state directory. Each entry notes how the artifact
// was made (fresh production, direct render, or workspace rebuild), which
// encoding strategy succeeded, and the expected versus probed duration.
//
// The ledger is append-only; artifacts themselves are never modified once
// written, so entries are never updated.
package history
