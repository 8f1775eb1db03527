// Package services defines shared utilities consumed by the sequencer, renderer,
// and edit workspace, plus the external tool integrations beneath them.
//
// Key responsibilities:
//   - Context helpers that stamp project names, stage names, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper that classify failures as
//     recoverable (index, image, validation) or terminal (render, extraction).
//   - Thin abstractions that make command execution of external tools testable.
//
// Use these helpers when wiring new pipeline logic so operational behaviour
// (error handling, observability) stays uniform across commands.
package services
