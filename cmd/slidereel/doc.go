// Package main hosts the slidereel CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration once, builds the logger, and
// hands the work to internal packages: produce and render go through the
// pipeline, edit subcommands operate on a project's edit workspace under an
// advisory lock, and history reads the render ledger.
//
// Keep this package thin. New behavior belongs in internal packages first and
// is surfaced here through flags and output formatting only.
package main
