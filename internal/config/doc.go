// Package config loads, normalizes, and validates slidereel configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// SLIDEREEL_FFMPEG. The Config type centralizes every knob the CLI needs:
// output, scratch, and workspace directories, encoder settings, and the
// per-entity branding table handed to the frame sequencer.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
