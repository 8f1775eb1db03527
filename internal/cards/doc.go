// Package cards draws the still frames a storyline is made of: text cards,
// entity reveals, scoring boards, comparison grids, and placeholders. It also
// owns the in-place edits the edit workspace applies to extracted frames
// (replacement text cards, caption overlays, and resizing replacement images).
//
// Layouts are expressed on a 1080x1920 design canvas and scaled to the
// configured output resolution, so a small test canvas exercises the same
// drawing code as a production render. Fonts come from the embedded Go font
// family unless cards.font_path points at a TrueType/OpenType file.
//
// Every card is written as a PNG named <kind>-<uuid>.png inside the directory
// supplied to New; callers own that directory and its lifetime.
package cards
