package main

import (
	"io"

	"github.com/schollz/progressbar/v3"
)

// segmentProgress returns a callback that draws a bar while the per-frame
// fallback encodes, and a finish func. Nothing is drawn off a terminal.
func segmentProgress(out io.Writer) (func(done, total int), func()) {
	if !isTerminal(out) {
		return nil, func() {}
	}
	var bar *progressbar.ProgressBar
	update := func(done, total int) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetWriter(out),
				progressbar.OptionSetDescription("Encoding frames"),
				progressbar.OptionShowCount(),
				progressbar.OptionSetWidth(40),
				progressbar.OptionClearOnFinish(),
			)
		}
		_ = bar.Set(done)
	}
	finish := func() {
		if bar != nil {
			_ = bar.Finish()
		}
	}
	return update, finish
}
