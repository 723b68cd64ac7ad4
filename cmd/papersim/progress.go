package main

import (
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"

	"github.com/matsen/papersim/internal/semantic"
)

// newProgressReporter returns a progress bar on stderr sized to total papers.
func newProgressReporter(total int, description string) semantic.ProgressReporter {
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowBytes(false),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription("[cyan]"+description+"[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(os.Stderr)
		}),
	)

	return semantic.ProgressFunc(func(current, total int) {
		bar.Set(current)
	})
}
