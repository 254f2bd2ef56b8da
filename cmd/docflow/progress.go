package main

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)

// progress renders task completion on a terminal. It satisfies both the
// conversion and the ALTO cleaning observers.
type progress struct {
	w           io.Writer
	description string
	enabled     bool
	bar         *progressbar.ProgressBar
	failed      int
}

func newProgress(w io.Writer, description string, quiet bool) *progress {
	return &progress{
		w:           w,
		description: description,
		enabled:     !quiet && isTerminal(w),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func (p *progress) Started(tasks int) {
	if !p.enabled || tasks == 0 {
		return
	}

	p.bar = progressbar.NewOptions(
		tasks,
		progressbar.OptionSetWriter(p.w),
		progressbar.OptionSetDescription(p.description),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetItsString("pages"),
		progressbar.OptionShowIts(),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func (p *progress) TaskDone(_ string, err error) {
	if err != nil {
		p.failed++
	}
	if p.bar != nil {
		_ = p.bar.Add(1)
	}
}

func (p *progress) Merging(int) {
	if p.bar != nil {
		p.bar.Describe("merging")
	}
}

// Close clears the bar from the terminal.
func (p *progress) Close() {
	if p.bar != nil {
		_ = p.bar.Finish()
		p.bar = nil
	}
}
