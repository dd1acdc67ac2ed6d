// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"io"
	"os"
	"time"

	"github.com/vbauerster/mpb"
	"github.com/vbauerster/mpb/decor"
	"golang.org/x/term"
)

// progress draws a per-ORCID bar on a terminal. A nil *progress draws
// nothing.
type progress struct {
	p     *mpb.Progress
	bar   *mpb.Bar
	start time.Time
	done  int
}

// newProgress returns a bar over total ORCIDs, or nil when out is not a
// terminal.
func newProgress(out *os.File, total int) *progress {
	fd := int(out.Fd())
	if !term.IsTerminal(fd) {
		return nil
	}
	width, _, err := term.GetSize(fd)
	if err != nil {
		return nil
	}
	p := mpb.New(mpb.WithWidth(width), mpb.WithOutput(io.Writer(out)))
	bar := p.AddBar(int64(total),
		mpb.PrependDecorators(decor.CountersNoUnit("%3d/%3d")),
		mpb.AppendDecorators(decor.AverageETA(decor.ET_STYLE_HHMMSS)),
		mpb.BarRemoveOnComplete())
	return &progress{p: p, bar: bar, start: time.Now()}
}

// update matches collect.Options.Progress.
func (pr *progress) update(done, _ int) {
	if pr == nil {
		return
	}
	pr.bar.IncrBy(done-pr.done, time.Since(pr.start))
	pr.done = done
}

// finish completes the bar, even after an aborted run, and waits for the
// final render.
func (pr *progress) finish() {
	if pr == nil {
		return
	}
	pr.bar.SetTotal(int64(pr.done), true)
	pr.p.Wait()
}

// callback returns pr.update, or nil for a nil receiver so the pipeline
// skips progress reporting entirely.
func (pr *progress) callback() func(done, total int) {
	if pr == nil {
		return nil
	}
	return pr.update
}
