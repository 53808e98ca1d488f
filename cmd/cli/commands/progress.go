// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package commands

import (
	"fmt"
	"io"

	"github.com/schollz/progressbar/v3"

	"github.com/taibuivan/comicrewriter/internal/core/workspace"
	"github.com/taibuivan/comicrewriter/internal/platform/events"
)

// progress renders queue events as a terminal progress bar.
type progress struct {
	bar *progressbar.ProgressBar
}

func newProgress(writer io.Writer, total int) *progress {
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(writer),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("Rewriting"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetItsString("pages"),
		progressbar.OptionShowIts(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "│",
			BarEnd:        "│",
		}),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(writer, "\n")
		}),
		progressbar.OptionSetRenderBlankState(true),
	)
	return &progress{bar: bar}
}

// Publish implements [events.Publisher].
func (p *progress) Publish(event events.Event) {
	if event.Type != events.TypePageStatus {
		return
	}

	switch workspace.Status(event.Status) {
	case workspace.StatusDone, workspace.StatusError:
		_ = p.bar.Add(1)
	}
}

// Finish completes the bar.
func (p *progress) Finish() {
	_ = p.bar.Finish()
}
