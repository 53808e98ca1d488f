// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package export renders the collected results of a tree as one text file.
package export

import (
	"fmt"
	"strings"

	"github.com/taibuivan/comicrewriter/internal/core/workspace"
	"github.com/taibuivan/comicrewriter/pkg/pointer"
	"github.com/taibuivan/comicrewriter/pkg/slice"
)

const (
	// Filename is the fixed name of the downloaded file.
	Filename = "comic_rewrite_output.txt"

	// MediaType of the rendered export.
	MediaType = "text/plain"

	chapterSeparator = "\n\n==========================================\n\n"
	pageSeparator    = "\n\n"
)

/*
Render concatenates the results of every DONE page with a non-empty result.

Description: Each chapter yields "=== CHAPTER: <name> ===", a blank line, and
its pages as "--- PAGE: <name> ---\n<result>" separated by blank lines.
Chapters without completed pages still emit their header.
*/
func Render(chapters []workspace.Chapter) string {
	sections := slice.Map(chapters, func(chapter workspace.Chapter) string {
		completed := slice.Filter(chapter.Pages, func(page *workspace.Page) bool {
			return page.Status == workspace.StatusDone && pointer.Val(page.Result) != ""
		})

		pages := slice.Map(completed, func(page *workspace.Page) string {
			return fmt.Sprintf("--- PAGE: %s ---\n%s", page.Name, pointer.Val(page.Result))
		})

		return fmt.Sprintf("=== CHAPTER: %s ===\n\n%s", chapter.Name, strings.Join(pages, pageSeparator))
	})

	return strings.Join(sections, chapterSeparator)
}
