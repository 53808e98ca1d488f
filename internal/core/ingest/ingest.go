// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package ingest turns a flat list of uploaded files into an ordered
Chapter/Page tree.

# Pipeline

 1. Filter: only image files survive (media type, then extension).
 2. Group: the second-to-last path segment names the chapter.
 3. Order pages: numeric-aware collation of file names.
 4. Order chapters: numbered chapters ascending, special chapters last.

The whole pipeline is a total function: unrecognised input is dropped,
never rejected.
*/
package ingest

import (
	"math"
	"path"
	"sort"
	"strings"

	"github.com/taibuivan/comicrewriter/internal/core/workspace"
	"github.com/taibuivan/comicrewriter/pkg/natsort"
	"github.com/taibuivan/comicrewriter/pkg/uuid"
)

const (
	// RootChapterID groups files uploaded without a parent folder.
	// "/" can never be a path segment, so it cannot collide with a real folder.
	RootChapterID = "/"

	// RootChapterName is the display name of the root chapter.
	RootChapterName = "Root"
)

// File is one entry of an uploaded folder.
type File struct {
	Name         string // base name; derived from RelativePath when empty
	RelativePath string // slash-delimited, e.g. "Comic/Chapter 1/001.jpg"
	MediaType    string
	Source       workspace.Source
}

// PreviewAllocator hands out renderable references for page content.
type PreviewAllocator interface {
	Allocate(source workspace.Source, mediaType string) string
}

// Ingestor builds chapter trees from uploaded files.
type Ingestor struct {
	previews PreviewAllocator
	newID    func() string
}

// Option configures an [Ingestor].
type Option func(*Ingestor)

// WithIDGenerator overrides the page identifier generator.
func WithIDGenerator(generate func() string) Option {
	return func(ingestor *Ingestor) {
		ingestor.newID = generate
	}
}

// New constructs an [Ingestor]. previews may be nil, in which case pages
// carry no preview reference.
func New(previews PreviewAllocator, opts ...Option) *Ingestor {
	ingestor := &Ingestor{
		previews: previews,
		newID:    uuid.New,
	}
	for _, opt := range opts {
		opt(ingestor)
	}
	return ingestor
}

/*
Parse groups and orders files into chapters.

Description: Non-image files are dropped. Files with fewer than two path
segments land in the special [RootChapterID] chapter. Every page starts
IDLE with a fresh identifier and, when an allocator is configured, a
preview reference.

Parameters:
  - files: []File (upload order is irrelevant)

Returns:
  - []*workspace.Chapter: Chapters in reading order
*/
func (ingestor *Ingestor) Parse(files []File) []*workspace.Chapter {
	chapters := make(map[string]*workspace.Chapter)
	var order []*workspace.Chapter

	for _, file := range files {
		name := file.Name
		if name == "" {
			name = path.Base(file.RelativePath)
		}
		if !IsImage(name, file.MediaType) {
			continue
		}

		chapterID, chapterName := chapterOf(file.RelativePath)

		chapter, ok := chapters[chapterID]
		if !ok {
			chapter = newChapter(chapterID, chapterName)
			chapters[chapterID] = chapter
			order = append(order, chapter)
		}

		page := &workspace.Page{
			ID:        ingestor.newID(),
			Name:      name,
			Path:      file.RelativePath,
			MediaType: file.MediaType,
			Status:    workspace.StatusIdle,
			Source:    file.Source,
		}
		chapter.Pages = append(chapter.Pages, page)
	}

	for _, chapter := range order {
		sortPages(chapter.Pages)
	}
	sortChapters(order)

	// Previews are allocated last so a dropped file never holds a reference.
	if ingestor.previews != nil {
		for _, chapter := range order {
			for _, page := range chapter.Pages {
				if page.Source != nil {
					page.PreviewURL = ingestor.previews.Allocate(page.Source, page.MediaType)
				}
			}
		}
	}

	return order
}

// # Internal Helpers

// chapterOf returns the chapter identity and display name for a relative path.
func chapterOf(relativePath string) (string, string) {
	segments := strings.Split(relativePath, "/")
	if len(segments) < 2 {
		return RootChapterID, RootChapterName
	}

	folder := segments[len(segments)-2]
	return folder, folder
}

func newChapter(id, name string) *workspace.Chapter {
	chapter := &workspace.Chapter{ID: id, Name: name}

	if id == RootChapterID {
		chapter.Order = math.Inf(1)
		chapter.IsSpecial = true
		return chapter
	}

	if number, ok := ExtractChapterNumber(name); ok {
		chapter.Order = number
	} else {
		chapter.Order = math.Inf(1)
		chapter.IsSpecial = true
	}
	return chapter
}

func sortPages(pages []*workspace.Page) {
	sort.SliceStable(pages, func(i, j int) bool {
		if c := natsort.Compare(pages[i].Name, pages[j].Name); c != 0 {
			return c < 0
		}
		if pages[i].Name != pages[j].Name {
			return pages[i].Name < pages[j].Name
		}
		return pages[i].Path < pages[j].Path
	})
}

// sortChapters applies the two-key order: numbered chapters ascending, then
// special chapters by name.
func sortChapters(chapters []*workspace.Chapter) {
	sort.SliceStable(chapters, func(i, j int) bool {
		left, right := chapters[i], chapters[j]

		if left.IsSpecial != right.IsSpecial {
			return !left.IsSpecial
		}
		if !left.IsSpecial && left.Order != right.Order {
			return left.Order < right.Order
		}

		if c := natsort.Compare(left.Name, right.Name); c != 0 {
			return c < 0
		}
		return left.ID < right.ID
	})
}
