// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package ingest

import (
	"path"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// ChapterKeywords gate chapter-number extraction. Matching is a
// case-insensitive substring test, so "ch" also matches "Chương".
var ChapterKeywords = []string{
	"chapter", "chap", "ch",
	"chuong", "chương",
	"tap", "tập",
	"ep", "episode",
	"phần", "part",
}

var (
	// numberPattern matches an integer or decimal token (10, 01, 1.5).
	numberPattern = regexp.MustCompile(`\d+(\.\d+)?`)

	// imageExtensions is the fallback filter when no image media type is known.
	imageExtensions = map[string]struct{}{
		".jpg": {}, ".jpeg": {}, ".png": {}, ".webp": {}, ".gif": {}, ".bmp": {},
	}
)

/*
ExtractChapterNumber pulls a chapter number out of a folder name.

Description: The name must contain one of [ChapterKeywords]; the first
numeric token anywhere in the name is then parsed as a float. Names are
NFC-normalised first so decomposed file-system names (macOS) still match
the Vietnamese keywords.

Returns:
  - float64: The chapter number (e.g. "Chap 10.5" → 10.5)
  - bool: false when no keyword or no digits were found
*/
func ExtractChapterNumber(name string) (float64, bool) {
	normalized := cases.Fold().String(norm.NFC.String(name))

	hasKeyword := false
	for _, keyword := range ChapterKeywords {
		if strings.Contains(normalized, keyword) {
			hasKeyword = true
			break
		}
	}
	if !hasKeyword {
		return 0, false
	}

	token := numberPattern.FindString(normalized)
	if token == "" {
		return 0, false
	}

	number, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return 0, false
	}
	return number, true
}

// IsImage reports whether a file is a candidate page: an image media type,
// or an image-like extension when the media type says otherwise or is empty.
func IsImage(name, mediaType string) bool {
	if strings.HasPrefix(strings.ToLower(mediaType), "image/") {
		return true
	}

	_, ok := imageExtensions[strings.ToLower(path.Ext(name))]
	return ok
}
