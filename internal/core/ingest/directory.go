// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package ingest

import (
	"fmt"
	"io/fs"
	"mime"
	"path"
	"path/filepath"

	"github.com/taibuivan/comicrewriter/internal/core/workspace"
)

/*
ScanDirectory lists every regular file under root as an upload would see it.

Description: Relative paths start with the base name of root, matching what
a browser reports for a selected folder ("Comic/Chapter 1/001.jpg"). Page
content is read lazily from disk.

Returns:
  - []File: Files in walk order
  - error: Root is missing or unreadable
*/
func ScanDirectory(root string) ([]File, error) {
	root = filepath.Clean(root)
	base := filepath.Base(root)

	var files []File
	err := filepath.WalkDir(root, func(current string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !entry.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(root, current)
		if err != nil {
			return err
		}

		files = append(files, File{
			Name:         entry.Name(),
			RelativePath: path.Join(base, filepath.ToSlash(rel)),
			MediaType:    mime.TypeByExtension(filepath.Ext(entry.Name())),
			Source:       workspace.FileSource(current),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}

	return files, nil
}
