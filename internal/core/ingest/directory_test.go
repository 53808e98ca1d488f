// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package ingest_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/comicrewriter/internal/core/ingest"
	"github.com/taibuivan/comicrewriter/internal/core/workspace"
)

/*
TestScanDirectory walks a folder on disk and feeds it through the ingestor,
expecting paths relative to the folder's parent like a browser upload.
*/
func TestScanDirectory(t *testing.T) {
	root := filepath.Join(t.TempDir(), "MyComic")
	write := func(rel, content string) {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}

	write("Chapter 2/1.png", "c2")
	write("Chapter 1/2.png", "c1p2")
	write("Chapter 1/1.png", "c1p1")
	write("Chapter 1/Thumbs.db", "junk")
	write("cover.jpg", "cover")

	files, err := ingest.ScanDirectory(root)
	require.NoError(t, err)
	require.Len(t, files, 5)

	chapters := ingest.New(nil).Parse(files)
	require.Len(t, chapters, 3)

	assert.Equal(t, "Chapter 1", chapters[0].Name)
	assert.Equal(t, "MyComic/Chapter 1/1.png", chapters[0].Pages[0].Path)
	assert.Equal(t, "Chapter 2", chapters[1].Name)
	assert.Equal(t, "MyComic", chapters[2].Name)
	assert.True(t, chapters[2].IsSpecial)

	content, err := workspace.ReadSource(chapters[0].Pages[1].Source)
	require.NoError(t, err)
	assert.Equal(t, "c1p2", string(content))
}

/*
TestScanDirectory_Missing reports an error for a missing folder.
*/
func TestScanDirectory_Missing(t *testing.T) {
	_, err := ingest.ScanDirectory(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}
