// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/taibuivan/comicrewriter/internal/core/ingest"
	"github.com/taibuivan/comicrewriter/internal/core/preview"
	"github.com/taibuivan/comicrewriter/internal/core/workspace"
)

func newScanCommand(state *session) *cobra.Command {
	var asJSON bool

	scanCmd := &cobra.Command{
		Use:   "scan <directory>",
		Short: "Print the ordered chapter and page tree of a folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			chapters, err := loadChapters(args[0], preview.NewRegistry(preview.DefaultPrefix))
			if err != nil {
				return err
			}

			state.logger.Debug("folder_scanned", slog.String("directory", args[0]), slog.Int("chapters", len(chapters)))

			if asJSON {
				encoder := json.NewEncoder(cmd.OutOrStdout())
				encoder.SetIndent("", "  ")
				return encoder.Encode(chapters)
			}
			return printTree(cmd.OutOrStdout(), chapters)
		},
	}

	scanCmd.Flags().BoolVar(&asJSON, "json", false, "print the tree as JSON")
	return scanCmd
}

// loadChapters walks directory and groups its images into ordered chapters.
func loadChapters(directory string, previews *preview.Registry) ([]*workspace.Chapter, error) {
	files, err := ingest.ScanDirectory(directory)
	if err != nil {
		return nil, err
	}

	chapters := ingest.New(previews).Parse(files)
	if len(chapters) == 0 {
		return nil, fmt.Errorf("no images found under %s", directory)
	}
	return chapters, nil
}

func printTree(out io.Writer, chapters []*workspace.Chapter) error {
	for _, chapter := range chapters {
		if _, err := fmt.Fprintf(out, "%s (%d pages)\n", chapter.Name, len(chapter.Pages)); err != nil {
			return err
		}
		for _, page := range chapter.Pages {
			if _, err := fmt.Fprintf(out, "  %s\n", page.Name); err != nil {
				return err
			}
		}
	}
	return nil
}
