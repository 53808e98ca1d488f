// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command cli runs folder scanning and the rewrite queue against a local
// directory without the HTTP server.
package main

import (
	"fmt"
	"os"

	"github.com/taibuivan/comicrewriter/cmd/cli/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
