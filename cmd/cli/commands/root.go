// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package commands holds the cobra command tree of the CLI.
package commands

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/taibuivan/comicrewriter/internal/platform/config"
	"github.com/taibuivan/comicrewriter/internal/platform/constants"
)

// session carries what the persistent pre-run resolved for subcommands.
type session struct {
	envFile string
	verbose bool

	cfg    *config.Config
	logger *slog.Logger
}

// NewRootCommand builds a fresh command tree.
func NewRootCommand() *cobra.Command {
	state := &session{}

	rootCmd := &cobra.Command{
		Use:   "comicrewriter",
		Short: "Rewrite comic page dialogue from a local folder",
		Long: `comicrewriter scans a folder of chapter sub-folders, orders chapters and pages
the way a reader expects, and sends every page to the vision model to
transcribe its dialogue. The results are written as one text file.`,
		Version:       constants.AppVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(state.envFile)
			if err != nil {
				return err
			}

			level := slog.LevelWarn
			if state.verbose || cfg.Debug {
				level = slog.LevelDebug
			}

			state.cfg = cfg
			state.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})).
				With(slog.String("app", constants.AppName))
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&state.envFile, "env-file", ".env", "dotenv file loaded before the environment")
	rootCmd.PersistentFlags().BoolVarP(&state.verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(newScanCommand(state))
	rootCmd.AddCommand(newRunCommand(state))

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCommand().Execute()
}
