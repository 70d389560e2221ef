package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/sandevgo/tutord/internal/config"
	"github.com/sandevgo/tutord/pkg/log"
)

var (
	debug bool
)

var rootCmd = &cobra.Command{
	Use:   "tutord",
	Short: "tutord — AI tutoring session engine",
	Long:  `tutord runs multi-day learning courses as stateful, resumable conversations with an LLM tutor.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// Global flags available to all subcommands
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", config.IsDebug(), "enable debug logging")
}

func setupLogger(ctx context.Context) (context.Context, func()) {
	isDebug := debug || config.IsDebug()
	return log.NewContextWithLogger(ctx, isDebug)
}
