package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sandevgo/tutord/internal/core"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the tutord version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("%s %s\n", core.TutordName, core.TutordVersion)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
