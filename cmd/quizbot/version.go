package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/m3rciful/quizbot/core/buildinfo"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "quizbot %s\n", buildinfo.String())
	},
}
