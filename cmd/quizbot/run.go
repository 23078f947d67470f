package main

import (
	"errors"

	"github.com/spf13/cobra"

	corecmd "github.com/m3rciful/quizbot/core/cmd"
)

var errUnexpectedConfig = errors.New("quizbot: unexpected config type")

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the bot (default)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBot(cmd)
	},
}

func runBot(cmd *cobra.Command) error {
	return corecmd.Run(corecmd.Options{
		ConfigPath: resolveConfigPath(cmd),
		LoadConfig: loadConfig,
		Bootstrap:  bootstrap,
		Context:    cmd.Context(),
	})
}
