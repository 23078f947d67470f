package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	corecmd "github.com/m3rciful/quizbot/core/cmd"
	"github.com/m3rciful/quizbot/internal/app"
)

const (
	configEnvVar      = "CONFIG_PATH"
	defaultConfigPath = "config.yaml"
)

var rootCmd = &cobra.Command{
	Use:           "quizbot",
	Short:         "Telegram quiz bot with generated questions",
	Long:          "quizbot runs one endless multiple choice quiz per Telegram chat, drawing questions from an LLM.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if err := godotenv.Load(); err == nil {
			log.Printf("loaded .env")
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBot(cmd)
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to config YAML (overrides "+configEnvVar+")")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(usersCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveConfigPath returns --config, then CONFIG_PATH, then config.yaml.
func resolveConfigPath(cmd *cobra.Command) string {
	if p, _ := cmd.Root().PersistentFlags().GetString("config"); p != "" {
		return p
	}
	if p := os.Getenv(configEnvVar); p != "" {
		return p
	}
	return defaultConfigPath
}

func loadConfig(path string) (corecmd.ConfigCarrier, error) {
	return app.LoadConfig(path)
}

func bootstrap(cfg corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
	appCfg, ok := cfg.(*app.Config)
	if !ok {
		return nil, errUnexpectedConfig
	}
	return app.Bootstrap(appCfg)
}
