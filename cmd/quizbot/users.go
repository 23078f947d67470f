package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/m3rciful/quizbot/core/logger"
	"github.com/m3rciful/quizbot/internal/app"
	"github.com/m3rciful/quizbot/internal/users"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "List registered users",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := app.LoadConfig(resolveConfigPath(cmd))
		if err != nil {
			return err
		}
		store, closeStore, err := app.OpenUsers(cfg)
		if err != nil {
			return err
		}
		defer func() {
			_ = closeStore()
			_ = logger.Shutdown()
		}()

		list, err := store.List(cmd.Context())
		if err != nil {
			return err
		}
		return printUsers(cmd.OutOrStdout(), list)
	},
}

func printUsers(w io.Writer, list []users.User) error {
	if len(list) == 0 {
		_, err := fmt.Fprintln(w, "no registered users")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTELEGRAM ID\tNAME\tREGION\tJOINED")
	for _, u := range list {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\n",
			u.ID, u.TelegramID, u.Name, u.Region, u.CreatedAt.UTC().Format(time.RFC3339))
	}
	return tw.Flush()
}
