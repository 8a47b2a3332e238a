package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/sandeepkv93/dharmasync/internal/tasks"
	"github.com/sandeepkv93/dharmasync/internal/update"
)

var tuiUserID string

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open the terminal client against the configured store",
	RunE: func(cmd *cobra.Command, args []string) error {
		if tuiUserID == "" {
			return fmt.Errorf("--user is required")
		}
		ctx := cmd.Context()
		repo, err := openRepository(ctx, true)
		if err != nil {
			return err
		}
		defer repo.Close()

		loc, err := cfg.Location()
		if err != nil {
			return err
		}
		svc := tasks.NewService(repo, tasks.WithLocation(loc), tasks.WithLogger(logger.Named("tasks")))
		program := tea.NewProgram(update.NewModel(ctx, svc, tuiUserID), tea.WithAltScreen(), tea.WithContext(ctx))
		if _, err := program.Run(); err != nil {
			return fmt.Errorf("tui: %w", err)
		}
		return nil
	},
}

func init() {
	tuiCmd.Flags().StringVar(&tuiUserID, "user", "", "User id whose tasks to manage")
}
