package main

import (
	"fmt"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// goalsCmd lists the goals visible to the authenticated user.
var goalsCmd = &cobra.Command{
	Use:   "goals",
	Short: "List goals",
	RunE: func(cmd *cobra.Command, args []string) error {
		goals, err := newAPIClient().ListGoals(cmd.Context())
		if err != nil {
			return err
		}
		if len(goals) == 0 {
			fmt.Println("No goals.")
			return nil
		}
		for _, g := range goals {
			fmt.Printf("%s  [%s]  %s\n", g.ID, g.Status, g.ObjectiveText)
		}
		return nil
	},
}

// statsCmd prints knowledge-base statistics for one goal.
var statsCmd = &cobra.Command{
	Use:   "stats [goal-id]",
	Short: "Show knowledge-base statistics for a goal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		stats, err := newAPIClient().KnowledgeStats(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Goal: %s (%s)\n", stats.GoalTitle, stats.GoalID)
		for key, value := range stats.Stats {
			fmt.Printf("  %s: %v\n", key, value)
		}
		return nil
	},
}

// loginCmd fetches a bearer token and prints it for the caller to export.
var loginCmd = &cobra.Command{
	Use:   "login [username]",
	Short: "Exchange credentials for a bearer token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Print("Password: ")
		password, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			return err
		}

		token, err := newAPIClient().Login(cmd.Context(), args[0], string(password))
		if err != nil {
			return err
		}
		fmt.Println("export HELIOS_TOKEN=" + token)
		return nil
	},
}
