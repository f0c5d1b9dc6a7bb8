package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"solace/internal/store"
)

var (
	addUserName    string
	addUserProfile string
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage user profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered users",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := store.Open(cfg.DatabasePath())
		if err != nil {
			return err
		}
		defer db.Close()

		users, err := db.ListUsers()
		if err != nil {
			return err
		}
		if len(users) == 0 {
			fmt.Println("No users yet. Add one with: solace users add <id> --name <name>")
			return nil
		}
		for _, u := range users {
			fmt.Printf("%-20s %s\n", u.UserID, u.Name)
		}
		return nil
	},
}

var usersAddCmd = &cobra.Command{
	Use:   "add <user-id>",
	Short: "Add or update a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := store.Open(cfg.DatabasePath())
		if err != nil {
			return err
		}
		defer db.Close()

		p := store.UserProfile{
			UserID:  args[0],
			Name:    addUserName,
			Profile: addUserProfile,
		}
		if p.Name == "" {
			p.Name = p.UserID
		}
		if err := db.UpsertUser(p); err != nil {
			return err
		}
		fmt.Printf("Saved user %s (%s)\n", p.UserID, p.Name)
		return nil
	},
}

func init() {
	usersAddCmd.Flags().StringVar(&addUserName, "name", "", "display name")
	usersAddCmd.Flags().StringVar(&addUserProfile, "profile", "", "short free-text profile")

	usersCmd.AddCommand(usersListCmd)
	usersCmd.AddCommand(usersAddCmd)
}
