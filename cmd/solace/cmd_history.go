package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"solace/internal/store"
)

var (
	historyLimit int
	historyFull  bool
)

var historyCmd = &cobra.Command{
	Use:   "history <user-id>",
	Short: "Show recent turn events for a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := store.Open(cfg.DatabasePath())
		if err != nil {
			return err
		}
		defer db.Close()

		events, err := db.RecentTurnEvents(args[0], historyLimit)
		if err != nil {
			return err
		}
		if len(events) == 0 {
			fmt.Println("No turn history for this user.")
			return nil
		}
		for _, ev := range events {
			if historyFull {
				out, merr := json.MarshalIndent(ev, "", "  ")
				if merr != nil {
					return merr
				}
				fmt.Println(string(out))
				continue
			}
			marker := " "
			if ev.Status == store.TurnFailure {
				marker = "!"
			}
			fmt.Printf("%s %s  [%s/%s]  %s\n", marker,
				ev.CreatedAt.Format("2006-01-02 15:04"),
				ev.SessionMood, ev.FocusEmotion,
				truncateLine(ev.UserMessage, 72))
		}
		return nil
	},
}

func truncateLine(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of turns to show")
	historyCmd.Flags().BoolVar(&historyFull, "full", false, "print full event records as JSON")
}
