package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/example/algorecall/pkg/models"
	"github.com/spf13/cobra"
)

func newAddCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add <topic> <name> <link>",
		Short: "Add a new problem to track",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.tracker.AddProblem(cmd.Context(), a.userID, args[0], args[1], args[2])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Added '%s' (Next review: %s)\n", p.Name, p.NextReviewDate)
			return nil
		},
	}
}

func newDueCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "due",
		Short: "Show problems due today",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			queue, err := a.tracker.DueQueue(cmd.Context(), a.userID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(queue) == 0 {
				fmt.Fprintln(out, "✅ No problems due today.")
				return nil
			}
			fmt.Fprintf(out, "🔥 %d problems due today:\n\n", len(queue))
			printProblems(cmd, queue)
			return nil
		},
	}
}

func newListCmd(a *app) *cobra.Command {
	var upcoming bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all tracked problems",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				problems []models.Problem
				err      error
			)
			if upcoming {
				problems, err = a.tracker.Upcoming(cmd.Context(), a.userID)
			} else {
				problems, err = a.tracker.Problems(cmd.Context(), a.userID)
			}
			if err != nil {
				return err
			}
			printProblems(cmd, problems)
			return nil
		},
	}
	cmd.Flags().BoolVar(&upcoming, "upcoming", false, "Only problems that are not due yet, soonest first")
	return cmd
}

func printProblems(cmd *cobra.Command, problems []models.Problem) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTopic\tProblem\tStreak\tInterval\tNext Review")
	fmt.Fprintln(w, "--\t-----\t-------\t------\t--------\t-----------")
	for _, p := range problems {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%dd\t%s\n",
			shortID(p.ID), p.Topic, p.Name, p.CorrectStreak, p.IntervalDays, p.NextReviewDate)
	}
	w.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func newEditCmd(a *app) *cobra.Command {
	var topic, name, link string
	cmd := &cobra.Command{
		Use:   "edit <id|name>",
		Short: "Change the topic, name or link of a problem",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.tracker.Resolve(cmd.Context(), a.userID, args[0])
			if err != nil {
				return err
			}
			p, err = a.tracker.Edit(cmd.Context(), a.userID, p.ID, topic, name, link)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✏️ Updated '%s' [%s] %s\n", p.Name, p.Topic, p.Link)
			return nil
		},
	}
	cmd.Flags().StringVarP(&topic, "topic", "t", "", "New topic")
	cmd.Flags().StringVarP(&name, "name", "n", "", "New name")
	cmd.Flags().StringVarP(&link, "link", "l", "", "New link")
	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id|name>",
		Short: "Stop tracking a problem",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.tracker.Resolve(cmd.Context(), a.userID, args[0])
			if err != nil {
				return err
			}
			if err := a.tracker.Delete(cmd.Context(), a.userID, p.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "🗑 Deleted '%s'\n", p.Name)
			return nil
		},
	}
}

func newHistoryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "history <id|name>",
		Short: "Show the review history of a problem",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.tracker.Resolve(cmd.Context(), a.userID, args[0])
			if err != nil {
				return err
			}
			logs, err := a.tracker.History(cmd.Context(), a.userID, p.ID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (next review %s)\n", p.Name, p.NextReviewDate)
			if len(logs) == 0 {
				fmt.Fprintln(out, "No reviews yet.")
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "Date\tResult\tStreak\tInterval")
			for _, l := range logs {
				result := "forgot"
				if l.Remembered {
					result = "remembered"
				}
				fmt.Fprintf(w, "%s\t%s\t%d\t%dd\n", l.ReviewedOn, result, l.CorrectStreak, l.IntervalDays)
			}
			return w.Flush()
		},
	}
}
