package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func newStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show tracked problem statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := a.tracker.Stats(cmd.Context(), a.userID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "📊 Statistics")
			fmt.Fprintln(out, "-------------")
			fmt.Fprintf(out, "Total Problems:  %d\n", stats.Total)
			fmt.Fprintf(out, "Due Today:       %d\n", stats.Due)
			fmt.Fprintf(out, "In Progress:     %d\n", stats.WithProgress)
			fmt.Fprintf(out, "Reviews (7d):    %d\n", stats.ReviewsLast7Days)
			fmt.Fprintf(out, "Success (7d):    %.0f%%\n", stats.SuccessRate())

			topics := make([]string, 0, len(stats.ByTopic))
			for topic := range stats.ByTopic {
				topics = append(topics, topic)
			}
			sort.Strings(topics)
			for _, topic := range topics {
				fmt.Fprintf(out, "  %s: %d\n", topic, stats.ByTopic[topic])
			}
			return nil
		},
	}
}
