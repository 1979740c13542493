package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/example/algorecall/internal/session"
	"github.com/example/algorecall/internal/tracker"
	"github.com/spf13/cobra"
)

func newReviewCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "review",
		Short: "Start a review session over the problems due today",
		Long: `Start a review session over the problems due today, most overdue first.
For every problem answer y (remembered), n (forgot), s (skip) or q (quit).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			queue, err := a.tracker.DueQueue(ctx, a.userID)
			if err != nil {
				return err
			}
			if len(queue) == 0 {
				fmt.Fprintln(out, "✅ No problems due for review today!")
				return nil
			}

			s := session.New(a.userID, queue, a.now())
			reader := bufio.NewReader(cmd.InOrStdin())

			for !s.Done() {
				p, _ := s.Current()
				current, total := s.Position()
				fmt.Fprintln(out, "\n========================================")
				fmt.Fprintf(out, "Reviewing [%d/%d]: %s (%s)\n", current, total, p.Name, p.Topic)
				fmt.Fprintf(out, "URL: %s\n", p.Link)
				fmt.Fprintln(out, "========================================")
				fmt.Fprint(out, "Did you remember it? [y/n/s/q]: ")

				answer, err := readAnswer(reader)
				if errors.Is(err, io.EOF) || answer == "q" {
					break
				}
				if err != nil {
					return err
				}

				switch answer {
				case "s":
					s.Skip()
					continue
				case "y", "n":
				default:
					fmt.Fprintln(out, "⚠️ Please answer y, n, s or q.")
					continue
				}

				remembered := answer == "y"
				updated, err := a.tracker.Review(ctx, a.userID, p, remembered)
				switch {
				case errors.Is(err, tracker.ErrConcurrentReview):
					fmt.Fprintln(out, "⚠️ Reviewed elsewhere in the meantime, skipping.")
					s.Skip()
					continue
				case err != nil:
					return err
				}
				s.Record(remembered)
				fmt.Fprintf(out, "✅ Updated! Streak %d, next review in %d days (%s).\n",
					updated.CorrectStreak, updated.IntervalDays, updated.NextReviewDate)
			}

			remembered, forgot, skipped := s.Counts()
			fmt.Fprintf(out, "\n🎉 Review session finished: %d remembered, %d forgot, %d skipped (%.0f%% done).\n",
				remembered, forgot, skipped, s.Progress())
			return nil
		},
	}
}

func readAnswer(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	line = strings.ToLower(strings.TrimSpace(line))
	if err != nil && line == "" {
		return "", err
	}
	return line, nil
}
