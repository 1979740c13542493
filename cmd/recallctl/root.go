package main

import (
	"context"
	"time"

	"github.com/example/algorecall/internal/config"
	"github.com/example/algorecall/internal/database"
	"github.com/example/algorecall/internal/tracker"
	"github.com/spf13/cobra"
)

// app is the state shared by all subcommands
type app struct {
	envFile string
	dbURL   string
	userID  int64
	now     func() time.Time

	cfg     *config.Config
	tracker *tracker.Tracker
}

func (a *app) open(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(a.envFile)
	if err != nil {
		return err
	}
	if a.dbURL != "" {
		cfg.DatabaseURL = a.dbURL
	}
	if err := database.Connect(cfg); err != nil {
		return err
	}
	a.cfg = cfg
	a.tracker = tracker.New(database.DB, tracker.WithLocation(cfg.Location), tracker.WithClock(a.now))
	return nil
}

func newRootCmd(now func() time.Time) *cobra.Command {
	a := &app{now: now}

	root := &cobra.Command{
		Use:   "recallctl",
		Short: "Spaced repetition for coding interview problems",
		Long: `recallctl manages the same problem collection as the Telegram bot.
Problems you remember come back after 1 day, then 3 days, then 2.2x the
previous interval; forgetting a problem brings it back tomorrow.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.open,
	}
	root.PersistentFlags().Int64VarP(&a.userID, "user", "u", 0, "Telegram user ID that owns the problems")
	root.PersistentFlags().StringVar(&a.envFile, "env", ".env", "Path to a .env file")
	root.PersistentFlags().StringVar(&a.dbURL, "db", "", "Database URL, overrides DATABASE_URL")

	root.AddCommand(
		newAddCmd(a),
		newDueCmd(a),
		newListCmd(a),
		newReviewCmd(a),
		newEditCmd(a),
		newDeleteCmd(a),
		newHistoryCmd(a),
		newImportCmd(a),
		newStatsCmd(a),
		newHintCmd(a),
	)
	return root
}

// execute runs root and closes the database whatever the outcome
func execute(ctx context.Context, root *cobra.Command) error {
	defer database.Close()
	return root.ExecuteContext(ctx)
}
