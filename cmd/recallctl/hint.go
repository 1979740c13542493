package main

import (
	"fmt"

	"github.com/example/algorecall/internal/ai"
	"github.com/spf13/cobra"
)

func newHintCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "hint <id|name>",
		Short: "Ask the configured OpenAI model for a hint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ai.New(a.cfg.OpenAIKey, a.cfg.OpenAIModel)
			if err != nil {
				return err
			}
			p, err := a.tracker.Resolve(cmd.Context(), a.userID, args[0])
			if err != nil {
				return err
			}
			hint, err := client.Hint(cmd.Context(), p)
			if err != nil {
				return fmt.Errorf("failed to get a hint: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "💡", hint)
			return nil
		},
	}
}
