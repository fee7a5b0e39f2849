package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/newsletter-cli/internal/store"
)

var attemptsID string

var attemptsCmd = &cobra.Command{
	Use:   "attempts",
	Short: "Show the subscription attempt log for a restaurant",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := store.New(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		attempts, err := st.ListAttempts(ctx, attemptsID)
		if err != nil {
			return err
		}
		if len(attempts) == 0 {
			cmd.Printf("no attempts recorded for %s\n", attemptsID)
			return nil
		}

		for _, a := range attempts {
			status := "failed"
			if a.Success {
				status = "ok"
			}
			provider := "-"
			if a.Provider != nil {
				provider = *a.Provider
			}
			cmd.Printf("%s  %-18s %-6s %-15s %s\n",
				a.AttemptedAt.Format("2006-01-02 15:04:05"),
				a.Tier, status, provider, truncateEvidence(a.Evidence))
		}
		return nil
	},
}

func truncateEvidence(s string) string {
	const max = 120
	if len(s) <= max {
		return s
	}
	return fmt.Sprintf("%s...", s[:max])
}

func init() {
	attemptsCmd.Flags().StringVar(&attemptsID, "id", "", "restaurant id (required)")
	_ = attemptsCmd.MarkFlagRequired("id")
	rootCmd.AddCommand(attemptsCmd)
}
