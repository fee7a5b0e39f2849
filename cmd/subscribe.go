package main

import (
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/newsletter-cli/internal/model"
)

var (
	subscribeID    string
	subscribeAll   bool
	subscribeEmail string
)

var subscribeCmd = &cobra.Command{
	Use:   "subscribe",
	Short: "Run tiered subscription attempts",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if subscribeID == "" && !subscribeAll {
			return eris.New("either --id or --all is required")
		}

		e, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		var restaurants []model.Restaurant
		if subscribeAll {
			restaurants, err = e.Store.ListRestaurants(ctx)
			if err != nil {
				return err
			}
		} else {
			r, err := e.Store.GetRestaurant(ctx, subscribeID)
			if err != nil {
				return err
			}
			restaurants = []model.Restaurant{*r}
		}

		var succeeded, manual int
		for _, r := range restaurants {
			attempt, err := e.Subscribe.Subscribe(ctx, r, subscribeEmail)
			if err != nil {
				// A failed audit-log write still carries the attempt; stop
				// the batch rather than continue without a trail.
				return eris.Wrapf(err, "subscribe %s", r.ID)
			}
			if attempt.Success {
				succeeded++
			}
			if attempt.Tier == model.TierNeedsManual {
				manual++
			}
		}

		zap.L().Info("subscribe complete",
			zap.Int("processed", len(restaurants)),
			zap.Int("succeeded", succeeded),
			zap.Int("needs_manual", manual),
		)
		return nil
	},
}

func init() {
	subscribeCmd.Flags().StringVar(&subscribeID, "id", "", "restaurant id to subscribe")
	subscribeCmd.Flags().BoolVar(&subscribeAll, "all", false, "subscribe every imported restaurant")
	subscribeCmd.Flags().StringVar(&subscribeEmail, "email", "", "email address to subscribe (required)")
	_ = subscribeCmd.MarkFlagRequired("email")
	rootCmd.AddCommand(subscribeCmd)
}
