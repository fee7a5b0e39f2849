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
	enrichID  string
	enrichAll bool
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Fetch and classify restaurant websites",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if enrichID == "" && !enrichAll {
			return eris.New("either --id or --all is required")
		}

		e, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		var restaurants []model.Restaurant
		if enrichAll {
			restaurants, err = e.Store.ListRestaurants(ctx)
			if err != nil {
				return err
			}
		} else {
			r, err := e.Store.GetRestaurant(ctx, enrichID)
			if err != nil {
				return err
			}
			restaurants = []model.Restaurant{*r}
		}

		// Strictly sequential: the pacer inside the orchestrator spaces
		// out fetches, one site at a time.
		var detected int
		for _, r := range restaurants {
			out, err := e.Enricher.Enrich(ctx, r.ID, r.WebsiteURL)
			if err != nil {
				return eris.Wrapf(err, "enrich %s", r.ID)
			}
			if out.Provider != nil {
				detected++
			}
		}

		zap.L().Info("enrich complete",
			zap.Int("processed", len(restaurants)),
			zap.Int("detected", detected),
		)
		return nil
	},
}

func init() {
	enrichCmd.Flags().StringVar(&enrichID, "id", "", "restaurant id to enrich")
	enrichCmd.Flags().BoolVar(&enrichAll, "all", false, "enrich every imported restaurant")
	rootCmd.AddCommand(enrichCmd)
}
