package main

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/newsletter-cli/internal/model"
	"github.com/sells-group/newsletter-cli/internal/store"
)

var importCSVPath string

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import restaurants from CSV",
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

		f, err := os.Open(importCSVPath)
		if err != nil {
			return eris.Wrap(err, "import: open csv")
		}
		defer func() { _ = f.Close() }()

		imported, skipped, err := importRestaurants(cmd.Context(), st, f)
		if err != nil {
			return err
		}

		zap.L().Info("import complete",
			zap.Int("imported", imported),
			zap.Int("skipped", skipped),
			zap.String("csv", importCSVPath),
		)
		return nil
	},
}

// importRestaurants reads id,name,website_url rows, tolerating a header
// line and skipping rows without an id or URL.
func importRestaurants(ctx context.Context, st store.Store, r io.Reader) (imported, skipped int, err error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	first := true
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return imported, skipped, eris.Wrap(err, "import: read csv")
		}

		if first {
			first = false
			if len(row) > 0 && strings.EqualFold(strings.TrimSpace(row[0]), "id") {
				continue
			}
		}

		if len(row) < 3 || strings.TrimSpace(row[0]) == "" || strings.TrimSpace(row[2]) == "" {
			skipped++
			continue
		}

		rest := model.Restaurant{
			ID:         strings.TrimSpace(row[0]),
			Name:       strings.TrimSpace(row[1]),
			WebsiteURL: strings.TrimSpace(row[2]),
		}
		if err := st.UpsertRestaurant(ctx, rest); err != nil {
			return imported, skipped, err
		}
		imported++
	}
	return imported, skipped, nil
}

func init() {
	importCmd.Flags().StringVar(&importCSVPath, "csv", "", "path to CSV file (required)")
	_ = importCmd.MarkFlagRequired("csv")
	rootCmd.AddCommand(importCmd)
}
