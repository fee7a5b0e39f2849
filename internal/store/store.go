package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/newsletter-cli/internal/config"
	"github.com/sells-group/newsletter-cli/internal/model"
)

// Store defines the persistence interface for the detection-and-subscription
// engine. Each call is atomic; there are no cross-call transactions, so
// concurrent writers to the same restaurant id resolve last-write-wins.
type Store interface {
	// Restaurants
	UpsertRestaurant(ctx context.Context, r model.Restaurant) error
	GetRestaurant(ctx context.Context, id string) (*model.Restaurant, error)
	ListRestaurants(ctx context.Context) ([]model.Restaurant, error)

	// Enrichment records: one per restaurant, upserted, never deleted.
	// GetEnrichment returns (nil, nil) when no record exists.
	GetEnrichment(ctx context.Context, restaurantID string) (*model.EnrichmentRecord, error)
	UpsertEnrichment(ctx context.Context, rec *model.EnrichmentRecord) error

	// Attempt log: append-only, one row per subscription attempt.
	LogAttempt(ctx context.Context, attempt *model.SubscriptionAttempt) error
	ListAttempts(ctx context.Context, restaurantID string) ([]model.SubscriptionAttempt, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// New opens the store selected by config. SQLite is the default backend;
// Postgres is for shared deployments.
func New(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "", "sqlite":
		return NewSQLite(cfg.DatabaseURL)
	case "postgres":
		return NewPostgres(ctx, cfg.DatabaseURL)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
}
