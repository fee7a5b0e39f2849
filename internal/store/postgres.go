package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/newsletter-cli/internal/model"
)

// pgxPool is the subset of pgxpool.Pool the store uses. Tests inject a
// pgxmock pool through it.
type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool pgxPool
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the hot store operations.
var preparedStatements = map[string]string{
	"get_enrichment": `SELECT restaurant_id, website_url, newsletter_url, newsletter_form_html,
		newsletter_provider, newsletter_direct_endpoint, newsletter_extracted_params,
		enriched_at, updated_at FROM enrichments WHERE restaurant_id = $1`,
	"log_attempt": `INSERT INTO subscription_attempts
		(id, restaurant_id, email, tier, provider, endpoint, success, evidence, attempted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS restaurants (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL DEFAULT '',
	website_url TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS enrichments (
	restaurant_id               TEXT PRIMARY KEY REFERENCES restaurants(id),
	website_url                 TEXT NOT NULL,
	newsletter_url              TEXT,
	newsletter_form_html        TEXT,
	newsletter_provider         TEXT,
	newsletter_direct_endpoint  TEXT,
	newsletter_extracted_params TEXT,
	enriched_at                 TIMESTAMPTZ NOT NULL,
	updated_at                  TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS subscription_attempts (
	id            TEXT PRIMARY KEY,
	restaurant_id TEXT NOT NULL,
	email         TEXT NOT NULL,
	tier          TEXT NOT NULL,
	provider      TEXT,
	endpoint      TEXT,
	success       BOOLEAN NOT NULL,
	evidence      TEXT NOT NULL CHECK (evidence <> ''),
	attempted_at  TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_attempts_restaurant_id ON subscription_attempts(restaurant_id);
CREATE INDEX IF NOT EXISTS idx_attempts_attempted_at ON subscription_attempts(attempted_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) UpsertRestaurant(ctx context.Context, r model.Restaurant) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO restaurants (id, name, website_url) VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, website_url = EXCLUDED.website_url`,
		r.ID, r.Name, r.WebsiteURL,
	)
	return eris.Wrapf(err, "postgres: upsert restaurant %s", r.ID)
}

func (s *PostgresStore) GetRestaurant(ctx context.Context, id string) (*model.Restaurant, error) {
	var r model.Restaurant
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, website_url FROM restaurants WHERE id = $1`, id,
	).Scan(&r.ID, &r.Name, &r.WebsiteURL)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Errorf("restaurant not found: %s", id)
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get restaurant")
	}
	return &r, nil
}

func (s *PostgresStore) ListRestaurants(ctx context.Context) ([]model.Restaurant, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, website_url FROM restaurants ORDER BY id`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list restaurants")
	}
	defer rows.Close()

	var out []model.Restaurant
	for rows.Next() {
		var r model.Restaurant
		if err := rows.Scan(&r.ID, &r.Name, &r.WebsiteURL); err != nil {
			return nil, eris.Wrap(err, "postgres: scan restaurant")
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list restaurants iterate")
}

func (s *PostgresStore) GetEnrichment(ctx context.Context, restaurantID string) (*model.EnrichmentRecord, error) {
	var rec model.EnrichmentRecord
	err := s.pool.QueryRow(ctx, "get_enrichment", restaurantID).Scan(
		&rec.RestaurantID, &rec.WebsiteURL, &rec.NewsletterURL, &rec.FormHTML,
		&rec.Provider, &rec.DirectEndpoint, &rec.ExtractedParams,
		&rec.EnrichedAt, &rec.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get enrichment")
	}
	return &rec, nil
}

func (s *PostgresStore) UpsertEnrichment(ctx context.Context, rec *model.EnrichmentRecord) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO enrichments (
			restaurant_id, website_url, newsletter_url, newsletter_form_html,
			newsletter_provider, newsletter_direct_endpoint, newsletter_extracted_params,
			enriched_at, updated_at
		 ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (restaurant_id) DO UPDATE SET
			website_url = EXCLUDED.website_url,
			newsletter_url = EXCLUDED.newsletter_url,
			newsletter_form_html = EXCLUDED.newsletter_form_html,
			newsletter_provider = EXCLUDED.newsletter_provider,
			newsletter_direct_endpoint = EXCLUDED.newsletter_direct_endpoint,
			newsletter_extracted_params = EXCLUDED.newsletter_extracted_params,
			enriched_at = EXCLUDED.enriched_at,
			updated_at = EXCLUDED.updated_at`,
		rec.RestaurantID, rec.WebsiteURL, rec.NewsletterURL, rec.FormHTML,
		rec.Provider, rec.DirectEndpoint, rec.ExtractedParams,
		rec.EnrichedAt, rec.UpdatedAt,
	)
	return eris.Wrapf(err, "postgres: upsert enrichment %s", rec.RestaurantID)
}

func (s *PostgresStore) LogAttempt(ctx context.Context, attempt *model.SubscriptionAttempt) error {
	if attempt.ID == "" {
		attempt.ID = uuid.New().String()
	}
	if attempt.AttemptedAt.IsZero() {
		attempt.AttemptedAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx, "log_attempt",
		attempt.ID, attempt.RestaurantID, attempt.Email, string(attempt.Tier),
		attempt.Provider, attempt.Endpoint, attempt.Success, attempt.Evidence,
		attempt.AttemptedAt,
	)
	return eris.Wrapf(err, "postgres: log attempt for %s", attempt.RestaurantID)
}

func (s *PostgresStore) ListAttempts(ctx context.Context, restaurantID string) ([]model.SubscriptionAttempt, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, restaurant_id, email, tier, provider, endpoint, success, evidence, attempted_at
		 FROM subscription_attempts WHERE restaurant_id = $1 ORDER BY attempted_at DESC`,
		restaurantID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list attempts")
	}
	defer rows.Close()

	var out []model.SubscriptionAttempt
	for rows.Next() {
		var a model.SubscriptionAttempt
		if err := rows.Scan(
			&a.ID, &a.RestaurantID, &a.Email, &a.Tier, &a.Provider, &a.Endpoint,
			&a.Success, &a.Evidence, &a.AttemptedAt,
		); err != nil {
			return nil, eris.Wrap(err, "postgres: scan attempt")
		}
		out = append(out, a)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list attempts iterate")
}
