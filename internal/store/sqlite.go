package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/newsletter-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
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
	enriched_at                 DATETIME NOT NULL,
	updated_at                  DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS subscription_attempts (
	id            TEXT PRIMARY KEY,
	restaurant_id TEXT NOT NULL,
	email         TEXT NOT NULL,
	tier          TEXT NOT NULL,
	provider      TEXT,
	endpoint      TEXT,
	success       INTEGER NOT NULL,
	evidence      TEXT NOT NULL CHECK (evidence <> ''),
	attempted_at  DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_attempts_restaurant_id ON subscription_attempts(restaurant_id);
CREATE INDEX IF NOT EXISTS idx_attempts_attempted_at ON subscription_attempts(attempted_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) UpsertRestaurant(ctx context.Context, r model.Restaurant) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO restaurants (id, name, website_url) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name, website_url = excluded.website_url`,
		r.ID, r.Name, r.WebsiteURL,
	)
	return eris.Wrapf(err, "sqlite: upsert restaurant %s", r.ID)
}

func (s *SQLiteStore) GetRestaurant(ctx context.Context, id string) (*model.Restaurant, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, website_url FROM restaurants WHERE id = ?`, id,
	)
	var r model.Restaurant
	err := row.Scan(&r.ID, &r.Name, &r.WebsiteURL)
	if err == sql.ErrNoRows {
		return nil, eris.Errorf("restaurant not found: %s", id)
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get restaurant")
	}
	return &r, nil
}

func (s *SQLiteStore) ListRestaurants(ctx context.Context) ([]model.Restaurant, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, website_url FROM restaurants ORDER BY id`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list restaurants")
	}
	defer rows.Close()

	var out []model.Restaurant
	for rows.Next() {
		var r model.Restaurant
		if err := rows.Scan(&r.ID, &r.Name, &r.WebsiteURL); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan restaurant")
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list restaurants iterate")
}

func (s *SQLiteStore) GetEnrichment(ctx context.Context, restaurantID string) (*model.EnrichmentRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT restaurant_id, website_url, newsletter_url, newsletter_form_html,
		        newsletter_provider, newsletter_direct_endpoint, newsletter_extracted_params,
		        enriched_at, updated_at
		 FROM enrichments WHERE restaurant_id = ?`,
		restaurantID,
	)

	var rec model.EnrichmentRecord
	err := row.Scan(
		&rec.RestaurantID, &rec.WebsiteURL, &rec.NewsletterURL, &rec.FormHTML,
		&rec.Provider, &rec.DirectEndpoint, &rec.ExtractedParams,
		&rec.EnrichedAt, &rec.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get enrichment")
	}
	return &rec, nil
}

func (s *SQLiteStore) UpsertEnrichment(ctx context.Context, rec *model.EnrichmentRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO enrichments (
			restaurant_id, website_url, newsletter_url, newsletter_form_html,
			newsletter_provider, newsletter_direct_endpoint, newsletter_extracted_params,
			enriched_at, updated_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(restaurant_id) DO UPDATE SET
			website_url = excluded.website_url,
			newsletter_url = excluded.newsletter_url,
			newsletter_form_html = excluded.newsletter_form_html,
			newsletter_provider = excluded.newsletter_provider,
			newsletter_direct_endpoint = excluded.newsletter_direct_endpoint,
			newsletter_extracted_params = excluded.newsletter_extracted_params,
			enriched_at = excluded.enriched_at,
			updated_at = excluded.updated_at`,
		rec.RestaurantID, rec.WebsiteURL, rec.NewsletterURL, rec.FormHTML,
		rec.Provider, rec.DirectEndpoint, rec.ExtractedParams,
		rec.EnrichedAt, rec.UpdatedAt,
	)
	return eris.Wrapf(err, "sqlite: upsert enrichment %s", rec.RestaurantID)
}

func (s *SQLiteStore) LogAttempt(ctx context.Context, attempt *model.SubscriptionAttempt) error {
	if attempt.ID == "" {
		attempt.ID = uuid.New().String()
	}
	if attempt.AttemptedAt.IsZero() {
		attempt.AttemptedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO subscription_attempts (
			id, restaurant_id, email, tier, provider, endpoint, success, evidence, attempted_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		attempt.ID, attempt.RestaurantID, attempt.Email, string(attempt.Tier),
		attempt.Provider, attempt.Endpoint, attempt.Success, attempt.Evidence,
		attempt.AttemptedAt,
	)
	return eris.Wrapf(err, "sqlite: log attempt for %s", attempt.RestaurantID)
}

func (s *SQLiteStore) ListAttempts(ctx context.Context, restaurantID string) ([]model.SubscriptionAttempt, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, restaurant_id, email, tier, provider, endpoint, success, evidence, attempted_at
		 FROM subscription_attempts WHERE restaurant_id = ? ORDER BY attempted_at DESC`,
		restaurantID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list attempts")
	}
	defer rows.Close()

	var out []model.SubscriptionAttempt
	for rows.Next() {
		var a model.SubscriptionAttempt
		if err := rows.Scan(
			&a.ID, &a.RestaurantID, &a.Email, &a.Tier, &a.Provider, &a.Endpoint,
			&a.Success, &a.Evidence, &a.AttemptedAt,
		); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan attempt")
		}
		out = append(out, a)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list attempts iterate")
}
