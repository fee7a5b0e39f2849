package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/newsletter-cli/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func TestPostgresStore_GetEnrichment_Missing(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	// Dispatched by prepared-statement name, not SQL text.
	mock.ExpectQuery(`get_enrichment`).
		WithArgs("r-missing").
		WillReturnError(pgx.ErrNoRows)

	rec, err := s.GetEnrichment(context.Background(), "r-missing")
	require.NoError(t, err)
	assert.Nil(t, rec)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetEnrichment_Found(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	provider := "mailchimp"
	endpoint := "https://x.us1.list-manage.com/subscribe/post?u=U&id=I"
	now := time.Now().UTC()

	mock.ExpectQuery(`get_enrichment`).
		WithArgs("r1").
		WillReturnRows(pgxmock.NewRows([]string{
			"restaurant_id", "website_url", "newsletter_url", "newsletter_form_html",
			"newsletter_provider", "newsletter_direct_endpoint", "newsletter_extracted_params",
			"enriched_at", "updated_at",
		}).AddRow(
			"r1", "https://bistro.example", &endpoint, nil,
			&provider, &endpoint, nil,
			now, now,
		))

	rec, err := s.GetEnrichment(context.Background(), "r1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "r1", rec.RestaurantID)
	require.NotNil(t, rec.Provider)
	assert.Equal(t, "mailchimp", *rec.Provider)
	assert.True(t, rec.HasDirectEndpoint())
	assert.Nil(t, rec.FormHTML)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetRestaurant_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, name, website_url FROM restaurants WHERE id = \$1`).
		WithArgs("nope").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetRestaurant(context.Background(), "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "restaurant not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpsertEnrichment(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`ON CONFLICT \(restaurant_id\) DO UPDATE`).
		WithArgs("r1", "https://bistro.example", (*string)(nil), (*string)(nil),
			(*string)(nil), (*string)(nil), (*string)(nil),
			pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	now := time.Now().UTC()
	err := s.UpsertEnrichment(context.Background(), &model.EnrichmentRecord{
		RestaurantID: "r1",
		WebsiteURL:   "https://bistro.example",
		EnrichedAt:   now,
		UpdatedAt:    now,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_LogAttempt_FillsDefaults(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`log_attempt`).
		WithArgs(pgxmock.AnyArg(), "r1", "diner@example.com", "tier2_form",
			(*string)(nil), (*string)(nil), false, "no form found", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	attempt := &model.SubscriptionAttempt{
		RestaurantID: "r1",
		Email:        "diner@example.com",
		Tier:         model.TierForm,
		Success:      false,
		Evidence:     "no form found",
	}
	require.NoError(t, s.LogAttempt(context.Background(), attempt))

	// The store fills the row id and timestamp before inserting.
	assert.NotEmpty(t, attempt.ID)
	assert.False(t, attempt.AttemptedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_LogAttempt_KeepsExplicitID(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	at := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectExec(`log_attempt`).
		WithArgs("preset-id", "r1", "diner@example.com", "tier1_direct",
			(*string)(nil), (*string)(nil), true, "status 200; body: ok", at).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	attempt := &model.SubscriptionAttempt{
		ID:           "preset-id",
		RestaurantID: "r1",
		Email:        "diner@example.com",
		Tier:         model.TierDirect,
		Success:      true,
		Evidence:     "status 200; body: ok",
		AttemptedAt:  at,
	}
	require.NoError(t, s.LogAttempt(context.Background(), attempt))
	assert.Equal(t, "preset-id", attempt.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
