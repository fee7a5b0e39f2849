package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/newsletter-cli/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func strPtr(s string) *string { return &s }

func TestRestaurants_UpsertGetList(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	r := model.Restaurant{ID: "r1", Name: "The Bistro", WebsiteURL: "https://thebistro.com"}
	require.NoError(t, s.UpsertRestaurant(ctx, r))

	got, err := s.GetRestaurant(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, r, *got)

	// Upsert overwrites.
	r.WebsiteURL = "https://thebistro.example"
	require.NoError(t, s.UpsertRestaurant(ctx, r))
	got, err = s.GetRestaurant(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "https://thebistro.example", got.WebsiteURL)

	require.NoError(t, s.UpsertRestaurant(ctx, model.Restaurant{ID: "r2", WebsiteURL: "https://x.com"}))
	all, err := s.ListRestaurants(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = s.GetRestaurant(ctx, "missing")
	assert.Error(t, err)
}

func TestEnrichment_MissingIsNilNil(t *testing.T) {
	s := newTestStore(t)

	rec, err := s.GetEnrichment(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestEnrichment_UpsertRoundtrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, s.UpsertRestaurant(ctx, model.Restaurant{ID: "r1", WebsiteURL: "https://b.com"}))

	rec := &model.EnrichmentRecord{
		RestaurantID:    "r1",
		WebsiteURL:      "https://b.com",
		NewsletterURL:   strPtr("https://b.us1.list-manage.com/subscribe/post?u=A&id=B"),
		FormHTML:        strPtr("<form></form>"),
		Provider:        strPtr("mailchimp"),
		DirectEndpoint:  strPtr("https://b.us1.list-manage.com/subscribe/post?u=A&id=B"),
		ExtractedParams: strPtr(`{"u":"A","id":"B"}`),
		EnrichedAt:      now,
		UpdatedAt:       now,
	}
	require.NoError(t, s.UpsertEnrichment(ctx, rec))

	got, err := s.GetEnrichment(ctx, "r1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "mailchimp", *got.Provider)
	assert.Equal(t, map[string]string{"u": "A", "id": "B"}, got.Params())
	assert.True(t, got.HasDirectEndpoint())
}

func TestEnrichment_ReenrichOverwritesFields(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, s.UpsertRestaurant(ctx, model.Restaurant{ID: "r1", WebsiteURL: "https://b.com"}))

	require.NoError(t, s.UpsertEnrichment(ctx, &model.EnrichmentRecord{
		RestaurantID: "r1", WebsiteURL: "https://b.com",
		Provider:       strPtr("mailchimp"),
		DirectEndpoint: strPtr("https://old.example"),
		EnrichedAt:     now, UpdatedAt: now,
	}))

	// Second enrichment found nothing: all classification fields null.
	require.NoError(t, s.UpsertEnrichment(ctx, &model.EnrichmentRecord{
		RestaurantID: "r1", WebsiteURL: "https://b.com",
		EnrichedAt: now.Add(time.Minute), UpdatedAt: now.Add(time.Minute),
	}))

	got, err := s.GetEnrichment(ctx, "r1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "r1", got.RestaurantID)
	assert.Nil(t, got.Provider)
	assert.Nil(t, got.DirectEndpoint)
	assert.False(t, got.HasDirectEndpoint())
}

func TestEnrichment_MalformedParamsDegrade(t *testing.T) {
	rec := &model.EnrichmentRecord{ExtractedParams: strPtr("{not json")}
	assert.Equal(t, map[string]string{}, rec.Params())

	rec = &model.EnrichmentRecord{}
	assert.Equal(t, map[string]string{}, rec.Params())
}

func TestAttempts_AppendOnlyOrdered(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := &model.SubscriptionAttempt{
		RestaurantID: "r1", Email: "d@example.com",
		Tier: model.TierDirect, Success: true, Evidence: "status 200",
		AttemptedAt: time.Now().UTC().Add(-time.Hour),
	}
	second := &model.SubscriptionAttempt{
		RestaurantID: "r1", Email: "d@example.com",
		Tier: model.TierForm, Success: false, Evidence: "no form found",
		AttemptedAt: time.Now().UTC(),
	}
	require.NoError(t, s.LogAttempt(ctx, first))
	require.NoError(t, s.LogAttempt(ctx, second))
	assert.NotEmpty(t, first.ID)

	attempts, err := s.ListAttempts(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, attempts, 2)
	// Most recent first.
	assert.Equal(t, model.TierForm, attempts[0].Tier)
	assert.Equal(t, model.TierDirect, attempts[1].Tier)

	other, err := s.ListAttempts(ctx, "r2")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestAttempts_EmptyEvidenceRejected(t *testing.T) {
	s := newTestStore(t)

	err := s.LogAttempt(context.Background(), &model.SubscriptionAttempt{
		RestaurantID: "r1", Email: "d@example.com", Tier: model.TierDirect,
	})
	assert.Error(t, err, "evidence check constraint must reject empty evidence")
}
