//go:build !integration

package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/newsletter-cli/internal/config"
	"github.com/sells-group/newsletter-cli/internal/model"
	"github.com/sells-group/newsletter-cli/internal/store"
)

func testEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()
	st, err := store.New(ctx, config.StoreConfig{Driver: "sqlite", DatabaseURL: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, st.Migrate(ctx))
	t.Cleanup(func() { _ = st.Close() })
	return &env{Store: st}
}

func TestRouter_Health(t *testing.T) {
	r := newRouter(context.Background(), testEnv(t))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestRouter_EnrichValidation(t *testing.T) {
	r := newRouter(context.Background(), testEnv(t))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/enrich", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/enrich", strings.NewReader(`not json`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_EnrichUnknownRestaurant(t *testing.T) {
	r := newRouter(context.Background(), testEnv(t))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/enrich",
		strings.NewReader(`{"restaurant_id":"nope"}`)))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_SubscribeValidation(t *testing.T) {
	e := testEnv(t)
	require.NoError(t, e.Store.UpsertRestaurant(context.Background(), model.Restaurant{
		ID: "r1", Name: "Trattoria", WebsiteURL: "https://trattoria.example",
	}))
	r := newRouter(context.Background(), e)

	// Missing email is rejected before any dispatch.
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/subscribe",
		strings.NewReader(`{"restaurant_id":"r1"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_ListAttempts(t *testing.T) {
	e := testEnv(t)
	ctx := context.Background()
	require.NoError(t, e.Store.UpsertRestaurant(ctx, model.Restaurant{
		ID: "r1", Name: "Trattoria", WebsiteURL: "https://trattoria.example",
	}))
	r := newRouter(ctx, e)

	// Empty log serializes as an empty array, not null.
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/restaurants/r1/attempts", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))

	require.NoError(t, e.Store.LogAttempt(ctx, &model.SubscriptionAttempt{
		RestaurantID: "r1",
		Email:        "diner@example.com",
		Tier:         model.TierForm,
		Success:      false,
		Evidence:     "status 422; body: already subscribed",
	}))

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/restaurants/r1/attempts", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var attempts []model.SubscriptionAttempt
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&attempts))
	require.Len(t, attempts, 1)
	assert.Equal(t, model.TierForm, attempts[0].Tier)
	assert.NotEmpty(t, attempts[0].Evidence)
}
