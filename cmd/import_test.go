//go:build !integration

package main

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImportCmd_Metadata(t *testing.T) {
	assert.Equal(t, "import", importCmd.Use)
	assert.NotEmpty(t, importCmd.Short)

	csvFlag := importCmd.Flags().Lookup("csv")
	require.NotNil(t, csvFlag)
}

func TestImportRestaurants(t *testing.T) {
	e := testEnv(t)
	ctx := context.Background()

	csv := strings.Join([]string{
		"id,name,website_url",
		"r1,Trattoria Bella,https://trattoria.example",
		`r2,"Smoke & Barrel",https://smokebarrel.example`,
		",Missing ID,https://nowhere.example",
		"r3,No URL,",
	}, "\n")

	imported, skipped, err := importRestaurants(ctx, e.Store, strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, 2, imported)
	assert.Equal(t, 2, skipped)

	r, err := e.Store.GetRestaurant(ctx, "r2")
	require.NoError(t, err)
	assert.Equal(t, "Smoke & Barrel", r.Name)
	assert.Equal(t, "https://smokebarrel.example", r.WebsiteURL)
}

func TestImportRestaurants_NoHeader(t *testing.T) {
	e := testEnv(t)

	imported, skipped, err := importRestaurants(context.Background(), e.Store,
		strings.NewReader("r9,Headerless Diner,https://diner.example\n"))
	require.NoError(t, err)
	assert.Equal(t, 1, imported)
	assert.Equal(t, 0, skipped)
}

func TestImportRestaurants_Reimport(t *testing.T) {
	e := testEnv(t)
	ctx := context.Background()

	in := "r1,Old Name,https://old.example\n"
	_, _, err := importRestaurants(ctx, e.Store, strings.NewReader(in))
	require.NoError(t, err)

	// A second import with the same id updates in place.
	in = "r1,New Name,https://new.example\n"
	_, _, err = importRestaurants(ctx, e.Store, strings.NewReader(in))
	require.NoError(t, err)

	all, err := e.Store.ListRestaurants(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "New Name", all[0].Name)
}
