package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/newsletter-cli/internal/enrich"
	"github.com/sells-group/newsletter-cli/internal/fetch"
	"github.com/sells-group/newsletter-cli/internal/store"
	"github.com/sells-group/newsletter-cli/internal/submit"
	"github.com/sells-group/newsletter-cli/internal/subscribe"
)

// env holds the initialized store and orchestrators shared by the enrich,
// subscribe, and serve commands.
type env struct {
	Store     store.Store
	Enricher  *enrich.Orchestrator
	Subscribe *subscribe.Orchestrator
}

// Close releases resources held by the environment.
func (e *env) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initEnv sets up the store, fetcher, pacers, and both orchestrators.
// Callers should defer env.Close().
func initEnv(ctx context.Context) (*env, error) {
	st, err := store.New(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	fetcher := fetch.New(fetch.Options{
		UserAgent: cfg.Fetch.UserAgent,
		Timeout:   cfg.Fetch.Timeout(),
		MaxBody:   int64(cfg.Fetch.MaxBodyKB) * 1024,
	})

	// One site pacer shared by enrichment and tier 2 keeps the combined
	// fetch stream under the minimum-delay guarantee.
	sitePacer := fetch.NewPacer(cfg.Pace.SiteFetch())
	directPacer := fetch.NewPacer(cfg.Pace.DirectPost())
	submitters := submit.NewClient(cfg.Fetch.Timeout())

	return &env{
		Store:     st,
		Enricher:  enrich.New(st, fetcher, sitePacer),
		Subscribe: subscribe.New(st, fetcher, submitters, sitePacer, directPacer),
	}, nil
}
