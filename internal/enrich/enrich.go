package enrich

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/newsletter-cli/internal/extractor"
	"github.com/sells-group/newsletter-cli/internal/fetch"
	"github.com/sells-group/newsletter-cli/internal/model"
	"github.com/sells-group/newsletter-cli/internal/provider"
	"github.com/sells-group/newsletter-cli/internal/store"
)

// Outcome is what enrichment learned about a restaurant. Both fields are
// nil when the site was unreachable or carried no recognizable sign-up.
type Outcome struct {
	Provider *string `json:"provider,omitempty"`
	Endpoint *string `json:"endpoint,omitempty"`
}

// Orchestrator fetches a restaurant's homepage once, runs fingerprinting
// then candidate extraction, and persists the best finding. Every call
// leaves exactly one upserted EnrichmentRecord, so repeated runs are
// idempotent for an unchanged site.
type Orchestrator struct {
	store   store.Store
	fetcher *fetch.Fetcher
	pacer   *fetch.Pacer
}

// New creates an enrichment orchestrator. The pacer is shared with every
// other component that fetches arbitrary small websites.
func New(st store.Store, fetcher *fetch.Fetcher, pacer *fetch.Pacer) *Orchestrator {
	return &Orchestrator{store: st, fetcher: fetcher, pacer: pacer}
}

// Enrich classifies one restaurant's website and persists the result. A
// failed fetch is not an error: it persists an all-null record and returns
// empty. Only pacing interruption and store failures propagate.
func (o *Orchestrator) Enrich(ctx context.Context, restaurantID, websiteURL string) (Outcome, error) {
	if err := o.pacer.Wait(ctx); err != nil {
		return Outcome{}, eris.Wrap(err, "enrich: pacing interrupted")
	}

	now := time.Now().UTC()
	rec := &model.EnrichmentRecord{
		RestaurantID: restaurantID,
		WebsiteURL:   websiteURL,
		EnrichedAt:   now,
		UpdatedAt:    now,
	}

	res := o.fetcher.Fetch(ctx, websiteURL)
	if !res.OK() {
		zap.L().Info("enrich: site unreachable",
			zap.String("restaurant_id", restaurantID),
			zap.String("url", websiteURL),
			zap.String("reason", res.Failure()),
		)
		if err := o.store.UpsertEnrichment(ctx, rec); err != nil {
			return Outcome{}, err
		}
		return Outcome{}, nil
	}

	html := string(res.Body)
	detection := provider.Detect(html)
	candidates := extractor.Extract(html)

	if detection.Detected() {
		rec.Provider = &detection.Provider
		if detection.DirectEndpoint != "" {
			rec.DirectEndpoint = &detection.DirectEndpoint
		}
	}

	switch {
	case detection.DirectEndpoint != "":
		rec.NewsletterURL = &detection.DirectEndpoint
	case len(candidates) > 0 && candidates[0].URL != "":
		rec.NewsletterURL = &candidates[0].URL
	}

	if len(candidates) > 0 && candidates[0].FormHTML != "" {
		snapshot := candidates[0].FormHTML
		if len(snapshot) > model.FormHTMLMaxLen {
			snapshot = snapshot[:model.FormHTMLMaxLen]
		}
		rec.FormHTML = &snapshot
	}

	if len(detection.ExtractedParams) > 0 {
		serialized, err := json.Marshal(detection.ExtractedParams)
		if err == nil {
			s := string(serialized)
			rec.ExtractedParams = &s
		}
	}

	if err := o.store.UpsertEnrichment(ctx, rec); err != nil {
		return Outcome{}, err
	}

	zap.L().Info("enrich: complete",
		zap.String("restaurant_id", restaurantID),
		zap.String("provider", detection.Provider),
		zap.Int("confidence", detection.Confidence),
		zap.Int("candidates", len(candidates)),
	)

	return Outcome{Provider: rec.Provider, Endpoint: rec.DirectEndpoint}, nil
}
