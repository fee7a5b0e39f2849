package subscribe

import (
	"context"
	"fmt"
	"net/url"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/newsletter-cli/internal/extractor"
	"github.com/sells-group/newsletter-cli/internal/fetch"
	"github.com/sells-group/newsletter-cli/internal/model"
	"github.com/sells-group/newsletter-cli/internal/provider"
	"github.com/sells-group/newsletter-cli/internal/store"
	"github.com/sells-group/newsletter-cli/internal/submit"
)

// Orchestrator runs the tiered subscription state machine for one
// restaurant at a time. Tier 1 posts straight to a known provider endpoint,
// tier 2 re-scrapes the live site and submits whatever it finds, tier 3
// hands off to a human when bot protection blocks automation. A tier's
// outcome is terminal: tier 1 never falls through to tier 2 on failure.
type Orchestrator struct {
	store       store.Store
	fetcher     *fetch.Fetcher
	submitters  *submit.Client
	sitePacer   *fetch.Pacer
	directPacer *fetch.Pacer
}

// New creates a subscription orchestrator. sitePacer throttles full website
// fetches; directPacer throttles posts to provider marketing APIs, which
// tolerate a much shorter quantum.
func New(st store.Store, fetcher *fetch.Fetcher, submitters *submit.Client, sitePacer, directPacer *fetch.Pacer) *Orchestrator {
	return &Orchestrator{
		store:       st,
		fetcher:     fetcher,
		submitters:  submitters,
		sitePacer:   sitePacer,
		directPacer: directPacer,
	}
}

// Subscribe attempts to subscribe the email to one restaurant's newsletter
// and logs exactly one SubscriptionAttempt row regardless of outcome. The
// attempt is returned even when the log write fails; the log error is
// reported alongside it rather than swallowing the result.
func (o *Orchestrator) Subscribe(ctx context.Context, r model.Restaurant, email string) (*model.SubscriptionAttempt, error) {
	rec, err := o.store.GetEnrichment(ctx, r.ID)
	if err != nil {
		return nil, err
	}

	var attempt *model.SubscriptionAttempt
	if rec != nil && rec.HasDirectEndpoint() {
		attempt, err = o.tierDirect(ctx, r, rec, email)
	} else {
		attempt, err = o.tierForm(ctx, r, email)
	}
	if err != nil {
		return nil, err
	}

	zap.L().Info("subscribe: attempt finished",
		zap.String("restaurant_id", r.ID),
		zap.String("tier", string(attempt.Tier)),
		zap.Bool("success", attempt.Success),
	)

	if logErr := o.store.LogAttempt(ctx, attempt); logErr != nil {
		// The caller still gets the attempt; dropping it would hide a
		// completed outbound request from the audit trail consumer.
		return attempt, eris.Wrap(logErr, "subscribe: attempt log write")
	}
	return attempt, nil
}

// tierDirect posts to the persisted provider endpoint. Entered only when
// the enrichment record carries both an endpoint and a provider; terminal
// whatever the submitter says.
func (o *Orchestrator) tierDirect(ctx context.Context, r model.Restaurant, rec *model.EnrichmentRecord, email string) (*model.SubscriptionAttempt, error) {
	if err := o.directPacer.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "subscribe: pacing interrupted")
	}

	// A corrupt parameter blob degrades to an empty set, it never aborts.
	params := rec.Params()
	result := o.submitters.For(*rec.Provider).Submit(ctx, *rec.DirectEndpoint, params, email)

	return &model.SubscriptionAttempt{
		RestaurantID: r.ID,
		Email:        email,
		Tier:         model.TierDirect,
		Provider:     rec.Provider,
		Endpoint:     rec.DirectEndpoint,
		Success:      result.Success,
		Evidence:     result.Evidence,
	}, nil
}

// tierForm re-fetches the live site and works with fresh HTML: escalate on
// bot protection, submit direct when a platform is freshly fingerprinted,
// otherwise post to the best scraped candidate.
func (o *Orchestrator) tierForm(ctx context.Context, r model.Restaurant, email string) (*model.SubscriptionAttempt, error) {
	if err := o.sitePacer.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "subscribe: pacing interrupted")
	}

	attempt := &model.SubscriptionAttempt{
		RestaurantID: r.ID,
		Email:        email,
		Tier:         model.TierForm,
	}

	res := o.fetcher.Fetch(ctx, r.WebsiteURL)
	if !res.OK() {
		attempt.Evidence = res.Failure()
		return attempt, nil
	}

	html := string(res.Body)
	if protected, marker := fetch.BotProtected(html); protected {
		return o.tierManual(r, email, marker), nil
	}

	if detection := provider.Detect(html); detection.DirectEndpoint != "" {
		result := o.submitters.For(detection.Provider).Submit(ctx, detection.DirectEndpoint, detection.ExtractedParams, email)
		attempt.Provider = &detection.Provider
		attempt.Endpoint = &detection.DirectEndpoint
		attempt.Success = result.Success
		attempt.Evidence = result.Evidence
		return attempt, nil
	}

	candidates := extractor.Extract(html)
	if len(candidates) == 0 {
		attempt.Evidence = "no form found"
		return attempt, nil
	}

	target := resolveURL(r.WebsiteURL, candidates[0].URL)
	result := o.submitters.Generic().Submit(ctx, target, nil, email)
	attempt.Endpoint = &target
	attempt.Success = result.Success
	attempt.Evidence = result.Evidence
	return attempt, nil
}

// tierManual is the terminal escalation: no outbound request is made.
func (o *Orchestrator) tierManual(r model.Restaurant, email, marker string) *model.SubscriptionAttempt {
	return &model.SubscriptionAttempt{
		RestaurantID: r.ID,
		Email:        email,
		Tier:         model.TierNeedsManual,
		Success:      false,
		Evidence:     fmt.Sprintf("bot protection detected (%s); automated submission not attempted", marker),
	}
}

// resolveURL makes a scraped candidate URL absolute against the page it
// was found on. Unparseable inputs pass through untouched so the failure
// surfaces in the submitter's evidence.
func resolveURL(base, ref string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(u).String()
}
