package model

import (
	"encoding/json"
	"time"
)

// FormHTMLMaxLen caps the persisted form snapshot. Anything longer is
// truncated before the record is written.
const FormHTMLMaxLen = 5000

// EnrichmentRecord is the persisted classification outcome for one
// restaurant. One row per restaurant id, upserted on every enrichment run;
// re-enrichment overwrites every newsletter field but keeps the key.
type EnrichmentRecord struct {
	RestaurantID    string  `json:"restaurant_id"`
	WebsiteURL      string  `json:"website_url"`
	NewsletterURL   *string `json:"newsletter_url,omitempty"`
	FormHTML        *string `json:"newsletter_form_html,omitempty"`
	Provider        *string `json:"newsletter_provider,omitempty"`
	DirectEndpoint  *string `json:"newsletter_direct_endpoint,omitempty"`
	ExtractedParams *string `json:"newsletter_extracted_params,omitempty"`

	EnrichedAt time.Time `json:"enriched_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Params deserializes the stored parameter mapping. A missing or malformed
// value degrades to an empty map; a corrupt row must not abort a
// subscription attempt.
func (r *EnrichmentRecord) Params() map[string]string {
	if r.ExtractedParams == nil {
		return map[string]string{}
	}
	var params map[string]string
	if err := json.Unmarshal([]byte(*r.ExtractedParams), &params); err != nil || params == nil {
		return map[string]string{}
	}
	return params
}

// HasDirectEndpoint reports whether the record qualifies for a tier 1
// direct submission: both an endpoint and a provider are known.
func (r *EnrichmentRecord) HasDirectEndpoint() bool {
	return r.DirectEndpoint != nil && *r.DirectEndpoint != "" &&
		r.Provider != nil && *r.Provider != ""
}
