package provider

import (
	"regexp"

	"github.com/sells-group/newsletter-cli/internal/model"
)

// Klaviyo's client-side subscribe API, used when only the onsite script is
// present and no form action names an endpoint.
const klaviyoSubscribeAPI = "https://a.klaviyo.com/client/subscriptions/"

var (
	klActionRe  = regexp.MustCompile(`(?is)<form[^>]+action=["']?(https?://[^"'\s>]*klaviyo\.com[^"'\s>]*)`)
	klOnsiteRe  = regexp.MustCompile(`(?is)<script[^>]+src=["']?[^"'\s>]*klaviyo\.com/onsite/js/[^"'\s>]*\.js\?[^"'\s>]*company_id=([A-Za-z0-9]+)`)
	klListAttRe = regexp.MustCompile(`(?is)data-klaviyo-list-id=["']?([A-Za-z0-9]+)`)
)

// detectKlaviyo fingerprints Klaviyo. The onsite.js script carries a
// company id and implies the default subscribe API when no form action was
// found; a list id data attribute is independent of either endpoint source.
func detectKlaviyo(html string) model.DetectionResult {
	res := model.DetectionResult{ExtractedParams: map[string]string{}}

	if action := firstSubmatch(klActionRe, html); action != "" {
		res.DirectEndpoint = action
		res.Confidence += weightFormAction
	}

	if companyID := firstSubmatch(klOnsiteRe, html); companyID != "" {
		res.Confidence += weightScript
		res.ExtractedParams["company_id"] = companyID
		if res.DirectEndpoint == "" {
			res.DirectEndpoint = klaviyoSubscribeAPI
		}
	}

	if listID := firstSubmatch(klListAttRe, html); listID != "" {
		res.Confidence += weightDataAttr
		res.ExtractedParams["list_id"] = listID
	}

	return res
}
