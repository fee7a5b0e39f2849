package provider

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/sells-group/newsletter-cli/internal/model"
)

// Form submission path on the page's own domain. Squarespace is the one
// platform whose endpoint is derived from page self-reference rather than
// from a URL found in the markup.
const squarespaceFormPath = "/api/form/SaveFormSubmission"

var (
	sqFormRe = regexp.MustCompile(`(?is)<form[^>]+class=["'][^"']*newsletter-form[^"']*["'][^>]*data-form-id=["']?([A-Za-z0-9]+)`)
	// data-form-id may precede class in the tag.
	sqFormAltRe = regexp.MustCompile(`(?is)<form[^>]+data-form-id=["']?([A-Za-z0-9]+)["']?[^>]*class=["'][^"']*newsletter-form`)

	sqCollectionRe = regexp.MustCompile(`(?is)collectionId["']?\s*[:=]\s*["']([A-Za-z0-9]+)["']`)

	sqCanonicalRe = regexp.MustCompile(`(?is)<link[^>]+rel=["']canonical["'][^>]+href=["']([^"']+)["']`)
	sqOGURLRe     = regexp.MustCompile(`(?is)<meta[^>]+property=["']og:url["'][^>]+content=["']([^"']+)["']`)
)

// detectSquarespace infers the platform from its newsletter-form markup
// rather than a canonical domain marker: a newsletter-form class with a
// data-form-id is the primary signal, boosted when the literal word
// appears anywhere in the document. The endpoint is synthesized from the
// page's canonical/OG URL plus the fixed submission path.
func detectSquarespace(html string) model.DetectionResult {
	res := model.DetectionResult{ExtractedParams: map[string]string{}}

	formID := firstSubmatch(sqFormRe, html)
	if formID == "" {
		formID = firstSubmatch(sqFormAltRe, html)
	}
	if formID != "" {
		res.Confidence += weightFormAction
		res.ExtractedParams["form_id"] = formID

		// The word alone proves nothing: "Powered by Squarespace" footers
		// appear on sites using any newsletter platform. It only boosts a
		// real newsletter-form hit.
		if strings.Contains(strings.ToLower(html), "squarespace") {
			res.Confidence += weightMarker
		}
	}

	if collection := firstSubmatch(sqCollectionRe, html); collection != "" {
		res.ExtractedParams["collection_id"] = collection
	}

	if formID != "" && res.Confidence > 0 {
		if origin := pageOrigin(html); origin != "" {
			res.DirectEndpoint = origin + squarespaceFormPath
		}
	}

	return res
}

// pageOrigin resolves scheme://host from the page's canonical link or
// og:url meta tag, in that order.
func pageOrigin(html string) string {
	for _, re := range []*regexp.Regexp{sqCanonicalRe, sqOGURLRe} {
		raw := firstSubmatch(re, html)
		if raw == "" {
			continue
		}
		u, err := url.Parse(strings.TrimSpace(raw))
		if err != nil || u.Scheme == "" || u.Host == "" {
			continue
		}
		return u.Scheme + "://" + u.Host
	}
	return ""
}
