package provider

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/sells-group/newsletter-cli/internal/model"
)

// Signal weights. A form action is the strongest evidence a platform is
// actually wired up; embeds and scripts are weaker, bare links weakest.
const (
	weightFormAction = 30
	weightScript     = 20
	weightEmbed      = 20
	weightLink       = 10
	weightDataAttr   = 10
	weightMarker     = 10
)

// matchFn inspects raw HTML for one platform's fingerprint. It returns a
// zero-confidence result when nothing matched.
type matchFn func(html string) model.DetectionResult

type matcher struct {
	name string
	fn   matchFn
}

// registry holds every known platform matcher. Order matters only for
// tie-breaking: the first matcher to reach the top confidence wins.
var registry = []matcher{
	{model.ProviderMailchimp, detectMailchimp},
	{model.ProviderKlaviyo, detectKlaviyo},
	{model.ProviderConstantContact, detectConstantContact},
	{model.ProviderMailerLite, detectMailerLite},
	{model.ProviderBeehiiv, detectBeehiiv},
	{model.ProviderSquarespace, detectSquarespace},
	{model.ProviderSubstack, detectSubstack},
}

// KnownDomains lists provider hostname fragments shared with the candidate
// extractor's inline-script scan.
var KnownDomains = []string{
	"list-manage.com",
	"chimpstatic.com",
	"mailchimp.com",
	"klaviyo.com",
	"kmail-lists.com",
	"constantcontact.com",
	"constantcontactpages.com",
	"mailerlite.com",
	"beehiiv.com",
	"substack.com",
}

// Detect runs every registered matcher against the HTML and keeps the
// result with the strictly highest confidence. Ties keep the first match;
// zero signals from every matcher yields an empty result. Deterministic and
// side-effect free on arbitrary input.
func Detect(html string) model.DetectionResult {
	best := model.DetectionResult{ExtractedParams: map[string]string{}}
	for _, m := range registry {
		res := m.fn(html)
		if res.Confidence == 0 {
			continue
		}
		if res.Confidence > best.Confidence {
			res.Provider = m.name
			if res.ExtractedParams == nil {
				res.ExtractedParams = map[string]string{}
			}
			best = res
		}
	}
	return best
}

// domainSignals scans for the three generic surfaces in priority order
// (form action > iframe/embed src > anchor href), accumulating confidence
// per signal found and keeping the first non-empty endpoint.
func domainSignals(html, domain string) (endpoint string, confidence int) {
	quoted := regexp.QuoteMeta(domain)

	formRe := regexp.MustCompile(`(?is)<form[^>]+action=["']?(https?://[^"'\s>]*` + quoted + `[^"'\s>]*)`)
	embedRe := regexp.MustCompile(`(?is)<(?:iframe|embed)[^>]+src=["']?(https?://[^"'\s>]*` + quoted + `[^"'\s>]*)`)
	linkRe := regexp.MustCompile(`(?is)<a[^>]+href=["']?(https?://[^"'\s>]*` + quoted + `[^"'\s>]*)`)

	if m := formRe.FindStringSubmatch(html); m != nil {
		endpoint = m[1]
		confidence += weightFormAction
	}
	if m := embedRe.FindStringSubmatch(html); m != nil {
		if endpoint == "" {
			endpoint = m[1]
		}
		confidence += weightEmbed
	}
	if m := linkRe.FindStringSubmatch(html); m != nil {
		if endpoint == "" {
			endpoint = m[1]
		}
		confidence += weightLink
	}
	return endpoint, confidence
}

// queryParam extracts one query parameter from a raw URL. Returns "" on any
// parse failure; malformed markup must never abort detection.
func queryParam(rawURL, key string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	return u.Query().Get(key)
}

// lastPathSegment returns the final non-empty path segment of a URL, or "".
func lastPathSegment(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	path := strings.Trim(u.Path, "/")
	if path == "" {
		return ""
	}
	if idx := strings.LastIndex(path, "/"); idx >= 0 {
		return path[idx+1:]
	}
	return path
}

// firstSubmatch returns the first capture group of the first match, or "".
func firstSubmatch(re *regexp.Regexp, s string) string {
	if m := re.FindStringSubmatch(s); len(m) > 1 {
		return m[1]
	}
	return ""
}
