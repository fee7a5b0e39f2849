package provider

import (
	"net/url"
	"strings"

	"github.com/sells-group/newsletter-cli/internal/model"
)

// detectSubstack fingerprints Substack publications. Any found endpoint is
// rewritten onto the publication's free-subscribe API path, keyed by the
// subdomain parsed from the endpoint host.
func detectSubstack(html string) model.DetectionResult {
	res := model.DetectionResult{ExtractedParams: map[string]string{}}

	endpoint, confidence := domainSignals(html, "substack.com")
	res.Confidence = confidence
	if endpoint == "" {
		return res
	}

	sub := substackSubdomain(endpoint)
	if sub == "" {
		res.DirectEndpoint = endpoint
		return res
	}

	res.ExtractedParams["subdomain"] = sub
	res.DirectEndpoint = "https://" + sub + ".substack.com/api/v1/free"
	return res
}

// substackSubdomain pulls the publication name from a *.substack.com host.
// Returns "" for the bare apex or unparseable URLs.
func substackSubdomain(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	if !strings.HasSuffix(host, ".substack.com") {
		return ""
	}
	sub := strings.TrimSuffix(host, ".substack.com")
	if sub == "" || sub == "www" {
		return ""
	}
	return sub
}
