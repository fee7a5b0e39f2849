package provider

import "github.com/sells-group/newsletter-cli/internal/model"

// detectConstantContact fingerprints Constant Contact sign-up pages and
// inline forms. Both the legacy visitor domain and the newer landing-page
// domain count; whichever surface matches first supplies the endpoint.
func detectConstantContact(html string) model.DetectionResult {
	res := model.DetectionResult{ExtractedParams: map[string]string{}}

	for _, domain := range []string{"visitor.constantcontact.com", "constantcontactpages.com"} {
		endpoint, confidence := domainSignals(html, domain)
		res.Confidence += confidence
		if res.DirectEndpoint == "" {
			res.DirectEndpoint = endpoint
		}
	}

	return res
}
