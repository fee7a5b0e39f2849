package provider

import "github.com/sells-group/newsletter-cli/internal/model"

// detectBeehiiv fingerprints Beehiiv embeds. The publication id is the
// final path segment of whatever endpoint the generic scan found.
func detectBeehiiv(html string) model.DetectionResult {
	res := model.DetectionResult{ExtractedParams: map[string]string{}}

	endpoint, confidence := domainSignals(html, "beehiiv.com")
	res.DirectEndpoint = endpoint
	res.Confidence = confidence

	if endpoint != "" {
		if pub := lastPathSegment(endpoint); pub != "" {
			res.ExtractedParams["publication_id"] = pub
		}
	}

	return res
}
