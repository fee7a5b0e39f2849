package provider

import (
	"regexp"

	"github.com/sells-group/newsletter-cli/internal/model"
)

var (
	// Universal snippet init call, e.g. ml('account', '123456')
	mlAccountRe = regexp.MustCompile(`(?is)ml\s*\(\s*['"]accounts?['"]\s*,\s*['"]([0-9]+)['"]`)

	// Embedded form group id, e.g. data-ml-group="456"
	mlGroupRe = regexp.MustCompile(`(?is)data-ml-group=["']?([0-9]+)`)
)

// detectMailerLite fingerprints MailerLite. The account id comes from the
// universal tracking snippet's init call, the group id from the embedded
// form's data attribute.
func detectMailerLite(html string) model.DetectionResult {
	res := model.DetectionResult{ExtractedParams: map[string]string{}}

	endpoint, confidence := domainSignals(html, "mailerlite.com")
	res.DirectEndpoint = endpoint
	res.Confidence = confidence

	if account := firstSubmatch(mlAccountRe, html); account != "" {
		res.Confidence += weightScript
		res.ExtractedParams["account_id"] = account
	}
	if group := firstSubmatch(mlGroupRe, html); group != "" {
		res.Confidence += weightDataAttr
		res.ExtractedParams["group_id"] = group
	}

	return res
}
