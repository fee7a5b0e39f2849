package provider

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/sells-group/newsletter-cli/internal/model"
)

var (
	// Subscribe form action, e.g.
	// https://example.us1.list-manage.com/subscribe/post?u=AAA&id=BBB
	mcActionRe = regexp.MustCompile(`(?is)action=["']?(https?://[^"'\s>]*list-manage\.com/subscribe/post[^"'\s>]*)`)

	// Region-coded CDN script, e.g. //us1.chimpstatic.com/mcjs-connected/...
	mcScriptRe = regexp.MustCompile(`(?is)<script[^>]+src=["']?(?:https?:)?//([a-z]{2}\d+)\.chimpstatic\.com/`)
)

// detectMailchimp fingerprints Mailchimp embeds. A subscribe form action is
// the primary signal and carries the u/id query parameters plus every
// hidden input in the same form; the region-coded CDN script independently
// adds confidence and contributes a region parameter when no form exists.
func detectMailchimp(html string) model.DetectionResult {
	res := model.DetectionResult{ExtractedParams: map[string]string{}}

	if action := firstSubmatch(mcActionRe, html); action != "" {
		res.DirectEndpoint = action
		res.Confidence += weightFormAction

		if u := queryParam(action, "u"); u != "" {
			res.ExtractedParams["u"] = u
		}
		if id := queryParam(action, "id"); id != "" {
			res.ExtractedParams["id"] = id
		}
		for name, value := range hiddenInputs(html, "list-manage.com") {
			res.ExtractedParams[name] = value
		}
	}

	if region := firstSubmatch(mcScriptRe, html); region != "" {
		res.Confidence += weightScript
		if res.DirectEndpoint == "" {
			res.ExtractedParams["region"] = region
		}
	}

	return res
}

// hiddenInputs harvests hidden input name/value pairs from the first form
// whose action contains the given domain fragment. Parse failures return an
// empty map.
func hiddenInputs(html, domain string) map[string]string {
	params := map[string]string{}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return params
	}
	doc.Find("form").EachWithBreak(func(_ int, form *goquery.Selection) bool {
		action, _ := form.Attr("action")
		if !strings.Contains(action, domain) {
			return true
		}
		form.Find(`input[type="hidden"]`).Each(func(_ int, input *goquery.Selection) {
			name, ok := input.Attr("name")
			if !ok || name == "" {
				return
			}
			value, _ := input.Attr("value")
			params[name] = value
		})
		return false
	})
	return params
}
