package extractor

import (
	"regexp"
	"sort"
	"strings"

	"github.com/sells-group/newsletter-cli/internal/model"
	"github.com/sells-group/newsletter-cli/internal/provider"
)

// Scoring rubric shared by every surface.
const (
	scoreProviderDomain = 30
	scoreKeyword        = 20
	scoreEmailInput     = 15
	scoreFooterBonus    = 10

	// Matches in the last 30% of the document get the footer bonus;
	// newsletter sign-ups cluster in page footers.
	footerThreshold = 0.7
)

// newsletterKeywords is the fixed vocabulary matched case-insensitively
// against surrounding markup and link text.
var newsletterKeywords = []string{
	"newsletter",
	"subscribe",
	"signup",
	"sign-up",
	"sign up",
	"mailing list",
	"email list",
	"join our list",
	"stay in touch",
}

var (
	formRe       = regexp.MustCompile(`(?is)<form[^>]*>.*?</form>`)
	actionAttrRe = regexp.MustCompile(`(?is)action=["']?([^"'\s>]+)`)
	emailInputRe = regexp.MustCompile(`(?is)<input[^>]+type=["']?email`)
	anchorRe     = regexp.MustCompile(`(?is)<a[^>]+href=["']?([^"'\s>]+)["']?[^>]*>(.*?)</a>`)
	embedRe      = regexp.MustCompile(`(?is)<(?:iframe|embed)[^>]+src=["']?([^"'\s>]+)`)
	scriptSrcRe  = regexp.MustCompile(`(?is)<script[^>]+src=["']?([^"'\s>]+)`)
	inlineRe     = regexp.MustCompile(`(?is)<script(?:\s[^>]*)?>(.*?)</script>`)
)

// Extract scans HTML for newsletter-like forms and links, returning
// candidates sorted by descending score. Used only when platform
// fingerprinting finds nothing. Candidates are deduplicated within each
// surface but not across surfaces; ties keep scan order.
func Extract(html string) []model.NewsletterCandidate {
	if html == "" {
		return nil
	}

	var out []model.NewsletterCandidate
	out = append(out, scanForms(html)...)
	out = append(out, scanLinks(html)...)
	out = append(out, scanEmbeds(html)...)
	out = append(out, scanScripts(html)...)
	out = append(out, scanInlineScripts(html)...)

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// scanForms handles both form surfaces: forms with an action attribute and
// actionless forms carrying an email input (JS-submitted).
func scanForms(html string) []model.NewsletterCandidate {
	var cands []model.NewsletterCandidate
	seen := map[string]bool{}

	for _, loc := range formRe.FindAllStringIndex(html, -1) {
		formHTML := html[loc[0]:loc[1]]
		ratio := position(loc[0], len(html))

		action := firstGroup(actionAttrRe, formHTML)
		hasEmail := emailInputRe.MatchString(formHTML)
		if action == "" && !hasEmail {
			continue
		}
		// Actionless forms have no URL to collide on; dedupe them by the
		// snippet itself so two distinct JS-submitted forms both survive.
		key := action
		if key == "" {
			key = formHTML
		}
		if seen[key] {
			continue
		}
		seen[key] = true

		sc := score(hasProviderDomain(action) || hasProviderDomain(formHTML), hasKeyword(formHTML), hasEmail, ratio)
		if sc <= 0 {
			continue
		}

		cands = append(cands, model.NewsletterCandidate{
			URL:           action,
			Score:         sc,
			Source:        model.SourceFormAction,
			FormHTML:      formHTML,
			PositionRatio: ratio,
		})
	}
	return cands
}

func scanLinks(html string) []model.NewsletterCandidate {
	var cands []model.NewsletterCandidate
	seen := map[string]bool{}

	matches := anchorRe.FindAllStringSubmatchIndex(html, -1)
	for _, m := range matches {
		href := html[m[2]:m[3]]
		text := html[m[4]:m[5]]
		if seen[href] {
			continue
		}
		seen[href] = true

		ratio := position(m[0], len(html))
		sc := score(hasProviderDomain(href), hasKeyword(href+" "+text), false, ratio)
		if sc <= 0 {
			continue
		}

		cands = append(cands, model.NewsletterCandidate{
			URL:           href,
			Score:         sc,
			Source:        model.SourceLink,
			PositionRatio: ratio,
		})
	}
	return cands
}

func scanEmbeds(html string) []model.NewsletterCandidate {
	return scanSrcSurface(html, embedRe, model.SourceEmbed)
}

func scanScripts(html string) []model.NewsletterCandidate {
	return scanSrcSurface(html, scriptSrcRe, model.SourceScriptTag)
}

// scanSrcSurface scores iframe/embed/script sources by URL content alone.
func scanSrcSurface(html string, re *regexp.Regexp, source model.CandidateSource) []model.NewsletterCandidate {
	var cands []model.NewsletterCandidate
	seen := map[string]bool{}

	for _, m := range re.FindAllStringSubmatchIndex(html, -1) {
		src := html[m[2]:m[3]]
		if seen[src] {
			continue
		}
		seen[src] = true

		ratio := position(m[0], len(html))
		sc := score(hasProviderDomain(src), hasKeyword(src), false, ratio)
		if sc <= 0 {
			continue
		}

		cands = append(cands, model.NewsletterCandidate{
			URL:           src,
			Score:         sc,
			Source:        source,
			PositionRatio: ratio,
		})
	}
	return cands
}

// scanInlineScripts flags script bodies that reference a known provider
// domain, surfacing the referenced URL when one is present.
func scanInlineScripts(html string) []model.NewsletterCandidate {
	var cands []model.NewsletterCandidate
	seen := map[string]bool{}

	urlRe := regexp.MustCompile(`https?://[^\s"'<>)]+`)

	for _, m := range inlineRe.FindAllStringSubmatchIndex(html, -1) {
		body := html[m[2]:m[3]]
		if !hasProviderDomain(body) {
			continue
		}

		matchedURL := ""
		for _, u := range urlRe.FindAllString(body, -1) {
			if hasProviderDomain(u) {
				matchedURL = u
				break
			}
		}
		if matchedURL == "" || seen[matchedURL] {
			continue
		}
		seen[matchedURL] = true

		ratio := position(m[0], len(html))
		cands = append(cands, model.NewsletterCandidate{
			URL:           matchedURL,
			Score:         score(true, hasKeyword(body), false, ratio),
			Source:        model.SourceInlineScript,
			PositionRatio: ratio,
		})
	}
	return cands
}

func score(providerDomain, keyword, emailInput bool, ratio float64) int {
	s := 0
	if providerDomain {
		s += scoreProviderDomain
	}
	if keyword {
		s += scoreKeyword
	}
	if emailInput {
		s += scoreEmailInput
	}
	if s > 0 && ratio > footerThreshold {
		s += scoreFooterBonus
	}
	return s
}

func hasProviderDomain(s string) bool {
	lower := strings.ToLower(s)
	for _, d := range provider.KnownDomains {
		if strings.Contains(lower, d) {
			return true
		}
	}
	return false
}

func hasKeyword(s string) bool {
	lower := strings.ToLower(s)
	for _, kw := range newsletterKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func position(offset, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(offset) / float64(total)
}

func firstGroup(re *regexp.Regexp, s string) string {
	if m := re.FindStringSubmatch(s); len(m) > 1 {
		return m[1]
	}
	return ""
}
