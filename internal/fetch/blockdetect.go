package fetch

import "strings"

// botProtectionMarkers is the fixed term list matched case-insensitively
// against fetched HTML. Any hit means automated submission would either
// fail or burn goodwill, so the caller escalates to manual handling.
var botProtectionMarkers = []string{
	"captcha",
	"recaptcha",
	"hcaptcha",
	"cf-chl-widget",
	"challenge-form",
}

// BotProtected reports whether the HTML carries a CAPTCHA or WAF challenge
// marker, returning the first matching term for the evidence trail.
func BotProtected(html string) (bool, string) {
	lower := strings.ToLower(html)
	for _, marker := range botProtectionMarkers {
		if strings.Contains(lower, marker) {
			return true, marker
		}
	}
	return false, ""
}
