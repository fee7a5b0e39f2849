package model

// Provider names recognized by the fingerprint classifier. Stored as plain
// strings so the matcher registry stays open to extension.
const (
	ProviderMailchimp       = "mailchimp"
	ProviderKlaviyo         = "klaviyo"
	ProviderConstantContact = "constantcontact"
	ProviderMailerLite      = "mailerlite"
	ProviderBeehiiv         = "beehiiv"
	ProviderSquarespace     = "squarespace"
	ProviderSubstack        = "substack"
)

// DetectionResult is the classifier's transient output. A zero Confidence
// means no platform was recognized; Provider and DirectEndpoint are empty
// in that case and ExtractedParams is non-nil but empty.
type DetectionResult struct {
	Provider        string            `json:"provider,omitempty"`
	DirectEndpoint  string            `json:"direct_endpoint,omitempty"`
	Confidence      int               `json:"confidence"`
	ExtractedParams map[string]string `json:"extracted_params"`
}

// Detected reports whether any matcher scored above zero.
func (d DetectionResult) Detected() bool { return d.Confidence > 0 }

// CandidateSource labels which scan surface produced a candidate.
type CandidateSource string

const (
	SourceFormAction   CandidateSource = "form-with-action"
	SourceLink         CandidateSource = "link"
	SourceScriptTag    CandidateSource = "script-tag"
	SourceEmbed        CandidateSource = "embed"
	SourceInlineScript CandidateSource = "inline-script"
)

// NewsletterCandidate is a heuristically scored guess at a newsletter
// sign-up form or link, produced only when fingerprinting finds nothing.
type NewsletterCandidate struct {
	URL           string          `json:"url"`
	Score         int             `json:"score"`
	Source        CandidateSource `json:"source"`
	FormHTML      string          `json:"form_html,omitempty"`
	PositionRatio float64         `json:"position_ratio"`
}
