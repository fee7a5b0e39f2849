package submit

import (
	"context"

	"github.com/go-resty/resty/v2"

	"github.com/sells-group/newsletter-cli/internal/model"
)

// emailFieldByProvider maps platform names to the form field their subscribe
// endpoints expect the email under. Anything unlisted uses "email".
var emailFieldByProvider = map[string]string{
	model.ProviderSquarespace: "email",
	model.ProviderMailerLite:  "fields[email]",
	model.ProviderSubstack:    "email",
}

// genericSubmitter is the fallback: a single-field form-encoded POST. It
// serves both unrecognized platforms and scraped form candidates.
type genericSubmitter struct {
	rest     *resty.Client
	provider string
}

func (s *genericSubmitter) Name() string {
	if s.provider == "" {
		return "generic"
	}
	return s.provider
}

func (s *genericSubmitter) Submit(ctx context.Context, endpoint string, _ map[string]string, email string) model.SubmitResult {
	field := emailFieldByProvider[s.provider]
	if field == "" {
		field = "email"
	}

	resp, err := s.rest.R().
		SetContext(ctx).
		SetFormData(map[string]string{field: email}).
		Post(endpoint)
	return outcome(resp, err)
}
