package submit

import (
	"context"

	"github.com/go-resty/resty/v2"

	"github.com/sells-group/newsletter-cli/internal/model"
)

// mailchimpSubmitter posts to a list-manage subscribe endpoint. Mailchimp
// embed forms are plain form posts with the email under the literal EMAIL
// field; every extracted parameter (u, id, hidden merge fields) is passed
// through verbatim.
type mailchimpSubmitter struct {
	rest *resty.Client
}

func (s *mailchimpSubmitter) Name() string { return model.ProviderMailchimp }

func (s *mailchimpSubmitter) Submit(ctx context.Context, endpoint string, params map[string]string, email string) model.SubmitResult {
	form := map[string]string{"EMAIL": email}
	for k, v := range params {
		form[k] = v
	}

	resp, err := s.rest.R().
		SetContext(ctx).
		SetFormData(form).
		Post(endpoint)
	return outcome(resp, err)
}
