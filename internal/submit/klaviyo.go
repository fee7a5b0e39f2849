package submit

import (
	"context"

	"github.com/go-resty/resty/v2"

	"github.com/sells-group/newsletter-cli/internal/model"
)

// klaviyoSubmitter posts JSON to Klaviyo's subscribe API. The body always
// carries the email; the list and company identifiers are included only
// when the classifier extracted them.
type klaviyoSubmitter struct {
	rest *resty.Client
}

func (s *klaviyoSubmitter) Name() string { return model.ProviderKlaviyo }

func (s *klaviyoSubmitter) Submit(ctx context.Context, endpoint string, params map[string]string, email string) model.SubmitResult {
	body := map[string]string{"email": email}
	if listID := params["list_id"]; listID != "" {
		body["g"] = listID
	}
	if companyID := params["company_id"]; companyID != "" {
		body["company_id"] = companyID
	}

	resp, err := s.rest.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post(endpoint)
	return outcome(resp, err)
}
