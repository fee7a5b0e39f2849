package submit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/sells-group/newsletter-cli/internal/model"
)

// evidenceBodyLimit caps how much response body is kept in the audit
// trail. Enough for a human to judge the outcome, small enough to store.
const evidenceBodyLimit = 500

// Submitter performs one platform's subscription request. Implementations
// never return an error: network and protocol failures are folded into the
// SubmitResult so the attempt log always has something to say.
type Submitter interface {
	Name() string
	Submit(ctx context.Context, endpoint string, params map[string]string, email string) model.SubmitResult
}

// Client dispatches submissions to per-platform strategies sharing one
// underlying HTTP client.
type Client struct {
	rest *resty.Client
}

// NewClient creates a submission client. Redirects are followed; non-2xx
// statuses are not errors.
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	rest := resty.New().
		SetTimeout(timeout).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(10)).
		SetHeader("User-Agent", "Mozilla/5.0 (compatible; NewsletterBot/1.0)")
	return &Client{rest: rest}
}

// For returns the submitter for a provider name. Unknown names get the
// generic form submitter with its default email field.
func (c *Client) For(provider string) Submitter {
	switch provider {
	case model.ProviderMailchimp:
		return &mailchimpSubmitter{rest: c.rest}
	case model.ProviderKlaviyo:
		return &klaviyoSubmitter{rest: c.rest}
	default:
		return &genericSubmitter{rest: c.rest, provider: provider}
	}
}

// Generic returns the fallback form submitter directly, used for scraped
// candidates that never matched a platform.
func (c *Client) Generic() Submitter {
	return &genericSubmitter{rest: c.rest}
}

// outcome folds a resty response or transport error into a SubmitResult.
// Success is any status in [200, 400) after redirects.
func outcome(resp *resty.Response, err error) model.SubmitResult {
	if err != nil {
		return model.SubmitResult{
			Success:  false,
			Evidence: fmt.Sprintf("request failed: %v", err),
		}
	}
	status := resp.StatusCode()
	return model.SubmitResult{
		Success:  status >= 200 && status < 400,
		Evidence: fmt.Sprintf("status %d; body: %s", status, truncate(resp.String(), evidenceBodyLimit)),
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
