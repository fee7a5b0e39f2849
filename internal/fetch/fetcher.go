package fetch

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

// Result is the value-typed outcome of one page fetch. Network failures
// land in Err instead of propagating; nothing in the engine treats a failed
// fetch as fatal.
type Result struct {
	URL        string
	StatusCode int
	Body       []byte
	Header     http.Header
	Err        error
}

// OK reports whether the fetch succeeded with a usable status.
func (r Result) OK() bool {
	return r.Err == nil && r.StatusCode >= 200 && r.StatusCode < 400
}

// Failure renders the result as evidence text for the attempt log.
func (r Result) Failure() string {
	if r.Err != nil {
		return fmt.Sprintf("fetch failed: %v", r.Err)
	}
	return fmt.Sprintf("fetch returned status %d", r.StatusCode)
}

// Options configures a Fetcher.
type Options struct {
	UserAgent string
	Timeout   time.Duration
	MaxBody   int64
}

// Fetcher retrieves server-delivered HTML via net/http. Redirects are
// followed by the client's default policy. No JavaScript rendering.
type Fetcher struct {
	client    *http.Client
	userAgent string
	maxBody   int64
}

// New creates a Fetcher with sensible defaults for unset options.
func New(opts Options) *Fetcher {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	maxBody := opts.MaxBody
	if maxBody <= 0 {
		maxBody = 512 * 1024
	}
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = "Mozilla/5.0 (compatible; NewsletterBot/1.0)"
	}
	return &Fetcher{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 10 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		userAgent: userAgent,
		maxBody:   maxBody,
	}
}

// Fetch retrieves one URL. All failures are captured in the Result; the
// only thing that can make Err non-nil besides the network is a URL so
// malformed the request cannot be built.
func (f *Fetcher) Fetch(ctx context.Context, targetURL string) Result {
	res := Result{URL: targetURL}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		res.Err = err
		return res
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		res.Err = err
		return res
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody))
	if err != nil {
		res.Err = err
		return res
	}

	res.StatusCode = resp.StatusCode
	res.Header = resp.Header
	res.Body = body
	return res
}
