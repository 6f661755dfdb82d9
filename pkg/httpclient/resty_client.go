package httpclient

import (
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	defaultUserAgent = "brokennews-extractor/1.0"
	retryWait        = 200 * time.Millisecond
	retryMaxWait     = 2 * time.Second
)

// Options tunes the shared resty client.
type Options struct {
	Timeout    time.Duration
	RetryCount int
	UserAgent  string
}

// NewRestyHTTPClient exposes a configured resty.Client for outbound sinks.
// Retries fire on transport errors and 5xx responses only.
func NewRestyHTTPClient(opts Options) *resty.Client {
	c := resty.New()
	if opts.Timeout > 0 {
		c.SetTimeout(opts.Timeout)
	}

	ua := opts.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	c.SetHeader("User-Agent", ua)

	if opts.RetryCount > 0 {
		c.SetRetryCount(opts.RetryCount).
			SetRetryWaitTime(retryWait).
			SetRetryMaxWaitTime(retryMaxWait).
			AddRetryCondition(func(r *resty.Response, err error) bool {
				return err != nil || (r != nil && r.StatusCode() >= 500)
			})
	}
	return c
}
