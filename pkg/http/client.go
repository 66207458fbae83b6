package http

import (
	"net/http"
	"time"
)

const (
	DefaultTimeout = 30 * time.Second
	maxRedirects   = 10
)

// uaTransport stamps every outgoing request with a browser identity. Some
// mirrors serve a captcha page to the Go default agent.
type uaTransport struct {
	base      http.RoundTripper
	userAgent string
}

func (t *uaTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", t.userAgent)
		if req.Header.Get("Accept") == "" {
			req.Header.Set("Accept", "text/html,application/json,*/*;q=0.8")
		}
	}
	return t.base.RoundTrip(req)
}

// NewClient returns a client that follows redirects and sends userAgent.
// timeout bounds the whole exchange; zero leaves it to the request context.
func NewClient(userAgent string, timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &uaTransport{
			base: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				MaxIdleConns:          100,
				MaxIdleConnsPerHost:   20,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
				ResponseHeaderTimeout: 60 * time.Second,
			},
			userAgent: userAgent,
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}
}
