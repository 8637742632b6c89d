// Package client builds outbound HTTP clients that carry the inbound request id.
package client

import (
	"net/http"
	"time"
)

// DefaultTimeout bounds a whole exchange with the object store.
const DefaultTimeout = 2 * time.Minute

const maxRedirects = 10

// New returns a pooled client with request id propagation and the given
// timeout. A zero timeout falls back to DefaultTimeout; http.DefaultClient
// never times out.
func New(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	base := http.DefaultTransport.(*http.Transport).Clone()

	return &http.Client{
		Transport: NewRequestIDTransport(base),
		Timeout:   timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}
}
