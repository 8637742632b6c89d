package client

import (
	"net/http"

	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/observability/logger"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/observability/requestid"
)

// HeaderRequestID is the correlation header sent upstream.
const HeaderRequestID = "X-Request-Id"

// RequestIDTransport copies the request id found in the request context into
// the X-Request-Id header of outbound requests.
type RequestIDTransport struct {
	base http.RoundTripper
}

// NewRequestIDTransport wraps base; nil means http.DefaultTransport.
func NewRequestIDTransport(base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &RequestIDTransport{base: base}
}

// RoundTrip never overwrites a header the caller already set.
func (t *RequestIDTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get(HeaderRequestID) != "" {
		return t.base.RoundTrip(req)
	}

	ctx := req.Context()
	reqID := logger.GetRequestIDFromContext(ctx)
	if reqID == "" {
		reqID = requestid.GetRequestID(ctx)
	}
	if reqID == "" {
		return t.base.RoundTrip(req)
	}

	// headers are shared with the caller
	cloned := req.Clone(ctx)
	cloned.Header.Set(HeaderRequestID, reqID)
	return t.base.RoundTrip(cloned)
}
