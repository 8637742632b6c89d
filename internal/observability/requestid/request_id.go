package requestid

import (
	"context"
	"strings"

	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/ids"
)

type contextKey string

const requestIDContextKey contextKey = "request_id"

// Prefix is prepended to every generated request id.
const Prefix = "req_"

// NewRequestID generates a time-ordered request ID of the form req_<ulid>.
func NewRequestID() string {
	return Prefix + ids.New()
}

// IsGenerated reports whether id was produced by NewRequestID.
func IsGenerated(id string) bool {
	return strings.HasPrefix(id, Prefix) && ids.Valid(strings.TrimPrefix(id, Prefix))
}

// GetRequestID retrieves request ID from context
func GetRequestID(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// SetRequestID stores request ID in context
func SetRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDContextKey, id)
}
