package requestid_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/observability/requestid"
)

func TestNewRequestID_Format(t *testing.T) {
	id := requestid.NewRequestID()

	assert.True(t, strings.HasPrefix(id, "req_"), id)
	// req_ + 26 char ulid
	assert.Len(t, id, 30)
	assert.True(t, requestid.IsGenerated(id))
}

func TestNewRequestID_Uniqueness(t *testing.T) {
	ids := make(map[string]bool)
	const count = 1000

	for i := 0; i < count; i++ {
		id := requestid.NewRequestID()
		if ids[id] {
			t.Fatalf("duplicate ID generated: %s", id)
		}
		ids[id] = true
	}
	assert.Len(t, ids, count)
}

func TestIsGenerated_ClientSupplied(t *testing.T) {
	assert.False(t, requestid.IsGenerated("abc-123"))
	assert.False(t, requestid.IsGenerated("req_"))
}

func TestGetRequestID_EmptyContext(t *testing.T) {
	assert.Empty(t, requestid.GetRequestID(context.Background()))
}

func TestSetAndGetRequestID(t *testing.T) {
	ctx := requestid.SetRequestID(context.Background(), "req_test_123")
	assert.Equal(t, "req_test_123", requestid.GetRequestID(ctx))
}

func TestGetRequestID_WrongType(t *testing.T) {
	type otherKey string
	ctx := context.WithValue(context.Background(), otherKey("request_id"), 42)
	assert.Empty(t, requestid.GetRequestID(ctx))
}
