package blob

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/http/client"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/observability/requestid"
)

// fakeS3 serves path-style object requests from memory.
type fakeS3 struct {
	mu         sync.Mutex
	objects    map[string][]byte
	requestIDs []string
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requestIDs = append(f.requestIDs, r.Header.Get("X-Request-Id"))

	switch r.Method {
	case http.MethodPut:
		b, _ := io.ReadAll(r.Body)
		f.objects[r.URL.Path] = b
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		b, ok := f.objects[r.URL.Path]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`)
			return
		}
		w.Write(b)
	case http.MethodDelete:
		delete(f.objects, r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newFakeS3Store(t *testing.T) (*S3Store, *fakeS3) {
	t.Helper()
	fake := &fakeS3{objects: make(map[string][]byte)}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	s, err := NewS3Store(context.Background(), S3Config{
		Endpoint:     srv.URL,
		Region:       "us-east-1",
		Bucket:       "casewise",
		AccessKey:    "minio",
		SecretKey:    "minio-secret",
		UsePathStyle: true,
	}, client.New(0))
	require.NoError(t, err)
	return s, fake
}

func TestS3Store_RoundTrip(t *testing.T) {
	s, fake := newFakeS3Store(t)
	ctx := requestid.SetRequestID(context.Background(), "req_s3test")

	ref, err := s.Put(ctx, Object{Filename: "exhibit.pdf", ContentType: "application/pdf", Size: 9}, strings.NewReader("exhibit-a"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ref, "uploads/"))

	fake.mu.Lock()
	_, stored := fake.objects["/casewise/"+ref]
	fake.mu.Unlock()
	assert.True(t, stored)

	rc, err := s.Open(ctx, ref)
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	rc.Close()
	assert.Equal(t, "exhibit-a", string(body))

	require.NoError(t, s.Delete(ctx, ref))
	_, err = s.Open(ctx, ref)
	assert.ErrorIs(t, err, ErrNotFound)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	for _, id := range fake.requestIDs {
		assert.Equal(t, "req_s3test", id)
	}
}

func TestS3Store_BuffersNonSeekableBody(t *testing.T) {
	s, fake := newFakeS3Store(t)

	ref, err := s.Put(context.Background(), Object{Filename: "notes.txt"}, io.NopCloser(strings.NewReader("hello")))
	require.NoError(t, err)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Equal(t, "hello", string(fake.objects["/casewise/"+ref]))
}

func TestNewS3Store_RequiresBucket(t *testing.T) {
	_, err := NewS3Store(context.Background(), S3Config{Region: "us-east-1"}, nil)
	assert.Error(t, err)
}
