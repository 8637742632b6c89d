package middleware

import (
	"bytes"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/auth"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/http/httperr"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/observability/logger"
	"github.com/AmoghPai19/CaseWise-Attorney-Case-Management-Dashboard/internal/store"
)

const (
	HeaderIdempotencyKey    = "Idempotency-Key"
	HeaderIdempotencyReplay = "X-Idempotency-Replay"
	maxIdempotencyKeyLength = 255
	// multipart uploads are not buffered for replay
	maxReplayableBody = 1 << 20
)

// IdempotencyMiddleware replays the stored 2xx response when a POST, PUT or
// PATCH repeats an Idempotency-Key already used by the same user. Keys are
// scoped per user and must run after the auth middleware.
func IdempotencyMiddleware(keys store.Idempotency) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := logger.GetLogger(ctx)

			if r.Method != http.MethodPost && r.Method != http.MethodPut && r.Method != http.MethodPatch {
				next.ServeHTTP(w, r)
				return
			}
			key := r.Header.Get(HeaderIdempotencyKey)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}
			if len(key) > maxIdempotencyKeyLength {
				httperr.BadRequest400(w, ctx, httperr.ErrCodeInvalidParameter, "Idempotency-Key must be 255 characters or less")
				return
			}
			p, ok := auth.GetPrincipal(ctx)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			keyHash := store.HashKey(key)
			cached, err := keys.CheckKey(ctx, p.ID, keyHash)
			if err != nil {
				logger.SetRootError(ctx, err)
				httperr.InternalError500(w, ctx, "failed to check idempotency key")
				return
			}
			if cached != nil {
				log.Info(ctx, "replaying idempotent response",
					logger.Module("idempotency"),
					logger.Action("replay"),
					zap.String("key_hash", keyHash),
					zap.Int("status", cached.Status),
				)
				for k, v := range cached.Headers {
					w.Header().Set(k, v)
				}
				w.Header().Set(HeaderIdempotencyReplay, "true")
				w.WriteHeader(cached.Status)
				_, _ = w.Write(cached.Body)
				return
			}

			var payload []byte
			if r.Body != nil && r.ContentLength >= 0 && r.ContentLength <= maxReplayableBody {
				payload, err = io.ReadAll(io.LimitReader(r.Body, maxReplayableBody+1))
				if err != nil {
					httperr.BadRequest400(w, ctx, httperr.ErrCodeInvalidFormat, "failed to read request body")
					return
				}
				r.Body = io.NopCloser(bytes.NewReader(payload))
			}

			rec := &recordingWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(rec, r)

			if rec.statusCode < 200 || rec.statusCode >= 300 {
				return
			}
			headers := make(map[string]string)
			for _, h := range []string{"Content-Type", "Location"} {
				if v := rec.Header().Get(h); v != "" {
					headers[h] = v
				}
			}
			err = keys.StoreResult(ctx,
				store.IdempotentRequest{
					UserID:      p.ID,
					KeyHash:     keyHash,
					OriginalKey: key,
					Method:      r.Method,
					Path:        r.URL.Path,
					Payload:     payload,
				},
				store.CachedResponse{Status: rec.statusCode, Body: rec.body.Bytes(), Headers: headers},
			)
			if err != nil {
				// the response is already sent
				log.Error(ctx, "failed to store idempotency result",
					logger.Module("idempotency"),
					logger.Action("store"),
					zap.Error(err),
				)
			}
		})
	}
}

// recordingWriter tees the response body for storage.
type recordingWriter struct {
	http.ResponseWriter
	statusCode  int
	body        bytes.Buffer
	wroteHeader bool
}

func (rw *recordingWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *recordingWriter) Write(b []byte) (int, error) {
	if !rw.wroteHeader {
		rw.WriteHeader(http.StatusOK)
	}
	rw.body.Write(b)
	return rw.ResponseWriter.Write(b)
}
