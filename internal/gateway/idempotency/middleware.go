package idempotency

import (
	"bytes"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

const (
	// HeaderKey carries the client-chosen idempotency key.
	HeaderKey = "Idempotency-Key"
	// HeaderReplay marks a response served from the cache.
	HeaderReplay = "X-Idempotency-Replay"

	maxKeyLength = 255
)

type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       bytes.Buffer
}

func (r *responseRecorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

// Middleware replays cached responses for repeated idempotency keys.
// Requests without the header pass through untouched. Only successful
// responses are cached so a failed attempt can be retried with the same
// key. Store failures degrade to pass-through rather than rejecting the
// request.
func Middleware(store Store, l *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := strings.TrimSpace(r.Header.Get(HeaderKey))
			if r.Header.Get(HeaderKey) != "" && (key == "" || len(key) > maxKeyLength) {
				l.Warn("Rejected malformed idempotency key", zap.Int("length", len(key)))
				http.Error(w, "Invalid Idempotency-Key header", http.StatusBadRequest)
				return
			}
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			record, err := store.Get(r.Context(), key)
			if err == nil {
				l.Info("Replaying cached response for idempotency key", zap.String("key", key))
				for name, values := range record.Header {
					for _, value := range values {
						w.Header().Add(name, value)
					}
				}
				w.Header().Set(HeaderReplay, "true")
				w.WriteHeader(record.StatusCode)
				w.Write(record.Body)
				return
			}
			if !errors.Is(err, ErrNotFound) {
				l.Error("Idempotency store lookup failed, passing request through", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			recorder := &responseRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(recorder, r)

			if recorder.statusCode < 200 || recorder.statusCode >= 300 {
				return
			}
			err = store.Set(r.Context(), key, &Record{
				StatusCode: recorder.statusCode,
				Header:     recorder.Header().Clone(),
				Body:       recorder.body.Bytes(),
			})
			if err != nil {
				l.Error("Failed to store idempotency record", zap.String("key", key), zap.Error(err))
			}
		})
	}
}
