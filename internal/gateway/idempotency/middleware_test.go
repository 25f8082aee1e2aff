package idempotency

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

func newCountingHandler(status int) (http.Handler, *int32) {
	var calls int32
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		fmt.Fprintf(w, `{"call":%d}`, n)
	})
	return h, &calls
}

func TestMiddleware_ReplaysIdenticalResponse(t *testing.T) {
	handler, calls := newCountingHandler(http.StatusCreated)
	store := NewMemoryStore(time.Minute)
	wrapped := Middleware(store, zap.NewNop())(handler)

	first := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/orders", nil)
	req.Header.Set(HeaderKey, "key-1")
	wrapped.ServeHTTP(first, req)

	second := httptest.NewRecorder()
	req2 := httptest.NewRequest(http.MethodPost, "/orders", nil)
	req2.Header.Set(HeaderKey, "key-1")
	wrapped.ServeHTTP(second, req2)

	if atomic.LoadInt32(calls) != 1 {
		t.Fatalf("downstream must be called once, got %d", *calls)
	}
	if second.Code != first.Code {
		t.Errorf("replayed status %d differs from original %d", second.Code, first.Code)
	}
	if second.Body.String() != first.Body.String() {
		t.Errorf("replayed body %q differs from original %q", second.Body.String(), first.Body.String())
	}
	if second.Header().Get(HeaderReplay) != "true" {
		t.Errorf("replayed response must carry %s header", HeaderReplay)
	}
	if first.Header().Get(HeaderReplay) != "" {
		t.Errorf("original response must not carry %s header", HeaderReplay)
	}
}

func TestMiddleware_MissingKeyPassesThrough(t *testing.T) {
	handler, calls := newCountingHandler(http.StatusCreated)
	wrapped := Middleware(NewMemoryStore(time.Minute), zap.NewNop())(handler)

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		wrapped.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/orders", nil))
		if rec.Code != http.StatusCreated {
			t.Fatalf("unexpected status %d", rec.Code)
		}
	}
	if atomic.LoadInt32(calls) != 2 {
		t.Errorf("requests without a key must each reach downstream, got %d calls", *calls)
	}
}

func TestMiddleware_MalformedKeyRejected(t *testing.T) {
	handler, calls := newCountingHandler(http.StatusCreated)
	wrapped := Middleware(NewMemoryStore(time.Minute), zap.NewNop())(handler)

	cases := []string{"   ", strings.Repeat("x", 256)}
	for _, key := range cases {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/orders", nil)
		req.Header.Set(HeaderKey, key)
		wrapped.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("key %q: expected 400, got %d", key, rec.Code)
		}
	}
	if atomic.LoadInt32(calls) != 0 {
		t.Errorf("malformed keys must not reach downstream, got %d calls", *calls)
	}
}

func TestMiddleware_FailedResponseNotCached(t *testing.T) {
	handler, calls := newCountingHandler(http.StatusBadGateway)
	wrapped := Middleware(NewMemoryStore(time.Minute), zap.NewNop())(handler)

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/orders", nil)
		req.Header.Set(HeaderKey, "key-1")
		wrapped.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadGateway {
			t.Fatalf("unexpected status %d", rec.Code)
		}
	}
	if atomic.LoadInt32(calls) != 2 {
		t.Errorf("failed responses must not be replayed, got %d calls", *calls)
	}
}

func TestMemoryStore_ExpiredRecordNotReturned(t *testing.T) {
	store := NewMemoryStore(-time.Second)
	if err := store.Set(context.Background(), "key-1", &Record{StatusCode: 201}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if _, err := store.Get(context.Background(), "key-1"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound for expired record, got %v", err)
	}
}
