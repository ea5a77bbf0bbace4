package middleware

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func newReplayStore(t *testing.T) *IdempotencyStore {
	t.Helper()
	s := NewIdempotencyStore(IdempotencyConfig{TTL: time.Minute, Cleanup: time.Hour})
	t.Cleanup(s.Stop)
	return s
}

// countingHandler responds 201 with a body unique to each invocation.
func countingHandler(calls *atomic.Int64) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		w.Header().Set("Location", "/v1/groups/group:"+strconv.FormatInt(n, 10))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("created #" + strconv.FormatInt(n, 10)))
	})
}

func postWithKey(key, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/v1/groups", bytes.NewReader([]byte(body)))
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	req = req.WithContext(context.WithValue(req.Context(), UserIDKey, "user:alice"))
	return req
}

// ============================================================================
// Replay Tests
// ============================================================================

func TestIdempotency_ReplaysCompletedResponse(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	handler := Idempotency(newReplayStore(t))(countingHandler(&calls))

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, postWithKey("k1", `{"name":"Ember Keepers"}`))

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, postWithKey("k1", `{"name":"Ember Keepers"}`))

	if calls.Load() != 1 {
		t.Fatalf("handler ran %d times, want exactly once", calls.Load())
	}
	if second.Code != http.StatusCreated {
		t.Errorf("replay should preserve status, got %d", second.Code)
	}
	if second.Body.String() != first.Body.String() {
		t.Errorf("replay body %q differs from original %q", second.Body.String(), first.Body.String())
	}
	if second.Header().Get("X-Idempotency-Replayed") != "true" {
		t.Error("replayed response must be marked")
	}
	if second.Header().Get("Location") != first.Header().Get("Location") {
		t.Error("replay should carry the original headers")
	}
	if first.Header().Get("X-Idempotency-Replayed") != "" {
		t.Error("first response must not be marked as a replay")
	}
}

func TestIdempotency_DifferentKeysExecuteSeparately(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	handler := Idempotency(newReplayStore(t))(countingHandler(&calls))

	handler.ServeHTTP(httptest.NewRecorder(), postWithKey("k1", `{}`))
	handler.ServeHTTP(httptest.NewRecorder(), postWithKey("k2", `{}`))

	if calls.Load() != 2 {
		t.Errorf("distinct keys should both execute, got %d calls", calls.Load())
	}
}

func TestIdempotency_SameKeyDifferentBodyIsNotAReplay(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	handler := Idempotency(newReplayStore(t))(countingHandler(&calls))

	handler.ServeHTTP(httptest.NewRecorder(), postWithKey("k1", `{"name":"A"}`))
	handler.ServeHTTP(httptest.NewRecorder(), postWithKey("k1", `{"name":"B"}`))

	// The body is part of the fingerprint, so a reused key with a new
	// payload is a different request.
	if calls.Load() != 2 {
		t.Errorf("expected both bodies to execute, got %d calls", calls.Load())
	}
}

func TestIdempotency_ScopedPerUser(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	handler := Idempotency(newReplayStore(t))(countingHandler(&calls))

	asUser := func(userID string) {
		req := httptest.NewRequest(http.MethodPost, "/v1/groups", bytes.NewReader([]byte(`{}`)))
		req.Header.Set("Idempotency-Key", "shared-key")
		req = req.WithContext(context.WithValue(req.Context(), UserIDKey, userID))
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}

	asUser("user:alice")
	asUser("user:bob")

	if calls.Load() != 2 {
		t.Errorf("keys must not leak between users, got %d calls", calls.Load())
	}
}

// ============================================================================
// Pass-Through Tests
// ============================================================================

func TestIdempotency_IgnoresRequestsWithoutKey(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	handler := Idempotency(newReplayStore(t))(countingHandler(&calls))

	handler.ServeHTTP(httptest.NewRecorder(), postWithKey("", `{}`))
	handler.ServeHTTP(httptest.NewRecorder(), postWithKey("", `{}`))

	if calls.Load() != 2 {
		t.Errorf("keyless requests must always execute, got %d calls", calls.Load())
	}
}

func TestIdempotency_IgnoresNonMutatingMethods(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	handler := Idempotency(newReplayStore(t))(countingHandler(&calls))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/v1/groups", nil)
		req.Header.Set("Idempotency-Key", "k1")
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}

	if calls.Load() != 2 {
		t.Errorf("GET must bypass the store, got %d calls", calls.Load())
	}
}

func TestIdempotency_HandlerStillSeesRequestBody(t *testing.T) {
	t.Parallel()

	var gotBody string
	handler := Idempotency(newReplayStore(t))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusOK)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), postWithKey("k1", `{"message":"hello"}`))

	if gotBody != `{"message":"hello"}` {
		t.Errorf("body was consumed by the fingerprint: %q", gotBody)
	}
}

// ============================================================================
// Concurrency Tests
// ============================================================================

func TestIdempotency_ConcurrentDuplicateWaitsForOriginal(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	release := make(chan struct{})
	slow := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		<-release
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("slow result"))
	})
	handler := Idempotency(newReplayStore(t))(slow)

	var wg sync.WaitGroup
	results := make([]*httptest.ResponseRecorder, 2)
	for i := range results {
		results[i] = httptest.NewRecorder()
		wg.Add(1)
		go func(rr *httptest.ResponseRecorder) {
			defer wg.Done()
			handler.ServeHTTP(rr, postWithKey("k1", `{}`))
		}(results[i])
	}

	// Let both goroutines reach the store before releasing the handler
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if calls.Load() != 1 {
		t.Fatalf("handler ran %d times for concurrent duplicates, want once", calls.Load())
	}
	for i, rr := range results {
		if rr.Code != http.StatusCreated {
			t.Errorf("request %d: status %d, want 201", i, rr.Code)
		}
		if rr.Body.String() != "slow result" {
			t.Errorf("request %d: body %q", i, rr.Body.String())
		}
	}
}

func TestIdempotency_StaleInFlightEntryExecutesFresh(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	store := newReplayStore(t)
	handler := Idempotency(store)(countingHandler(&calls))

	// Simulate an original request whose entry was never completed:
	// done already closed, but the entry still marked in flight. A
	// waiter wakes up with nothing to replay and must run the handler
	// itself.
	body := `{"name":"Ember Keepers"}`
	key := replayKey("user:alice", "k1", http.MethodPost, "/v1/groups", []byte(body))
	done := make(chan struct{})
	close(done)
	store.mu.Lock()
	store.entries[key] = &replayEntry{inFlight: true, done: done}
	store.mu.Unlock()

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, postWithKey("k1", body))

	if calls.Load() != 1 {
		t.Fatalf("handler ran %d times, want exactly once", calls.Load())
	}
	if rr.Code != http.StatusCreated {
		t.Errorf("expected status %d, got %d", http.StatusCreated, rr.Code)
	}
	if rr.Header().Get("X-Idempotency-Replayed") != "" {
		t.Error("a fresh execution must not be marked as a replay")
	}

	// The fresh execution is now stored and replayable
	second := httptest.NewRecorder()
	handler.ServeHTTP(second, postWithKey("k1", body))
	if calls.Load() != 1 {
		t.Errorf("retry should replay, handler ran %d times", calls.Load())
	}
	if second.Header().Get("X-Idempotency-Replayed") != "true" {
		t.Error("retry after the fresh execution must replay")
	}
}

// ============================================================================
// Store Tests
// ============================================================================

func TestIdempotencyStore_DefaultsApplied(t *testing.T) {
	t.Parallel()

	s := NewIdempotencyStore(IdempotencyConfig{})
	defer s.Stop()

	if s.ttl != 24*time.Hour {
		t.Errorf("expected 24h default TTL, got %v", s.ttl)
	}
}

func TestIdempotencyStore_SweepDropsExpiredOnly(t *testing.T) {
	t.Parallel()

	s := newReplayStore(t)
	now := time.Now()
	s.mu.Lock()
	s.entries["expired"] = &replayEntry{expiresAt: now.Add(-time.Minute)}
	s.entries["fresh"] = &replayEntry{expiresAt: now.Add(time.Minute)}
	s.entries["running"] = &replayEntry{inFlight: true, done: make(chan struct{})}
	s.mu.Unlock()

	s.sweep()

	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.entries["expired"]; ok {
		t.Error("expired entry should be swept")
	}
	if _, ok := s.entries["fresh"]; !ok {
		t.Error("fresh entry must survive the sweep")
	}
	if _, ok := s.entries["running"]; !ok {
		t.Error("in-flight entry must never be swept")
	}
}

func TestReplayKey_SensitiveToEveryComponent(t *testing.T) {
	t.Parallel()

	base := replayKey("user:alice", "k1", http.MethodPost, "/v1/groups", []byte(`{}`))
	variants := []string{
		replayKey("user:bob", "k1", http.MethodPost, "/v1/groups", []byte(`{}`)),
		replayKey("user:alice", "k2", http.MethodPost, "/v1/groups", []byte(`{}`)),
		replayKey("user:alice", "k1", http.MethodPatch, "/v1/groups", []byte(`{}`)),
		replayKey("user:alice", "k1", http.MethodPost, "/v1/groups/group:1/join", []byte(`{}`)),
		replayKey("user:alice", "k1", http.MethodPost, "/v1/groups", []byte(`{"a":1}`)),
	}
	for i, v := range variants {
		if v == base {
			t.Errorf("variant %d should produce a different key", i)
		}
	}
	if again := replayKey("user:alice", "k1", http.MethodPost, "/v1/groups", []byte(`{}`)); again != base {
		t.Error("identical inputs must produce identical keys")
	}
}
