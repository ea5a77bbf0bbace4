package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"sync"
	"time"
)

// IdempotencyConfig controls how long replayed responses are retained.
type IdempotencyConfig struct {
	TTL     time.Duration // retention for completed responses (default 24h)
	Cleanup time.Duration // expiry sweep interval (default 1h)
}

// replayEntry holds either a completed response ready for replay or an
// in-flight marker concurrent duplicates wait on.
type replayEntry struct {
	status    int
	headers   http.Header
	body      []byte
	expiresAt time.Time
	inFlight  bool
	done      chan struct{}
}

// IdempotencyStore remembers responses by composite request key so a
// retried mutation gets the original outcome instead of running twice.
type IdempotencyStore struct {
	mu      sync.RWMutex
	entries map[string]*replayEntry
	ttl     time.Duration
	stop    chan struct{}
}

// NewIdempotencyStore builds a store and starts its expiry sweeper.
// Call Stop to shut it down.
func NewIdempotencyStore(cfg IdempotencyConfig) *IdempotencyStore {
	if cfg.TTL == 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.Cleanup == 0 {
		cfg.Cleanup = time.Hour
	}

	s := &IdempotencyStore{
		entries: make(map[string]*replayEntry),
		ttl:     cfg.TTL,
		stop:    make(chan struct{}),
	}
	go s.sweepLoop(cfg.Cleanup)
	return s
}

// Stop terminates the expiry sweeper.
func (s *IdempotencyStore) Stop() {
	close(s.stop)
}

func (s *IdempotencyStore) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stop:
			return
		}
	}
}

func (s *IdempotencyStore) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for key, e := range s.entries {
		if !e.inFlight && e.expiresAt.Before(now) {
			delete(s.entries, key)
		}
	}
}

// replayKey fingerprints the request so the same Idempotency-Key reused
// for a different call does not replay the wrong response.
func replayKey(userID, clientKey, method, path string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(userID))
	h.Write([]byte(clientKey))
	h.Write([]byte(method))
	h.Write([]byte(path))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// replayRecorder tees the response into a buffer for later replay.
type replayRecorder struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (rr *replayRecorder) WriteHeader(status int) {
	rr.status = status
	rr.ResponseWriter.WriteHeader(status)
}

func (rr *replayRecorder) Write(b []byte) (int, error) {
	rr.body.Write(b)
	return rr.ResponseWriter.Write(b)
}

func writeReplay(w http.ResponseWriter, e *replayEntry) {
	for name, values := range e.headers {
		for _, v := range values {
			w.Header().Add(name, v)
		}
	}
	w.Header().Set("X-Idempotency-Replayed", "true")
	w.WriteHeader(e.status)
	_, _ = w.Write(e.body)
}

// Idempotency replays the stored response for POST/PATCH requests that
// repeat an Idempotency-Key. A duplicate arriving while the original is
// still executing blocks until it finishes, then gets the same answer.
// Requests without the header pass through untouched.
func Idempotency(store *IdempotencyStore) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost && r.Method != http.MethodPatch {
				next.ServeHTTP(w, r)
				return
			}

			clientKey := r.Header.Get("Idempotency-Key")
			if clientKey == "" {
				next.ServeHTTP(w, r)
				return
			}

			userID := GetUserID(r.Context())
			if userID == "" {
				userID = r.RemoteAddr
			}

			// The body participates in the fingerprint; restore it for
			// the handler afterwards.
			body, err := io.ReadAll(r.Body)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			key := replayKey(userID, clientKey, r.Method, r.URL.Path, body)

			store.mu.Lock()
			entry, exists := store.entries[key]

			if exists {
				if entry.inFlight {
					store.mu.Unlock()
					<-entry.done

					store.mu.RLock()
					entry = store.entries[key]
					store.mu.RUnlock()

					if entry != nil && !entry.inFlight {
						writeReplay(w, entry)
						return
					}

					// The entry we waited on is gone or was replaced by
					// another in-flight one; take the first-arrival path,
					// which expects the write lock held.
					store.mu.Lock()
				} else if entry.expiresAt.After(time.Now()) {
					store.mu.Unlock()
					writeReplay(w, entry)
					return
				}
			}

			// First arrival: mark in flight so duplicates wait
			entry = &replayEntry{
				inFlight: true,
				done:     make(chan struct{}),
			}
			store.entries[key] = entry
			store.mu.Unlock()

			rec := &replayRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			store.mu.Lock()
			entry.status = rec.status
			entry.headers = rec.Header().Clone()
			entry.body = rec.body.Bytes()
			entry.expiresAt = time.Now().Add(store.ttl)
			entry.inFlight = false
			close(entry.done)
			store.mu.Unlock()
		})
	}
}
