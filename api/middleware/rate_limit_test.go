package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

type fakeLimiterStore struct {
	mu     sync.Mutex
	counts map[string]int64
	err    error
}

func newFakeLimiterStore() *fakeLimiterStore {
	return &fakeLimiterStore{counts: make(map[string]int64)}
}

func (s *fakeLimiterStore) IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[key]++
	return s.counts[key], nil
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimitBlocksIPOverLimit(t *testing.T) {
	policy := NewRateLimitPolicy("payments", time.Minute, 2, 0)
	store := newFakeLimiterStore()
	handler := RateLimit(policy, store, nil)(okHandler())

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/stripe/pix", nil)
		req.RemoteAddr = "203.0.113.7:4411"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d expected 200 got %d", i+1, rec.Code)
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/stripe/pix", nil)
	req.RemoteAddr = "203.0.113.7:4411"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 got %d", rec.Code)
	}
}

func TestRateLimitSeparatesIPs(t *testing.T) {
	policy := NewRateLimitPolicy("payments", time.Minute, 1, 0)
	store := newFakeLimiterStore()
	handler := RateLimit(policy, store, nil)(okHandler())

	first := httptest.NewRequest(http.MethodPost, "/x", nil)
	first.RemoteAddr = "198.51.100.1:1000"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, first)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}

	other := httptest.NewRequest(http.MethodPost, "/x", nil)
	other.RemoteAddr = "198.51.100.2:1000"
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, other)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for distinct ip got %d", rec.Code)
	}
}

func TestRateLimitCountsAuthenticatedUser(t *testing.T) {
	policy := NewRateLimitPolicy("payments", time.Minute, 0, 1)
	store := newFakeLimiterStore()
	handler := RateLimit(policy, store, nil)(okHandler())

	userID := "7f8c6f9a-52a1-4b36-a6f7-0b1c9a4be111"
	makeReq := func(ip string) *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/x", nil)
		req.RemoteAddr = ip
		return req.WithContext(WithUserID(req.Context(), userID))
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, makeReq("198.51.100.1:1000"))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}

	// Same user from a different address still counts against the user limit.
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, makeReq("198.51.100.9:1000"))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 got %d", rec.Code)
	}
}

func TestRateLimitUsesForwardedForHeader(t *testing.T) {
	policy := NewRateLimitPolicy("payments", time.Minute, 1, 0)
	store := newFakeLimiterStore()
	handler := RateLimit(policy, store, nil)(okHandler())

	for i, want := range []int{http.StatusOK, http.StatusTooManyRequests} {
		req := httptest.NewRequest(http.MethodPost, "/x", nil)
		req.RemoteAddr = fmt.Sprintf("10.0.0.%d:99", i+1)
		req.Header.Set("X-Forwarded-For", "203.0.113.50, 10.0.0.1")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != want {
			t.Fatalf("request %d expected %d got %d", i+1, want, rec.Code)
		}
	}
}

func TestRateLimitDisabledPolicyPassesThrough(t *testing.T) {
	handler := RateLimit(RateLimitPolicy{}, newFakeLimiterStore(), nil)(okHandler())
	req := httptest.NewRequest(http.MethodPost, "/x", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
}

func TestRateLimitStoreFailureReturnsDependencyError(t *testing.T) {
	policy := NewRateLimitPolicy("payments", time.Minute, 1, 0)
	store := newFakeLimiterStore()
	store.err = fmt.Errorf("redis down")
	handler := RateLimit(policy, store, nil)(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/x", nil)
	req.RemoteAddr = "198.51.100.1:1000"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", rec.Code)
	}
}
