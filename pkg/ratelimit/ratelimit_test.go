package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestLimiter(t *testing.T, cfg Config) *Limiter {
	t.Helper()
	l, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(l.Close)
	return l
}

func TestAllowWindow(t *testing.T) {
	l := newTestLimiter(t, Config{})
	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)

	for i := range DefaultLimit {
		dec := l.Allow("1.2.3.4", now.Add(time.Duration(i)*time.Second))
		if !dec.Allowed {
			t.Fatalf("request %d rejected", i+1)
		}
		if dec.Remaining != DefaultLimit-i-1 {
			t.Errorf("request %d remaining = %d", i+1, dec.Remaining)
		}
	}
	dec := l.Allow("1.2.3.4", now.Add(30*time.Second))
	if dec.Allowed {
		t.Fatal("11th request allowed")
	}
	if dec.RetryAfter != 30*time.Second {
		t.Errorf("RetryAfter = %v", dec.RetryAfter)
	}

	if !l.Allow("5.6.7.8", now.Add(30*time.Second)).Allowed {
		t.Error("other client limited")
	}
	if !l.Allow("1.2.3.4", now.Add(time.Minute)).Allowed {
		t.Error("request after window rejected")
	}
}

func TestMiddleware(t *testing.T) {
	l := newTestLimiter(t, Config{Limit: 2})
	h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	do := func(addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/realtime/token", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}
	for range 2 {
		if rec := do("10.0.0.1:5000"); rec.Code != http.StatusNoContent {
			t.Fatalf("status = %d", rec.Code)
		}
	}
	rec := do("10.0.0.1:5001")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After")
	}
	if rec := do("10.0.0.2:5000"); rec.Code != http.StatusNoContent {
		t.Errorf("other client status = %d", rec.Code)
	}
}

func TestClientIP(t *testing.T) {
	tests := map[string]string{
		"1.2.3.4:80":   "1.2.3.4",
		"[::1]:8080":   "::1",
		"no-port-here": "no-port-here",
	}
	for addr, want := range tests {
		r := &http.Request{RemoteAddr: addr}
		if got := ClientIP(r); got != want {
			t.Errorf("ClientIP(%q) = %q, want %q", addr, got, want)
		}
	}
}
