// Package ratelimit limits requests per client with a fixed window. Client
// state lives in a bounded ristretto cache, so memory stays flat no matter
// how many distinct clients show up; an evicted client simply starts a new
// window.
package ratelimit

import (
	"fmt"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

// Defaults of the token endpoint.
const (
	DefaultLimit      = 10
	DefaultWindow     = time.Minute
	DefaultMaxClients = 10_000
)

// Config sets the window and the bound on tracked clients.
type Config struct {
	// Limit is the number of requests allowed per window.
	Limit  int
	Window time.Duration
	// MaxClients bounds the number of tracked clients.
	MaxClients int64
}

// Decision is the verdict on one request.
type Decision struct {
	Allowed bool
	// Remaining requests in the current window.
	Remaining int
	// RetryAfter is the time until the window resets, when not allowed.
	RetryAfter time.Duration
}

type window struct {
	start time.Time
	count int
}

// Limiter counts requests per client. It is safe for concurrent use.
type Limiter struct {
	cfg Config

	mu    sync.Mutex
	cache *ristretto.Cache[string, *window]
}

// New creates a Limiter. Zero fields take the defaults.
func New(cfg Config) (*Limiter, error) {
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultLimit
	}
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	if cfg.MaxClients <= 0 {
		cfg.MaxClients = DefaultMaxClients
	}
	cache, err := ristretto.NewCache(&ristretto.Config[string, *window]{
		NumCounters: cfg.MaxClients * 10,
		MaxCost:     cfg.MaxClients,
		BufferItems: 64,
		// Cost counts clients, not bytes.
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("ratelimit: %w", err)
	}
	return &Limiter{cfg: cfg, cache: cache}, nil
}

// Allow records one request of client at now.
func (l *Limiter) Allow(client string, now time.Time) Decision {
	if client == "" {
		client = "anonymous"
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.cache.Get(client)
	if !ok || !now.Before(w.start.Add(l.cfg.Window)) {
		w = &window{start: now}
		// The TTL only reclaims memory; expiry is decided by start.
		l.cache.SetWithTTL(client, w, 1, 2*l.cfg.Window)
		l.cache.Wait()
	}
	if w.count >= l.cfg.Limit {
		return Decision{RetryAfter: w.start.Add(l.cfg.Window).Sub(now)}
	}
	w.count++
	return Decision{Allowed: true, Remaining: l.cfg.Limit - w.count}
}

// Close releases the cache.
func (l *Limiter) Close() {
	l.cache.Close()
}

// ClientIP returns the host part of r.RemoteAddr. Run behind
// middleware.RealIP to honor proxy headers.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Middleware rejects requests over the limit with 429 and a Retry-After
// header.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		dec := l.Allow(ClientIP(r), time.Now())
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.cfg.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(dec.Remaining))
		if !dec.Allowed {
			secs := int(math.Ceil(dec.RetryAfter.Seconds()))
			w.Header().Set("Retry-After", strconv.Itoa(max(secs, 1)))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			fmt.Fprintln(w, `{"error":"Troppi tentativi. Riprova tra un minuto."}`)
			return
		}
		next.ServeHTTP(w, r)
	})
}
