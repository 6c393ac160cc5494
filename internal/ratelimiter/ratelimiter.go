// Package ratelimiter provides token bucket rate limiting for the static
// file server.
//
// Two granularities are offered: RateLimiter is a single shared bucket, and
// PerClient keys independent buckets by client identifier so one noisy
// client cannot starve the others.
package ratelimiter

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// unlimitedRate stands in for "no limit" because rate.Inf interacts badly
// with burst accounting.
const unlimitedRate = 1_000_000_000

// RateLimiter is a single token bucket.
//
// Tokens are added at a constant rate (requests per second) and each request
// consumes one. Burst capacity allows temporary spikes above the sustained
// rate. An empty bucket rejects (Allow) or delays (Wait) requests.
//
// Thread safety:
// All methods are safe for concurrent use.
type RateLimiter struct {
	limiter *rate.Limiter
}

// New creates a RateLimiter with the given sustained rate and burst capacity.
//
// Parameters:
//   - requestsPerSecond: Maximum sustained rate (tokens added per second).
//     Zero disables limiting entirely.
//   - burst: Bucket capacity in tokens; how many requests can be served
//     back to back from a full bucket. Typically >= requestsPerSecond.
func New(requestsPerSecond, burst uint) *RateLimiter {
	if requestsPerSecond == 0 {
		requestsPerSecond = unlimitedRate
		burst = requestsPerSecond
	}

	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), int(burst)),
	}
}

// Allow reports whether a request may proceed, consuming a token if so.
//
// This is the fast path: it never blocks. Use it when over-limit requests
// should be rejected outright (the static server answers 429).
func (r *RateLimiter) Allow() bool {
	return r.limiter.Allow()
}

// Wait blocks until a token is available or the context is cancelled.
//
// Use this to throttle rather than reject. Returns nil once a token was
// acquired, or the context error if ctx expired first.
func (r *RateLimiter) Wait(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}

// PerClient maintains one token bucket per client identifier.
//
// Buckets are created on first use with the configured rate and burst, and
// retired by Purge once a client has been idle long enough. The static
// server keys buckets by client IP.
//
// Thread safety:
// All methods are safe for concurrent use.
type PerClient struct {
	mu                sync.Mutex
	clients           map[string]*clientBucket
	requestsPerSecond uint
	burst             uint
}

type clientBucket struct {
	limiter  *RateLimiter
	lastSeen time.Time
}

// NewPerClient creates a PerClient limiter. Every client gets an independent
// bucket with the given rate and burst; zero requestsPerSecond disables
// limiting for all clients.
func NewPerClient(requestsPerSecond, burst uint) *PerClient {
	return &PerClient{
		clients:           make(map[string]*clientBucket),
		requestsPerSecond: requestsPerSecond,
		burst:             burst,
	}
}

// Allow reports whether a request from the given client may proceed,
// consuming a token from that client's bucket if so. Unknown clients get a
// fresh bucket.
func (p *PerClient) Allow(client string) bool {
	p.mu.Lock()
	bucket, ok := p.clients[client]
	if !ok {
		bucket = &clientBucket{limiter: New(p.requestsPerSecond, p.burst)}
		p.clients[client] = bucket
	}
	bucket.lastSeen = time.Now()
	p.mu.Unlock()

	return bucket.limiter.Allow()
}

// Purge removes buckets for clients idle longer than idleFor and returns how
// many were removed. Callers run this periodically to bound memory under
// churning client populations.
func (p *PerClient) Purge(idleFor time.Duration) int {
	cutoff := time.Now().Add(-idleFor)

	p.mu.Lock()
	defer p.mu.Unlock()

	removed := 0
	for client, bucket := range p.clients {
		if bucket.lastSeen.Before(cutoff) {
			delete(p.clients, client)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked clients.
func (p *PerClient) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.clients)
}
