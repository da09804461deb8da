// Package ratelimit implements a fixed-window per-IP request limiter backed
// by an in-memory TTL cache. Counter keys are salted hashes, so raw IP
// addresses never sit in memory longer than the request that carried them.
package ratelimit

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/ammario/tlru"
)

// Limiter counts requests per client within a fixed time window. A nil
// Limiter allows everything.
type Limiter struct {
	counters *tlru.Cache[string, int]
	secret   string
	max      int
	window   time.Duration
}

// New creates a limiter allowing max requests per window. The cache holds at
// most maxClients distinct counters; beyond that the least recently used are
// evicted, which fails open for the evicted clients.
func New(secret string, max int, window time.Duration) *Limiter {
	const maxClients = 100_000
	return &Limiter{
		counters: tlru.New[string](tlru.ConstantCost[int], maxClients),
		secret:   secret,
		max:      max,
		window:   window,
	}
}

// Check records a request from the given IP and reports whether it is within
// the limit, along with how many requests remain in the current window. Once
// the limit is hit further requests are rejected without extending the
// window.
func (l *Limiter) Check(ip string) (allowed bool, remaining int) {
	if l == nil {
		return true, -1
	}

	key := l.key(ip)

	count, _, ok := l.counters.Get(key)
	if !ok {
		count = 0
	}

	if count >= l.max {
		return false, 0
	}

	l.counters.Set(key, count+1, l.window)
	return true, l.max - (count + 1)
}

// key derives the salted counter key for an IP. The truncated hash keeps the
// cache compact and unlinkable to the address.
func (l *Limiter) key(ip string) string {
	hashed := sha256.Sum256([]byte("ratelimit|" + l.secret + "|" + ip))
	return hex.EncodeToString(hashed[:8])
}
