// Copyright 2026 The Teleroute Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package interceptor

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	trerrors "github.com/teleroute/teleroute/errors"
	"github.com/teleroute/teleroute/router"
)

// RateLimitOption configures [RateLimit].
type RateLimitOption func(*rateLimiter)

// WithKeyFunc selects the bucket for a request. The default is the client
// IP from RemoteAddr. Requests with an empty key are not limited.
func WithKeyFunc(fn func(*router.Context) string) RateLimitOption {
	return func(l *rateLimiter) { l.key = fn }
}

// WithIdleTTL drops buckets not used for ttl. Default ten minutes.
func WithIdleTTL(ttl time.Duration) RateLimitOption {
	return func(l *rateLimiter) { l.idle = ttl }
}

func withClock(now func() time.Time) RateLimitOption {
	return func(l *rateLimiter) { l.now = now }
}

type bucket struct {
	tokens float64
	last   time.Time
}

type rateLimiter struct {
	rate  float64
	burst float64
	key   func(*router.Context) string
	idle  time.Duration
	now   func() time.Time

	mu      sync.Mutex
	buckets map[string]*bucket
	swept   time.Time
}

// RateLimit applies a token bucket per client: rps tokens per second up to
// burst. Requests without a token get 429 with Retry-After. A burst below
// one uses ceil(rps).
func RateLimit(rps float64, burst int, opts ...RateLimitOption) router.Interceptor {
	l := &rateLimiter{
		rate:    rps,
		burst:   float64(burst),
		key:     clientIP,
		idle:    10 * time.Minute,
		now:     time.Now,
		buckets: make(map[string]*bucket),
	}
	if l.burst < 1 {
		l.burst = math.Max(1, math.Ceil(rps))
	}
	for _, opt := range opts {
		opt(l)
	}
	limit := strconv.Itoa(int(l.burst))

	return func(c *router.Context) error {
		key := l.key(c)
		if key == "" || l.rate <= 0 {
			return nil
		}
		remaining, wait := l.take(key)

		h := c.Response.Header()
		h.Set("X-RateLimit-Limit", limit)
		h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		if wait > 0 {
			h.Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			return trerrors.WithStatus(ErrRateLimited, http.StatusTooManyRequests)
		}
		return nil
	}
}

// take spends one token for key. It returns the tokens left and, when the
// bucket is empty, how long until the next token.
func (l *rateLimiter) take(key string) (int, time.Duration) {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	l.sweep(now)
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: l.burst, last: now}
		l.buckets[key] = b
	}
	b.tokens = math.Min(l.burst, b.tokens+now.Sub(b.last).Seconds()*l.rate)
	b.last = now

	if b.tokens < 1 {
		need := (1 - b.tokens) / l.rate
		return 0, time.Duration(need * float64(time.Second))
	}
	b.tokens--
	return int(b.tokens), 0
}

func (l *rateLimiter) sweep(now time.Time) {
	if l.idle <= 0 || now.Sub(l.swept) < l.idle {
		return
	}
	l.swept = now
	for k, b := range l.buckets {
		if now.Sub(b.last) >= l.idle {
			delete(l.buckets, k)
		}
	}
}

func clientIP(c *router.Context) string {
	host, _, err := net.SplitHostPort(c.Request.RemoteAddr)
	if err != nil {
		return c.Request.RemoteAddr
	}
	return host
}
