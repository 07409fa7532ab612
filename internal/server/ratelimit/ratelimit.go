// Package ratelimit throttles API clients with one token bucket per client, endpoint and method.
package ratelimit

import (
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Info describes the bucket state after a request was checked.
type Info struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetTime  time.Time
	RetryAfter time.Duration
}

type bucket struct {
	limiter  *rate.Limiter
	rule     Rule
	lastSeen time.Time
}

// Limiter hands out buckets on demand and forgets the ones that sat idle longer than
// Config.IdleTTL.
type Limiter struct {
	config *Config
	now    func() time.Time

	mu      sync.Mutex
	buckets map[string]*bucket

	stopOnce sync.Once
	stop     chan struct{}
}

// NewLimiter creates a limiter. A nil config means DefaultConfig().
func NewLimiter(config *Config) *Limiter {
	if config == nil {
		config = DefaultConfig()
	}
	l := &Limiter{
		config:  config,
		now:     time.Now,
		buckets: make(map[string]*bucket),
		stop:    make(chan struct{}),
	}
	if config.Enabled && config.CleanupInterval > 0 {
		go l.cleanupLoop(config.CleanupInterval)
	}
	return l
}

// Allow consumes one token for the request if one is available.
func (l *Limiter) Allow(clientID, path, method string) Info {
	if !l.config.Enabled || l.config.Allowlist[clientID] {
		return Info{Allowed: true}
	}
	if l.config.Denylist[clientID] {
		return Info{}
	}

	rule := Match(path, method, l.config.Rules)
	if rule == nil {
		rule = &Rule{Limit: l.config.DefaultLimit, Window: l.config.DefaultWindow}
	}
	if rule.Unlimited() {
		return Info{Allowed: true}
	}

	now := l.now()
	b := l.bucket(clientID+":"+method+":"+rule.key(path), *rule, now)

	allowed := b.limiter.AllowN(now, 1)
	tokens := b.limiter.TokensAt(now)
	perSecond := float64(b.limiter.Limit())

	info := Info{
		Allowed:   allowed,
		Limit:     rule.Limit,
		Remaining: max(0, int(math.Floor(tokens))),
		ResetTime: now.Add(secondsToDuration((float64(rule.burst()) - tokens) / perSecond)),
	}
	if !allowed {
		info.RetryAfter = secondsToDuration((1 - tokens) / perSecond)
	}
	return info
}

func (l *Limiter) bucket(key string, rule Rule, now time.Time) *bucket {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rule.rate(), rule.burst()), rule: rule}
		l.buckets[key] = b
	}
	b.lastSeen = now
	return b
}

// Len returns the number of live buckets.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

func (l *Limiter) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.sweep()
		case <-l.stop:
			return
		}
	}
}

// sweep drops buckets not used within IdleTTL.
func (l *Limiter) sweep() {
	cutoff := l.now().Add(-l.config.IdleTTL)

	l.mu.Lock()
	defer l.mu.Unlock()
	for key, b := range l.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(l.buckets, key)
		}
	}
}

// Stop ends the cleanup goroutine. It is safe to call more than once.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

func secondsToDuration(s float64) time.Duration {
	if s <= 0 {
		return 0
	}
	return time.Duration(s * float64(time.Second))
}
