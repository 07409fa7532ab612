package ratelimit

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is advanced by hand so that refills are deterministic.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestLimiter(t *testing.T, cfg *Config) (*Limiter, *fakeClock) {
	t.Helper()
	cfg.CleanupInterval = 0
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	l := NewLimiter(cfg)
	l.now = clock.Now
	t.Cleanup(l.Stop)
	return l, clock
}

func TestLimiter_BurstThenDeny(t *testing.T) {
	l, _ := newTestLimiter(t, &Config{
		Enabled: true,
		Rules:   []Rule{{Path: "/v1/bom", Method: "POST", Limit: 60, Window: time.Minute, Burst: 3}},
	})

	for i := 0; i < 3; i++ {
		info := l.Allow("10.0.0.1", "/v1/bom", "POST")
		require.True(t, info.Allowed, "request %d", i+1)
		assert.Equal(t, 60, info.Limit)
		assert.Equal(t, 2-i, info.Remaining)
	}

	info := l.Allow("10.0.0.1", "/v1/bom", "POST")
	assert.False(t, info.Allowed)
	assert.Equal(t, 0, info.Remaining)
	assert.Equal(t, time.Second, info.RetryAfter)
}

func TestLimiter_Refill(t *testing.T) {
	l, clock := newTestLimiter(t, &Config{
		Enabled: true,
		Rules:   []Rule{{Path: "/v1/bom", Method: "POST", Limit: 60, Window: time.Minute, Burst: 1}},
	})

	require.True(t, l.Allow("c", "/v1/bom", "POST").Allowed)
	require.False(t, l.Allow("c", "/v1/bom", "POST").Allowed)

	clock.Advance(time.Second)
	assert.True(t, l.Allow("c", "/v1/bom", "POST").Allowed)
	assert.False(t, l.Allow("c", "/v1/bom", "POST").Allowed)
}

func TestLimiter_ResetTime(t *testing.T) {
	l, clock := newTestLimiter(t, &Config{
		Enabled: true,
		Rules:   []Rule{{Path: "/v1/bom", Method: "POST", Limit: 60, Window: time.Minute, Burst: 10}},
	})

	var info Info
	for i := 0; i < 5; i++ {
		info = l.Allow("c", "/v1/bom", "POST")
	}
	assert.Equal(t, 5, info.Remaining)
	assert.Equal(t, clock.Now().Add(5*time.Second), info.ResetTime)
}

func TestLimiter_SeparateBuckets(t *testing.T) {
	l, _ := newTestLimiter(t, &Config{
		Enabled: true,
		Rules:   []Rule{{Path: "/v1/bom", Method: "POST", Limit: 60, Window: time.Minute, Burst: 1}},
	})

	assert.True(t, l.Allow("a", "/v1/bom", "POST").Allowed)
	assert.True(t, l.Allow("b", "/v1/bom", "POST").Allowed, "clients do not share buckets")
	assert.False(t, l.Allow("a", "/v1/bom", "POST").Allowed)
	assert.Equal(t, 2, l.Len())
}

func TestLimiter_DefaultRule(t *testing.T) {
	l, _ := newTestLimiter(t, &Config{Enabled: true, DefaultLimit: 2, DefaultWindow: time.Hour})

	assert.True(t, l.Allow("c", "/v1/parts/C1", "GET").Allowed)
	assert.True(t, l.Allow("c", "/v1/parts/C1", "GET").Allowed)
	info := l.Allow("c", "/v1/parts/C1", "GET")
	assert.False(t, info.Allowed)
	assert.Equal(t, 2, info.Limit)

	assert.True(t, l.Allow("c", "/v1/parts/C2", "GET").Allowed, "default buckets are per path")
}

func TestLimiter_UnlimitedAndLists(t *testing.T) {
	l, _ := newTestLimiter(t, &Config{
		Enabled:       true,
		DefaultLimit:  1,
		DefaultWindow: time.Hour,
		Allowlist:     map[string]bool{"trusted": true},
		Denylist:      map[string]bool{"blocked": true},
	})

	for i := 0; i < 5; i++ {
		assert.True(t, l.Allow("c", "/health", "GET").Allowed)
		assert.True(t, l.Allow("c", "/metrics", "GET").Allowed)
		assert.True(t, l.Allow("trusted", "/v1/resolve", "POST").Allowed)
	}
	assert.False(t, l.Allow("blocked", "/health", "POST").Allowed)
	assert.Equal(t, 0, l.Len())
}

func TestLimiter_Disabled(t *testing.T) {
	l, _ := newTestLimiter(t, &Config{Enabled: false, DefaultLimit: 1, DefaultWindow: time.Hour})
	for i := 0; i < 10; i++ {
		assert.True(t, l.Allow("c", "/v1/bom", "POST").Allowed)
	}
}

func TestLimiter_Sweep(t *testing.T) {
	l, clock := newTestLimiter(t, &Config{Enabled: true, DefaultLimit: 10, DefaultWindow: time.Minute, IdleTTL: time.Hour})

	l.Allow("old", "/v1/resolve", "POST")
	clock.Advance(2 * time.Hour)
	l.Allow("new", "/v1/resolve", "POST")
	require.Equal(t, 2, l.Len())

	l.sweep()
	assert.Equal(t, 1, l.Len())
}

func TestLimiter_Concurrent(t *testing.T) {
	l, _ := newTestLimiter(t, &Config{Enabled: true, DefaultLimit: 50, DefaultWindow: time.Hour})

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Allow("c", "/v1/resolve", "POST").Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, allowed)
}

func TestLimiter_StopTwice(t *testing.T) {
	l := NewLimiter(&Config{Enabled: true, CleanupInterval: time.Millisecond})
	assert.NotPanics(t, func() {
		l.Stop()
		l.Stop()
	})
}

func TestMatch(t *testing.T) {
	rules := []Rule{
		{Path: "/v1/bom", Method: "POST", Limit: 1, Window: time.Minute},
		{Path: "/v1/parts/", Method: "GET", Limit: 2, Window: time.Minute},
	}

	tests := []struct {
		path, method string
		wantLimit    int
		wantNil      bool
	}{
		{"/v1/bom", "POST", 1, false},
		{"/v1/bom", "GET", 0, true},
		{"/v1/parts/C25744", "GET", 2, false},
		{"/v1/resolve", "POST", 0, true},
		{"/health", "GET", 0, false},
		{"/metrics", "GET", 0, false},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s %s", tt.method, tt.path), func(t *testing.T) {
			got := Match(tt.path, tt.method, rules)
			if tt.wantNil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.wantLimit, got.Limit)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	env := map[string]string{
		EnvEnabled:      "true",
		EnvDefaultLimit: "42",
		EnvWindow:       "30s",
		EnvAllowlist:    " 10.0.0.1, ,10.0.0.2",
	}
	cfg := LoadConfig(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})

	assert.True(t, cfg.Enabled)
	assert.Equal(t, 42, cfg.DefaultLimit)
	assert.Equal(t, 30*time.Second, cfg.DefaultWindow)
	assert.Equal(t, map[string]bool{"10.0.0.1": true, "10.0.0.2": true}, cfg.Allowlist)
	assert.Empty(t, cfg.Denylist)
	assert.Equal(t, DefaultRules(), cfg.Rules)
}

func TestLoadConfig_BadValuesKeepDefaults(t *testing.T) {
	env := map[string]string{EnvEnabled: "maybe", EnvDefaultLimit: "-3", EnvWindow: "soon"}
	cfg := LoadConfig(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})

	def := DefaultConfig()
	assert.Equal(t, def.Enabled, cfg.Enabled)
	assert.Equal(t, def.DefaultLimit, cfg.DefaultLimit)
	assert.Equal(t, def.DefaultWindow, cfg.DefaultWindow)
}
