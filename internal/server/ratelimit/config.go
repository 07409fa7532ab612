package ratelimit

import (
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Environment variables read by LoadConfig.
const (
	EnvEnabled      = "PARTPICKER_RATE_LIMIT_ENABLED"
	EnvDefaultLimit = "PARTPICKER_RATE_LIMIT_DEFAULT_LIMIT"
	EnvWindow       = "PARTPICKER_RATE_LIMIT_WINDOW"
	EnvAllowlist    = "PARTPICKER_RATE_LIMIT_ALLOWLIST"
	EnvDenylist     = "PARTPICKER_RATE_LIMIT_DENYLIST"
)

// Rule limits one endpoint. A Path ending in "/" matches every path below it.
type Rule struct {
	Path   string
	Method string
	// Limit is requests per Window; 0 means unlimited.
	Limit  int
	Window time.Duration
	// Burst defaults to Limit.
	Burst int
}

// Unlimited reports whether the rule lets everything through.
func (r Rule) Unlimited() bool {
	return r.Limit <= 0 || r.Window <= 0
}

func (r Rule) rate() rate.Limit {
	return rate.Limit(float64(r.Limit) / r.Window.Seconds())
}

func (r Rule) burst() int {
	if r.Burst > 0 {
		return r.Burst
	}
	return r.Limit
}

// key shares one bucket between all paths under a prefix rule.
func (r Rule) key(path string) string {
	if r.Path != "" {
		return r.Path
	}
	return path
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	IdleTTL         time.Duration
	CleanupInterval time.Duration
	Allowlist       map[string]bool
	Denylist        map[string]bool
	Rules           []Rule
}

// DefaultConfig returns the limits used when nothing is configured.
func DefaultConfig() *Config {
	return &Config{
		Enabled:         true,
		DefaultLimit:    600,
		DefaultWindow:   time.Minute,
		IdleTTL:         time.Hour,
		CleanupInterval: 5 * time.Minute,
		Allowlist:       map[string]bool{},
		Denylist:        map[string]bool{},
		Rules:           DefaultRules(),
	}
}

// DefaultRules keeps whole-BOM runs, which fan out into many catalog queries, well below
// single resolutions.
func DefaultRules() []Rule {
	return []Rule{
		{Path: "/v1/bom", Method: "POST", Limit: 30, Window: time.Minute, Burst: 5},
		{Path: "/v1/bom/stream", Method: "POST", Limit: 30, Window: time.Minute, Burst: 5},
		{Path: "/v1/resolve", Method: "POST", Limit: 300, Window: time.Minute, Burst: 30},
	}
}

// LoadConfig builds a config from DefaultConfig and the PARTPICKER_RATE_LIMIT_* variables.
// Values that do not parse are ignored.
func LoadConfig(lookup func(string) (string, bool)) *Config {
	cfg := DefaultConfig()
	get := func(key string) string {
		v, _ := lookup(key)
		return strings.TrimSpace(v)
	}

	if v, err := strconv.ParseBool(get(EnvEnabled)); err == nil {
		cfg.Enabled = v
	}
	if v, err := strconv.Atoi(get(EnvDefaultLimit)); err == nil && v >= 0 {
		cfg.DefaultLimit = v
	}
	if v, err := time.ParseDuration(get(EnvWindow)); err == nil && v > 0 {
		cfg.DefaultWindow = v
	}
	cfg.Allowlist = parseClientList(get(EnvAllowlist))
	cfg.Denylist = parseClientList(get(EnvDenylist))
	return cfg
}

// parseClientList parses a comma-separated list of client addresses.
func parseClientList(list string) map[string]bool {
	result := make(map[string]bool)
	for _, ip := range strings.Split(list, ",") {
		if ip = strings.TrimSpace(ip); ip != "" {
			result[ip] = true
		}
	}
	return result
}
