package ratelimit

import "strings"

// unlimitedRule covers probes and scrapes.
var unlimitedRule = Rule{}

// Match returns the rule for a request, or nil when the default applies. Exact paths win
// over prefixes; /health and /metrics are never limited.
func Match(path, method string, rules []Rule) *Rule {
	if method == "GET" && (path == "/health" || path == "/metrics") {
		r := unlimitedRule
		return &r
	}

	for i := range rules {
		if rules[i].Path == path && rules[i].Method == method {
			return &rules[i]
		}
	}
	for i := range rules {
		r := &rules[i]
		if r.Method == method && strings.HasSuffix(r.Path, "/") && strings.HasPrefix(path, r.Path) {
			return r
		}
	}
	return nil
}
