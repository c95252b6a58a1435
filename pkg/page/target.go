package page

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/gobwas/glob"
)

// TargetMatcher decides whether an address is an expected following page
type TargetMatcher struct {
	patterns []glob.Glob
}

// NewTargetMatcher compiles URL glob patterns. "*" does not cross "/"
func NewTargetMatcher(patterns []string) (*TargetMatcher, error) {
	tm := &TargetMatcher{}
	for _, pattern := range patterns {
		g, err := glob.Compile(strings.TrimRight(pattern, "/"), '/')
		if err != nil {
			return nil, fmt.Errorf("invalid target page pattern '%s': %w", pattern, err)
		}
		tm.patterns = append(tm.patterns, g)
	}
	return tm, nil
}

// Match ignores query, fragment and a trailing slash
func (tm *TargetMatcher) Match(address string) bool {
	u, err := url.Parse(address)
	if err != nil {
		return false
	}
	u.RawQuery = ""
	u.Fragment = ""
	candidate := strings.TrimRight(u.String(), "/")

	for _, pattern := range tm.patterns {
		if pattern.Match(candidate) {
			return true
		}
	}
	return false
}
