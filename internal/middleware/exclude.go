package middleware

import (
	"fmt"
	"regexp"
)

// DefaultExcludePatterns covers the endpoints that generate noise but no
// operational insight: probes, generated API docs, and browser icon fetches.
// Patterns match against the full request URL, so `.+/live` excludes /live
// under any prefix.
var DefaultExcludePatterns = []string{
	`.+/live`,
	`.+/ready`,
	`.+/healthcheck`,
	`.+/docs`,
	`.+/openapi.json`,
	`.+/favicon.ico`,
}

// ExclusionSet decides whether a request URL is exempt from interception.
// Patterns are regular expressions matched from the start of the URL string;
// a match anywhere past the first byte does not count, but the pattern does
// not need to consume the whole URL.
//
// The set is immutable after construction and safe for concurrent use.
type ExclusionSet struct {
	patterns []*regexp.Regexp
}

// NewExclusionSet compiles the given patterns. A nil or empty slice yields a
// set that matches nothing.
func NewExclusionSet(patterns []string) (*ExclusionSet, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		// Anchor at the start; partial match past the pattern is fine.
		re, err := regexp.Compile(`^(?:` + p + `)`)
		if err != nil {
			return nil, fmt.Errorf("exclude pattern %q: %w", p, err)
		}
		compiled = append(compiled, re)
	}
	return &ExclusionSet{patterns: compiled}, nil
}

// MustExclusionSet is NewExclusionSet for known-good pattern lists.
func MustExclusionSet(patterns []string) *ExclusionSet {
	s, err := NewExclusionSet(patterns)
	if err != nil {
		panic(err)
	}
	return s
}

// Match reports whether any pattern matches the URL. Linear in the number of
// patterns; the set is small and static so nothing smarter is needed.
func (s *ExclusionSet) Match(url string) bool {
	if s == nil {
		return false
	}
	for _, re := range s.patterns {
		if re.MatchString(url) {
			return true
		}
	}
	return false
}
