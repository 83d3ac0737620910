package swc

import (
	"net/url"
	"strings"
)

// matches reports whether u falls under the rule's pattern. Matching is
// performed against host + path, ignoring trailing slashes and the query.
//
// Supported patterns:
//   - "api.stripe.com/*" matches the host and any path below it
//   - "api.openai.com/v1/chat/*" matches only chat endpoints
//   - "*" matches everything
//   - "api.example.com/v1/specific" matches exactly
func (r Rule) matches(u *url.URL) bool {
	target := strings.TrimRight(u.Host+u.Path, "/")
	pattern := strings.TrimRight(r.Pattern, "/")

	if prefix, ok := strings.CutSuffix(pattern, "/*"); ok {
		if target == prefix || strings.HasPrefix(target, prefix+"/") {
			return true
		}
	}
	return globMatch(pattern, target)
}

// globMatch matches value against a pattern in which '*' stands for any run
// of characters, including '/'. It backtracks to the most recent star only,
// so it runs in O(len(pattern) * len(value)).
func globMatch(pattern, value string) bool {
	p, v := 0, 0
	star, mark := -1, 0

	for v < len(value) {
		switch {
		case p < len(pattern) && pattern[p] == '*':
			star, mark = p, v
			p++
		case p < len(pattern) && pattern[p] == value[v]:
			p++
			v++
		case star >= 0:
			// Let the last star swallow one more character and retry.
			mark++
			p, v = star+1, mark
		default:
			return false
		}
	}

	for p < len(pattern) && pattern[p] == '*' {
		p++
	}
	return p == len(pattern)
}

// matchRule returns the first rule matching u.
func matchRule(u *url.URL, rules []Rule) (Rule, bool) {
	for _, r := range rules {
		if r.matches(u) {
			return r, true
		}
	}
	return Rule{}, false
}
