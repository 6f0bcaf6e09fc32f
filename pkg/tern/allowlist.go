// allowlist.go implements fail-closed key filtering for redacted request
// dimensions (headers, cookies, query parameters, client IPs).

package tern

import (
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// Allowlist selects which entries of a redacted dimension survive. Accepted
// shapes:
//
//   - bool: true keeps everything, false drops everything
//   - []string: explicit keys, matched case-insensitively
//   - *regexp.Regexp: pattern tested against each lowercased key
//
// Any other non-nil value fails closed: a warning is logged and the dimension
// is dropped entirely. A nil Allowlist means "not configured" and is subject
// to the caller's default policy.
type Allowlist any

// applyAllowlist returns a new map holding only the allowed entries, keyed by
// the lowercased key. A malformed allowlist yields an empty map; it never
// defaults to "keep all".
func applyAllowlist(target map[string]string, allowlist Allowlist, log *zap.Logger) map[string]string {
	var predicate func(string) bool

	switch spec := allowlist.(type) {
	case bool:
		if spec {
			return copyStringMap(target)
		}
		return map[string]string{}
	case *regexp.Regexp:
		if spec == nil {
			return map[string]string{}
		}
		predicate = spec.MatchString
	case []string:
		lowered := loweredSet(spec)
		predicate = func(key string) bool {
			_, ok := lowered[key]
			return ok
		}
	default:
		log.Warn("allowlist must be a bool, []string, or *regexp.Regexp")
		return map[string]string{}
	}

	allowed := make(map[string]string)
	for key, value := range target {
		lowerKey := strings.ToLower(key)
		if predicate(lowerKey) {
			allowed[lowerKey] = value
		}
	}
	return allowed
}

// testAllowlist reports whether a single value passes the allowlist. Used for
// scalar dimensions such as the client IP.
func testAllowlist(target string, allowlist Allowlist, log *zap.Logger) bool {
	switch spec := allowlist.(type) {
	case bool:
		return spec
	case *regexp.Regexp:
		return spec != nil && spec.MatchString(target)
	case []string:
		_, ok := loweredSet(spec)[strings.ToLower(target)]
		return ok
	default:
		log.Warn("allowlist must be a bool, []string, or *regexp.Regexp")
		return false
	}
}

func loweredSet(keys []string) map[string]struct{} {
	set := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		set[strings.ToLower(key)] = struct{}{}
	}
	return set
}
