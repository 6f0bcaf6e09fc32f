// request.go converts inbound requests into redacted request-context records.

package tern

import (
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

// defaultAllowedHeaders is the fixed minimal header allowlist applied when no
// explicit header option is given: infra-identifying headers only.
var defaultAllowedHeaders = []string{"x-request-id", "x-amzn-trace-id"}

// clientIPHeaders are consulted in order when deriving the connecting IP.
var clientIPHeaders = []string{"x-forwarded-for", "x-real-ip", "cf-connecting-ip"}

// RequestFromHTTP builds the full (unredacted) request record from a standard
// library request. Allowlists are applied later, at event build time.
func RequestFromHTTP(r *http.Request) *Request {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}

	headers := make(map[string]string, len(r.Header))
	for key := range r.Header {
		headers[key] = r.Header.Get(key)
	}

	return RequestFromValues(r.Method, scheme+"://"+r.Host+r.URL.RequestURI(), headers)
}

// RequestFromValues builds the full request record from raw trigger values.
// Cookies are parsed from the cookie header; the cookie header itself is
// excluded from the headers map. A URL that fails standard parsing degrades
// to a manual split on the first '?' rather than erroring.
func RequestFromValues(method, rawURL string, headers map[string]string) *Request {
	r := &Request{Method: method}

	var cookieHeader string
	r.Headers = make(map[string]string, len(headers))
	for key, value := range headers {
		if strings.EqualFold(key, "cookie") {
			cookieHeader = value
			continue
		}
		r.Headers[key] = value
	}

	if cookieHeader != "" {
		r.Cookies = parseCookies(cookieHeader)
	}

	if parsed, err := url.Parse(rawURL); err == nil && parsed.Host != "" {
		r.URL = parsed.Scheme + "://" + parsed.Host + parsed.Path
		r.QueryString = parsed.RawQuery
	} else if qi := strings.Index(rawURL, "?"); qi >= 0 {
		r.URL = rawURL[:qi]
		r.QueryString = rawURL[qi+1:]
	} else {
		r.URL = rawURL
	}

	return r
}

// parseCookies converts a cookie header into a map. Malformed entries are
// skipped; a malformed string degrades to "no cookies" rather than erroring.
func parseCookies(raw string) map[string]string {
	cookies := make(map[string]string)
	for _, part := range strings.Split(raw, ";") {
		name, value, found := strings.Cut(part, "=")
		if !found {
			continue
		}
		name = strings.TrimSpace(name)
		value = strings.TrimSpace(value)
		if name == "" {
			continue
		}
		if unescaped, err := url.QueryUnescape(value); err == nil {
			value = unescaped
		}
		cookies[name] = value
	}
	if len(cookies) == 0 {
		return nil
	}
	return cookies
}

// clientIP derives the connecting IP from the request headers.
func clientIP(headers map[string]string) string {
	lowered := make(map[string]string, len(headers))
	for key, value := range headers {
		lowered[strings.ToLower(key)] = value
	}
	for _, header := range clientIPHeaders {
		if value := lowered[header]; value != "" {
			// x-forwarded-for may carry a proxy chain; the client is first.
			ip, _, _ := strings.Cut(value, ",")
			return strings.TrimSpace(ip)
		}
	}
	return ""
}

// filterQueryString parses the query string into pairs, filters keys through
// the allowlist, and reconstructs a canonical query string holding only the
// allowed pairs, in the order their keys were first encountered.
func filterQueryString(query string, allowlist Allowlist, log *zap.Logger) string {
	if query == "" {
		return ""
	}

	params := make(map[string]string)
	var order []string
	for _, part := range strings.Split(query, "&") {
		if part == "" {
			continue
		}
		key, value, _ := strings.Cut(part, "=")
		if unescaped, err := url.QueryUnescape(key); err == nil {
			key = unescaped
		}
		if unescaped, err := url.QueryUnescape(value); err == nil {
			value = unescaped
		}
		lowerKey := strings.ToLower(key)
		if _, seen := params[lowerKey]; !seen {
			order = append(order, lowerKey)
		}
		params[lowerKey] = value
	}

	allowed := applyAllowlist(params, allowlist, log)

	var b strings.Builder
	for _, key := range order {
		value, ok := allowed[key]
		if !ok {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(value))
	}
	return b.String()
}
