package tern

import (
	"net/url"
	"strings"
	"testing"
)

func TestStoreEndpoint_Basic(t *testing.T) {
	endpoint, err := storeEndpoint("https://abc123@reports.example.com/42")
	if err != nil {
		t.Fatalf("storeEndpoint returned error: %v", err)
	}
	if !strings.HasPrefix(endpoint, "https://reports.example.com/api/42/store/?") {
		t.Errorf("endpoint = %q", endpoint)
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		t.Fatalf("endpoint does not parse: %v", err)
	}
	q := u.Query()
	if q.Get("sentry_key") != "abc123" {
		t.Errorf("sentry_key = %q", q.Get("sentry_key"))
	}
	if q.Get("sentry_version") != "7" {
		t.Errorf("sentry_version = %q", q.Get("sentry_version"))
	}
	if !strings.HasPrefix(q.Get("sentry_client"), "tern/") {
		t.Errorf("sentry_client = %q", q.Get("sentry_client"))
	}
}

func TestStoreEndpoint_PortAndPathPrefix(t *testing.T) {
	endpoint, err := storeEndpoint("http://key@reports.internal:9000/ingest/7")
	if err != nil {
		t.Fatalf("storeEndpoint returned error: %v", err)
	}
	if !strings.HasPrefix(endpoint, "http://reports.internal:9000/ingest/api/7/store/?") {
		t.Errorf("endpoint = %q", endpoint)
	}
}

func TestStoreEndpoint_Invalid(t *testing.T) {
	cases := []string{
		"",
		"://bad",
		"ftp://key@host/1",
		"https://reports.example.com/42",      // no key
		"https://key@reports.example.com",     // no project
		"https://key@reports.example.com/",    // trailing slash, no project
	}
	for _, dsn := range cases {
		if _, err := storeEndpoint(dsn); err == nil {
			t.Errorf("storeEndpoint(%q) succeeded, want error", dsn)
		}
	}
}
