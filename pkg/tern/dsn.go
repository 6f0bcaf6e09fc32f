// dsn.go derives the store endpoint from a DSN credential string of the form
// {scheme}://{publicKey}@{host}[:{port}]/{path}{projectID}.

package tern

import (
	"fmt"
	"net/url"
	"strings"
)

// apiVersion is the store protocol version advertised in the auth params.
const apiVersion = "7"

// storeEndpoint returns the full store URL with URL-encoded auth derived from
// the DSN. An empty or malformed DSN returns an error; callers treat that as
// a disabling condition, not an exception.
func storeEndpoint(dsn string) (string, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("parse dsn: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("dsn has unsupported scheme %q", u.Scheme)
	}
	if u.User == nil || u.User.Username() == "" {
		return "", fmt.Errorf("dsn is missing a public key")
	}
	if u.Host == "" {
		return "", fmt.Errorf("dsn is missing a host")
	}

	path := strings.TrimSuffix(u.Path, "/")
	slash := strings.LastIndex(path, "/")
	projectID := path[slash+1:]
	if projectID == "" {
		return "", fmt.Errorf("dsn is missing a project id")
	}
	prefix := path[:slash+1]

	auth := url.Values{}
	auth.Set("sentry_key", u.User.Username())
	auth.Set("sentry_version", apiVersion)
	auth.Set("sentry_client", sdkName+"/"+sdkVersion)

	return fmt.Sprintf("%s://%s%sapi/%s/store/?%s", u.Scheme, u.Host, prefix, projectID, auth.Encode()), nil
}
