// context.go propagates a request-bound client through Go context.Context,
// so handler code deep in a call tree can report without plumbing the client
// explicitly.

package tern

import "context"

// Context key type (unexported to avoid collisions)
type clientKey struct{}

// NewContext returns a context with the client attached.
func NewContext(ctx context.Context, client *Client) context.Context {
	return context.WithValue(ctx, clientKey{}, client)
}

// FromContext extracts the client from context. Returns nil when none is
// attached; every Client method tolerates a nil receiver, so the result can
// be used without checking.
func FromContext(ctx context.Context) *Client {
	client, _ := ctx.Value(clientKey{}).(*Client)
	return client
}
