// transport.go delivers serialized payloads to the store endpoint.

package tern

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Transport is the destination for serialized payloads. Implementations must
// be safe for concurrent use.
type Transport interface {
	// Write delivers one payload. One attempt, no retry; the caller treats
	// any outcome as "attempted".
	Write(ctx context.Context, body []byte) error

	// Flush ensures any buffered payloads are delivered. For synchronous
	// transports this may be a no-op.
	Flush(ctx context.Context) error

	// Close releases resources held by the transport.
	Close() error
}

// maxResponseBytes bounds how much of the store's response body is read for
// diagnostics.
const maxResponseBytes = 1 << 10

const defaultRequestTimeout = 30 * time.Second

// HTTPTransport posts payloads to the store endpoint.
type HTTPTransport struct {
	url     string
	headers map[string]string
	client  *http.Client
	log     *zap.Logger
}

// NewHTTPTransport creates the standard store-endpoint transport. The given
// headers are merged over the default content and identity headers.
func NewHTTPTransport(url string, headers map[string]string, log *zap.Logger) *HTTPTransport {
	merged := map[string]string{
		"Content-Type": "application/json",
		"User-Agent":   sdkName + "/" + sdkVersion,
	}
	for k, v := range headers {
		merged[k] = v
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &HTTPTransport{
		url:     url,
		headers: merged,
		client:  &http.Client{Timeout: defaultRequestTimeout},
		log:     log,
	}
}

// Write posts the payload. Any non-2xx status is reported as an error; the
// response is consumed only for diagnostics. Rate-limit headers are logged,
// not enforced.
func (t *HTTPTransport) Write(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build store request: %w", err)
	}
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("post to store endpoint: %w", err)
	}
	defer resp.Body.Close()

	responseBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	t.log.Debug("store endpoint responded",
		zap.Int("status", resp.StatusCode),
		zap.String("body", string(responseBody)),
		zap.String("retry_after", resp.Header.Get("Retry-After")),
		zap.String("rate_limits", resp.Header.Get("X-Sentry-Rate-Limits")),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("store endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// Flush is a no-op; Write is synchronous.
func (t *HTTPTransport) Flush(ctx context.Context) error {
	return nil
}

// Close is a no-op.
func (t *HTTPTransport) Close() error {
	return nil
}

// noopTransport discards all payloads. Used by disabled clients.
type noopTransport struct{}

func (noopTransport) Write(ctx context.Context, body []byte) error { return nil }
func (noopTransport) Flush(ctx context.Context) error              { return nil }
func (noopTransport) Close() error                                 { return nil }
