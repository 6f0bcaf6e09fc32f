// Package stderr provides a transport that prints event payloads to stderr
// in human-readable form. Useful for development and debugging.
package stderr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/strongdm/tern/pkg/tern"
)

// StderrTransportOption configures the stderr transport.
type StderrTransportOption func(*stderrTransportConfig)

type stderrTransportConfig struct {
	verbose bool
}

// WithVerbose enables full payload output including stack traces.
func WithVerbose() StderrTransportOption {
	return func(c *stderrTransportConfig) {
		c.verbose = true
	}
}

// stderrTransport writes payloads to stderr in human-readable form.
type stderrTransport struct {
	verbose bool
}

// NewStderrTransport creates a transport that writes to stderr.
func NewStderrTransport(opts ...StderrTransportOption) tern.Transport {
	cfg := &stderrTransportConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	return &stderrTransport{
		verbose: cfg.verbose,
	}
}

// Write formats and outputs the payload to stderr.
func (t *stderrTransport) Write(ctx context.Context, body []byte) error {
	if t.verbose {
		var indented bytes.Buffer
		if err := json.Indent(&indented, body, "", "  "); err == nil {
			fmt.Fprintf(os.Stderr, "[TERN] %s\n", indented.String())
			return nil
		}
		fmt.Fprintf(os.Stderr, "[TERN] %s\n", body)
		return nil
	}

	// Summary line: [TERN] <event_id> <level> <headline>
	var event struct {
		EventID   string `json:"event_id"`
		Level     string `json:"level"`
		Message   string `json:"message"`
		Exception *struct {
			Values []struct {
				Type  string `json:"type"`
				Value string `json:"value"`
			} `json:"values"`
		} `json:"exception"`
	}
	if err := json.Unmarshal(body, &event); err != nil {
		fmt.Fprintf(os.Stderr, "[TERN] %s\n", body)
		return nil
	}

	headline := event.Message
	if event.Exception != nil && len(event.Exception.Values) > 0 {
		// The primary exception is the last chain entry.
		primary := event.Exception.Values[len(event.Exception.Values)-1]
		headline = fmt.Sprintf("%s: %s", primary.Type, primary.Value)
	}

	level := strings.ToUpper(event.Level)
	fmt.Fprintf(os.Stderr, "[TERN] %s %s %s\n", event.EventID, level, headline)
	return nil
}

// Flush is a no-op for stderr transport.
func (t *stderrTransport) Flush(ctx context.Context) error {
	return nil
}

// Close is a no-op for stderr transport.
func (t *stderrTransport) Close() error {
	return nil
}
