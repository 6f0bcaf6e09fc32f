// Package ternhttp wraps net/http handlers with error reporting. Each
// request gets its own client bound to the inbound request, panics are
// captured, and in-flight deliveries are flushed before the goroutine
// serving the request retires.
package ternhttp

import (
	"net/http"
	"time"

	"github.com/strongdm/tern/pkg/tern"
)

// defaultFlushTimeout bounds the post-panic wait for event delivery.
const defaultFlushTimeout = 2 * time.Second

// Options configures the middleware.
type Options struct {
	// ClientOptions configures the per-request client. Its Request field is
	// managed by the middleware and must be left unset.
	ClientOptions tern.Options

	// Repanic re-raises a captured panic after reporting, deferring to an
	// outer recovery middleware. When false the middleware answers with a
	// plain 500.
	Repanic bool

	// FlushTimeout bounds the wait for in-flight deliveries when a panic is
	// captured. Zero selects the default of two seconds.
	FlushTimeout time.Duration
}

// Handler is the middleware factory. Works with any chi- or stdlib-style
// middleware chain.
type Handler struct {
	options Options
}

// New constructs the middleware factory.
func New(options Options) *Handler {
	return &Handler{options: options}
}

// Handle wraps next with per-request error reporting. Handler code reaches
// the request's client via tern.FromContext.
func (h *Handler) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientOptions := h.options.ClientOptions
		clientOptions.Request = tern.RequestFromHTTP(r)
		client := tern.NewClient(clientOptions)

		ctx := tern.NewContext(r.Context(), client)

		defer func() {
			if recovered := recover(); recovered != nil {
				client.CaptureException(recovered)
				client.Flush(h.flushTimeout())
				if h.options.Repanic {
					panic(recovered)
				}
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			}
		}()

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) flushTimeout() time.Duration {
	if h.options.FlushTimeout > 0 {
		return h.options.FlushTimeout
	}
	return defaultFlushTimeout
}
