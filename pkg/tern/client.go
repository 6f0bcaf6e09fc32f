// client.go orchestrates scope state, event construction, redaction, and
// delivery. Every public operation routes through a single guard that makes
// the reporting layer a safe no-op when disabled and swallows internal
// faults, so capture can never be the reason the host request fails.

package tern

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"
)

// eventLogger is the logger name stamped on every event payload.
const eventLogger = "tern"

// Client captures events against a scope stack and hands them to a
// transport. A Client holds all mutable per-invocation state; construct one
// per inbound trigger (or clone a scope per trigger) rather than sharing a
// process-wide instance across concurrent invocations.
type Client struct {
	options Options

	mu       sync.Mutex
	scopes   []*Scope
	enabled  bool
	disabled bool // construction-time: empty or malformed DSN
	request  *Request

	url          string
	transport    Transport
	integrations []Integration
	log          *zap.Logger
	randFloat    func() float64
	pending      sync.WaitGroup
}

// NewClient constructs a client from immutable options. An empty or
// malformed DSN is a valid configuration that yields a permanently disabled
// client; it is never an error.
func NewClient(options Options) *Client {
	log := zap.NewNop()
	if options.Debug {
		if options.Logger != nil {
			log = options.Logger
		} else if dev, err := zap.NewDevelopment(); err == nil {
			log = dev
		}
	}

	c := &Client{
		options:   options,
		scopes:    []*Scope{NewScope()},
		enabled:   true,
		request:   options.Request,
		log:       log,
		randFloat: rand.Float64,
	}

	if options.Dsn == "" {
		c.disabled = true
		c.transport = noopTransport{}
		log.Debug("dsn missing, client is disabled")
	} else if url, err := storeEndpoint(options.Dsn); err != nil {
		c.disabled = true
		c.transport = noopTransport{}
		log.Debug("dsn invalid, client is disabled", zap.Error(err))
	} else {
		c.url = url
		if options.Transport != nil {
			c.transport = options.Transport
		} else {
			c.transport = NewHTTPTransport(url, options.TransportHeaders, log)
		}
		log.Debug("dsn parsed", zap.String("endpoint", url))
	}

	if !options.DisableDefaultIntegrations {
		c.integrations = append(c.integrations, NewLinkedErrors(0))
	}
	c.integrations = append(c.integrations, options.Integrations...)
	for _, integration := range c.integrations {
		c.guard("integration_setup", func() { integration.SetupOnce(c) })
	}

	return c
}

// guard routes an operation through the shared no-throw, no-op-when-disabled
// policy. A panic anywhere inside is logged under debug mode and swallowed.
func (c *Client) guard(op string, fn func()) {
	if c == nil || c.disabled || !c.isEnabled() {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			c.log.Debug("internal fault swallowed", zap.String("op", op), zap.Any("panic", r))
		}
	}()
	fn()
}

func (c *Client) isEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled
}

// SetEnabled is the runtime kill switch. Unlike every other method it is
// honored even while the client is switched off, so it can switch back on.
func (c *Client) SetEnabled(enabled bool) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enabled = enabled
}

// CaptureException captures an arbitrary thrown value (error, plain object,
// or primitive) and schedules it for delivery. Returns the generated event
// id, or the empty string when the event was not scheduled.
func (c *Client) CaptureException(exception any) string {
	var id string
	c.guard("capture_exception", func() {
		c.log.Debug("calling CaptureException")

		primary, serialized, synthetic := buildException(exception, !c.options.DisableStacktrace)
		primary.Mechanism = &Mechanism{Type: "generic", Handled: true, Synthetic: synthetic}
		if serialized != nil {
			c.scope().SetExtra(serializedExtraKey, serialized)
		}

		event := c.buildEvent(
			&Event{
				Level:     LevelError,
				Exception: &ExceptionChain{Values: []Exception{primary}},
			},
			&EventHint{OriginalException: exception},
		)
		if event == nil {
			return
		}
		id = event.EventID
		c.send(event)
	})
	return id
}

// CaptureMessage captures a text message at the given level (info when
// empty) and schedules it for delivery. Returns the generated event id, or
// the empty string when the event was not scheduled.
func (c *Client) CaptureMessage(message string, level Level) string {
	var id string
	c.guard("capture_message", func() {
		c.log.Debug("calling CaptureMessage")

		if level == "" {
			level = LevelInfo
		}
		event := c.buildEvent(&Event{Level: level, Message: message}, &EventHint{})
		if event == nil {
			return
		}
		id = event.EventID
		c.send(event)
	})
	return id
}

// SetTag sets a tag on the current scope.
func (c *Client) SetTag(key, value string) {
	c.guard("set_tag", func() { c.scope().SetTag(key, value) })
}

// SetTags merges tags into the current scope.
func (c *Client) SetTags(tags map[string]string) {
	c.guard("set_tags", func() { c.scope().SetTags(tags) })
}

// SetExtra sets an extra field on the current scope.
func (c *Client) SetExtra(key string, value any) {
	c.guard("set_extra", func() { c.scope().SetExtra(key, value) })
}

// SetExtras merges extra fields into the current scope.
func (c *Client) SetExtras(extra map[string]any) {
	c.guard("set_extras", func() { c.scope().SetExtras(extra) })
}

// SetUser sets the user on the current scope. Passing nil removes it.
func (c *Client) SetUser(user *User) {
	c.guard("set_user", func() { c.scope().SetUser(user) })
}

// SetFingerprint overrides the default grouping for future events.
func (c *Client) SetFingerprint(fingerprint []string) {
	c.guard("set_fingerprint", func() { c.scope().SetFingerprint(fingerprint) })
}

// AddBreadcrumb records a breadcrumb attached to future events.
func (c *Client) AddBreadcrumb(breadcrumb Breadcrumb) {
	c.guard("add_breadcrumb", func() {
		c.scope().AddBreadcrumb(breadcrumb, c.effectiveMaxBreadcrumbs())
	})
}

func (c *Client) effectiveMaxBreadcrumbs() int {
	max := c.options.MaxBreadcrumbs
	if max == 0 {
		max = defaultMaxBreadcrumbs
	}
	if max > maxBreadcrumbsCeiling {
		max = maxBreadcrumbsCeiling
	}
	return max
}

// SetRequestBody sets the request body on the bound request context. Bodies
// are often consumable only once by the host, so they must be captured
// explicitly by the caller and bound late.
func (c *Client) SetRequestBody(body any) {
	c.guard("set_request_body", func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.request != nil {
			c.request.Data = body
		} else {
			c.request = &Request{Data: body}
		}
	})
}

// WithScope clones the current scope, runs the callback against the clone,
// and discards the clone once the callback returns, on every exit path.
// Mutations to the clone never propagate to the parent scope. Capture before
// any await-style suspension: the pop happens when the synchronous portion
// of the callback returns.
func (c *Client) WithScope(callback func(scope *Scope)) {
	c.guard("with_scope", func() {
		scope := c.pushScope()
		defer c.popScope()
		callback(scope)
	})
}

// Flush waits until all in-flight deliveries settle or the timeout elapses.
// Returns false when the timeout was reached first. Hosts without a
// deferred-completion hook call this before retiring the process.
func (c *Client) Flush(timeout time.Duration) bool {
	if c == nil {
		return true
	}

	settled := make(chan struct{})
	go func() {
		c.pending.Wait()
		close(settled)
	}()

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	select {
	case <-settled:
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := c.transport.Flush(ctx); err != nil {
			c.log.Debug("transport flush failed", zap.Error(err))
		}
		return true
	case <-deadline.C:
		return false
	}
}

// scope returns the scope of the top of the stack.
func (c *Client) scope() *Scope {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scopes[len(c.scopes)-1]
}

func (c *Client) pushScope() *Scope {
	c.mu.Lock()
	defer c.mu.Unlock()
	scope := c.scopes[len(c.scopes)-1].Clone()
	c.scopes = append(c.scopes, scope)
	return scope
}

func (c *Client) popScope() {
	c.mu.Lock()
	defer c.mu.Unlock()
	// The root scope is never popped.
	if len(c.scopes) > 1 {
		c.scopes = c.scopes[:len(c.scopes)-1]
	}
}

// buildEvent assembles the final payload: sampling gate, base payload,
// scope application, redaction, event processors. Returns nil when the event
// was skipped or dropped.
func (c *Client) buildEvent(base *Event, hint *EventHint) *Event {
	if !c.sample() {
		c.log.Debug("event skipped by sampling")
		return nil
	}

	event := base
	event.EventID = newEventID()
	event.Timestamp = unixSeconds(time.Now())
	event.Logger = eventLogger
	event.Platform = "go"
	event.Release = c.options.Release
	event.Environment = c.options.Environment
	event.SDK = SDKInfo{Name: sdkName, Version: sdkVersion}

	system := systemContexts()
	if event.Contexts == nil {
		event.Contexts = system
	} else {
		for key, value := range system {
			if _, present := event.Contexts[key]; !present {
				event.Contexts[key] = value
			}
		}
	}

	c.mu.Lock()
	event.Request = c.request.clone()
	c.mu.Unlock()

	scope := c.scope()
	scope.ApplyToEvent(event)

	// The caller's hook has total control: allowlist options are not
	// separately applied when BeforeSend is present.
	if c.options.BeforeSend != nil {
		event = c.options.BeforeSend(event)
	} else {
		c.applyDefaultRedaction(event)
	}
	if event == nil {
		c.log.Debug("event dropped by BeforeSend")
		return nil
	}

	for _, integration := range c.integrations {
		event = integration.ProcessEvent(event, hint, c)
		if event == nil {
			c.log.Debug("event dropped by integration")
			return nil
		}
	}
	for _, processor := range scope.eventProcessors() {
		event = processor(event)
		if event == nil {
			c.log.Debug("event dropped by event processor")
			return nil
		}
	}

	return event
}

// applyDefaultRedaction is the built-in BeforeSend: the configured allowlists
// are applied to the attached request context, and the connecting IP is
// recorded on the user when permitted. Unconfigured dimensions are dropped,
// except headers, which fall back to the fixed minimal allowlist.
func (c *Client) applyDefaultRedaction(event *Event) {
	request := event.Request
	if request == nil {
		return
	}
	o := &c.options

	// Derive the client IP before the headers are trimmed. An IP set
	// explicitly via SetUser is never overwritten.
	if o.AllowedIPs != nil {
		if ip := clientIP(request.Headers); ip != "" && testAllowlist(ip, o.AllowedIPs, c.log) {
			if event.User == nil {
				event.User = &User{}
			}
			if event.User.IPAddress == "" {
				event.User.IPAddress = ip
			}
		}
	}

	if o.AllowedHeaders != nil {
		request.Headers = applyAllowlist(request.Headers, o.AllowedHeaders, c.log)
	} else {
		request.Headers = applyAllowlist(request.Headers, Allowlist(defaultAllowedHeaders), c.log)
	}
	if len(request.Headers) == 0 {
		request.Headers = nil
	}

	if o.AllowedCookies != nil {
		request.Cookies = applyAllowlist(request.Cookies, o.AllowedCookies, c.log)
	} else {
		request.Cookies = nil
	}
	if len(request.Cookies) == 0 {
		request.Cookies = nil
	}

	if o.AllowedSearchParams != nil {
		request.QueryString = filterQueryString(request.QueryString, o.AllowedSearchParams, c.log)
	} else {
		request.QueryString = ""
	}
}

// send serializes the event and dispatches it in the background.
func (c *Client) send(event *Event) {
	body, err := json.Marshal(event)
	if err != nil {
		c.log.Debug("event serialization failed", zap.Error(err))
		return
	}
	c.dispatch(body)
}

// dispatch fires the delivery goroutine and registers its completion with
// the host's deferred-completion hook when one is present, so delivery
// survives past the synchronous response path. Exactly one attempt is made.
func (c *Client) dispatch(body []byte) {
	done := make(chan struct{})
	c.pending.Add(1)
	go func() {
		defer close(done)
		defer c.pending.Done()
		if err := c.transport.Write(context.Background(), body); err != nil {
			c.log.Debug("delivery failed", zap.Error(err))
		}
	}()

	if c.options.WaitUntil != nil {
		c.options.WaitUntil(done)
	}
}
