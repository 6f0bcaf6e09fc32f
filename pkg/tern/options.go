// options.go defines client construction options. Options are immutable
// after construction; the only runtime switch is Client.SetEnabled.

package tern

import (
	"go.uber.org/zap"
)

const (
	sdkName    = "tern"
	sdkVersion = "0.3.0"
)

const (
	// defaultMaxBreadcrumbs is used when MaxBreadcrumbs is left zero.
	defaultMaxBreadcrumbs = 100

	// maxBreadcrumbsCeiling is the absolute maximum; MaxBreadcrumbs cannot
	// exceed it.
	maxBreadcrumbsCeiling = 100
)

// Options configures a Client.
type Options struct {
	// Dsn is the credential string identifying the store endpoint. An empty
	// Dsn is a valid option that disables the client.
	Dsn string

	// Environment tags events with the deployment environment.
	Environment string

	// Release tags events with the application release.
	Release string

	// Debug enables diagnostic logging. Without it the client is silent,
	// including about its own failures.
	Debug bool

	// Logger receives diagnostic output when Debug is set. Defaults to a
	// development logger on stderr.
	Logger *zap.Logger

	// DisableStacktrace turns off stack capture on exception events.
	DisableStacktrace bool

	// MaxBreadcrumbs bounds the breadcrumb ring buffer. Zero means the
	// default of 100; values above the ceiling of 100 are clamped; negative
	// values disable breadcrumb capture.
	MaxBreadcrumbs int

	// AllowedHeaders, AllowedCookies, and AllowedSearchParams control the
	// default request redaction. An unconfigured dimension is dropped
	// entirely, except headers, which fall back to a fixed minimal
	// infra-identifying allowlist.
	AllowedHeaders      Allowlist
	AllowedCookies      Allowlist
	AllowedSearchParams Allowlist

	// AllowedIPs controls whether the connecting IP derived from request
	// headers may be recorded on the event user.
	AllowedIPs Allowlist

	// SampleRate is the legacy rate option: a bool, or a number in [0,1].
	// Invalid values sample everything (fail open). This asymmetry with
	// TracesSampleRate is a preserved compatibility quirk.
	SampleRate any

	// TracesSampleRate is the modern rate option: a bool, or a number in
	// [0,1]. Invalid values sample nothing (fail closed).
	TracesSampleRate any

	// TracesSampler is a predicate consulted before either rate option.
	TracesSampler Sampler

	// BeforeSend transforms the event just before delivery; returning nil
	// drops it. When present it fully supersedes the default allowlist
	// redaction.
	BeforeSend func(event *Event) *Event

	// Transport overrides the default HTTP transport.
	Transport Transport

	// TransportHeaders are merged over the default outbound headers.
	TransportHeaders map[string]string

	// Integrations are appended after the default integration set.
	Integrations []Integration

	// DisableDefaultIntegrations drops the built-in integration set.
	DisableDefaultIntegrations bool

	// Request binds an inbound request snapshot to all events built by this
	// client. Build it with RequestFromHTTP or RequestFromValues.
	Request *Request

	// WaitUntil is the host's deferred-completion hook. When present, every
	// dispatched delivery registers its completion channel so the host keeps
	// the invocation alive until delivery settles. When absent the bare
	// asynchronous dispatch is sufficient.
	WaitUntil func(done <-chan struct{})
}
