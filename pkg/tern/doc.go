// Package tern provides lightweight error and event reporting for
// request-scoped serverless runtimes.
//
// tern captures exceptions and messages raised while handling an inbound
// request or scheduled trigger, enriches them with contextual data (user,
// tags, extra fields, breadcrumbs, request metadata), applies allowlist-based
// redaction, and delivers them to a remote store endpoint without blocking or
// breaking the host request/response cycle.
//
// # Core Components
//
//   - Client: per-invocation facade that builds events and hands them to a Transport
//   - Scope: mutable contextual state (tags, extra, user, breadcrumbs, fingerprint)
//   - Transport: destination for serialized payloads (HTTP store endpoint, multi, queue, stderr)
//   - Allowlist: fail-closed inclusion policy for headers, cookies, and query parameters
//   - Integration: per-event processing plugin, any of which may veto delivery
//
// # Quick Start
//
// For a plain HTTP server, bind a fresh client per request:
//
//	handler := ternhttp.New(ternhttp.Options{
//	    ClientOptions: tern.Options{Dsn: os.Getenv("TERN_DSN")},
//	}).Handle(mux)
//
// For standalone usage:
//
//	client := tern.NewClient(tern.Options{Dsn: dsn, Environment: "production"})
//	defer tern.Recover(client)
//	client.SetTag("job", "nightly-sync")
//	client.CaptureMessage("sync started", tern.LevelInfo)
//
// # Design Principles
//
//   - Capture never aborts the host request: all internal faults are swallowed
//     and surfaced only through debug logging
//   - Fail-closed redaction: a malformed allowlist drops the dimension entirely
//   - No process-wide mutable state: all contextual state lives in a Scope
//     owned by one invocation's client
package tern
