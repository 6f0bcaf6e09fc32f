// recover.go provides the Recover helper for standalone panic recovery.
// Use this in goroutines or handlers outside the bundled adapters.

package tern

// Recover captures a panic, reports it through the client, and returns the
// recovered value. Recover does NOT re-panic after reporting.
//
// Recover must be deferred directly; the runtime only honors recover calls
// made by the deferred function itself:
//
//	func handler() {
//	    defer tern.Recover(client)
//	    // code that might panic
//	}
//
// To convert the panic into an error, recover in the deferred function and
// hand the value to CaptureException instead.
func Recover(client *Client) any {
	r := recover()
	if r == nil {
		return nil
	}
	client.CaptureException(r)
	return r
}
