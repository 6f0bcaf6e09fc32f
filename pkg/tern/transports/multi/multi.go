// Package multi mirrors deliveries across several destinations, for setups
// that both report to the store endpoint and keep a local copy (stderr, a
// file, a side channel). Monitor check-ins can be split off to their own
// destination so heartbeat traffic stays out of the event mirrors.
package multi

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/strongdm/tern/pkg/tern"
)

// MultiTransport delivers every event payload to each configured destination.
// A failing destination never shields the others; the errors come back joined
// so the caller sees all of them.
type MultiTransport struct {
	destinations []tern.Transport
	checkIns     tern.Transport
}

// NewMultiTransport mirrors payloads across destinations. With none
// configured every method is a no-op.
func NewMultiTransport(destinations ...tern.Transport) *MultiTransport {
	return &MultiTransport{destinations: destinations}
}

// RouteCheckIns sends monitor check-in payloads to dst instead of the event
// destinations. Returns the receiver so routing can be chained onto
// construction.
func (t *MultiTransport) RouteCheckIns(dst tern.Transport) *MultiTransport {
	t.checkIns = dst
	return t
}

// Write mirrors body to every event destination, or hands it to the check-in
// route when one is configured and the payload is a monitor check-in.
func (t *MultiTransport) Write(ctx context.Context, body []byte) error {
	if t.checkIns != nil && isCheckIn(body) {
		return t.checkIns.Write(ctx, body)
	}
	return t.each(func(dst tern.Transport) error {
		return dst.Write(ctx, body)
	})
}

// Flush flushes every destination, the check-in route included.
func (t *MultiTransport) Flush(ctx context.Context) error {
	err := t.each(func(dst tern.Transport) error {
		return dst.Flush(ctx)
	})
	if t.checkIns != nil {
		err = errors.Join(err, t.checkIns.Flush(ctx))
	}
	return err
}

// Close closes every destination, the check-in route included.
func (t *MultiTransport) Close() error {
	err := t.each(func(dst tern.Transport) error {
		return dst.Close()
	})
	if t.checkIns != nil {
		err = errors.Join(err, t.checkIns.Close())
	}
	return err
}

// each applies op to every event destination, continuing past failures and
// joining whatever errors came back.
func (t *MultiTransport) each(op func(tern.Transport) error) error {
	var errs []error
	for _, dst := range t.destinations {
		if err := op(dst); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// isCheckIn reports whether body carries a monitor check-in rather than an
// event. Check-in payloads are the only ones with a check_in_id field.
func isCheckIn(body []byte) bool {
	var head struct {
		CheckInID string `json:"check_in_id"`
	}
	if err := json.Unmarshal(body, &head); err != nil {
		return false
	}
	return head.CheckInID != ""
}
