// Package queue decouples event capture from delivery latency. Payloads are
// buffered in a bounded ring and a single background worker feeds them to the
// wrapped transport, so a slow store endpoint never stalls the invocation
// that captured the event. When the ring is full the oldest payload is
// evicted; fresh events are worth more than stale ones.
package queue

import (
	"context"
	"errors"
	"sync"

	"github.com/strongdm/tern/pkg/tern"
)

// defaultCapacity bounds the ring when no explicit capacity is given.
const defaultCapacity = 1000

// Option configures a queue transport.
type Option func(*QueueTransport)

// WithCapacity bounds the number of buffered payloads. Non-positive values
// keep the default of 1000.
func WithCapacity(n int) Option {
	return func(t *QueueTransport) {
		if n > 0 {
			t.capacity = n
		}
	}
}

// WithDropHandler installs a callback invoked once per payload evicted from
// a full ring. Useful for surfacing sustained backpressure in the host's own
// telemetry.
func WithDropHandler(fn func(count int)) Option {
	return func(t *QueueTransport) {
		t.onDropped = fn
	}
}

// QueueTransport buffers payloads ahead of a wrapped transport. All methods
// are safe for concurrent use; delivery order within the ring is FIFO.
type QueueTransport struct {
	inner     tern.Transport
	capacity  int
	onDropped func(count int)

	mu        sync.Mutex
	cond      *sync.Cond
	ring      [][]byte
	inFlight  bool
	closed    bool
	closeOnce sync.Once
	workerRet chan struct{}
}

// NewQueueTransport wraps inner with a bounded delivery ring. The background
// worker starts immediately and runs until Close.
func NewQueueTransport(inner tern.Transport, opts ...Option) *QueueTransport {
	t := &QueueTransport{
		inner:     inner,
		capacity:  defaultCapacity,
		workerRet: make(chan struct{}),
	}
	t.cond = sync.NewCond(&t.mu)
	for _, opt := range opts {
		opt(t)
	}

	go t.deliver()
	return t
}

// Write buffers one payload and returns without waiting for delivery. A full
// ring evicts its oldest payload to make room. Fails only when the transport
// is already closed or the caller's context is already done.
func (t *QueueTransport) Write(ctx context.Context, body []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return errors.New("queue transport is closed")
	}

	if len(t.ring) >= t.capacity {
		t.ring = t.ring[1:]
		if t.onDropped != nil {
			t.onDropped(1)
		}
	}
	t.ring = append(t.ring, body)
	t.cond.Broadcast()
	return nil
}

// deliver is the single worker loop. It drains the ring one payload at a
// time, releasing the lock around each inner write, and exits only once the
// transport is closed and the ring is empty, so Close never abandons
// buffered payloads.
func (t *QueueTransport) deliver() {
	defer close(t.workerRet)

	for {
		t.mu.Lock()
		for len(t.ring) == 0 && !t.closed {
			t.cond.Wait()
		}
		if len(t.ring) == 0 {
			t.mu.Unlock()
			return
		}
		body := t.ring[0]
		t.ring = t.ring[1:]
		t.inFlight = true
		t.mu.Unlock()

		// One attempt per payload, same as direct delivery.
		_ = t.inner.Write(context.Background(), body)

		t.mu.Lock()
		t.inFlight = false
		t.cond.Broadcast()
		t.mu.Unlock()
	}
}

// Flush blocks until every buffered payload has been handed to the inner
// transport, then flushes it, or returns the context's error if the deadline
// wins. Pairs with the client's Flush contract: settled means attempted, not
// accepted.
func (t *QueueTransport) Flush(ctx context.Context) error {
	drained := make(chan struct{})
	go func() {
		t.mu.Lock()
		for len(t.ring) > 0 || t.inFlight {
			t.cond.Wait()
		}
		t.mu.Unlock()
		close(drained)
	}()

	select {
	case <-drained:
		return t.inner.Flush(ctx)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close rejects further writes, waits for the worker to drain the ring, and
// closes the inner transport. Safe to call more than once and safe to race
// with in-flight Write calls.
func (t *QueueTransport) Close() error {
	t.closeOnce.Do(func() {
		t.mu.Lock()
		t.closed = true
		t.cond.Broadcast()
		t.mu.Unlock()
		<-t.workerRet
	})
	return t.inner.Close()
}
