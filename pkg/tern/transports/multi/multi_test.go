package multi

import (
	"context"
	"errors"
	"testing"

	"github.com/strongdm/tern/pkg/tern"
)

// recordingTransport tracks calls and optionally fails.
type recordingTransport struct {
	payloads [][]byte
	flushed  int
	closed   int
	writeErr error
	closeErr error
}

func (t *recordingTransport) Write(ctx context.Context, body []byte) error {
	t.payloads = append(t.payloads, body)
	return t.writeErr
}

func (t *recordingTransport) Flush(ctx context.Context) error {
	t.flushed++
	return nil
}

func (t *recordingTransport) Close() error {
	t.closed++
	return t.closeErr
}

func TestMultiTransport_ImplementsTransportInterface(t *testing.T) {
	var _ tern.Transport = NewMultiTransport()
}

func TestMultiTransport_MirrorsToAllDestinations(t *testing.T) {
	a := &recordingTransport{}
	b := &recordingTransport{}
	transport := NewMultiTransport(a, b)

	if err := transport.Write(context.Background(), []byte("{}")); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	if len(a.payloads) != 1 || len(b.payloads) != 1 {
		t.Errorf("payloads = %d/%d, want 1/1", len(a.payloads), len(b.payloads))
	}
}

func TestMultiTransport_ContinuesPastFailures(t *testing.T) {
	failing := &recordingTransport{writeErr: errors.New("broken")}
	healthy := &recordingTransport{}
	transport := NewMultiTransport(failing, healthy)

	err := transport.Write(context.Background(), []byte("{}"))
	if err == nil {
		t.Fatal("Write swallowed the failure")
	}
	if len(healthy.payloads) != 1 {
		t.Error("healthy destination was skipped after a failure")
	}
}

func TestMultiTransport_RoutesCheckInsToDedicatedDestination(t *testing.T) {
	events := &recordingTransport{}
	monitors := &recordingTransport{}
	transport := NewMultiTransport(events).RouteCheckIns(monitors)

	checkIn := []byte(`{"check_in_id":"abc123","monitor_slug":"nightly","status":"ok"}`)
	event := []byte(`{"event_id":"def456","message":"boom"}`)

	if err := transport.Write(context.Background(), checkIn); err != nil {
		t.Fatalf("Write check-in returned error: %v", err)
	}
	if err := transport.Write(context.Background(), event); err != nil {
		t.Fatalf("Write event returned error: %v", err)
	}

	if len(monitors.payloads) != 1 || string(monitors.payloads[0]) != string(checkIn) {
		t.Errorf("check-in destination got %d payloads, want the check-in only", len(monitors.payloads))
	}
	if len(events.payloads) != 1 || string(events.payloads[0]) != string(event) {
		t.Errorf("event destination got %d payloads, want the event only", len(events.payloads))
	}
}

func TestMultiTransport_CheckInsMirrorWithoutRoute(t *testing.T) {
	a := &recordingTransport{}
	b := &recordingTransport{}
	transport := NewMultiTransport(a, b)

	checkIn := []byte(`{"check_in_id":"abc123","monitor_slug":"nightly","status":"ok"}`)
	if err := transport.Write(context.Background(), checkIn); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	if len(a.payloads) != 1 || len(b.payloads) != 1 {
		t.Errorf("payloads = %d/%d, want 1/1", len(a.payloads), len(b.payloads))
	}
}

func TestMultiTransport_FlushAndCloseReachAll(t *testing.T) {
	a := &recordingTransport{closeErr: errors.New("close failed")}
	b := &recordingTransport{}
	monitors := &recordingTransport{}
	transport := NewMultiTransport(a, b).RouteCheckIns(monitors)

	if err := transport.Flush(context.Background()); err != nil {
		t.Fatalf("Flush returned error: %v", err)
	}
	if a.flushed != 1 || b.flushed != 1 || monitors.flushed != 1 {
		t.Errorf("flushed = %d/%d/%d, want 1/1/1", a.flushed, b.flushed, monitors.flushed)
	}

	if err := transport.Close(); err == nil {
		t.Fatal("Close swallowed the failure")
	}
	if a.closed != 1 || b.closed != 1 || monitors.closed != 1 {
		t.Errorf("closed = %d/%d/%d, want 1/1/1", a.closed, b.closed, monitors.closed)
	}
}

func TestMultiTransport_EmptyIsNoop(t *testing.T) {
	transport := NewMultiTransport()
	if err := transport.Write(context.Background(), []byte("{}")); err != nil {
		t.Errorf("Write returned %v", err)
	}
	if err := transport.Close(); err != nil {
		t.Errorf("Close returned %v", err)
	}
}
