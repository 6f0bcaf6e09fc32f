package tern

import (
	"errors"
	"testing"
	"time"
)

func TestRecover_CapturesPanicValue(t *testing.T) {
	client, transport := newTestClient(t, Options{})

	func() {
		defer Recover(client)
		panic("index corrupted")
	}()

	event := singleEvent(t, client, transport)
	exc := event.Exception.Values[len(event.Exception.Values)-1]
	if exc.Value != "index corrupted" {
		t.Errorf("Value = %q", exc.Value)
	}
}

func TestRecover_PanicWithError(t *testing.T) {
	client, transport := newTestClient(t, Options{})

	func() {
		defer Recover(client)
		panic(errors.New("wrapped failure"))
	}()

	event := singleEvent(t, client, transport)
	exc := event.Exception.Values[len(event.Exception.Values)-1]
	if exc.Value != "wrapped failure" {
		t.Errorf("Value = %q", exc.Value)
	}
	if exc.Mechanism.Synthetic {
		t.Error("panic with a real error is not synthetic")
	}
}

func TestRecover_NoPanicIsNoop(t *testing.T) {
	client, transport := newTestClient(t, Options{})

	func() {
		defer func() {
			if r := Recover(client); r != nil {
				t.Errorf("Recover returned %v without a panic", r)
			}
		}()
	}()

	client.Flush(time.Second)
	if got := len(transport.getPayloads()); got != 0 {
		t.Errorf("wrote %d payloads, want 0", got)
	}
}
